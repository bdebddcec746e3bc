package relay

import (
	"log"
	"time"
)

// Reporter periodically logs hub occupancy.
// It runs as a background goroutine so operators can follow connection
// churn without scraping the stats endpoint.
type Reporter struct {
	hub      *Hub
	interval time.Duration
	stopChan chan struct{}
}

// NewReporter creates a new occupancy reporter.
func NewReporter(hub *Hub, interval time.Duration) *Reporter {
	return &Reporter{
		hub:      hub,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the background reporting loop.
// This method runs in its own goroutine and should be called with 'go'.
func (r *Reporter) Start() {
	log.Printf("[Relay] Occupancy reporter started (interval: %v)", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			log.Printf("[Relay] Connected clients: %d", r.hub.ClientCount())
		case <-r.stopChan:
			log.Println("[Relay] Occupancy reporter stopped")
			return
		}
	}
}

// Stop shuts down the reporter.
func (r *Reporter) Stop() {
	close(r.stopChan)
}
