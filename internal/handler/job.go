package handler

import "time"

// EvictionInterval is how often the run loop checks the pending-command
// table for entries that have exceeded the command timeout. It mirrors
// the ticker-driven style of grantcarthew/webctl's heartbeat job, stripped
// of everything specific to reconnection.
const EvictionInterval = 5 * time.Second

// evictionJob is a ticker the run loop polls alongside its other input
// channels, rather than blocking on it, so a tick never holds up message
// or connection processing.
type evictionJob struct {
	ticker *time.Ticker
}

func newEvictionJob(interval time.Duration) *evictionJob {
	return &evictionJob{ticker: time.NewTicker(interval)}
}

func (j *evictionJob) C() <-chan time.Time {
	return j.ticker.C
}

func (j *evictionJob) Stop() {
	j.ticker.Stop()
}
