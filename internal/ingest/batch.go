package ingest

import (
	"log/slog"
	"time"
)

// DefaultQuiescence is how long the entry source must stay quiet before a
// batch is considered settled.
const DefaultQuiescence = 250 * time.Millisecond

// Batcher coalesces bursts of ingestion events into build cycles. It polls
// the source with a quiescence timeout, resetting on every event; a timeout
// with a non-empty batch seals it onto the builds channel, a timeout with an
// empty batch just re-arms. Sealing hands the batch to the build executor
// without waiting for the build itself, so ingestion keeps running while
// cycles are in flight.
type Batcher struct {
	Quiescence time.Duration
}

// NewBatcher returns a batcher with the given quiescence window.
func NewBatcher(quiescence time.Duration) *Batcher {
	return &Batcher{Quiescence: quiescence}
}

// Run consumes events until the source closes, sealing settled batches onto
// builds. On source exhaustion the final partial batch is sealed and builds
// is closed, letting the executor drain and finish.
func (b *Batcher) Run(source <-chan Event, builds chan<- []Event) {
	quiescence := b.Quiescence
	if quiescence <= 0 {
		quiescence = DefaultQuiescence
	}

	defer close(builds)
	for {
		var batch []Event
		slog.Info("waiting for changes")

		timer := time.NewTimer(quiescence)
	gather:
		for {
			select {
			case ev, ok := <-source:
				if !ok {
					timer.Stop()
					if len(batch) > 0 {
						builds <- batch
					}
					slog.Info("entry source exhausted")
					return
				}
				batch = append(batch, ev)
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(quiescence)
			case <-timer.C:
				if len(batch) > 0 {
					builds <- batch
					break gather
				}
				timer.Reset(quiescence)
			}
		}
	}
}
