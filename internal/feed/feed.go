// Package feed is the adapter boundary between venue wire formats and
// the book event model. Translators turn already-received payload bytes
// into snapshots and delta batches with strictly increasing update ids;
// transport, retries and resync policy stay with the caller.
package feed

import (
	"context"

	"main/internal/model"
)

// Sink consumes translated book events. A bus worker is the usual sink;
// a failed publish is the producer's signal to surface a gap.
type Sink interface {
	Publish(ev model.Event) error
}

// Producer emits snapshots and delta batches for one instrument with
// update_id strictly increasing per instrument and book type.
type Producer interface {
	Run(ctx context.Context, sink Sink) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ev model.Event) error

func (f SinkFunc) Publish(ev model.Event) error { return f(ev) }
