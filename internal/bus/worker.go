package bus

import (
	"context"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/book"
	"main/internal/model"
	"main/internal/obs"
	"main/pkg/exception"
)

// Worker drains one queue into one book, making it the book's single
// writer. Errors are counted and logged; a sequence gap leaves the book
// desynchronized until the feed publishes a fresh snapshot.
type Worker struct {
	queue   *Queue
	book    *book.OrderBook
	metrics *obs.Metrics
}

// NewWorker binds a queue to a book.
func NewWorker(queue *Queue, b *book.OrderBook, metrics *obs.Metrics) *Worker {
	return &Worker{queue: queue, book: b, metrics: metrics}
}

// Book returns the owned book for query access.
func (w *Worker) Book() *book.OrderBook { return w.book }

// Publish hands an event to the worker without blocking.
func (w *Worker) Publish(ev model.Event) error {
	err := w.queue.TryPublish(ev)
	switch {
	case errors.Is(err, ErrQueueFull):
		w.metrics.IncQueueDrop()
	case errors.Is(err, ErrQueueClosed):
		w.metrics.IncQueueClosed()
	}
	return err
}

// Close stops the worker's queue.
func (w *Worker) Close() {
	w.queue.Close()
}

// Run applies queued events in arrival order until the context ends.
func (w *Worker) Run(ctx context.Context) {
	w.queue.Run(ctx, w.apply)
}

func (w *Worker) apply(ev model.Event) {
	start := time.Now()
	var err error
	switch e := ev.(type) {
	case model.OrderBookSnapshot:
		if err = w.book.ApplySnapshot(e); err == nil {
			w.metrics.IncSnapshot()
		}
	case model.OrderBookDelta:
		if err = w.book.ApplyDelta(e); err == nil {
			w.metrics.IncDelta()
		}
	case model.OrderBookDeltas:
		if err = w.book.ApplyDeltas(e); err == nil {
			w.metrics.IncBatch()
		}
	default:
		err = exception.ErrMalformedEvent
	}
	w.metrics.ObserveApply(time.Since(start))
	w.metrics.ObserveFeed(ev.EventTime(), ev.InitTime())

	if err == nil {
		return
	}
	switch {
	case errors.Is(err, exception.ErrSequenceGap):
		w.metrics.IncSequenceGap()
		logs.Errorf("sequence gap on %s at update_id %d, awaiting snapshot", ev.Instrument(), ev.Sequence())
	case errors.Is(err, exception.ErrStaleBook):
		w.metrics.IncStaleReject()
	case errors.Is(err, exception.ErrUnknownOrder):
		w.metrics.IncUnknownOrder()
		logs.Errorf("unknown order on %s at update_id %d: %+v", ev.Instrument(), ev.Sequence(), err)
	default:
		w.metrics.IncMalformedEvent()
		logs.Errorf("rejected event on %s: %+v", ev.Instrument(), err)
	}
}
