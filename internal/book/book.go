package book

import (
	"sync"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

// Status is the synchronization state of a book.
type Status uint8

const (
	// StatusUninitialized means no snapshot or delta has been applied.
	StatusUninitialized Status = iota
	// StatusSynchronized means the watermark is established and consistent.
	StatusSynchronized
	// StatusDesynchronized means a sequence gap was detected; only a fresh
	// snapshot resynchronizes the book.
	StatusDesynchronized
)

func (s Status) String() string {
	switch s {
	case StatusSynchronized:
		return "SYNCHRONIZED"
	case StatusDesynchronized:
		return "DESYNCHRONIZED"
	default:
		return "UNINITIALIZED"
	}
}

// ChangeHandler receives one notification per successfully applied
// event, synchronously on the applying goroutine.
type ChangeHandler func(ev model.Event)

// bookState is everything a mutation touches. Batches stage a copy and
// commit it wholesale, so a failed batch leaves the book untouched.
type bookState struct {
	bids        *Ladder
	asks        *Ladder
	pxPrecision uint8
	szPrecision uint8
	calibrated  bool
}

func (st *bookState) clone() bookState {
	cp := *st
	cp.bids = st.bids.clone()
	cp.asks = st.asks.clone()
	return cp
}

// OrderBook is the per-instrument maintained state machine. One logical
// stream owns all mutations; concurrent readers are isolated by the
// RWMutex, so a query never observes a partially applied event.
type OrderBook struct {
	mu sync.RWMutex

	instrumentID model.InstrumentID
	bookType     enum.BookType

	st           bookState
	lastUpdateID uint64
	status       Status
	handlers     []ChangeHandler
}

// New creates an empty book for an instrument and granularity.
func New(instrumentID model.InstrumentID, bookType enum.BookType) *OrderBook {
	return &OrderBook{
		instrumentID: instrumentID,
		bookType:     bookType,
		st: bookState{
			bids: NewLadder(enum.SideBuy),
			asks: NewLadder(enum.SideSell),
		},
	}
}

// NewFromSnapshot creates a book initialized from a snapshot.
func NewFromSnapshot(s model.OrderBookSnapshot) (*OrderBook, error) {
	b := New(s.InstrumentID, s.BookType)
	if err := b.ApplySnapshot(s); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *OrderBook) Instrument() model.InstrumentID { return b.instrumentID }
func (b *OrderBook) Book() enum.BookType            { return b.bookType }

// Status returns the synchronization state.
func (b *OrderBook) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// LastUpdateID returns the consistency watermark.
func (b *OrderBook) LastUpdateID() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastUpdateID
}

// OnChange registers a change handler. Handlers run synchronously after
// each successfully applied event, outside the book's lock.
func (b *OrderBook) OnChange(h ChangeHandler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.handlers = append(b.handlers, h)
	b.mu.Unlock()
}

// ApplySnapshot replaces both sides wholesale and establishes the
// watermark. It always succeeds on a well-formed snapshot regardless of
// prior state: the snapshot is the universal resync mechanism.
func (b *OrderBook) ApplySnapshot(s model.OrderBookSnapshot) error {
	b.mu.Lock()
	if err := b.matchEvent(s.InstrumentID, s.BookType); err != nil {
		b.mu.Unlock()
		return err
	}

	st := bookState{
		bids:        NewLadder(enum.SideBuy),
		asks:        NewLadder(enum.SideSell),
		pxPrecision: b.st.pxPrecision,
		szPrecision: b.st.szPrecision,
		calibrated:  b.st.calibrated,
	}
	if err := loadSide(&st, st.bids, s.Bids); err != nil {
		b.mu.Unlock()
		return err
	}
	if err := loadSide(&st, st.asks, s.Asks); err != nil {
		b.mu.Unlock()
		return err
	}

	b.st = st
	b.lastUpdateID = s.UpdateID
	b.status = StatusSynchronized
	handlers := b.handlers
	b.mu.Unlock()

	b.notify(handlers, s)
	return nil
}

// ApplyDelta applies one delta. The update id must be the immediate
// successor of the watermark; a gap desynchronizes the book.
func (b *OrderBook) ApplyDelta(d model.OrderBookDelta) error {
	b.mu.Lock()
	if err := b.matchEvent(d.InstrumentID, d.BookType); err != nil {
		b.mu.Unlock()
		return err
	}
	if err := d.Validate(); err != nil {
		b.mu.Unlock()
		return err
	}
	if b.status == StatusDesynchronized {
		b.mu.Unlock()
		return exception.ErrStaleBook
	}
	if d.UpdateID != b.lastUpdateID+1 {
		b.status = StatusDesynchronized
		b.mu.Unlock()
		return exception.ErrSequenceGap
	}

	if err := applyAction(&b.st, b.bookType, d); err != nil {
		b.mu.Unlock()
		return err
	}

	b.lastUpdateID = d.UpdateID
	b.status = StatusSynchronized
	handlers := b.handlers
	b.mu.Unlock()

	b.notify(handlers, d)
	return nil
}

// ApplyDeltas applies a batch atomically: the deltas run strictly in
// sequence order against a staged copy, and a failure at any position
// leaves the book exactly as it was.
func (b *OrderBook) ApplyDeltas(batch model.OrderBookDeltas) error {
	b.mu.Lock()
	if err := b.matchEvent(batch.InstrumentID, batch.BookType); err != nil {
		b.mu.Unlock()
		return err
	}
	if len(batch.Deltas) == 0 {
		b.mu.Unlock()
		return exception.ErrEmptyBatch
	}
	if b.status == StatusDesynchronized {
		b.mu.Unlock()
		return exception.ErrStaleBook
	}
	if batch.UpdateID != b.lastUpdateID+1 {
		b.status = StatusDesynchronized
		b.mu.Unlock()
		return exception.ErrSequenceGap
	}

	staged := b.st.clone()
	for _, d := range batch.Deltas {
		if err := d.Validate(); err != nil {
			b.mu.Unlock()
			return err
		}
		if err := applyAction(&staged, b.bookType, d); err != nil {
			b.mu.Unlock()
			return err
		}
	}

	b.st = staged
	b.lastUpdateID = batch.UpdateID
	b.status = StatusSynchronized
	handlers := b.handlers
	b.mu.Unlock()

	b.notify(handlers, batch)
	return nil
}

// BestBid returns the top bid level, or false when the side is empty.
func (b *OrderBook) BestBid() (model.BookLevel, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	lvl, ok := b.st.bids.Best()
	if !ok {
		return model.BookLevel{}, false
	}
	return lvl.Snapshot(), true
}

// BestAsk returns the top ask level, or false when the side is empty.
func (b *OrderBook) BestAsk() (model.BookLevel, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	lvl, ok := b.st.asks.Best()
	if !ok {
		return model.BookLevel{}, false
	}
	return lvl.Snapshot(), true
}

// Spread returns best ask minus best bid, or false when either side is
// empty.
func (b *OrderBook) Spread() (model.Price, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bid, okBid := b.st.bids.Best()
	ask, okAsk := b.st.asks.Best()
	if !okBid || !okAsk {
		return model.Price{}, false
	}
	spread, err := ask.price.Sub(bid.price)
	if err != nil {
		return model.Price{}, false
	}
	return spread, true
}

// MidPrice returns the midpoint of the top of book at one extra
// fractional digit, or false when either side is empty.
func (b *OrderBook) MidPrice() (model.Price, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bid, okBid := b.st.bids.Best()
	ask, okAsk := b.st.asks.Best()
	if !okBid || !okAsk {
		return model.Price{}, false
	}
	mid, err := bid.price.Midpoint(ask.price)
	if err != nil {
		return model.Price{}, false
	}
	return mid, true
}

// Depth returns the first n levels of a side in priority order; fewer
// when the side is shallower, all levels when n <= 0.
func (b *OrderBook) Depth(side enum.Side, n int) []model.BookLevel {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ladder(side).Depth(n)
}

// OrdersAt returns the resting queue at an exact price in priority
// order (L3 books).
func (b *OrderBook) OrdersAt(side enum.Side, price model.Price) ([]model.BookOrder, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	lvl, ok := b.ladder(side).level(price)
	if !ok {
		return nil, false
	}
	return lvl.Orders(), true
}

func (b *OrderBook) ladder(side enum.Side) *Ladder {
	if side == enum.SideBuy {
		return b.st.bids
	}
	return b.st.asks
}

func (b *OrderBook) matchEvent(instrumentID model.InstrumentID, bookType enum.BookType) error {
	if instrumentID != b.instrumentID {
		return exception.ErrInstrumentMismatch
	}
	if bookType != b.bookType {
		return exception.ErrBookTypeMismatch
	}
	return nil
}

func (b *OrderBook) notify(handlers []ChangeHandler, ev model.Event) {
	for _, h := range handlers {
		h(ev)
	}
}

// loadSide fills a fresh ladder from snapshot levels. Snapshot
// construction already validated the side ordering.
func loadSide(st *bookState, ladder *Ladder, levels []model.BookLevel) error {
	for _, lvl := range levels {
		if err := calibrate(st, lvl.Price, lvl.Size); err != nil {
			return err
		}
		ladder.getOrCreate(lvl.Price).setSize(lvl.Size)
	}
	return nil
}

// calibrate pins the book's price and size precision to the first
// applied values and rejects any later drift. Precision is fixed per
// instrument, so every event must agree.
func calibrate(st *bookState, price model.Price, size model.Size) error {
	if !st.calibrated {
		st.pxPrecision = price.Precision
		st.szPrecision = size.Precision
		st.calibrated = true
		return nil
	}
	if price.Precision != st.pxPrecision || size.Precision != st.szPrecision {
		return exception.ErrPrecisionMismatch
	}
	return nil
}

// applyAction mutates state for one delta. Validation runs before any
// mutation, so a returned error implies an untouched state: a rejected
// action also rolls back the precision pin it may have established.
func applyAction(st *bookState, bookType enum.BookType, d model.OrderBookDelta) error {
	if d.Action == enum.ActionClear {
		st.bids.clear()
		st.asks.clear()
		return nil
	}

	pxPrec, szPrec, calibrated := st.pxPrecision, st.szPrecision, st.calibrated
	if err := calibrate(st, d.Order.Price, d.Order.Size); err != nil {
		return err
	}

	ladder := st.bids
	if d.Order.Side == enum.SideSell {
		ladder = st.asks
	}

	var err error
	if bookType == enum.BookTypeL3 {
		err = applyOrderLevel(ladder, d.Action, d.Order)
	} else {
		err = applyAggregateLevel(ladder, d.Action, d.Order)
	}
	if err != nil {
		st.pxPrecision, st.szPrecision, st.calibrated = pxPrec, szPrec, calibrated
	}
	return err
}

// applyOrderLevel is the L3 path: individual orders with price-time
// priority.
func applyOrderLevel(ladder *Ladder, action enum.BookAction, o model.BookOrder) error {
	switch action {
	case enum.ActionAdd:
		ladder.getOrCreate(o.Price).enqueue(o)
		return nil

	case enum.ActionUpdate:
		lvl, idx, ok := ladder.findOrder(o.ID)
		if !ok {
			return exception.ErrUnknownOrder
		}
		if lvl.price.Mantissa == o.Price.Mantissa {
			// Price unchanged: size replaced in place, priority kept.
			lvl.resize(idx, o.Size)
			return nil
		}
		// Price moved: the order loses its queue position and re-arrives
		// at the back of the new level.
		lvl.unlink(idx)
		ladder.dropIfEmpty(lvl.price)
		ladder.getOrCreate(o.Price).enqueue(o)
		return nil

	case enum.ActionDelete:
		lvl, idx, ok := ladder.findOrder(o.ID)
		if !ok {
			return exception.ErrUnknownOrder
		}
		lvl.unlink(idx)
		ladder.dropIfEmpty(lvl.price)
		return nil

	default:
		return exception.ErrMalformedEvent
	}
}

// applyAggregateLevel is the L1/L2 path: one aggregate size per price.
func applyAggregateLevel(ladder *Ladder, action enum.BookAction, o model.BookOrder) error {
	switch action {
	case enum.ActionAdd:
		ladder.getOrCreate(o.Price).addSize(o.Size)
		return nil

	case enum.ActionUpdate:
		lvl, ok := ladder.level(o.Price)
		if !ok {
			return exception.ErrUnknownOrder
		}
		if o.Size.IsZero() {
			ladder.removeLevel(o.Price)
			return nil
		}
		lvl.setSize(o.Size)
		return nil

	case enum.ActionDelete:
		// A DELETE clears the whole price, never a partial size.
		if !ladder.removeLevel(o.Price) {
			return exception.ErrUnknownOrder
		}
		return nil

	default:
		return exception.ErrMalformedEvent
	}
}
