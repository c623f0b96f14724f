package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

func instrument() model.InstrumentID {
	return model.NewInstrumentID("BTCUSDT", "BINANCE")
}

func price(t *testing.T, s string) model.Price {
	t.Helper()
	p, err := model.PriceFromString(s)
	require.NoError(t, err)
	return p
}

func size(t *testing.T, s string) model.Size {
	t.Helper()
	v, err := model.SizeFromString(s)
	require.NoError(t, err)
	return v
}

func level(t *testing.T, px, sz string) model.BookLevel {
	t.Helper()
	return model.BookLevel{Price: price(t, px), Size: size(t, sz)}
}

func snapshotAt(t *testing.T, updateID uint64, bids, asks []model.BookLevel) model.OrderBookSnapshot {
	t.Helper()
	s, err := model.NewOrderBookSnapshot(instrument(), enum.BookTypeL2, bids, asks, updateID, 100, 200)
	require.NoError(t, err)
	return s
}

func delta(t *testing.T, action enum.BookAction, side enum.Side, px, sz string, updateID uint64) model.OrderBookDelta {
	t.Helper()
	order := model.NewBookOrder(price(t, px), size(t, sz), side)
	d, err := model.NewOrderBookDelta(instrument(), enum.BookTypeL2, action, order, updateID, 100, 200)
	require.NoError(t, err)
	return d
}

func l3delta(t *testing.T, action enum.BookAction, side enum.Side, px, sz, id string, updateID uint64) model.OrderBookDelta {
	t.Helper()
	order := model.NewBookOrderWithID(price(t, px), size(t, sz), side, model.OrderID(id))
	d, err := model.NewOrderBookDelta(instrument(), enum.BookTypeL3, action, order, updateID, 100, 200)
	require.NoError(t, err)
	return d
}

func standardBook(t *testing.T) *OrderBook {
	t.Helper()
	b, err := NewFromSnapshot(snapshotAt(t, 5,
		[]model.BookLevel{level(t, "1010", "2"), level(t, "1009", "1")},
		[]model.BookLevel{level(t, "1020", "2"), level(t, "1021", "1")},
	))
	require.NoError(t, err)
	return b
}

func TestSnapshotEstablishesTopOfBook(t *testing.T) {
	b := standardBook(t)

	assert.Equal(t, StatusSynchronized, b.Status())
	assert.Equal(t, uint64(5), b.LastUpdateID())

	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, "1010", bid.Price.String())
	assert.Equal(t, "2", bid.Size.String())

	ask, ok := b.BestAsk()
	require.True(t, ok)
	assert.Equal(t, "1020", ask.Price.String())
	assert.Equal(t, "2", ask.Size.String())

	spread, ok := b.Spread()
	require.True(t, ok)
	assert.Equal(t, "10", spread.String())

	mid, ok := b.MidPrice()
	require.True(t, ok)
	assert.Equal(t, "1015.0", mid.String())
}

func TestEmptyBookQueries(t *testing.T) {
	b := New(instrument(), enum.BookTypeL2)

	_, ok := b.BestBid()
	assert.False(t, ok)
	_, ok = b.BestAsk()
	assert.False(t, ok)
	_, ok = b.Spread()
	assert.False(t, ok)
	_, ok = b.MidPrice()
	assert.False(t, ok)
	assert.Empty(t, b.Depth(enum.SideBuy, 5))
	assert.Equal(t, StatusUninitialized, b.Status())
}

func TestSequenceGapDesynchronizes(t *testing.T) {
	b := standardBook(t)

	require.NoError(t, b.ApplyDelta(delta(t, enum.ActionAdd, enum.SideBuy, "1008", "3", 6)))
	assert.Equal(t, uint64(6), b.LastUpdateID())

	err := b.ApplyDelta(delta(t, enum.ActionAdd, enum.SideBuy, "1007", "3", 8))
	assert.ErrorIs(t, err, exception.ErrSequenceGap)
	assert.Equal(t, StatusDesynchronized, b.Status())

	// State reflects only the snapshot plus delta 6.
	assert.Equal(t, uint64(6), b.LastUpdateID())
	depth := b.Depth(enum.SideBuy, 0)
	require.Len(t, depth, 3)
	assert.Equal(t, "1008", depth[2].Price.String())

	// While desynchronized, even the successor id is refused.
	err = b.ApplyDelta(delta(t, enum.ActionAdd, enum.SideBuy, "1007", "3", 7))
	assert.ErrorIs(t, err, exception.ErrStaleBook)

	// A fresh snapshot resynchronizes unconditionally.
	require.NoError(t, b.ApplySnapshot(snapshotAt(t, 50,
		[]model.BookLevel{level(t, "1000", "1")},
		[]model.BookLevel{level(t, "1001", "1")},
	)))
	assert.Equal(t, StatusSynchronized, b.Status())
	assert.Equal(t, uint64(50), b.LastUpdateID())
	require.NoError(t, b.ApplyDelta(delta(t, enum.ActionAdd, enum.SideBuy, "999", "1", 51)))
}

func TestAggregateAddAccumulates(t *testing.T) {
	b := New(instrument(), enum.BookTypeL2)
	require.NoError(t, b.ApplySnapshot(snapshotAt(t, 0, nil, nil)))

	require.NoError(t, b.ApplyDelta(delta(t, enum.ActionAdd, enum.SideBuy, "10", "5", 1)))
	require.NoError(t, b.ApplyDelta(delta(t, enum.ActionAdd, enum.SideBuy, "10", "15", 2)))

	depth := b.Depth(enum.SideBuy, 0)
	require.Len(t, depth, 1, "two adds at one price produce one level")
	assert.Equal(t, "10", depth[0].Price.String())
	assert.Equal(t, "20", depth[0].Size.String())

	// DELETE clears the whole price, never a partial size.
	require.NoError(t, b.ApplyDelta(delta(t, enum.ActionDelete, enum.SideBuy, "10", "5", 3)))
	assert.Empty(t, b.Depth(enum.SideBuy, 0))
}

func TestAggregateUpdateReplacesAndZeroRemoves(t *testing.T) {
	b := standardBook(t)

	require.NoError(t, b.ApplyDelta(delta(t, enum.ActionUpdate, enum.SideBuy, "1010", "7", 6)))
	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, "7", bid.Size.String())

	require.NoError(t, b.ApplyDelta(delta(t, enum.ActionUpdate, enum.SideBuy, "1010", "0", 7)))
	bid, ok = b.BestBid()
	require.True(t, ok)
	assert.Equal(t, "1009", bid.Price.String())
}

func TestUnknownPriceRejectedWithoutMutation(t *testing.T) {
	b := standardBook(t)

	err := b.ApplyDelta(delta(t, enum.ActionUpdate, enum.SideBuy, "999", "7", 6))
	assert.ErrorIs(t, err, exception.ErrUnknownOrder)
	assert.Equal(t, uint64(5), b.LastUpdateID(), "watermark must not advance")

	err = b.ApplyDelta(delta(t, enum.ActionDelete, enum.SideSell, "1030", "1", 6))
	assert.ErrorIs(t, err, exception.ErrUnknownOrder)
	assert.Equal(t, uint64(5), b.LastUpdateID())
	require.Len(t, b.Depth(enum.SideSell, 0), 2)
}

func TestClearIdempotent(t *testing.T) {
	b := standardBook(t)

	require.NoError(t, b.ApplyDelta(model.NewClearDelta(instrument(), enum.BookTypeL2, 6, 100, 200)))
	assert.Empty(t, b.Depth(enum.SideBuy, 0))
	assert.Empty(t, b.Depth(enum.SideSell, 0))

	// CLEAR on an already-empty book leaves it empty and does not error.
	require.NoError(t, b.ApplyDelta(model.NewClearDelta(instrument(), enum.BookTypeL2, 7, 100, 200)))
	assert.Empty(t, b.Depth(enum.SideBuy, 0))
	assert.Equal(t, uint64(7), b.LastUpdateID())
}

func TestBatchAtomicity(t *testing.T) {
	b := standardBook(t)

	add := delta(t, enum.ActionAdd, enum.SideBuy, "1008", "4", 6)
	badUpdate := delta(t, enum.ActionUpdate, enum.SideBuy, "999", "7", 6)
	batch, err := model.NewOrderBookDeltas(instrument(), enum.BookTypeL2,
		[]model.OrderBookDelta{add, badUpdate}, 6, 100, 200)
	require.NoError(t, err)

	err = b.ApplyDeltas(batch)
	assert.ErrorIs(t, err, exception.ErrUnknownOrder)

	// None of the batch applied: the add at 1008 is absent.
	assert.Equal(t, uint64(5), b.LastUpdateID())
	depth := b.Depth(enum.SideBuy, 0)
	require.Len(t, depth, 2)
	assert.Equal(t, "1010", depth[0].Price.String())
	assert.Equal(t, "1009", depth[1].Price.String())
	assert.Equal(t, StatusSynchronized, b.Status())
}

func TestBatchAppliesInSequenceOrder(t *testing.T) {
	b := standardBook(t)

	adds := []model.OrderBookDelta{
		delta(t, enum.ActionAdd, enum.SideSell, "1019", "1", 6),
		delta(t, enum.ActionUpdate, enum.SideSell, "1019", "9", 6),
	}
	batch, err := model.NewOrderBookDeltas(instrument(), enum.BookTypeL2, adds, 6, 100, 200)
	require.NoError(t, err)
	require.NoError(t, b.ApplyDeltas(batch))

	ask, ok := b.BestAsk()
	require.True(t, ok)
	assert.Equal(t, "1019", ask.Price.String())
	assert.Equal(t, "9", ask.Size.String(), "update at position 2 sees the add at position 1")
	assert.Equal(t, uint64(6), b.LastUpdateID())
}

func TestBatchSequenceGapDesynchronizes(t *testing.T) {
	b := standardBook(t)

	batch, err := model.NewOrderBookDeltas(instrument(), enum.BookTypeL2,
		[]model.OrderBookDelta{delta(t, enum.ActionAdd, enum.SideBuy, "1008", "4", 9)}, 9, 100, 200)
	require.NoError(t, err)

	assert.ErrorIs(t, b.ApplyDeltas(batch), exception.ErrSequenceGap)
	assert.Equal(t, StatusDesynchronized, b.Status())
}

func TestSideOrderingInvariant(t *testing.T) {
	b := standardBook(t)

	seq := uint64(5)
	moves := []model.OrderBookDelta{
		delta(t, enum.ActionAdd, enum.SideBuy, "1005", "1", seq+1),
		delta(t, enum.ActionAdd, enum.SideBuy, "1012", "1", seq+2),
		delta(t, enum.ActionAdd, enum.SideSell, "1015", "1", seq+3),
		delta(t, enum.ActionAdd, enum.SideSell, "1025", "1", seq+4),
		delta(t, enum.ActionDelete, enum.SideBuy, "1009", "1", seq+5),
	}
	for _, d := range moves {
		require.NoError(t, b.ApplyDelta(d))
	}

	bids := b.Depth(enum.SideBuy, 0)
	for i := 1; i < len(bids); i++ {
		cmp, err := bids[i].Price.Cmp(bids[i-1].Price)
		require.NoError(t, err)
		assert.Equal(t, -1, cmp, "bids must be strictly descending")
	}
	asks := b.Depth(enum.SideSell, 0)
	for i := 1; i < len(asks); i++ {
		cmp, err := asks[i].Price.Cmp(asks[i-1].Price)
		require.NoError(t, err)
		assert.Equal(t, 1, cmp, "asks must be strictly ascending")
	}
}

func TestDepthLimits(t *testing.T) {
	b := standardBook(t)

	assert.Len(t, b.Depth(enum.SideBuy, 1), 1)
	assert.Len(t, b.Depth(enum.SideBuy, 2), 2)
	assert.Len(t, b.Depth(enum.SideBuy, 10), 2, "shallower side returns fewer levels")
	assert.Len(t, b.Depth(enum.SideBuy, 0), 2, "n<=0 returns all levels")
}

func TestL3PriceTimePriority(t *testing.T) {
	b := New(instrument(), enum.BookTypeL3)
	s, err := model.NewOrderBookSnapshot(instrument(), enum.BookTypeL3, nil, nil, 0, 100, 200)
	require.NoError(t, err)
	require.NoError(t, b.ApplySnapshot(s))

	require.NoError(t, b.ApplyDelta(l3delta(t, enum.ActionAdd, enum.SideBuy, "10", "5", "a", 1)))
	require.NoError(t, b.ApplyDelta(l3delta(t, enum.ActionAdd, enum.SideBuy, "10", "3", "b", 2)))

	orders, ok := b.OrdersAt(enum.SideBuy, price(t, "10"))
	require.True(t, ok)
	require.Len(t, orders, 2)
	assert.Equal(t, model.OrderID("a"), orders[0].ID, "FIFO within a price")
	assert.Equal(t, model.OrderID("b"), orders[1].ID)

	// In-place size change keeps queue position.
	require.NoError(t, b.ApplyDelta(l3delta(t, enum.ActionUpdate, enum.SideBuy, "10", "9", "a", 3)))
	orders, ok = b.OrdersAt(enum.SideBuy, price(t, "10"))
	require.True(t, ok)
	assert.Equal(t, model.OrderID("a"), orders[0].ID)
	assert.Equal(t, "9", orders[0].Size.String())

	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, "12", bid.Size.String(), "aggregate tracks the queue")
}

func TestL3PriceMoveLosesPriority(t *testing.T) {
	b := New(instrument(), enum.BookTypeL3)
	s, err := model.NewOrderBookSnapshot(instrument(), enum.BookTypeL3, nil, nil, 0, 100, 200)
	require.NoError(t, err)
	require.NoError(t, b.ApplySnapshot(s))

	require.NoError(t, b.ApplyDelta(l3delta(t, enum.ActionAdd, enum.SideBuy, "10", "5", "a", 1)))
	require.NoError(t, b.ApplyDelta(l3delta(t, enum.ActionAdd, enum.SideBuy, "11", "2", "b", 2)))

	// Move a to 11: it re-arrives behind b.
	require.NoError(t, b.ApplyDelta(l3delta(t, enum.ActionUpdate, enum.SideBuy, "11", "5", "a", 3)))

	_, ok := b.OrdersAt(enum.SideBuy, price(t, "10"))
	assert.False(t, ok, "vacated level is dropped")

	orders, ok := b.OrdersAt(enum.SideBuy, price(t, "11"))
	require.True(t, ok)
	require.Len(t, orders, 2)
	assert.Equal(t, model.OrderID("b"), orders[0].ID)
	assert.Equal(t, model.OrderID("a"), orders[1].ID, "moved order joins the back of the queue")
}

func TestL3DeleteByID(t *testing.T) {
	b := New(instrument(), enum.BookTypeL3)
	s, err := model.NewOrderBookSnapshot(instrument(), enum.BookTypeL3, nil, nil, 0, 100, 200)
	require.NoError(t, err)
	require.NoError(t, b.ApplySnapshot(s))

	require.NoError(t, b.ApplyDelta(l3delta(t, enum.ActionAdd, enum.SideSell, "20", "5", "x", 1)))
	require.NoError(t, b.ApplyDelta(l3delta(t, enum.ActionDelete, enum.SideSell, "20", "5", "x", 2)))
	assert.Empty(t, b.Depth(enum.SideSell, 0), "emptied level is dropped")

	err = b.ApplyDelta(l3delta(t, enum.ActionDelete, enum.SideSell, "20", "5", "ghost", 3))
	assert.ErrorIs(t, err, exception.ErrUnknownOrder)
}

func TestBookTypeAndInstrumentMismatch(t *testing.T) {
	b := standardBook(t)

	s, err := model.NewOrderBookSnapshot(instrument(), enum.BookTypeL3, nil, nil, 9, 100, 200)
	require.NoError(t, err)
	assert.ErrorIs(t, b.ApplySnapshot(s), exception.ErrBookTypeMismatch)

	other := model.NewInstrumentID("ETHUSDT", "BINANCE")
	s2, err := model.NewOrderBookSnapshot(other, enum.BookTypeL2, nil, nil, 9, 100, 200)
	require.NoError(t, err)
	assert.ErrorIs(t, b.ApplySnapshot(s2), exception.ErrInstrumentMismatch)
}

func TestRejectedEventDoesNotPinPrecision(t *testing.T) {
	b := New(instrument(), enum.BookTypeL2)
	require.NoError(t, b.ApplySnapshot(snapshotAt(t, 0, nil, nil)))

	// A rejected delta must not calibrate the book to its precision.
	err := b.ApplyDelta(delta(t, enum.ActionUpdate, enum.SideBuy, "1010.50", "1.0", 1))
	assert.ErrorIs(t, err, exception.ErrUnknownOrder)

	// The first applied event still owns the pin.
	require.NoError(t, b.ApplyDelta(delta(t, enum.ActionAdd, enum.SideBuy, "1010", "1", 1)))
	err = b.ApplyDelta(delta(t, enum.ActionAdd, enum.SideBuy, "1009.5", "1", 2))
	assert.ErrorIs(t, err, exception.ErrPrecisionMismatch)
}

func TestPrecisionDriftRejected(t *testing.T) {
	b := standardBook(t)

	err := b.ApplyDelta(delta(t, enum.ActionAdd, enum.SideBuy, "1008.5", "1", 6))
	assert.ErrorIs(t, err, exception.ErrPrecisionMismatch)
	assert.Equal(t, uint64(5), b.LastUpdateID())
}

func TestChangeNotifications(t *testing.T) {
	b := standardBook(t)

	var seen []uint64
	b.OnChange(func(ev model.Event) {
		seen = append(seen, ev.Sequence())
	})

	require.NoError(t, b.ApplyDelta(delta(t, enum.ActionAdd, enum.SideBuy, "1008", "1", 6)))

	batch, err := model.NewOrderBookDeltas(instrument(), enum.BookTypeL2,
		[]model.OrderBookDelta{delta(t, enum.ActionAdd, enum.SideBuy, "1007", "1", 7)}, 7, 100, 200)
	require.NoError(t, err)
	require.NoError(t, b.ApplyDeltas(batch))

	// A rejected event must not notify.
	_ = b.ApplyDelta(delta(t, enum.ActionUpdate, enum.SideBuy, "500", "1", 8))

	require.NoError(t, b.ApplySnapshot(snapshotAt(t, 20,
		[]model.BookLevel{level(t, "1000", "1")},
		[]model.BookLevel{level(t, "1001", "1")},
	)))

	assert.Equal(t, []uint64{6, 7, 20}, seen, "one notification per successfully applied event")
}
