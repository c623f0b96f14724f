package feed

import (
	"encoding/json"
	"time"

	"github.com/yanun0323/decimal"
	"github.com/yanun0323/errors"

	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/ops"
	"main/pkg/exception"
)

// BinanceDepthSnapshot is the REST depth snapshot payload.
type BinanceDepthSnapshot struct {
	LastUpdateID uint64              `json:"lastUpdateId"`
	Bids         [][]decimal.Decimal `json:"bids"`
	Asks         [][]decimal.Decimal `json:"asks"`
}

// BinanceDepthUpdate is the 'Diff. Depth Stream' payload.
type BinanceDepthUpdate struct {
	EventType     string              `json:"e"`
	EventTimeMs   int64               `json:"E"`
	Symbol        string              `json:"s"`
	FirstUpdateID uint64              `json:"U"`
	FinalUpdateID uint64              `json:"u"`
	Bids          [][]decimal.Decimal `json:"b"`
	Asks          [][]decimal.Decimal `json:"a"`
}

// BinanceTranslator converts Binance depth payloads into book events for
// one instrument. It renumbers the venue's update ids onto the book's
// dense sequence and tracks venue continuity: a broken diff chain
// surfaces as a sequencing gap, never as silently reordered deltas.
//
// It also shadows the set of live prices per side so absolute-quantity
// diff rows map onto the event model's actions: absent price with
// nonzero quantity is an ADD, tracked price is an UPDATE, zero quantity
// is a DELETE. Removals of untracked prices are no-ops per the venue's
// own sync procedure.
type BinanceTranslator struct {
	inst ops.Instrument

	seq         uint64
	lastVenueID uint64
	synced      bool

	bidPrices map[int64]struct{}
	askPrices map[int64]struct{}
}

// NewBinanceTranslator creates a translator for an instrument. It stays
// unsynced until the first snapshot.
func NewBinanceTranslator(inst ops.Instrument) *BinanceTranslator {
	return &BinanceTranslator{
		inst:      inst,
		bidPrices: make(map[int64]struct{}),
		askPrices: make(map[int64]struct{}),
	}
}

// Instrument returns the translated instrument definition.
func (t *BinanceTranslator) Instrument() ops.Instrument { return t.inst }

// Synced reports whether a snapshot has established the venue watermark.
func (t *BinanceTranslator) Synced() bool { return t.synced }

// TranslateSnapshot converts a REST depth snapshot and resynchronizes
// the venue watermark.
func (t *BinanceTranslator) TranslateSnapshot(payload []byte, tsInit int64) (model.OrderBookSnapshot, error) {
	var raw BinanceDepthSnapshot
	if err := json.Unmarshal(payload, &raw); err != nil {
		return model.OrderBookSnapshot{}, errors.Wrap(err, "unmarshal depth snapshot")
	}

	bids, bidPrices, err := t.levels(raw.Bids)
	if err != nil {
		return model.OrderBookSnapshot{}, errors.Wrap(err, "snapshot bids")
	}
	asks, askPrices, err := t.levels(raw.Asks)
	if err != nil {
		return model.OrderBookSnapshot{}, errors.Wrap(err, "snapshot asks")
	}

	t.seq++
	s, err := model.NewOrderBookSnapshot(t.inst.ID, t.inst.BookType, bids, asks, t.seq, tsInit, tsInit)
	if err != nil {
		t.seq--
		return model.OrderBookSnapshot{}, err
	}

	t.lastVenueID = raw.LastUpdateID
	t.synced = true
	t.bidPrices = bidPrices
	t.askPrices = askPrices
	return s, nil
}

// TranslateDiff converts a diff depth payload into an atomic delta
// batch. A broken venue chain desynchronizes the translator and returns
// ErrSequenceGap; the caller must fetch a fresh snapshot.
func (t *BinanceTranslator) TranslateDiff(payload []byte, tsInit int64) (model.OrderBookDeltas, error) {
	if !t.synced {
		return model.OrderBookDeltas{}, exception.ErrStaleBook
	}

	var raw BinanceDepthUpdate
	if err := json.Unmarshal(payload, &raw); err != nil {
		return model.OrderBookDeltas{}, errors.Wrap(err, "unmarshal depth update")
	}
	if raw.FinalUpdateID <= t.lastVenueID {
		// Replay of already-covered updates; the venue sends these right
		// after a snapshot.
		return model.OrderBookDeltas{}, exception.ErrEmptyBatch
	}
	if raw.FirstUpdateID > t.lastVenueID+1 {
		t.synced = false
		return model.OrderBookDeltas{}, errors.Wrapf(exception.ErrSequenceGap,
			"venue chain broken: have %d, got [%d,%d]", t.lastVenueID, raw.FirstUpdateID, raw.FinalUpdateID)
	}

	tsEvent := raw.EventTimeMs * int64(time.Millisecond)
	batchID := t.seq + 1

	// Stage the shadow sets so a translation error partway through a
	// payload leaves the tracked prices consistent with lastVenueID.
	bidPrices := clonePrices(t.bidPrices)
	askPrices := clonePrices(t.askPrices)

	deltas := make([]model.OrderBookDelta, 0, len(raw.Bids)+len(raw.Asks))
	deltas, err := t.sideDeltas(deltas, raw.Bids, enum.SideBuy, bidPrices, batchID, tsEvent, tsInit)
	if err != nil {
		return model.OrderBookDeltas{}, err
	}
	deltas, err = t.sideDeltas(deltas, raw.Asks, enum.SideSell, askPrices, batchID, tsEvent, tsInit)
	if err != nil {
		return model.OrderBookDeltas{}, err
	}
	if len(deltas) == 0 {
		return model.OrderBookDeltas{}, exception.ErrEmptyBatch
	}

	batch, err := model.NewOrderBookDeltas(t.inst.ID, t.inst.BookType, deltas, batchID, tsEvent, tsInit)
	if err != nil {
		return model.OrderBookDeltas{}, err
	}
	t.seq = batchID
	t.lastVenueID = raw.FinalUpdateID
	t.bidPrices = bidPrices
	t.askPrices = askPrices
	return batch, nil
}

func clonePrices(src map[int64]struct{}) map[int64]struct{} {
	dst := make(map[int64]struct{}, len(src))
	for price := range src {
		dst[price] = struct{}{}
	}
	return dst
}

func (t *BinanceTranslator) levels(rows [][]decimal.Decimal) ([]model.BookLevel, map[int64]struct{}, error) {
	levels := make([]model.BookLevel, 0, len(rows))
	prices := make(map[int64]struct{}, len(rows))
	for _, row := range rows {
		if len(row) != 2 {
			return nil, nil, exception.ErrMalformedEvent
		}
		price, err := t.inst.Price(row[0].String())
		if err != nil {
			return nil, nil, err
		}
		size, err := t.inst.Size(row[1].String())
		if err != nil {
			return nil, nil, err
		}
		if size.IsZero() {
			continue
		}
		levels = append(levels, model.BookLevel{Price: price, Size: size})
		prices[price.Mantissa] = struct{}{}
	}
	return levels, prices, nil
}

func (t *BinanceTranslator) sideDeltas(
	deltas []model.OrderBookDelta,
	rows [][]decimal.Decimal,
	side enum.Side,
	prices map[int64]struct{},
	updateID uint64,
	tsEvent, tsInit int64,
) ([]model.OrderBookDelta, error) {
	for _, row := range rows {
		if len(row) != 2 {
			return nil, exception.ErrMalformedEvent
		}
		price, err := t.inst.Price(row[0].String())
		if err != nil {
			return nil, err
		}
		size, err := t.inst.Size(row[1].String())
		if err != nil {
			return nil, err
		}

		_, tracked := prices[price.Mantissa]
		var action enum.BookAction
		switch {
		case size.IsZero() && !tracked:
			continue
		case size.IsZero():
			action = enum.ActionDelete
			delete(prices, price.Mantissa)
			// The delete payload carries the last known absolute size slot
			// zeroed; the book removes the whole level by price.
			size = model.Size{Mantissa: 0, Precision: t.inst.SizePrecision}
		case tracked:
			action = enum.ActionUpdate
		default:
			action = enum.ActionAdd
			prices[price.Mantissa] = struct{}{}
		}

		order := model.NewBookOrder(price, size, side)
		d, err := model.NewOrderBookDelta(t.inst.ID, t.inst.BookType, action, order, updateID, tsEvent, tsInit)
		if err != nil {
			return nil, err
		}
		deltas = append(deltas, d)
	}
	return deltas, nil
}
