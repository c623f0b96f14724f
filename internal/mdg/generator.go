// Package mdg produces a deterministic synthetic stream of book events.
// A fixed seed yields a byte-identical event sequence, which record mode
// and tests use to exercise books and the journal without a venue.
package mdg

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/ops"
)

// Generator creates synthetic snapshots and delta batches per
// instrument, round robin. Every emitted sequence applies cleanly: the
// generator tracks which prices rest on each side so updates and
// deletes always reference live levels.
type Generator struct {
	states []*instrumentState
	rng    *rand.Rand
	index  int

	depth     int
	basePrice int64
	baseSize  int64
	tick      int64
}

type instrumentState struct {
	inst ops.Instrument
	seq  uint64
	bids map[int64]struct{}
	asks map[int64]struct{}

	// resting orders, L3 instruments only
	orders  []model.BookOrder
	nextOrd uint64
}

// NewGenerator creates a generator over every instrument in the
// registry with a fixed seed.
func NewGenerator(reg *ops.Registry, seed int64, depth int, basePrice, baseSize int64) (*Generator, error) {
	if reg == nil || reg.InstrumentCount() == 0 {
		return nil, fmt.Errorf("registry has no instruments")
	}
	if depth <= 0 {
		depth = 5
	}
	if basePrice <= 0 {
		basePrice = 100_000
	}
	if baseSize <= 0 {
		baseSize = 10
	}
	states := make([]*instrumentState, 0, reg.InstrumentCount())
	for i := 0; i < reg.InstrumentCount(); i++ {
		inst, ok := reg.InstrumentAt(i)
		if !ok {
			continue
		}
		states = append(states, &instrumentState{
			inst: inst,
			bids: make(map[int64]struct{}),
			asks: make(map[int64]struct{}),
		})
	}
	return &Generator{
		states:    states,
		rng:       rand.New(rand.NewSource(seed)),
		depth:     depth,
		basePrice: basePrice,
		baseSize:  baseSize,
		tick:      1,
	}, nil
}

// Next creates the next event in sequence. The first event for each
// instrument is always a snapshot; later events are delta batches.
func (g *Generator) Next(now time.Time) model.Event {
	st := g.states[g.index]
	g.index = (g.index + 1) % len(g.states)

	ts := now.UnixNano()
	if st.seq == 0 {
		return g.snapshot(st, ts)
	}
	return g.batch(st, ts)
}

func (g *Generator) snapshot(st *instrumentState, ts int64) model.OrderBookSnapshot {
	st.bids = make(map[int64]struct{}, g.depth)
	st.asks = make(map[int64]struct{}, g.depth)

	bids := make([]model.BookLevel, 0, g.depth)
	asks := make([]model.BookLevel, 0, g.depth)
	for i := 0; i < g.depth; i++ {
		step := g.tick * int64(i+1)
		bidPx := model.Price{Mantissa: g.basePrice - step, Precision: st.inst.PricePrecision}
		askPx := model.Price{Mantissa: g.basePrice + step, Precision: st.inst.PricePrecision}
		size := model.Size{Mantissa: g.baseSize + g.rng.Int63n(g.baseSize), Precision: st.inst.SizePrecision}
		bids = append(bids, model.BookLevel{Price: bidPx, Size: size})
		asks = append(asks, model.BookLevel{Price: askPx, Size: size})
		st.bids[bidPx.Mantissa] = struct{}{}
		st.asks[askPx.Mantissa] = struct{}{}
	}

	st.seq++
	s, err := model.NewOrderBookSnapshot(st.inst.ID, st.inst.BookType, bids, asks, st.seq, ts, ts)
	if err != nil {
		// Levels are built strictly ordered above.
		panic(err)
	}
	return s
}

func (g *Generator) batch(st *instrumentState, ts int64) model.OrderBookDeltas {
	st.seq++
	count := 1 + g.rng.Intn(3)
	deltas := make([]model.OrderBookDelta, 0, count)
	for i := 0; i < count; i++ {
		deltas = append(deltas, g.delta(st, ts))
	}
	batch, err := model.NewOrderBookDeltas(st.inst.ID, st.inst.BookType, deltas, st.seq, ts, ts)
	if err != nil {
		panic(err)
	}
	return batch
}

func (g *Generator) delta(st *instrumentState, ts int64) model.OrderBookDelta {
	var order model.BookOrder
	var action enum.BookAction
	if st.inst.BookType == enum.BookTypeL3 {
		action, order = g.orderDelta(st)
	} else {
		action, order = g.aggregateDelta(st)
	}
	d, err := model.NewOrderBookDelta(st.inst.ID, st.inst.BookType, action, order, st.seq, ts, ts)
	if err != nil {
		panic(err)
	}
	return d
}

// aggregateDelta mutates one price level of an L1/L2 stream. Updates
// and deletes only ever reference tracked prices.
func (g *Generator) aggregateDelta(st *instrumentState) (enum.BookAction, model.BookOrder) {
	side := enum.SideBuy
	prices := st.bids
	if g.rng.Intn(2) == 1 {
		side = enum.SideSell
		prices = st.asks
	}

	action := enum.ActionAdd
	switch g.rng.Intn(4) {
	case 0:
		if len(prices) > 1 {
			action = enum.ActionDelete
		}
	case 1, 2:
		if len(prices) > 0 {
			action = enum.ActionUpdate
		}
	}

	var priceMantissa int64
	switch action {
	case enum.ActionAdd:
		offset := g.tick * int64(1+g.rng.Intn(g.depth*2))
		if side == enum.SideBuy {
			priceMantissa = g.basePrice - offset
		} else {
			priceMantissa = g.basePrice + offset
		}
		prices[priceMantissa] = struct{}{}
	default:
		priceMantissa = pickPrice(g.rng, prices)
		if action == enum.ActionDelete {
			delete(prices, priceMantissa)
		}
	}

	price := model.Price{Mantissa: priceMantissa, Precision: st.inst.PricePrecision}
	size := model.Size{Mantissa: g.baseSize + g.rng.Int63n(g.baseSize), Precision: st.inst.SizePrecision}
	return action, model.NewBookOrder(price, size, side)
}

// orderDelta mutates one resting order of an L3 stream. Order identity
// must match a live order, so updates and deletes draw from the tracked
// queue; size changes keep the order's id and price.
func (g *Generator) orderDelta(st *instrumentState) (enum.BookAction, model.BookOrder) {
	action := enum.ActionAdd
	if len(st.orders) > 0 {
		switch g.rng.Intn(4) {
		case 0:
			action = enum.ActionDelete
		case 1, 2:
			action = enum.ActionUpdate
		}
	}

	switch action {
	case enum.ActionUpdate:
		idx := g.rng.Intn(len(st.orders))
		resting := st.orders[idx]
		resized := model.NewBookOrderWithID(
			resting.Price,
			model.Size{Mantissa: g.baseSize + g.rng.Int63n(g.baseSize), Precision: st.inst.SizePrecision},
			resting.Side,
			resting.ID,
		)
		st.orders[idx] = resized
		return action, resized

	case enum.ActionDelete:
		idx := g.rng.Intn(len(st.orders))
		resting := st.orders[idx]
		st.orders = append(st.orders[:idx], st.orders[idx+1:]...)
		return action, resting

	default:
		side := enum.SideBuy
		if g.rng.Intn(2) == 1 {
			side = enum.SideSell
		}
		offset := g.tick * int64(1+g.rng.Intn(g.depth*2))
		priceMantissa := g.basePrice - offset
		if side == enum.SideSell {
			priceMantissa = g.basePrice + offset
		}
		st.nextOrd++
		order := model.NewBookOrderWithID(
			model.Price{Mantissa: priceMantissa, Precision: st.inst.PricePrecision},
			model.Size{Mantissa: g.baseSize + g.rng.Int63n(g.baseSize), Precision: st.inst.SizePrecision},
			side,
			model.OrderID(fmt.Sprintf("%s-%d", st.inst.ID.Symbol, st.nextOrd)),
		)
		st.orders = append(st.orders, order)
		return action, order
	}
}

// pickPrice draws a tracked price deterministically: map iteration order
// is randomized per run, so the candidates are sorted first.
func pickPrice(rng *rand.Rand, prices map[int64]struct{}) int64 {
	keys := make([]int64, 0, len(prices))
	for k := range prices {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys[rng.Intn(len(keys))]
}
