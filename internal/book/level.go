// Package book maintains per-instrument limit order book state from
// snapshot and delta events, preserving sequencing and side-ordering
// invariants.
package book

import "main/internal/model"

// Level is one price rung of a book side. L3 books keep the resting
// orders in arrival order (price-time priority); L1/L2 books keep only
// the aggregate size.
type Level struct {
	price  model.Price
	size   model.Size
	orders []model.BookOrder
}

func newLevel(price model.Price) *Level {
	return &Level{price: price, size: model.Size{Precision: 0}}
}

func (l *Level) Price() model.Price { return l.price }
func (l *Level) Size() model.Size   { return l.size }

// OrderCount returns the number of resting orders (L3 only).
func (l *Level) OrderCount() int { return len(l.orders) }

// Snapshot exports the level as a (price, size) pair.
func (l *Level) Snapshot() model.BookLevel {
	return model.BookLevel{Price: l.price, Size: l.size}
}

// Orders returns a copy of the resting queue in priority order.
func (l *Level) Orders() []model.BookOrder {
	out := make([]model.BookOrder, len(l.orders))
	copy(out, l.orders)
	return out
}

// enqueue appends an order to the back of the queue and grows the
// aggregate. The caller has already validated precision.
func (l *Level) enqueue(o model.BookOrder) {
	l.orders = append(l.orders, o)
	l.addSize(o.Size)
}

// findOrder locates a resting order by id.
func (l *Level) findOrder(id model.OrderID) (int, bool) {
	for i := range l.orders {
		if l.orders[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// resize replaces the size of the order at idx in place, keeping its
// queue position.
func (l *Level) resize(idx int, size model.Size) {
	l.size.Mantissa -= l.orders[idx].Size.Mantissa
	l.orders[idx].Size = size
	l.size.Mantissa += size.Mantissa
	l.size.Precision = size.Precision
}

// unlink removes the order at idx from the queue.
func (l *Level) unlink(idx int) {
	l.size.Mantissa -= l.orders[idx].Size.Mantissa
	l.orders = append(l.orders[:idx], l.orders[idx+1:]...)
}

// addSize grows the aggregate (L1/L2 add, L3 enqueue).
func (l *Level) addSize(s model.Size) {
	l.size.Mantissa += s.Mantissa
	l.size.Precision = s.Precision
}

// setSize replaces the aggregate (L1/L2 update).
func (l *Level) setSize(s model.Size) {
	l.size = s
}

func (l *Level) empty() bool {
	return l.size.Mantissa == 0 && len(l.orders) == 0
}

func (l *Level) clone() *Level {
	cp := &Level{price: l.price, size: l.size}
	if len(l.orders) > 0 {
		cp.orders = make([]model.BookOrder, len(l.orders))
		copy(cp.orders, l.orders)
	}
	return cp
}
