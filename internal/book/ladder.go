package book

import (
	"sort"

	"main/internal/model"
	"main/internal/model/enum"
)

// Ladder is one side of a book: levels kept strictly ordered by price,
// bids descending and asks ascending, no duplicate price. All prices in
// a ladder share a precision; the owning book enforces it before any
// mutation, so ordering can compare mantissas directly.
type Ladder struct {
	side   enum.Side
	levels []*Level
}

func NewLadder(side enum.Side) *Ladder {
	return &Ladder{side: side}
}

func (l *Ladder) Side() enum.Side { return l.side }
func (l *Ladder) Len() int        { return len(l.levels) }

// Best returns the top level: highest bid or lowest ask.
func (l *Ladder) Best() (*Level, bool) {
	if len(l.levels) == 0 {
		return nil, false
	}
	return l.levels[0], true
}

// Depth exports the first n levels in side-priority order. n <= 0 means
// all levels.
func (l *Ladder) Depth(n int) []model.BookLevel {
	if n <= 0 || n > len(l.levels) {
		n = len(l.levels)
	}
	out := make([]model.BookLevel, 0, n)
	for _, lvl := range l.levels[:n] {
		out = append(out, lvl.Snapshot())
	}
	return out
}

// find locates the insertion index for a price and whether a level with
// that exact price already exists.
func (l *Ladder) find(price model.Price) (int, bool) {
	idx := sort.Search(len(l.levels), func(i int) bool {
		if l.side == enum.SideBuy {
			return l.levels[i].price.Mantissa <= price.Mantissa
		}
		return l.levels[i].price.Mantissa >= price.Mantissa
	})
	if idx < len(l.levels) && l.levels[idx].price.Mantissa == price.Mantissa {
		return idx, true
	}
	return idx, false
}

// level returns the level at an exact price.
func (l *Ladder) level(price model.Price) (*Level, bool) {
	idx, ok := l.find(price)
	if !ok {
		return nil, false
	}
	return l.levels[idx], true
}

// getOrCreate returns the level at price, inserting it in side order
// when absent.
func (l *Ladder) getOrCreate(price model.Price) *Level {
	idx, ok := l.find(price)
	if ok {
		return l.levels[idx]
	}
	lvl := newLevel(price)
	l.levels = append(l.levels, nil)
	copy(l.levels[idx+1:], l.levels[idx:])
	l.levels[idx] = lvl
	return lvl
}

// dropIfEmpty removes the level at price when it no longer holds size.
func (l *Ladder) dropIfEmpty(price model.Price) {
	idx, ok := l.find(price)
	if !ok || !l.levels[idx].empty() {
		return
	}
	l.remove(idx)
}

// removeLevel drops the level at an exact price outright.
func (l *Ladder) removeLevel(price model.Price) bool {
	idx, ok := l.find(price)
	if !ok {
		return false
	}
	l.remove(idx)
	return true
}

func (l *Ladder) remove(idx int) {
	l.levels = append(l.levels[:idx], l.levels[idx+1:]...)
}

// findOrder scans the ladder for a resting order by id (L3 only).
func (l *Ladder) findOrder(id model.OrderID) (*Level, int, bool) {
	for _, lvl := range l.levels {
		if idx, ok := lvl.findOrder(id); ok {
			return lvl, idx, true
		}
	}
	return nil, -1, false
}

// clear discards every level.
func (l *Ladder) clear() {
	l.levels = nil
}

// clone deep-copies the ladder for staged batch application.
func (l *Ladder) clone() *Ladder {
	cp := &Ladder{side: l.side}
	if len(l.levels) > 0 {
		cp.levels = make([]*Level, len(l.levels))
		for i, lvl := range l.levels {
			cp.levels[i] = lvl.clone()
		}
	}
	return cp
}
