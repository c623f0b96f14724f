package model

import "main/internal/model/enum"

// DefaultOrderIDPolicy derives ids for orders constructed without one.
// Swappable so tests and adapters can pin identity generation.
var DefaultOrderIDPolicy OrderIDPolicy = ContentIDPolicy{}

// BookOrder is one resting order. Immutable value object; equality is
// structural over all fields.
type BookOrder struct {
	Price Price
	Size  Size
	Side  enum.Side
	ID    OrderID
}

// NewBookOrder builds an order, deriving its id from DefaultOrderIDPolicy.
func NewBookOrder(price Price, size Size, side enum.Side) BookOrder {
	return BookOrder{
		Price: price,
		Size:  size,
		Side:  side,
		ID:    DefaultOrderIDPolicy.OrderID(price, size, side),
	}
}

// NewBookOrderWithID builds an order with an externally supplied id.
func NewBookOrderWithID(price Price, size Size, side enum.Side, id OrderID) BookOrder {
	return BookOrder{Price: price, Size: size, Side: side, ID: id}
}

func (o BookOrder) IsZero() bool {
	return o == BookOrder{}
}

// Debug returns the canonical text form, e.g. BookOrder(10.0, 5.0, BUY, 1).
func (o BookOrder) Debug() string {
	return string(o.AppendDebug(make([]byte, 0, 64)))
}

func (o BookOrder) AppendDebug(buf []byte) []byte {
	buf = append(buf, "BookOrder("...)
	buf = o.Price.AppendBytes(buf)
	buf = append(buf, ", "...)
	buf = o.Size.AppendBytes(buf)
	buf = append(buf, ", "...)
	buf = append(buf, o.Side.String()...)
	buf = append(buf, ", "...)
	buf = append(buf, o.ID...)
	buf = append(buf, ')')
	return buf
}

// BookLevel is one (price, total size) rung of a book side.
type BookLevel struct {
	Price Price
	Size  Size
}

// AppendLevels renders levels as a compact JSON array of [price,size]
// pairs with no inserted whitespace, preserving sequence order. The same
// bytes are used by the wire codec and the canonical text form.
func AppendLevels(buf []byte, levels []BookLevel) []byte {
	buf = append(buf, '[')
	for i, lvl := range levels {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, '[')
		buf = lvl.Price.AppendBytes(buf)
		buf = append(buf, ',')
		buf = lvl.Size.AppendBytes(buf)
		buf = append(buf, ']')
	}
	buf = append(buf, ']')
	return buf
}
