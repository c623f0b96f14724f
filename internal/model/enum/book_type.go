package enum

// BookType is the granularity an order book is maintained at.
type BookType uint8

const (
	_book_type_beg BookType = iota
	// BookTypeL1 keeps top-of-book only.
	BookTypeL1
	// BookTypeL2 aggregates one size per price level.
	BookTypeL2
	// BookTypeL3 tracks individual orders with price-time priority.
	BookTypeL3
	_book_type_end
)

func (t BookType) IsAvailable() bool {
	return t > _book_type_beg && t < _book_type_end
}

func (t BookType) String() string {
	switch t {
	case BookTypeL1:
		return "L1_TBBO"
	case BookTypeL2:
		return "L2_MBP"
	case BookTypeL3:
		return "L3_MBO"
	default:
		return "UNKNOWN"
	}
}

// ParseBookType maps the canonical literal back to a BookType.
func ParseBookType(s string) (BookType, bool) {
	switch s {
	case "L1_TBBO":
		return BookTypeL1, true
	case "L2_MBP":
		return BookTypeL2, true
	case "L3_MBO":
		return BookTypeL3, true
	default:
		return 0, false
	}
}
