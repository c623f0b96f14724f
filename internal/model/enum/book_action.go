package enum

// BookAction describes how a delta mutates the book.
type BookAction uint8

const (
	_book_action_beg BookAction = iota
	ActionAdd
	ActionUpdate
	ActionDelete
	ActionClear
	_book_action_end
)

func (a BookAction) IsAvailable() bool {
	return a > _book_action_beg && a < _book_action_end
}

// RequiresOrder reports whether a delta with this action must carry an order payload.
func (a BookAction) RequiresOrder() bool {
	switch a {
	case ActionAdd, ActionUpdate, ActionDelete:
		return true
	default:
		return false
	}
}

func (a BookAction) String() string {
	switch a {
	case ActionAdd:
		return "ADD"
	case ActionUpdate:
		return "UPDATE"
	case ActionDelete:
		return "DELETE"
	case ActionClear:
		return "CLEAR"
	default:
		return "UNKNOWN"
	}
}

// ParseBookAction maps the canonical literal back to a BookAction.
func ParseBookAction(s string) (BookAction, bool) {
	switch s {
	case "ADD":
		return ActionAdd, true
	case "UPDATE":
		return ActionUpdate, true
	case "DELETE":
		return ActionDelete, true
	case "CLEAR":
		return ActionClear, true
	default:
		return 0, false
	}
}
