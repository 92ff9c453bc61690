package cart

import (
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/catalog"
)

// ErrInvalidAction is returned by Store.Dispatch for actions that are
// malformed at the call boundary.
var ErrInvalidAction = errors.New("invalid cart action")

// MaxQuantity bounds the quantity of a single line. Adds beyond it saturate.
const MaxQuantity = 9999

func capQuantity(n int) int {
	return min(n, MaxQuantity)
}

// Action is a cart transition. The set of actions is closed.
type Action interface {
	apply(State) State
	validate() error
}

// Add appends Item or increments the existing line with the same id.
type Add struct {
	Item     catalog.Item
	Quantity int
}

// Remove drops the line with ID, if present.
type Remove struct {
	ID string
}

// SetQuantity sets the line quantity exactly; Quantity ≤ 0 removes it.
type SetQuantity struct {
	ID       string
	Quantity int
}

// Clear empties the cart.
type Clear struct{}

// Load replaces the state with previously persisted lines.
type Load struct {
	Lines []LineItem
}

// Reduce applies a to s and returns the next state. It never mutates s and
// never fails; a nil action is a no-op.
func Reduce(s State, a Action) State {
	if a == nil {
		return s.clone()
	}
	return a.apply(s)
}

func (a Add) apply(s State) State {
	if a.Quantity < 1 {
		return s.clone()
	}
	next := s.clone()
	if i := next.index(a.Item.ID); i >= 0 {
		// Compared before adding so the sum cannot overflow.
		if q := next.Lines[i].Quantity; a.Quantity >= MaxQuantity-q {
			next.Lines[i].Quantity = MaxQuantity
		} else {
			next.Lines[i].Quantity = q + a.Quantity
		}
		return next
	}
	item := a.Item.Clone()
	next.Lines = append(next.Lines, LineItem{
		ID:        item.ID,
		Item:      item,
		Quantity:  capQuantity(a.Quantity),
		UnitPrice: item.Price,
	})
	return next
}

func (a Remove) apply(s State) State {
	next := State{Lines: make([]LineItem, 0, len(s.Lines))}
	for _, l := range s.Lines {
		if l.ID != a.ID {
			next.Lines = append(next.Lines, l)
		}
	}
	return next
}

func (a SetQuantity) apply(s State) State {
	if a.Quantity <= 0 {
		return Remove{ID: a.ID}.apply(s)
	}
	next := s.clone()
	if i := next.index(a.ID); i >= 0 {
		next.Lines[i].Quantity = capQuantity(a.Quantity)
	}
	return next
}

func (Clear) apply(State) State {
	return State{Lines: []LineItem{}}
}

func (a Load) apply(State) State {
	lines := make([]LineItem, 0, len(a.Lines))
	for _, l := range a.Lines {
		if l.ID == "" || l.Quantity < 1 {
			continue
		}
		l.Quantity = capQuantity(l.Quantity)
		lines = append(lines, l)
	}
	return State{Lines: lines}
}

func (a Add) validate() error {
	if strings.TrimSpace(a.Item.ID) == "" {
		return errors.Wrap(ErrInvalidAction, "add: item id is empty")
	}
	if a.Quantity < 1 {
		return errors.Wrap(ErrInvalidAction, "add: quantity must be at least 1")
	}
	if a.Quantity > MaxQuantity {
		return errors.Wrapf(ErrInvalidAction, "add: quantity exceeds %d", MaxQuantity)
	}
	return nil
}

func (a Remove) validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return errors.Wrap(ErrInvalidAction, "remove: id is empty")
	}
	return nil
}

func (a SetQuantity) validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return errors.Wrap(ErrInvalidAction, "set quantity: id is empty")
	}
	if a.Quantity > MaxQuantity {
		return errors.Wrapf(ErrInvalidAction, "set quantity: quantity exceeds %d", MaxQuantity)
	}
	return nil
}

func (Clear) validate() error { return nil }

func (Load) validate() error { return nil }
