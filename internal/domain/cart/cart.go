// Package cart implements the per-session shopping cart: a pure reducer over
// line items plus a Store that persists every transition.
package cart

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/catalog"
)

// LineItem is one row of the cart. ID equals the catalog item id and is the
// aggregation key. Quantity is at least 1 while the line exists.
type LineItem struct {
	ID        string          `json:"id"`
	Item      catalog.Item    `json:"item"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Total returns UnitPrice × Quantity.
func (l LineItem) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// State is the ordered list of lines, in insertion order.
type State struct {
	Lines []LineItem
}

// Subtotal is Σ(unitPrice × quantity), recomputed on every call.
func (s State) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Lines {
		total = total.Add(l.Total())
	}
	return total
}

// ItemCount is Σ(quantity), recomputed on every call.
func (s State) ItemCount() int {
	n := 0
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}

// Line returns the line with the given id.
func (s State) Line(id string) (LineItem, bool) {
	i := s.index(id)
	if i < 0 {
		return LineItem{}, false
	}
	return s.Lines[i], true
}

func (s State) index(id string) int {
	return slices.IndexFunc(s.Lines, func(l LineItem) bool { return l.ID == id })
}

// clone copies the line list so that reducer steps never share backing
// arrays with their input.
func (s State) clone() State {
	return State{Lines: slices.Clone(s.Lines)}
}

// Snapshot is a read view of the cart with freshly computed totals.
type Snapshot struct {
	Lines     []LineItem
	Subtotal  decimal.Decimal
	ItemCount int
}

// Snapshot computes the derived totals for s.
func (s State) Snapshot() Snapshot {
	lines := slices.Clone(s.Lines)
	if lines == nil {
		lines = []LineItem{}
	}
	return Snapshot{
		Lines:     lines,
		Subtotal:  s.Subtotal(),
		ItemCount: s.ItemCount(),
	}
}

// IsEmpty reports whether the snapshot has no lines.
func (s Snapshot) IsEmpty() bool {
	return len(s.Lines) == 0
}
