package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Criteria narrows a catalog listing. The zero value matches everything.
type Criteria struct {
	CategorySlug   string
	MinPrice       decimal.NullDecimal
	MaxPrice       decimal.NullDecimal
	DeliveryBucket DeliveryBucket
	ServiceType    string
	UsageType      string
	InStockOnly    bool
	Search         string
}

// IsZero reports whether c applies no constraint.
func (c Criteria) IsZero() bool {
	return c.CategorySlug == "" &&
		!c.MinPrice.Valid &&
		!c.MaxPrice.Valid &&
		c.DeliveryBucket == "" &&
		c.ServiceType == "" &&
		c.UsageType == "" &&
		!c.InStockOnly &&
		strings.TrimSpace(c.Search) == ""
}

// Match reports whether it satisfies every constraint in c.
func (c Criteria) Match(it Item) bool {
	if c.CategorySlug != "" && (it.Category == nil || it.Category.Slug != c.CategorySlug) {
		return false
	}
	if c.MinPrice.Valid && it.Price.LessThan(c.MinPrice.Decimal) {
		return false
	}
	if c.MaxPrice.Valid && it.Price.GreaterThan(c.MaxPrice.Decimal) {
		return false
	}
	if c.DeliveryBucket != "" && !c.DeliveryBucket.matches(it) {
		return false
	}
	if c.ServiceType != "" && !strings.EqualFold(it.ServiceType, c.ServiceType) {
		return false
	}
	if c.UsageType != "" && !strings.EqualFold(it.UsageType, c.UsageType) {
		return false
	}
	if c.InStockOnly && !it.InStock() {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(c.Search)); q != "" {
		return strings.Contains(searchText(it), q)
	}
	return true
}

func searchText(it Item) string {
	var b strings.Builder
	b.WriteString(it.Title)
	b.WriteByte(' ')
	b.WriteString(it.Description)
	b.WriteByte(' ')
	b.WriteString(it.CategoryTitle())
	for _, f := range it.Features {
		b.WriteByte(' ')
		b.WriteString(f)
	}
	return strings.ToLower(b.String())
}

// FilterAndSort returns the items matching c ordered by key. The input is
// never mutated and the result is always a fresh, non-nil slice.
func FilterAndSort(items []Item, c Criteria, key SortKey) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if c.Match(it) {
			out = append(out, it)
		}
	}
	sortItems(out, key)
	return out
}
