package catalog

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey selects the listing order.
type SortKey string

// Supported sort keys.
const (
	SortNewest          SortKey = "newest"
	SortPriceAsc        SortKey = "price-asc"
	SortPriceDesc       SortKey = "price-desc"
	SortName            SortKey = "name"
	SortFastestDelivery SortKey = "fastest-delivery"
)

// DefaultSort is used when no or an unknown key is requested.
const DefaultSort = SortNewest

var sortAliases = map[string]SortKey{
	"price-low":     SortPriceAsc,
	"price-high":    SortPriceDesc,
	"delivery-fast": SortFastestDelivery,
}

// ParseSortKey maps s, including legacy aliases, to a known key. Unknown
// values fall back to DefaultSort.
func ParseSortKey(s string) SortKey {
	s = strings.ToLower(strings.TrimSpace(s))
	switch k := SortKey(s); k {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortName, SortFastestDelivery:
		return k
	}
	if k, ok := sortAliases[s]; ok {
		return k
	}
	return DefaultSort
}

// sortItems orders items in place. All orderings are stable.
func sortItems(items []Item, key SortKey) {
	switch ParseSortKey(string(key)) {
	case SortPriceAsc:
		slices.SortStableFunc(items, func(a, b Item) int {
			return a.Price.Cmp(b.Price)
		})
	case SortPriceDesc:
		slices.SortStableFunc(items, func(a, b Item) int {
			return b.Price.Cmp(a.Price)
		})
	case SortName:
		// collate.Collator is not safe for concurrent use.
		col := collate.New(language.English, collate.IgnoreCase)
		slices.SortStableFunc(items, func(a, b Item) int {
			return col.CompareString(a.Title, b.Title)
		})
	case SortFastestDelivery:
		slices.SortStableFunc(items, func(a, b Item) int {
			da, okA := DeliveryDays(a)
			db, okB := DeliveryDays(b)
			switch {
			case okA && okB:
				return cmp.Compare(da, db)
			case okA:
				return -1
			case okB:
				return 1
			default:
				return 0
			}
		})
	default:
		slices.SortStableFunc(items, func(a, b Item) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}
}
