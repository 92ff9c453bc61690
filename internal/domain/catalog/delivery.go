package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

// DeliveryBucket is a coarse delivery-time filter value.
type DeliveryBucket string

// Known delivery buckets.
const (
	Delivery24h DeliveryBucket = "24h"
	Delivery3d  DeliveryBucket = "3d"
	Delivery1w  DeliveryBucket = "1w"
	Delivery2w  DeliveryBucket = "2w"
)

var bucketDays = map[DeliveryBucket]int{
	Delivery24h: 1,
	Delivery3d:  3,
	Delivery1w:  7,
	Delivery2w:  14,
}

// MaxDays returns the upper delivery bound of a known bucket.
func (b DeliveryBucket) MaxDays() (int, bool) {
	d, ok := bucketDays[DeliveryBucket(strings.ToLower(string(b)))]
	return d, ok
}

// deliveryRe matches "3 days", "3-5 business days", "24h", "1 week", "2w".
var deliveryRe = regexp.MustCompile(`(\d+)\s*(?:(?:-|–|to)\s*(\d+)\s*)?(h|hrs?|hours?|d|days?|business\s+days?|w|wks?|weeks?)\b`)

// DeliveryDays resolves the item's delivery time to whole days. Explicit
// deliveryDays wins; otherwise the free-text deliveryTime is parsed and
// ranges resolve to their upper bound.
func DeliveryDays(it Item) (int, bool) {
	if it.DeliveryDays != nil && *it.DeliveryDays > 0 {
		return *it.DeliveryDays, true
	}
	return parseDeliveryDays(it.DeliveryTime)
}

func parseDeliveryDays(s string) (int, bool) {
	m := deliveryRe.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	if m[2] != "" {
		if upper, err := strconv.Atoi(m[2]); err == nil && upper > n {
			n = upper
		}
	}
	if n <= 0 {
		return 0, false
	}
	switch unit := m[3]; {
	case strings.HasPrefix(unit, "h"):
		return (n + 23) / 24, true
	case strings.HasPrefix(unit, "w"):
		return n * 7, true
	default:
		return n, true
	}
}

// matches reports whether it falls inside the bucket.
func (b DeliveryBucket) matches(it Item) bool {
	if limit, ok := b.MaxDays(); ok {
		if days, ok := DeliveryDays(it); ok {
			return days <= limit
		}
	}
	return strings.EqualFold(strings.TrimSpace(it.DeliveryTime), string(b))
}
