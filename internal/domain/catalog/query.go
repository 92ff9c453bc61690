package catalog

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/schema"
	"github.com/shopspring/decimal"
)

// queryForm is the URL shape of a listing request. Every field is a string
// so that malformed values degrade to "absent" instead of failing the
// whole decode.
type queryForm struct {
	Search       string `schema:"search,omitempty"`
	Category     string `schema:"category,omitempty"`
	MinPrice     string `schema:"minPrice,omitempty"`
	MaxPrice     string `schema:"maxPrice,omitempty"`
	DeliveryTime string `schema:"deliveryTime,omitempty"`
	ServiceType  string `schema:"serviceType,omitempty"`
	UsageType    string `schema:"usageType,omitempty"`
	InStock      string `schema:"inStock,omitempty"`
	Sort         string `schema:"sort,omitempty"`
}

var (
	queryDecoder = newQueryDecoder()
	queryEncoder = schema.NewEncoder()
)

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// ParseQuery reads listing criteria and sort order from URL query values.
// Unknown keys are ignored and malformed values are treated as absent.
func ParseQuery(values url.Values) (Criteria, SortKey) {
	var f queryForm
	if err := queryDecoder.Decode(&f, values); err != nil {
		f = queryForm{}
	}
	c := Criteria{
		CategorySlug:   strings.TrimSpace(f.Category),
		MinPrice:       parseBound(f.MinPrice),
		MaxPrice:       parseBound(f.MaxPrice),
		DeliveryBucket: DeliveryBucket(strings.TrimSpace(f.DeliveryTime)),
		ServiceType:    strings.TrimSpace(f.ServiceType),
		UsageType:      strings.TrimSpace(f.UsageType),
		Search:         strings.TrimSpace(f.Search),
	}
	if v, err := strconv.ParseBool(strings.TrimSpace(f.InStock)); err == nil {
		c.InStockOnly = v
	}
	key := DefaultSort
	if strings.TrimSpace(f.Sort) != "" {
		key = ParseSortKey(f.Sort)
	}
	return c, key
}

func parseBound(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// Query serializes c and key back to URL values. Empty criteria and the
// default sort are omitted, so ParseQuery(c.Query(k)) yields c and k again.
func (c Criteria) Query(key SortKey) url.Values {
	f := queryForm{
		Search:       strings.TrimSpace(c.Search),
		Category:     c.CategorySlug,
		DeliveryTime: string(c.DeliveryBucket),
		ServiceType:  c.ServiceType,
		UsageType:    c.UsageType,
	}
	if c.MinPrice.Valid {
		f.MinPrice = c.MinPrice.Decimal.String()
	}
	if c.MaxPrice.Valid {
		f.MaxPrice = c.MaxPrice.Decimal.String()
	}
	if c.InStockOnly {
		f.InStock = "true"
	}
	if k := ParseSortKey(string(key)); k != DefaultSort {
		f.Sort = string(k)
	}
	values := url.Values{}
	if err := queryEncoder.Encode(f, values); err != nil {
		return url.Values{}
	}
	return values
}
