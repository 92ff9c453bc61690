package cart

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/catalog"
)

// ErrCorrupt is returned by Decode for documents that are not a line list.
var ErrCorrupt = errors.New("corrupt cart data")

// Encode serializes lines as a JSON array of {id, item, quantity, unitPrice}.
func Encode(lines []LineItem) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ArrStart()
	for _, l := range lines {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(l.ID)
		e.FieldStart("item")
		l.Item.Encode(e)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.FieldStart("unitPrice")
		e.Str(l.UnitPrice.String())
		e.ObjEnd()
	}
	e.ArrEnd()
	return slices.Clone(e.Bytes())
}

// Decode parses data written by Encode. A document that is not an array is
// ErrCorrupt; individual lines that do not fit the shape are dropped, and
// a repeated id keeps its first line.
func Decode(data []byte) ([]LineItem, error) {
	v, err := catalog.DecodeValue(jx.DecodeBytes(data))
	if err != nil {
		return nil, errors.Wrap(ErrCorrupt, err.Error())
	}
	list, ok := v.([]any)
	if !ok {
		return nil, ErrCorrupt
	}

	lines := make([]LineItem, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, raw := range list {
		l, ok := decodeLine(raw)
		if !ok {
			continue
		}
		if _, dup := seen[l.ID]; dup {
			continue
		}
		seen[l.ID] = struct{}{}
		lines = append(lines, l)
	}
	return lines, nil
}

func decodeLine(raw any) (LineItem, bool) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return LineItem{}, false
	}
	id, _ := obj["id"].(string)
	id = strings.TrimSpace(id)
	if id == "" {
		return LineItem{}, false
	}
	qty, ok := decodeQuantity(obj["quantity"])
	if !ok || qty < 1 {
		return LineItem{}, false
	}
	price, ok := decodeDecimal(obj["unitPrice"])
	if !ok || price.IsNegative() {
		return LineItem{}, false
	}
	itemRaw, ok := obj["item"].(map[string]any)
	if !ok {
		return LineItem{}, false
	}
	item := catalog.Normalize(itemRaw)
	if item.ID != id {
		return LineItem{}, false
	}
	return LineItem{ID: id, Item: item, Quantity: qty, UnitPrice: price}, true
}

func decodeDecimal(v any) (decimal.Decimal, bool) {
	var s string
	switch n := v.(type) {
	case json.Number:
		s = n.String()
	case string:
		s = n
	default:
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// decodeQuantity reads a whole quantity, capped at MaxQuantity. Values below
// one decode as zero.
func decodeQuantity(v any) (int, bool) {
	d, ok := decodeDecimal(v)
	if !ok || !d.Equal(d.Truncate(0)) {
		return 0, false
	}
	if d.LessThan(decimal.NewFromInt(1)) {
		return 0, true
	}
	return int(decimal.Min(d, decimal.NewFromInt(MaxQuantity)).IntPart()), true
}
