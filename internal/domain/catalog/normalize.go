package catalog

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Defaults substituted for missing or wrong-typed fields.
const (
	DefaultTitle        = "Untitled"
	DefaultDeliveryTime = "N/A"
	DefaultServiceType  = "standard"
)

// Normalize converts a loosely-typed record into a canonical Item. It is a
// total function: any input, including nil, produces a usable Item.
// Normalize is idempotent.
func Normalize(raw any) Item {
	switch v := raw.(type) {
	case Item:
		return v.Clone().canonical()
	case *Item:
		if v == nil {
			return fromRecord(nil)
		}
		return v.Clone().canonical()
	case map[string]any:
		return fromRecord(v)
	case json.RawMessage:
		rec, _ := DecodeRecord(v)
		return fromRecord(rec)
	case []byte:
		rec, _ := DecodeRecord(v)
		return fromRecord(rec)
	default:
		return fromRecord(nil)
	}
}

// NormalizeAll normalizes every record, preserving order.
func NormalizeAll(records []RawRecord) []Item {
	out := make([]Item, 0, len(records))
	for _, rec := range records {
		out = append(out, fromRecord(rec))
	}
	return out
}

// NormalizeCategory resolves a category record or label. It returns nil when
// raw carries neither a title nor a slug.
func NormalizeCategory(raw any) *Category {
	return resolveCategory(parseCategory(raw))
}

// fromRecord reads CMS objects (snake_case under "metadata") as well as our
// own serialized Items (camelCase at the top level).
func fromRecord(rec map[string]any) Item {
	meta, _ := rec["metadata"].(map[string]any)
	get := func(keys ...string) any {
		for _, m := range []map[string]any{meta, rec} {
			for _, k := range keys {
				if v, ok := m[k]; ok && v != nil {
					return v
				}
			}
		}
		return nil
	}

	it := Item{
		ID:            asString(get("id")),
		Slug:          asString(get("slug")),
		Title:         asString(get("title")),
		Kind:          asString(get("type")),
		Description:   asString(get("description")),
		Price:         asPrice(get("price")),
		Category:      resolveCategory(parseCategory(get("category"))),
		Features:      asFeatures(get("features", "tags")),
		DeliveryTime:  asString(get("delivery_time", "deliveryTime")),
		DeliveryDays:  asInt(get("delivery_days", "deliveryDays")),
		ServiceType:   asString(get("service_type", "serviceType")),
		UsageType:     asString(get("usage_type", "usageType")),
		StockQuantity: asInt(get("stock_quantity", "stockQuantity")),
		SKU:           asString(get("sku")),
		Featured:      asBool(get("featured")),
		FeaturedImage: asImage(get("featured_image", "featuredImage")),
		Images:        asImages(get("images")),
		CreatedAt:     asTime(get("created_at", "createdAt")),
	}
	return it.canonical()
}

// canonical applies the cross-field invariants. Applying it twice is the
// same as applying it once.
func (it Item) canonical() Item {
	it.Title = strings.TrimSpace(it.Title)
	if it.Title == "" {
		it.Title = DefaultTitle
	}
	it.Slug = strings.TrimSpace(it.Slug)
	if it.Slug == "" {
		it.Slug = Slugify(it.Title)
	}
	it.ID = strings.TrimSpace(it.ID)
	if it.ID == "" {
		it.ID = it.Slug
	}
	if it.Price.IsNegative() {
		it.Price = decimal.Zero
	}
	if strings.TrimSpace(it.DeliveryTime) == "" {
		it.DeliveryTime = DefaultDeliveryTime
	}
	if strings.TrimSpace(it.ServiceType) == "" {
		it.ServiceType = DefaultServiceType
	}
	it.Features = cleanStrings(it.Features)
	images := make([]Image, 0, len(it.Images))
	for _, img := range it.Images {
		if p := imageOrNil(img); p != nil {
			images = append(images, *p)
		}
	}
	it.Images = images
	if it.FeaturedImage != nil {
		it.FeaturedImage = imageOrNil(*it.FeaturedImage)
	}
	if it.StockQuantity != nil && *it.StockQuantity < 0 {
		zero := 0
		it.StockQuantity = &zero
	}
	if it.DeliveryDays != nil && *it.DeliveryDays <= 0 {
		it.DeliveryDays = nil
	}
	if it.Category != nil {
		it.Category = resolveCategory(CategoryRef(*it.Category))
	}
	if !it.CreatedAt.IsZero() {
		it.CreatedAt = it.CreatedAt.Round(0).UTC()
	}
	return it
}

// Slugify lowercases s and joins its whitespace-separated words with "-".
func Slugify(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}

func cleanStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		ok, _ := strconv.ParseBool(strings.TrimSpace(b))
		return ok
	default:
		return false
	}
}

func asFeatures(v any) []string {
	switch f := v.(type) {
	case []string:
		return cleanStrings(f)
	case []any:
		out := make([]string, 0, len(f))
		for _, e := range f {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return cleanStrings(out)
	case string:
		return cleanStrings(strings.Split(f, ","))
	default:
		return []string{}
	}
}

// asDecimal coerces numbers and numeric strings. ok is false for anything
// that has no finite numeric reading.
func asDecimal(v any) (d decimal.Decimal, ok bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(n), true
	case float32:
		return asDecimal(float64(n))
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case json.Number:
		return asDecimal(string(n))
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

func asPrice(v any) decimal.Decimal {
	d, ok := asDecimal(v)
	if !ok {
		return decimal.Zero
	}
	return d
}

func asInt(v any) *int {
	d, ok := asDecimal(v)
	if !ok {
		return nil
	}
	// IntPart wraps for values outside int64.
	d = decimal.Max(decimal.Min(d, decimal.NewFromInt(math.MaxInt)), decimal.NewFromInt(math.MinInt))
	n := int(d.IntPart())
	return &n
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
			if parsed, err := time.Parse(layout, strings.TrimSpace(t)); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}

func asImage(v any) *Image {
	switch img := v.(type) {
	case Image:
		return imageOrNil(img)
	case *Image:
		if img == nil {
			return nil
		}
		return imageOrNil(*img)
	case map[string]any:
		optimized := asString(img["imgix_url"])
		if optimized == "" {
			optimized = asString(img["imgixUrl"])
		}
		if optimized == "" {
			optimized = asString(img["optimizedUrl"])
		}
		return imageOrNil(Image{URL: asString(img["url"]), OptimizedURL: optimized})
	default:
		return nil
	}
}

func imageOrNil(img Image) *Image {
	img.URL = strings.TrimSpace(img.URL)
	img.OptimizedURL = strings.TrimSpace(img.OptimizedURL)
	if img.URL == "" && img.OptimizedURL == "" {
		return nil
	}
	return &img
}

func asImages(v any) []Image {
	out := []Image{}
	list, ok := v.([]any)
	if !ok {
		return out
	}
	for _, e := range list {
		if img := asImage(e); img != nil {
			out = append(out, *img)
		}
	}
	return out
}
