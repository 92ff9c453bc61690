package catalog

import (
	"slices"
	"time"

	"github.com/go-faster/jx"
)

// Encode writes it as a JSON object in the camelCase form that Normalize
// reads back.
func (it Item) Encode(e *jx.Encoder) {
	e.ObjStart()
	it.EncodeFields(e)
	e.ObjEnd()
}

// EncodeFields writes the fields of it into an object the caller has
// already started, so views can append their own fields.
func (it Item) EncodeFields(e *jx.Encoder) {
	e.FieldStart("id")
	e.Str(it.ID)
	e.FieldStart("slug")
	e.Str(it.Slug)
	e.FieldStart("title")
	e.Str(it.Title)
	if it.Kind != "" {
		e.FieldStart("type")
		e.Str(it.Kind)
	}
	e.FieldStart("description")
	e.Str(it.Description)
	e.FieldStart("price")
	e.Str(it.Price.String())
	if it.Category != nil {
		e.FieldStart("category")
		it.Category.Encode(e)
	}
	e.FieldStart("features")
	e.ArrStart()
	for _, f := range it.Features {
		e.Str(f)
	}
	e.ArrEnd()
	e.FieldStart("deliveryTime")
	e.Str(it.DeliveryTime)
	if it.DeliveryDays != nil {
		e.FieldStart("deliveryDays")
		e.Int(*it.DeliveryDays)
	}
	e.FieldStart("serviceType")
	e.Str(it.ServiceType)
	if it.UsageType != "" {
		e.FieldStart("usageType")
		e.Str(it.UsageType)
	}
	if it.StockQuantity != nil {
		e.FieldStart("stockQuantity")
		e.Int(*it.StockQuantity)
	}
	if it.SKU != "" {
		e.FieldStart("sku")
		e.Str(it.SKU)
	}
	if it.Featured {
		e.FieldStart("featured")
		e.Bool(true)
	}
	if it.FeaturedImage != nil {
		e.FieldStart("featuredImage")
		it.FeaturedImage.Encode(e)
	}
	e.FieldStart("images")
	e.ArrStart()
	for _, img := range it.Images {
		img.Encode(e)
	}
	e.ArrEnd()
	if !it.CreatedAt.IsZero() {
		e.FieldStart("createdAt")
		e.Str(it.CreatedAt.Format(time.RFC3339Nano))
	}
}

// MarshalJSON implements json.Marshaler.
func (it Item) MarshalJSON() ([]byte, error) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	it.Encode(e)
	return slices.Clone(e.Bytes()), nil
}

// Encode writes c as a JSON object.
func (c Category) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("title")
	e.Str(c.Title)
	e.FieldStart("slug")
	e.Str(c.Slug)
	e.ObjEnd()
}

// Encode writes img as a JSON object, omitting empty URLs.
func (img Image) Encode(e *jx.Encoder) {
	e.ObjStart()
	if img.URL != "" {
		e.FieldStart("url")
		e.Str(img.URL)
	}
	if img.OptimizedURL != "" {
		e.FieldStart("optimizedUrl")
		e.Str(img.OptimizedURL)
	}
	e.ObjEnd()
}

// UnmarshalJSON implements json.Unmarshaler. The decoded object passes
// through Normalize, so any JSON object yields a canonical Item.
func (it *Item) UnmarshalJSON(data []byte) error {
	rec, err := DecodeRecord(data)
	if err != nil {
		return err
	}
	*it = fromRecord(rec)
	return nil
}
