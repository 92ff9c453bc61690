package catalog

import (
	"context"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested catalog item does not exist.
var ErrNotFound = errors.New("catalog item not found")

// RawRecord is a loosely-typed object as returned by the content provider.
// It must pass through Normalize before anything else touches it.
type RawRecord = map[string]any

// Item is the normalized product/service record. Every Item produced by
// Normalize satisfies the field contracts documented on each field.
type Item struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	// Title is never empty.
	Title string `json:"title"`
	// Kind is the provider object type, e.g. "products" or "rfp-services".
	Kind        string          `json:"type,omitempty"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    *Category       `json:"category,omitempty"`
	// Features is always a slice of trimmed non-empty strings, never nil.
	Features     []string `json:"features"`
	DeliveryTime string   `json:"deliveryTime"`
	DeliveryDays *int     `json:"deliveryDays,omitempty"`
	ServiceType  string   `json:"serviceType"`
	UsageType    string   `json:"usageType,omitempty"`
	// StockQuantity is nil for items that do not track stock.
	StockQuantity *int   `json:"stockQuantity,omitempty"`
	SKU           string `json:"sku,omitempty"`
	Featured      bool   `json:"featured,omitempty"`
	// FeaturedImage is nil when the provider supplied no usable image.
	FeaturedImage *Image    `json:"featuredImage,omitempty"`
	Images        []Image   `json:"images"`
	CreatedAt     time.Time `json:"createdAt,omitzero"`
}

// Image holds the original and CDN-optimized URL of a catalog image.
type Image struct {
	URL          string `json:"url,omitempty"`
	OptimizedURL string `json:"optimizedUrl,omitempty"`
}

// Category is the canonical category shape every item resolves to.
type Category struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// InStock reports whether the item can be ordered. Items without a stock
// field are always in stock.
func (it Item) InStock() bool {
	return it.StockQuantity == nil || *it.StockQuantity > 0
}

// CategoryTitle returns the category label or "" for uncategorized items.
func (it Item) CategoryTitle() string {
	if it.Category == nil {
		return ""
	}
	return it.Category.Title
}

// Clone returns a deep copy that shares no memory with it.
func (it Item) Clone() Item {
	out := it
	out.Features = slices.Clone(it.Features)
	out.Images = slices.Clone(it.Images)
	if out.Features == nil {
		out.Features = []string{}
	}
	if out.Images == nil {
		out.Images = []Image{}
	}
	if it.Category != nil {
		c := *it.Category
		out.Category = &c
	}
	if it.FeaturedImage != nil {
		img := *it.FeaturedImage
		out.FeaturedImage = &img
	}
	out.DeliveryDays = cloneInt(it.DeliveryDays)
	out.StockQuantity = cloneInt(it.StockQuantity)
	return out
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Provider is the content provider boundary. Implementations make no
// promises about record shape; a missing item is reported as (nil, nil).
type Provider interface {
	FetchCatalog(ctx context.Context) ([]RawRecord, error)
	FetchCatalogItem(ctx context.Context, slug string) (RawRecord, error)
	FetchCategories(ctx context.Context) ([]RawRecord, error)
}
