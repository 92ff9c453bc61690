package catalog

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Page is a filtered, sorted catalog listing together with the categories
// available for filtering.
type Page struct {
	Items      []Item
	Categories []Category
	Criteria   Criteria
	Sort       SortKey
	// Total is the number of items before filtering.
	Total int
}

// Service reads the catalog through a Provider. Every record crosses the
// normalization boundary here and nowhere else.
type Service struct {
	provider Provider
}

// NewService creates a catalog Service.
func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

// Page fetches the listing and categories concurrently, then filters and
// sorts. A failed fetch degrades to an empty list and never fails the page.
func (s *Service) Page(ctx context.Context, c Criteria, key SortKey) (*Page, error) {
	var (
		records    []RawRecord
		categories []RawRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, err := s.provider.FetchCatalog(gctx)
		if err != nil {
			zctx.From(ctx).Warn("Fetch catalog failed, rendering empty listing", zap.Error(err))
			return nil
		}
		records = recs
		return nil
	})
	g.Go(func() error {
		recs, err := s.provider.FetchCategories(gctx)
		if err != nil {
			zctx.From(ctx).Warn("Fetch categories failed", zap.Error(err))
			return nil
		}
		categories = recs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "fetch catalog")
	}

	items := NormalizeAll(records)
	cats := make([]Category, 0, len(categories))
	for _, rec := range categories {
		if c := NormalizeCategory(rec); c != nil {
			cats = append(cats, *c)
		}
	}
	if len(cats) == 0 {
		cats = DeriveCategories(items)
	}

	return &Page{
		Items:      FilterAndSort(items, c, key),
		Categories: cats,
		Criteria:   c,
		Sort:       ParseSortKey(string(key)),
		Total:      len(items),
	}, nil
}

// Item returns the normalized item with the given slug. Unknown slugs and
// provider failures both yield ErrNotFound; failures are logged.
func (s *Service) Item(ctx context.Context, slug string) (Item, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return Item{}, ErrNotFound
	}
	rec, err := s.provider.FetchCatalogItem(ctx, slug)
	if err != nil {
		zctx.From(ctx).Warn("Fetch catalog item failed",
			zap.String("slug", slug),
			zap.Error(err),
		)
		return Item{}, ErrNotFound
	}
	if rec == nil {
		return Item{}, ErrNotFound
	}
	return Normalize(rec), nil
}

// Categories returns the provider categories, or the ones derived from the
// listing when the provider has none.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	p, err := s.Page(ctx, Criteria{}, DefaultSort)
	if err != nil {
		return nil, err
	}
	return p.Categories, nil
}
