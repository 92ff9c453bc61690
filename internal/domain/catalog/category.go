package catalog

import "strings"

// CategoryValue is the category as supplied by the provider: either a plain
// label or a reference to a category entity. It is resolved exactly once,
// by the normalizer, into a *Category.
type CategoryValue interface {
	category() *Category
}

// CategoryLabel is a bare category name such as "Writing Services".
type CategoryLabel string

// CategoryRef references a category entity.
type CategoryRef Category

func (l CategoryLabel) category() *Category {
	title := strings.TrimSpace(string(l))
	if title == "" {
		return nil
	}
	return &Category{Title: title, Slug: Slugify(title)}
}

func (r CategoryRef) category() *Category {
	title := strings.TrimSpace(r.Title)
	slug := strings.TrimSpace(r.Slug)
	switch {
	case title == "" && slug == "":
		return nil
	case slug == "":
		slug = Slugify(title)
	case title == "":
		title = slug
	}
	return &Category{Title: title, Slug: slug}
}

// parseCategory classifies a raw category value. It returns nil for values
// that are neither a label nor a category-shaped object.
func parseCategory(raw any) CategoryValue {
	switch v := raw.(type) {
	case CategoryValue:
		return v
	case string:
		return CategoryLabel(v)
	case Category:
		return CategoryRef(v)
	case *Category:
		if v == nil {
			return nil
		}
		return CategoryRef(*v)
	case map[string]any:
		return CategoryRef{Title: asString(v["title"]), Slug: asString(v["slug"])}
	default:
		return nil
	}
}

func resolveCategory(v CategoryValue) *Category {
	if v == nil {
		return nil
	}
	return v.category()
}

// DeriveCategories collects the distinct categories referenced by items,
// in first-seen order.
func DeriveCategories(items []Item) []Category {
	seen := make(map[string]struct{}, len(items))
	out := []Category{}
	for _, it := range items {
		if it.Category == nil || it.Category.Slug == "" {
			continue
		}
		if _, ok := seen[it.Category.Slug]; ok {
			continue
		}
		seen[it.Category.Slug] = struct{}{}
		out = append(out, *it.Category)
	}
	return out
}
