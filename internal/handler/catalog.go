package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/catalog"
)

const imgixTransform = "w=600&h=400&fit=crop&auto=format,compress"

// ImageURL picks the display image for an item: the featured image's
// optimized URL (with the imgix crop transform), else its original URL, else
// fallback.
func ImageURL(img *catalog.Image, fallback string) string {
	switch {
	case img == nil:
		return fallback
	case img.OptimizedURL != "":
		return transformImgix(img.OptimizedURL)
	case img.URL != "":
		return img.URL
	default:
		return fallback
	}
}

func transformImgix(u string) string {
	if !strings.Contains(u, "imgix.net") {
		return u
	}
	if strings.Contains(u, "?") {
		return u + "&" + imgixTransform
	}
	return u + "?" + imgixTransform
}

func (h *Handler) encodeItem(e *jx.Encoder, it catalog.Item) {
	e.ObjStart()
	it.EncodeFields(e)
	e.FieldStart("image")
	e.Str(ImageURL(it.FeaturedImage, h.cfg.FallbackImage))
	e.FieldStart("inStock")
	e.Bool(it.InStock())
	if days, ok := catalog.DeliveryDays(it); ok {
		e.FieldStart("deliveryDaysResolved")
		e.Int(days)
	}
	e.ObjEnd()
}

func encodeCategories(e *jx.Encoder, cats []catalog.Category) {
	e.ArrStart()
	for _, c := range cats {
		c.Encode(e)
	}
	e.ArrEnd()
}

func (h *Handler) listCatalog(w http.ResponseWriter, r *http.Request) {
	criteria, sort := catalog.ParseQuery(r.URL.Query())

	page, err := h.catalog.Page(r.Context(), criteria, sort)
	if err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("items")
		e.ArrStart()
		for _, it := range page.Items {
			h.encodeItem(e, it)
		}
		e.ArrEnd()
		e.FieldStart("categories")
		encodeCategories(e, page.Categories)
		e.FieldStart("count")
		e.Int(len(page.Items))
		e.FieldStart("total")
		e.Int(page.Total)
		e.FieldStart("sort")
		e.Str(string(page.Sort))
		e.FieldStart("query")
		e.Str(page.Criteria.Query(page.Sort).Encode())
		e.ObjEnd()
	})
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	it, err := h.catalog.Item(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeItem(e, it)
	})
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalog.Categories(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCategories(e, cats)
	})
}
