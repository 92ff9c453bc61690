package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/contact"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/form"
	"github.com/xenking/storefront/internal/storage/memory"
)

type fakeProvider struct {
	records []catalog.RawRecord
}

func (f *fakeProvider) FetchCatalog(context.Context) ([]catalog.RawRecord, error) {
	return f.records, nil
}

func (f *fakeProvider) FetchCatalogItem(_ context.Context, slug string) (catalog.RawRecord, error) {
	for _, rec := range f.records {
		if rec["slug"] == slug {
			return rec, nil
		}
	}
	return nil, nil
}

func (f *fakeProvider) FetchCategories(context.Context) ([]catalog.RawRecord, error) {
	return nil, nil
}

type fakeOrders struct {
	id    string
	err   error
	calls int
}

func (f *fakeOrders) CreateOrder(context.Context, order.Payload) (string, error) {
	f.calls++
	return f.id, f.err
}

type fakeContacts struct {
	err  error
	sent []contact.Form
}

func (f *fakeContacts) SubmitContact(_ context.Context, c contact.Form) error {
	f.sent = append(f.sent, c)
	return f.err
}

type env struct {
	router   http.Handler
	orders   *fakeOrders
	contacts *fakeContacts
	session  string
}

func newEnv(t *testing.T) *env {
	t.Helper()

	provider := &fakeProvider{records: []catalog.RawRecord{
		{"slug": "audit", "title": "Security Audit", "created_at": "2024-03-01T00:00:00Z", "metadata": map[string]any{
			"price": "100", "category": "Consulting", "delivery_time": "3-5 business days",
			"featured_image": map[string]any{"url": "https://cdn.example.com/a.png", "imgix_url": "https://acme.imgix.net/a.png"},
		}},
		{"slug": "widget", "title": "Widget", "created_at": "2024-01-01T00:00:00Z", "metadata": map[string]any{
			"price": "25.50", "category": "Tools", "stock_quantity": 0,
		}},
		{"slug": "manual", "title": "Manual", "created_at": "2024-02-01T00:00:00Z", "metadata": map[string]any{
			"price": "10", "category": "Tools",
			"featured_image": map[string]any{"url": "https://cdn.example.com/m.png"},
		}},
	}}

	orders := &fakeOrders{id: "ord-1"}
	contacts := &fakeContacts{}
	v := form.New()

	h, err := NewHandler(Config{FallbackImage: "/fallback.png"},
		catalog.NewService(provider),
		memory.NewCartStorage(),
		order.NewService(orders, nil, v),
		contact.NewService(contacts, nil, v),
		noop.NewMeterProvider(),
	)
	require.NoError(t, err)

	r := chi.NewRouter()
	h.Register(r)
	return &env{router: r, orders: orders, contacts: contacts, session: "test-session"}
}

func (e *env) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if e.session != "" {
		req.Header.Set(SessionHeader, e.session)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]any
	if strings.HasPrefix(strings.TrimSpace(w.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestCatalog_List(t *testing.T) {
	e := newEnv(t)

	w, body := e.do(t, http.MethodGet, "/api/catalog?category=tools&sort=price-low&bogus=1", "")
	require.Equal(t, http.StatusOK, w.Code)

	items := body["items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "Manual", first["title"])
	assert.Equal(t, "https://cdn.example.com/m.png", first["image"])
	second := items[1].(map[string]any)
	assert.Equal(t, "/fallback.png", second["image"])
	assert.Equal(t, false, second["inStock"])

	assert.Equal(t, float64(2), body["count"])
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, "price-asc", body["sort"])
	assert.Equal(t, "category=tools&sort=price-asc", body["query"])
	assert.Len(t, body["categories"], 2)
}

func TestCatalog_DefaultSortAndFilters(t *testing.T) {
	e := newEnv(t)

	_, body := e.do(t, http.MethodGet, "/api/catalog", "")
	var got []string
	for _, it := range body["items"].([]any) {
		got = append(got, it.(map[string]any)["slug"].(string))
	}
	assert.Equal(t, []string{"audit", "manual", "widget"}, got)
	assert.Equal(t, "", body["query"])

	_, body = e.do(t, http.MethodGet, "/api/catalog?inStock=true&maxPrice=50", "")
	require.Len(t, body["items"], 1)
	assert.Equal(t, "manual", body["items"].([]any)[0].(map[string]any)["slug"])

	_, body = e.do(t, http.MethodGet, "/api/catalog?search=nothing-matches", "")
	assert.Equal(t, []any{}, body["items"])
}

func TestCatalog_Item(t *testing.T) {
	e := newEnv(t)

	w, body := e.do(t, http.MethodGet, "/api/catalog/audit", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://acme.imgix.net/a.png?w=600&h=400&fit=crop&auto=format,compress", body["image"])
	assert.Equal(t, float64(5), body["deliveryDaysResolved"])

	w, body = e.do(t, http.MethodGet, "/api/catalog/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, map[string]any{"code": float64(404), "message": "item not found"}, body)
}

func TestCategories(t *testing.T) {
	e := newEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var cats []catalog.Category
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cats))
	assert.Equal(t, []catalog.Category{
		{Title: "Consulting", Slug: "consulting"},
		{Title: "Tools", Slug: "tools"},
	}, cats)
}

func TestCart_Flow(t *testing.T) {
	e := newEnv(t)

	w, body := e.do(t, http.MethodGet, "/api/cart", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test-session", w.Header().Get(SessionHeader))
	assert.Equal(t, float64(0), body["itemCount"])
	assert.Equal(t, "0.00", body["subtotal"])

	_, body = e.do(t, http.MethodPost, "/api/cart/items", `{"slug":"manual","quantity":2}`)
	_, body = e.do(t, http.MethodPost, "/api/cart/items", `{"slug":"audit"}`)
	_, body = e.do(t, http.MethodPost, "/api/cart/items", `{"slug":"manual","quantity":"1"}`)
	assert.Equal(t, float64(4), body["itemCount"])
	assert.Equal(t, "130.00", body["subtotal"])
	lines := body["lines"].([]any)
	require.Len(t, lines, 2)
	assert.Equal(t, "30.00", lines[0].(map[string]any)["lineTotal"])

	_, body = e.do(t, http.MethodPut, "/api/cart/items/manual", `{"quantity":1}`)
	assert.Equal(t, "110.00", body["subtotal"])

	_, body = e.do(t, http.MethodDelete, "/api/cart/items/audit", "")
	assert.Equal(t, float64(1), body["itemCount"])

	_, body = e.do(t, http.MethodPut, "/api/cart/items/manual", `{"quantity":0}`)
	assert.Equal(t, float64(0), body["itemCount"])

	_, _ = e.do(t, http.MethodPost, "/api/cart/items", `{"slug":"widget"}`)
	_, body = e.do(t, http.MethodDelete, "/api/cart", "")
	assert.Equal(t, []any{}, body["lines"])
}

func TestCart_Errors(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{"unknown item", http.MethodPost, "/api/cart/items", `{"slug":"nope"}`, http.StatusNotFound},
		{"blank slug", http.MethodPost, "/api/cart/items", `{}`, http.StatusNotFound},
		{"zero quantity", http.MethodPost, "/api/cart/items", `{"slug":"manual","quantity":0}`, http.StatusBadRequest},
		{"fractional quantity", http.MethodPost, "/api/cart/items", `{"slug":"manual","quantity":1.5}`, http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/api/cart/items", `{"slug":`, http.StatusBadRequest},
		{"not an object", http.MethodPost, "/api/cart/items", `["manual"]`, http.StatusBadRequest},
		{"missing quantity", http.MethodPut, "/api/cart/items/manual", `{}`, http.StatusBadRequest},
		{"quantity above limit", http.MethodPost, "/api/cart/items", `{"slug":"manual","quantity":10000}`, http.StatusBadRequest},
		{"quantity overflows", http.MethodPost, "/api/cart/items", `{"slug":"manual","quantity":9223372036854775807}`, http.StatusBadRequest},
		{"set above limit", http.MethodPut, "/api/cart/items/manual", `{"quantity":"10000"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := e.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, float64(tt.code), body["code"])
		})
	}
}

func TestSession(t *testing.T) {
	e := newEnv(t)
	e.session = ""

	w, _ := e.do(t, http.MethodPost, "/api/cart/items", `{"slug":"manual"}`)
	require.Equal(t, http.StatusOK, w.Code)
	issued := w.Header().Get(SessionHeader)
	require.Len(t, issued, 36)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Equal(t, issued, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	// The cookie alone identifies the same cart.
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	assert.Empty(t, w.Result().Cookies())
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["itemCount"])

	// Carts are isolated per session.
	e.session = "other"
	_, body = e.do(t, http.MethodGet, "/api/cart", "")
	assert.Equal(t, float64(0), body["itemCount"])

	assert.True(t, validSession("abc_DEF-123"))
	assert.False(t, validSession("has space"))
	assert.False(t, validSession(strings.Repeat("a", 65)))
}

const checkoutBody = `{
	"customerName": "Grace Hopper",
	"email": "grace@example.com",
	"phone": "(404) 889-5545",
	"address": {"street": "1 Main St", "city": "Atlanta", "state": "GA", "zip": 30339},
	"paymentMethod": "%s"
}`

func checkoutJSON(method string) string {
	return strings.Replace(checkoutBody, "%s", method, 1)
}

func TestCheckout(t *testing.T) {
	t.Run("card keeps cart", func(t *testing.T) {
		e := newEnv(t)
		e.do(t, http.MethodPost, "/api/cart/items", `{"slug":"manual","quantity":3}`)

		w, body := e.do(t, http.MethodPost, "/api/checkout", checkoutJSON("card"))
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "ord-1", body["orderId"])
		assert.Equal(t, "payment", body["next"])
		assert.Equal(t, "/payment/ord-1", body["redirect"])
		assert.Equal(t, float64(3), body["cart"].(map[string]any)["itemCount"])

		ord := body["order"].(map[string]any)
		assert.Equal(t, "30.00", ord["total"])
		assert.Equal(t, "+14048895545", ord["phone"])
		assert.Equal(t, "30339", ord["address"].(map[string]any)["zip"])

		w, body = e.do(t, http.MethodPost, "/api/checkout/ord-1/payment-confirmed", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(0), body["itemCount"])
	})

	t.Run("paypal clears cart", func(t *testing.T) {
		e := newEnv(t)
		e.do(t, http.MethodPost, "/api/cart/items", `{"slug":"manual"}`)

		w, body := e.do(t, http.MethodPost, "/api/checkout", checkoutJSON("paypal"))
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "/order-confirmation/ord-1", body["redirect"])

		_, body = e.do(t, http.MethodGet, "/api/cart", "")
		assert.Equal(t, float64(0), body["itemCount"])
	})

	t.Run("validation errors", func(t *testing.T) {
		e := newEnv(t)
		e.do(t, http.MethodPost, "/api/cart/items", `{"slug":"manual"}`)

		w, body := e.do(t, http.MethodPost, "/api/checkout", `{"email":"nope","paymentMethod":"cash"}`)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		fields := body["fields"].(map[string]any)
		assert.Equal(t, "Please enter a valid email address", fields["email"])
		assert.Equal(t, "Name is required", fields["customerName"])
		assert.Zero(t, e.orders.calls)
	})

	t.Run("empty cart", func(t *testing.T) {
		e := newEnv(t)
		w, _ := e.do(t, http.MethodPost, "/api/checkout", checkoutJSON("card"))
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("gateway failure keeps cart", func(t *testing.T) {
		e := newEnv(t)
		e.orders.err = errors.New("upstream 500")
		e.do(t, http.MethodPost, "/api/cart/items", `{"slug":"manual"}`)

		w, body := e.do(t, http.MethodPost, "/api/checkout", checkoutJSON("paypal"))
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, orderFailedMessage, body["message"])

		_, body = e.do(t, http.MethodGet, "/api/cart", "")
		assert.Equal(t, float64(1), body["itemCount"])
	})

	t.Run("blank order id on payment confirmation", func(t *testing.T) {
		e := newEnv(t)
		w, _ := e.do(t, http.MethodPost, "/api/checkout/%20/payment-confirmed", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestContact(t *testing.T) {
	e := newEnv(t)

	w, body := e.do(t, http.MethodPost, "/api/contact",
		`{"name":"Ada","email":"ada@example.com","inquiryType":"support","subject":"Help","message":"<p>Hi</p>"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "received", body["status"])
	require.Len(t, e.contacts.sent, 1)
	assert.Equal(t, "Hi", e.contacts.sent[0].Message)
	assert.Equal(t, contact.InquirySupport, e.contacts.sent[0].InquiryType)

	w, body = e.do(t, http.MethodPost, "/api/contact", `{"email":"ada@example.com"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, body["fields"], "subject")

	e.contacts.err = errors.New("down")
	w, body = e.do(t, http.MethodPost, "/api/contact",
		`{"name":"Ada","email":"ada@example.com","subject":"Help","message":"Hi"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, contactFailedMessage, body["message"])
}

func TestImageURL(t *testing.T) {
	tests := []struct {
		name string
		img  *catalog.Image
		want string
	}{
		{"nil", nil, "/fb.png"},
		{"empty", &catalog.Image{}, "/fb.png"},
		{"original only", &catalog.Image{URL: "https://x/a.png"}, "https://x/a.png"},
		{"imgix", &catalog.Image{OptimizedURL: "https://a.imgix.net/a.png"}, "https://a.imgix.net/a.png?w=600&h=400&fit=crop&auto=format,compress"},
		{"imgix with query", &catalog.Image{OptimizedURL: "https://a.imgix.net/a.png?v=2"}, "https://a.imgix.net/a.png?v=2&w=600&h=400&fit=crop&auto=format,compress"},
		{"other cdn", &catalog.Image{OptimizedURL: "https://cdn/a.png", URL: "https://x/a.png"}, "https://cdn/a.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ImageURL(tt.img, "/fb.png"))
		})
	}
}

func TestNotFound(t *testing.T) {
	e := newEnv(t)
	w, body := e.do(t, http.MethodGet, "/api/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not found", body["message"])
}
