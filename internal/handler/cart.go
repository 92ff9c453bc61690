package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
	"github.com/google/uuid"

	"github.com/xenking/storefront/internal/domain/cart"
)

// Cart session transport.
const (
	SessionHeader = "X-Cart-Session"
	SessionCookie = "cart_session"
)

// session returns the cart session id of r, issuing a new one (cookie and
// header) when the request carries none.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if !validSession(id) {
		id = ""
		if c, err := r.Cookie(SessionCookie); err == nil && validSession(c.Value) {
			id = c.Value
		}
	}
	if id == "" {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			MaxAge:   int(h.cfg.SessionTTL.Seconds()),
			HttpOnly: true,
			Secure:   h.cfg.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
	w.Header().Set(SessionHeader, id)
	return id
}

// validSession accepts 1 to 64 characters of [A-Za-z0-9_-].
func validSession(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

func (h *Handler) store(w http.ResponseWriter, r *http.Request) *cart.Store {
	return cart.NewStore(h.carts, h.session(w, r))
}

func (h *Handler) encodeCart(e *jx.Encoder, snap cart.Snapshot) {
	e.ObjStart()
	e.FieldStart("lines")
	e.ArrStart()
	for _, l := range snap.Lines {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(l.ID)
		e.FieldStart("item")
		h.encodeItem(e, l.Item)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.FieldStart("unitPrice")
		e.Str(l.UnitPrice.StringFixed(2))
		e.FieldStart("lineTotal")
		e.Str(l.Total().StringFixed(2))
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("subtotal")
	e.Str(snap.Subtotal.StringFixed(2))
	e.FieldStart("itemCount")
	e.Int(snap.ItemCount)
	e.ObjEnd()
}

func (h *Handler) writeCart(w http.ResponseWriter, snap cart.Snapshot) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeCart(e, snap)
	})
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, store *cart.Store, name string, a cart.Action) {
	snap, err := store.Dispatch(r.Context(), a)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.metrics.cartAction(r.Context(), name)
	h.writeCart(w, snap)
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	h.writeCart(w, h.store(w, r).Open(r.Context()))
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, h.store(w, r), "clear", cart.Clear{})
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var (
		slug     string
		quantity = 1
	)
	err := readObject(w, r, func(d *jx.Decoder, key string) error {
		switch key {
		case "slug":
			return decodeString(d, &slug)
		case "quantity":
			return decodeQuantity(d, &quantity)
		default:
			return d.Skip()
		}
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	store := h.store(w, r)
	it, err := h.catalog.Item(r.Context(), slug)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.dispatch(w, r, store, "add", cart.Add{Item: it, Quantity: quantity})
}

func (h *Handler) setCartQuantity(w http.ResponseWriter, r *http.Request) {
	quantity, set := 0, false
	err := readObject(w, r, func(d *jx.Decoder, key string) error {
		if key != "quantity" {
			return d.Skip()
		}
		set = true
		return decodeQuantity(d, &quantity)
	})
	if err == nil && !set {
		err = errBadRequest
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	h.dispatch(w, r, h.store(w, r), "set_quantity", cart.SetQuantity{
		ID:       chi.URLParam(r, "id"),
		Quantity: quantity,
	})
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, h.store(w, r), "remove", cart.Remove{ID: chi.URLParam(r, "id")})
}
