package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/contact"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/form"
)

// User-facing messages for failed submissions. The cause is only logged.
const (
	orderFailedMessage   = "There was an error processing your order. Please try again."
	contactFailedMessage = "Sorry, there was an error sending your message. Please try again."
)

func decodeCheckoutForm(d *jx.Decoder, key string, f *order.CheckoutForm) error {
	switch key {
	case "address":
		if d.Next() != jx.Object {
			return d.Skip()
		}
		return d.Obj(strFields(map[string]*string{
			"street":  &f.Address.Street,
			"city":    &f.Address.City,
			"state":   &f.Address.State,
			"zip":     &f.Address.Zip,
			"country": &f.Address.Country,
		}))
	case "paymentMethod":
		var s string
		if err := decodeString(d, &s); err != nil {
			return err
		}
		f.PaymentMethod = order.PaymentMethod(s)
		return nil
	default:
		return strFields(map[string]*string{
			"customerName": &f.CustomerName,
			"email":        &f.Email,
			"phone":        &f.Phone,
			"company":      &f.Company,
			"notes":        &f.Notes,
		})(d, key)
	}
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var f order.CheckoutForm
	if err := readObject(w, r, func(d *jx.Decoder, key string) error {
		return decodeCheckoutForm(d, key, &f)
	}); err != nil {
		fail(w, r, err)
		return
	}

	ctx := r.Context()
	method := string(f.Clean().PaymentMethod)
	res, err := h.orders.Checkout(ctx, h.store(w, r), f)
	var verr *form.ValidationError
	switch {
	case err == nil:
		h.metrics.checkout(ctx, "success", method)
	case errors.As(err, &verr):
		h.metrics.checkout(ctx, "invalid", method)
		writeValidationError(w, verr)
		return
	case errors.Is(err, order.ErrEmptyCart):
		h.metrics.checkout(ctx, "empty_cart", method)
		writeError(w, http.StatusConflict, "cart is empty")
		return
	case errors.Is(err, order.ErrSubmissionFailed):
		h.metrics.checkout(ctx, "failed", method)
		writeError(w, http.StatusBadGateway, orderFailedMessage)
		return
	default:
		h.metrics.checkout(ctx, "error", method)
		fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("orderId")
		e.Str(res.OrderID)
		e.FieldStart("next")
		e.Str(string(res.Next))
		e.FieldStart("redirect")
		e.Str(res.Redirect)
		e.FieldStart("order")
		res.Payload.Encode(e)
		e.FieldStart("cart")
		h.encodeCart(e, res.Cart)
		e.ObjEnd()
	})
}

func (h *Handler) paymentConfirmed(w http.ResponseWriter, r *http.Request) {
	snap, err := h.orders.ConfirmPayment(r.Context(), h.store(w, r), chi.URLParam(r, "orderID"))
	if errors.Is(err, order.ErrInvalidOrderID) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	h.writeCart(w, snap)
}

func (h *Handler) submitContact(w http.ResponseWriter, r *http.Request) {
	var f contact.Form
	err := readObject(w, r, func(d *jx.Decoder, key string) error {
		if key == "inquiryType" {
			var s string
			if err := decodeString(d, &s); err != nil {
				return err
			}
			f.InquiryType = contact.InquiryType(s)
			return nil
		}
		return strFields(map[string]*string{
			"name":    &f.Name,
			"email":   &f.Email,
			"phone":   &f.Phone,
			"company": &f.Company,
			"subject": &f.Subject,
			"message": &f.Message,
		})(d, key)
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	ctx := r.Context()
	err = h.contacts.Submit(ctx, f)
	var verr *form.ValidationError
	switch {
	case err == nil:
		h.metrics.contact(ctx, "success")
		writeJSON(w, http.StatusAccepted, func(e *jx.Encoder) {
			e.ObjStart()
			e.FieldStart("status")
			e.Str("received")
			e.ObjEnd()
		})
	case errors.As(err, &verr):
		h.metrics.contact(ctx, "invalid")
		writeValidationError(w, verr)
	case errors.Is(err, contact.ErrSubmissionFailed):
		h.metrics.contact(ctx, "failed")
		writeError(w, http.StatusBadGateway, contactFailedMessage)
	default:
		h.metrics.contact(ctx, "error")
		fail(w, r, err)
	}
}
