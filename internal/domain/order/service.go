package order

import (
	"context"
	"net/url"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/form"
)

// ErrInvalidOrderID is returned for blank order ids.
var ErrInvalidOrderID = errors.New("invalid order id")

// Next is the step the buyer continues with after checkout.
type Next string

// Checkout continuations.
const (
	NextPayment      Next = "payment"
	NextConfirmation Next = "confirmation"
)

// Result describes a successfully submitted order.
type Result struct {
	OrderID  string
	Next     Next
	Redirect string
	Payload  Payload
	// Cart is the cart after checkout: unchanged for immediate-capture
	// payments, empty otherwise.
	Cart cart.Snapshot
}

// Service encapsulates checkout business logic.
type Service struct {
	gateway   Gateway
	notifier  Notifier
	validator *form.Validator
}

// NewService creates an order Service. notifier may be nil.
func NewService(gateway Gateway, notifier Notifier, validator *form.Validator) *Service {
	return &Service{
		gateway:   gateway,
		notifier:  notifier,
		validator: validator,
	}
}

// Checkout validates the form, assembles the order from the session cart
// and submits it once. On failure the cart is left untouched and
// ErrSubmissionFailed is returned.
func (s *Service) Checkout(ctx context.Context, store *cart.Store, f CheckoutForm) (*Result, error) {
	lg := zctx.From(ctx)

	if err := Validate(s.validator, f); err != nil {
		return nil, err
	}

	payload, err := Assemble(store.Open(ctx), f)
	if err != nil {
		return nil, err
	}

	id, err := s.gateway.CreateOrder(ctx, payload)
	if err != nil {
		lg.Error("Create order failed", zap.Error(err))
		return nil, errors.Wrap(ErrSubmissionFailed, err.Error())
	}
	if strings.TrimSpace(id) == "" {
		lg.Error("Order endpoint returned no order id")
		return nil, ErrSubmissionFailed
	}
	lg = lg.With(zap.String("order_id", id))
	lg.Info("Order created",
		zap.String("payment_method", string(payload.PaymentMethod)),
		zap.String("total", payload.Total.StringFixed(2)),
		zap.Int("lines", len(payload.LineItems)),
	)

	res := &Result{OrderID: id, Payload: payload}
	if payload.PaymentMethod.ImmediateCapture() {
		res.Next = NextPayment
		res.Redirect = "/payment/" + url.PathEscape(id)
		res.Cart = store.Snapshot()
	} else {
		res.Next = NextConfirmation
		res.Redirect = "/order-confirmation/" + url.PathEscape(id)
		if res.Cart, err = store.Dispatch(ctx, cart.Clear{}); err != nil {
			return nil, errors.Wrap(err, "clear cart")
		}
	}

	if s.notifier != nil {
		if err := s.notifier.OrderPlaced(ctx, id, payload); err != nil {
			lg.Warn("Send order confirmation failed", zap.Error(err))
		}
	}
	return res, nil
}

// ConfirmPayment clears the session cart once the buyer returns from paying
// for orderID. It only touches the caller's own cart; the order's payment
// status is owned by the payment provider and is never changed here.
func (s *Service) ConfirmPayment(ctx context.Context, store *cart.Store, orderID string) (cart.Snapshot, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return cart.Snapshot{}, ErrInvalidOrderID
	}
	snap, err := store.Dispatch(ctx, cart.Clear{})
	if err != nil {
		return cart.Snapshot{}, errors.Wrap(err, "clear cart")
	}
	zctx.From(ctx).Info("Payment confirmed, cart cleared", zap.String("order_id", orderID))
	return snap, nil
}
