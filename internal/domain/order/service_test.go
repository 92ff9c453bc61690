package order

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/form"
	"github.com/xenking/storefront/internal/storage/memory"
)

// --- Mock implementations ---

type mockGateway struct {
	id       string
	err      error
	calls    int
	lastSent Payload
}

func (m *mockGateway) CreateOrder(_ context.Context, p Payload) (string, error) {
	m.calls++
	m.lastSent = p
	return m.id, m.err
}

// statusGateway also exposes a status setter, which checkout must never call.
type statusGateway struct {
	mockGateway
	statuses map[string]string
}

func (m *statusGateway) SetPaymentStatus(_ context.Context, orderID, status string) error {
	if m.statuses == nil {
		m.statuses = map[string]string{}
	}
	m.statuses[orderID] = status
	return nil
}

type mockNotifier struct {
	orderID string
	err     error
}

func (m *mockNotifier) OrderPlaced(_ context.Context, orderID string, _ Payload) error {
	m.orderID = orderID
	return m.err
}

// --- Helpers ---

func newTestItem(id string, price string) catalog.Item {
	return catalog.Normalize(catalog.Item{
		ID:    id,
		Slug:  id + "-slug",
		Title: "Item " + id,
		Price: decimal.RequireFromString(price),
	})
}

func validForm(method PaymentMethod) CheckoutForm {
	return CheckoutForm{
		CustomerName: "  Grace Hopper ",
		Email:        "grace@example.com",
		Phone:        "(404) 889-5545",
		Company:      "Navy",
		Address: Address{
			Street: "1 Main St",
			City:   "Atlanta",
			State:  "GA",
			Zip:    "30339",
		},
		PaymentMethod: method,
		Notes:         "Leave at <b>front</b> desk",
	}
}

func newFilledStore(t *testing.T) *cart.Store {
	t.Helper()
	ctx := context.Background()
	store := cart.NewStore(memory.NewCartStorage(), "session")
	_, err := store.Dispatch(ctx, cart.Add{Item: newTestItem("a", "10.00"), Quantity: 1})
	require.NoError(t, err)
	_, err = store.Dispatch(ctx, cart.Add{Item: newTestItem("b", "20.00"), Quantity: 2})
	require.NoError(t, err)
	return store
}

func TestAssemble(t *testing.T) {
	store := newFilledStore(t)

	p, err := Assemble(store.Snapshot(), validForm(""))
	require.NoError(t, err)

	assert.Equal(t, "Grace Hopper", p.Buyer.Name)
	assert.Equal(t, "+14048895545", p.Buyer.Phone)
	assert.Equal(t, DefaultCountry, p.Buyer.Address.Country)
	assert.Equal(t, PaymentCard, p.PaymentMethod)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, PaymentStatusPending, p.PaymentStatus)
	assert.Equal(t, "Leave at front desk", p.Notes)

	require.Len(t, p.LineItems, 2)
	assert.Equal(t, "b-slug", p.LineItems[1].Slug)
	assert.Equal(t, 2, p.LineItems[1].Quantity)
	assert.True(t, decimal.NewFromInt(40).Equal(p.LineItems[1].LineTotal))
	assert.True(t, decimal.NewFromInt(50).Equal(p.Subtotal))
	assert.True(t, p.Subtotal.Equal(p.Total))
}

func TestAssemble_EmptyCart(t *testing.T) {
	_, err := Assemble(cart.State{}.Snapshot(), validForm(PaymentCard))
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestPayload_Encode(t *testing.T) {
	p, err := Assemble(newFilledStore(t).Snapshot(), validForm(PaymentBankTransfer))
	require.NoError(t, err)

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "Grace Hopper", got["customer_name"])
	assert.Equal(t, "50.00", got["subtotal"])
	assert.Equal(t, "bank_transfer", got["payment_method"])
	assert.Equal(t, "pending", got["status"])
	items, ok := got["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, "20.00", items[1].(map[string]any)["unit_price"])
	assert.Equal(t, "United States", got["address"].(map[string]any)["country"])
}

func TestValidate(t *testing.T) {
	v := form.New()

	err := Validate(v, CheckoutForm{Email: "not-an-email", PaymentMethod: "cash"})

	var verr *form.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, form.FieldErrors{
		"customerName":  "Name is required",
		"email":         "Please enter a valid email address",
		"street":        "Street address is required",
		"city":          "City is required",
		"state":         "State is required",
		"zip":           "ZIP code is required",
		"paymentMethod": "Please choose a valid payment method",
	}, verr.Fields)

	require.NoError(t, Validate(v, validForm("")))
}

func TestService_Checkout(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		method       PaymentMethod
		wantNext     Next
		wantRedirect string
		wantCleared  bool
	}{
		{
			name:         "card keeps cart until payment",
			method:       PaymentCard,
			wantNext:     NextPayment,
			wantRedirect: "/payment/ord-1",
		},
		{
			name:         "paypal clears cart",
			method:       PaymentPayPal,
			wantNext:     NextConfirmation,
			wantRedirect: "/order-confirmation/ord-1",
			wantCleared:  true,
		},
		{
			name:         "bank transfer clears cart",
			method:       PaymentBankTransfer,
			wantNext:     NextConfirmation,
			wantRedirect: "/order-confirmation/ord-1",
			wantCleared:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &mockGateway{id: "ord-1"}
			notifier := &mockNotifier{}
			svc := NewService(gw, notifier, form.New())
			store := newFilledStore(t)

			res, err := svc.Checkout(ctx, store, validForm(tt.method))
			require.NoError(t, err)

			assert.Equal(t, 1, gw.calls)
			assert.Equal(t, "ord-1", res.OrderID)
			assert.Equal(t, tt.wantNext, res.Next)
			assert.Equal(t, tt.wantRedirect, res.Redirect)
			assert.Equal(t, tt.wantCleared, store.Snapshot().IsEmpty())
			assert.Equal(t, tt.wantCleared, res.Cart.IsEmpty())
			assert.Equal(t, "ord-1", notifier.orderID)
		})
	}
}

func TestService_CheckoutFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("gateway error leaves cart untouched", func(t *testing.T) {
		gw := &mockGateway{err: errors.New("502 bad gateway")}
		svc := NewService(gw, nil, form.New())
		store := newFilledStore(t)

		_, err := svc.Checkout(ctx, store, validForm(PaymentPayPal))
		require.ErrorIs(t, err, ErrSubmissionFailed)
		assert.Equal(t, 3, store.Snapshot().ItemCount)
	})

	t.Run("missing order id is a failure", func(t *testing.T) {
		svc := NewService(&mockGateway{}, nil, form.New())

		_, err := svc.Checkout(ctx, newFilledStore(t), validForm(PaymentPayPal))
		require.ErrorIs(t, err, ErrSubmissionFailed)
	})

	t.Run("invalid form is not submitted", func(t *testing.T) {
		gw := &mockGateway{id: "x"}
		svc := NewService(gw, nil, form.New())

		_, err := svc.Checkout(ctx, newFilledStore(t), CheckoutForm{})
		var verr *form.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Zero(t, gw.calls)
	})

	t.Run("empty cart", func(t *testing.T) {
		gw := &mockGateway{id: "x"}
		svc := NewService(gw, nil, form.New())
		store := cart.NewStore(memory.NewCartStorage(), "empty")

		_, err := svc.Checkout(ctx, store, validForm(PaymentCard))
		require.ErrorIs(t, err, ErrEmptyCart)
		assert.Zero(t, gw.calls)
	})

	t.Run("notification failure does not fail checkout", func(t *testing.T) {
		svc := NewService(&mockGateway{id: "ord-2"}, &mockNotifier{err: errors.New("smtp down")}, form.New())

		res, err := svc.Checkout(ctx, newFilledStore(t), validForm(PaymentCard))
		require.NoError(t, err)
		assert.Equal(t, "ord-2", res.OrderID)
	})
}

func TestService_ConfirmPayment(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&mockGateway{id: "ord-1"}, nil, form.New())
	store := newFilledStore(t)

	_, err := svc.ConfirmPayment(ctx, store, " ")
	require.ErrorIs(t, err, ErrInvalidOrderID)
	assert.False(t, store.Snapshot().IsEmpty())

	snap, err := svc.ConfirmPayment(ctx, store, "ord-1")
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
}

func TestService_ConfirmPaymentLeavesOrderStatus(t *testing.T) {
	ctx := context.Background()
	gw := &statusGateway{}
	svc := NewService(gw, nil, form.New())

	stranger := cart.NewStore(memory.NewCartStorage(), "stranger")
	snap, err := svc.ConfirmPayment(ctx, stranger, "someone-elses-order")
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())

	snap, err = svc.ConfirmPayment(ctx, newFilledStore(t), "ord-9")
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())

	assert.Empty(t, gw.statuses)
}

func TestService_CheckoutEscapesRedirect(t *testing.T) {
	ctx := context.Background()

	res, err := NewService(&mockGateway{id: "a/b?c"}, nil, form.New()).
		Checkout(ctx, newFilledStore(t), validForm(PaymentCard))
	require.NoError(t, err)
	assert.Equal(t, "a/b?c", res.OrderID)
	assert.Equal(t, "/payment/a%2Fb%3Fc", res.Redirect)

	res, err = NewService(&mockGateway{id: "x y"}, nil, form.New()).
		Checkout(ctx, newFilledStore(t), validForm(PaymentPayPal))
	require.NoError(t, err)
	assert.Equal(t, "/order-confirmation/x%20y", res.Redirect)
}
