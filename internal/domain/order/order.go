package order

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/form"
)

// Sentinel errors for checkout.
var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrSubmissionFailed = errors.New("order submission failed")
)

// PaymentMethod is how the buyer intends to pay.
type PaymentMethod string

// Supported payment methods.
const (
	PaymentCard         PaymentMethod = "card"
	PaymentPayPal       PaymentMethod = "paypal"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

// ImmediateCapture reports whether payment is collected right after the
// order is created. The cart stays intact until that payment confirms.
func (m PaymentMethod) ImmediateCapture() bool {
	return m == PaymentCard
}

// Order and payment status values assigned at creation.
const (
	StatusPending        = "pending"
	PaymentStatusPending = "pending"
)

// DefaultCountry is used when the form leaves the country empty.
const DefaultCountry = "United States"

// Address is a postal address.
type Address struct {
	Street  string `json:"street" validate:"notblank"`
	City    string `json:"city" validate:"notblank"`
	State   string `json:"state" validate:"notblank"`
	Zip     string `json:"zip" validate:"notblank"`
	Country string `json:"country"`
}

// CheckoutForm is the buyer input collected at checkout.
type CheckoutForm struct {
	CustomerName  string        `json:"customerName" validate:"notblank"`
	Email         string        `json:"email" validate:"notblank,mailbox"`
	Phone         string        `json:"phone"`
	Company       string        `json:"company"`
	Address       Address       `json:"address"`
	PaymentMethod PaymentMethod `json:"paymentMethod" validate:"oneof=card paypal bank_transfer"`
	Notes         string        `json:"notes"`
}

var checkoutMessages = form.Messages{
	"customerName":   "Name is required",
	"email.notblank": "Email is required",
	"email.mailbox":  "Please enter a valid email address",
	"street":         "Street address is required",
	"city":           "City is required",
	"state":          "State is required",
	"zip":            "ZIP code is required",
	"paymentMethod":  "Please choose a valid payment method",
}

// Clean trims every field and fills defaults: payment method card, country
// United States, phone in E.164 where possible, notes without markup.
func (f CheckoutForm) Clean() CheckoutForm {
	form.Trim(&f.CustomerName, &f.Email, &f.Phone, &f.Company, &f.Notes,
		&f.Address.Street, &f.Address.City, &f.Address.State, &f.Address.Zip, &f.Address.Country)
	f.PaymentMethod = PaymentMethod(strings.ToLower(strings.TrimSpace(string(f.PaymentMethod))))
	if f.PaymentMethod == "" {
		f.PaymentMethod = PaymentCard
	}
	if f.Address.Country == "" {
		f.Address.Country = DefaultCountry
	}
	f.Phone = form.NormalizePhone(f.Phone, form.DefaultRegion)
	f.Notes = form.StripHTML(f.Notes)
	return f
}

// Validate cleans f and checks the required fields. It returns a
// *form.ValidationError with one message per failed field.
func Validate(v *form.Validator, f CheckoutForm) error {
	return v.Check(f.Clean(), checkoutMessages)
}

// Buyer identifies who placed the order.
type Buyer struct {
	Name    string
	Email   string
	Phone   string
	Company string
	Address Address
}

// LineItem is one ordered product with its price at checkout time.
type LineItem struct {
	ID        string
	Slug      string
	Title     string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Payload is the order sent to the order-creation endpoint.
type Payload struct {
	Buyer         Buyer
	LineItems     []LineItem
	Subtotal      decimal.Decimal
	Total         decimal.Decimal
	PaymentMethod PaymentMethod
	PaymentStatus string
	Status        string
	Notes         string
}

// Assemble builds the order payload from a cart snapshot and a checkout
// form. Totals are recomputed from the lines; Total equals Subtotal.
func Assemble(snap cart.Snapshot, f CheckoutForm) (Payload, error) {
	if snap.IsEmpty() {
		return Payload{}, ErrEmptyCart
	}
	f = f.Clean()

	lines := make([]LineItem, 0, len(snap.Lines))
	subtotal := decimal.Zero
	for _, l := range snap.Lines {
		total := l.Total()
		subtotal = subtotal.Add(total)
		lines = append(lines, LineItem{
			ID:        l.ID,
			Slug:      l.Item.Slug,
			Title:     l.Item.Title,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			LineTotal: total,
		})
	}

	return Payload{
		Buyer: Buyer{
			Name:    f.CustomerName,
			Email:   f.Email,
			Phone:   f.Phone,
			Company: f.Company,
			Address: f.Address,
		},
		LineItems:     lines,
		Subtotal:      subtotal,
		Total:         subtotal,
		PaymentMethod: f.PaymentMethod,
		PaymentStatus: PaymentStatusPending,
		Status:        StatusPending,
		Notes:         f.Notes,
	}, nil
}

// Gateway submits an order to the order-creation endpoint and returns the
// created order id.
type Gateway interface {
	CreateOrder(ctx context.Context, p Payload) (string, error)
}

// Notifier tells the buyer their order was received.
type Notifier interface {
	OrderPlaced(ctx context.Context, orderID string, p Payload) error
}
