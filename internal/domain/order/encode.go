package order

import (
	"slices"

	"github.com/go-faster/jx"
)

// Encode writes p in the order endpoint's wire format.
func (p Payload) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("customer_name")
	e.Str(p.Buyer.Name)
	e.FieldStart("email")
	e.Str(p.Buyer.Email)
	if p.Buyer.Phone != "" {
		e.FieldStart("phone")
		e.Str(p.Buyer.Phone)
	}
	if p.Buyer.Company != "" {
		e.FieldStart("company")
		e.Str(p.Buyer.Company)
	}
	e.FieldStart("address")
	p.Buyer.Address.Encode(e)
	e.FieldStart("items")
	EncodeLineItems(e, p.LineItems)
	e.FieldStart("subtotal")
	e.Str(p.Subtotal.StringFixed(2))
	e.FieldStart("total")
	e.Str(p.Total.StringFixed(2))
	e.FieldStart("payment_method")
	e.Str(string(p.PaymentMethod))
	e.FieldStart("payment_status")
	e.Str(p.PaymentStatus)
	e.FieldStart("status")
	e.Str(p.Status)
	if p.Notes != "" {
		e.FieldStart("notes")
		e.Str(p.Notes)
	}
	e.ObjEnd()
}

// Encode writes a as a JSON object.
func (a Address) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("street")
	e.Str(a.Street)
	e.FieldStart("city")
	e.Str(a.City)
	e.FieldStart("state")
	e.Str(a.State)
	e.FieldStart("zip")
	e.Str(a.Zip)
	e.FieldStart("country")
	e.Str(a.Country)
	e.ObjEnd()
}

// EncodeLineItems writes lines as a JSON array.
func EncodeLineItems(e *jx.Encoder, lines []LineItem) {
	e.ArrStart()
	for _, l := range lines {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(l.ID)
		e.FieldStart("slug")
		e.Str(l.Slug)
		e.FieldStart("title")
		e.Str(l.Title)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.FieldStart("unit_price")
		e.Str(l.UnitPrice.StringFixed(2))
		e.FieldStart("line_total")
		e.Str(l.LineTotal.StringFixed(2))
		e.ObjEnd()
	}
	e.ArrEnd()
}

// MarshalJSON implements json.Marshaler.
func (p Payload) MarshalJSON() ([]byte, error) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	p.Encode(e)
	return slices.Clone(e.Bytes()), nil
}
