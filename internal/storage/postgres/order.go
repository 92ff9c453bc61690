package postgres

import (
	"context"
	"fmt"
	"slices"

	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/order"
)

var _ order.Gateway = (*OrderGateway)(nil)

const insertOrder = `
INSERT INTO orders (
    id, customer_name, email, phone, company, address, items,
    subtotal, total, payment_method, payment_status, status, notes
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

// OrderGateway implements order.Gateway by persisting orders directly.
type OrderGateway struct {
	pool *pgxpool.Pool
}

// NewOrderGateway returns an OrderGateway that uses the given pool.
func NewOrderGateway(pool *pgxpool.Pool) *OrderGateway {
	return &OrderGateway{pool: pool}
}

// CreateOrder inserts p and returns the generated order id.
func (g *OrderGateway) CreateOrder(ctx context.Context, p order.Payload) (string, error) {
	id := uuid.New()

	_, err := g.pool.Exec(ctx, insertOrder,
		id,
		p.Buyer.Name,
		p.Buyer.Email,
		p.Buyer.Phone,
		p.Buyer.Company,
		encode(p.Buyer.Address.Encode),
		encode(func(e *jx.Encoder) { order.EncodeLineItems(e, p.LineItems) }),
		p.Subtotal,
		p.Total,
		string(p.PaymentMethod),
		p.PaymentStatus,
		p.Status,
		p.Notes,
	)
	if err != nil {
		return "", fmt.Errorf("inserting order: %w", err)
	}

	return id.String(), nil
}

// Ping checks database connectivity.
func (g *OrderGateway) Ping(ctx context.Context) error {
	return g.pool.Ping(ctx)
}

func encode(fn func(e *jx.Encoder)) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	fn(e)
	return slices.Clone(e.Bytes())
}
