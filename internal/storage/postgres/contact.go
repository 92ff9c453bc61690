package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/contact"
)

var _ contact.Gateway = (*ContactGateway)(nil)

const insertContact = `
INSERT INTO contact_requests (id, name, email, phone, company, inquiry_type, subject, message)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// ContactGateway implements contact.Gateway by storing requests for staff.
type ContactGateway struct {
	pool *pgxpool.Pool
}

// NewContactGateway returns a ContactGateway that uses the given pool.
func NewContactGateway(pool *pgxpool.Pool) *ContactGateway {
	return &ContactGateway{pool: pool}
}

// SubmitContact inserts f.
func (g *ContactGateway) SubmitContact(ctx context.Context, f contact.Form) error {
	_, err := g.pool.Exec(ctx, insertContact,
		uuid.New(),
		f.Name,
		f.Email,
		f.Phone,
		f.Company,
		string(f.InquiryType),
		f.Subject,
		f.Message,
	)
	if err != nil {
		return fmt.Errorf("inserting contact request: %w", err)
	}
	return nil
}
