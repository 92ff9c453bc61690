// Package notify sends order confirmations and contact notifications by
// email.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/contact"
	"github.com/xenking/storefront/internal/domain/order"
)

// Config holds SMTP settings. Mail is disabled while Host is empty.
type Config struct {
	Host       string        `usage:"SMTP host, empty disables email"`
	Port       int           `default:"587" usage:"SMTP port"`
	Username   string        `usage:"SMTP username"`
	Password   string        `usage:"SMTP password"`
	FromEmail  string        `default:"orders@example.com" usage:"Sender address"`
	FromName   string        `default:"Storefront" usage:"Sender display name"`
	AdminEmail string        `usage:"Recipient of contact notifications"`
	Timeout    time.Duration `default:"15s" usage:"SMTP timeout"`
}

// Enabled reports whether an SMTP server is configured.
func (c Config) Enabled() bool {
	return c.Host != ""
}

type envelope struct {
	To      string
	Subject string
	HTML    string
}

// Mailer implements order.Notifier and contact.Notifier.
type Mailer struct {
	cfg     Config
	deliver func(ctx context.Context, m envelope) error
}

var (
	_ order.Notifier   = (*Mailer)(nil)
	_ contact.Notifier = (*Mailer)(nil)
)

// NewMailer creates a Mailer. When cfg is not enabled messages are rendered
// and logged but not sent.
func NewMailer(cfg Config) *Mailer {
	m := &Mailer{cfg: cfg}
	if cfg.Enabled() {
		m.deliver = m.sendSMTP
	} else {
		m.deliver = logOnly
	}
	return m
}

// OrderPlaced emails the buyer a summary of their order.
func (m *Mailer) OrderPlaced(ctx context.Context, orderID string, p order.Payload) error {
	lines := make([]orderLine, 0, len(p.LineItems))
	for _, l := range p.LineItems {
		lines = append(lines, orderLine{
			Title:     l.Title,
			Quantity:  l.Quantity,
			UnitPrice: money(l.UnitPrice.StringFixed(2)),
			LineTotal: money(l.LineTotal.StringFixed(2)),
		})
	}
	html, err := render("order_placed.html", orderPlacedData{
		baseData:      m.base("Order received"),
		Name:          p.Buyer.Name,
		OrderID:       orderID,
		PaymentMethod: paymentLabel(p.PaymentMethod),
		Lines:         lines,
		Total:         money(p.Total.StringFixed(2)),
		Notes:         p.Notes,
	})
	if err != nil {
		return err
	}
	return m.deliver(ctx, envelope{
		To:      p.Buyer.Email,
		Subject: fmt.Sprintf("Order %s received", orderID),
		HTML:    html,
	})
}

// ContactReceived emails the configured admin address about a new contact
// request. Without an admin address it does nothing.
func (m *Mailer) ContactReceived(ctx context.Context, f contact.Form) error {
	if m.cfg.AdminEmail == "" {
		return nil
	}
	html, err := render("contact_received.html", contactReceivedData{
		baseData:    m.base("New contact request"),
		Name:        f.Name,
		Email:       f.Email,
		Phone:       f.Phone,
		Company:     f.Company,
		InquiryType: string(f.InquiryType),
		Subject:     f.Subject,
		Message:     f.Message,
	})
	if err != nil {
		return err
	}
	return m.deliver(ctx, envelope{
		To:      m.cfg.AdminEmail,
		Subject: "Contact: " + f.Subject,
		HTML:    html,
	})
}

func (m *Mailer) base(heading string) baseData {
	return baseData{Title: heading, Heading: heading, Store: m.cfg.FromName}
}

func (m *Mailer) sendSMTP(ctx context.Context, e envelope) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(m.cfg.FromName, m.cfg.FromEmail); err != nil {
		return errors.Wrap(err, "smtp from")
	}
	if err := msg.To(e.To); err != nil {
		return errors.Wrap(err, "smtp to")
	}
	msg.Subject(e.Subject)
	msg.SetBodyString(gomail.TypeTextHTML, e.HTML)

	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(m.cfg.Timeout),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.Username),
			gomail.WithPassword(m.cfg.Password),
		)
	}
	client, err := gomail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return errors.Wrap(err, "smtp client")
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Wrap(err, "smtp send")
	}

	zctx.From(ctx).Debug("Email sent", zap.String("subject", e.Subject))
	return nil
}

func logOnly(ctx context.Context, e envelope) error {
	zctx.From(ctx).Info("Email disabled, skipping send",
		zap.String("subject", e.Subject),
		zap.Int("size", len(e.HTML)),
	)
	return nil
}

func money(s string) string {
	return "$" + s
}

func paymentLabel(m order.PaymentMethod) string {
	switch m {
	case order.PaymentCard:
		return "Credit card"
	case order.PaymentPayPal:
		return "PayPal"
	case order.PaymentBankTransfer:
		return "Bank transfer"
	default:
		return string(m)
	}
}
