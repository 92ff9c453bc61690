package handler

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/xenking/storefront/internal/handler"

type metrics struct {
	cartActions metric.Int64Counter
	checkouts   metric.Int64Counter
	contacts    metric.Int64Counter
}

func newMetrics(mp metric.MeterProvider) (*metrics, error) {
	meter := mp.Meter(meterName)

	var (
		m   metrics
		err error
	)
	if m.cartActions, err = meter.Int64Counter("storefront.cart.actions",
		metric.WithDescription("Cart actions dispatched, by action"),
	); err != nil {
		return nil, errors.Wrap(err, "cart actions counter")
	}
	if m.checkouts, err = meter.Int64Counter("storefront.checkout.outcomes",
		metric.WithDescription("Checkout attempts, by outcome and payment method"),
	); err != nil {
		return nil, errors.Wrap(err, "checkout counter")
	}
	if m.contacts, err = meter.Int64Counter("storefront.contact.outcomes",
		metric.WithDescription("Contact submissions, by outcome"),
	); err != nil {
		return nil, errors.Wrap(err, "contact counter")
	}
	return &m, nil
}

func (m *metrics) cartAction(ctx context.Context, action string) {
	m.cartActions.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
}

func (m *metrics) checkout(ctx context.Context, outcome, method string) {
	m.checkouts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("payment_method", method),
	))
}

func (m *metrics) contact(ctx context.Context, outcome string) {
	m.contacts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
