// Package remote submits orders and contact requests to external HTTP
// endpoints.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/xenking/storefront/internal/domain/contact"
	"github.com/xenking/storefront/internal/domain/order"
)

const maxResponseSize = 1 << 20

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote: unexpected status %d", e.Code)
}

// Client posts JSON documents to an API base URL.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

var (
	_ order.Gateway   = (*Client)(nil)
	_ contact.Gateway = (*Client)(nil)
)

// NewClient creates a Client. A nil httpClient gets an instrumented default
// with the given timeout.
func NewClient(baseURL, token string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

// CreateOrder posts p to /orders and returns the created order id, read
// from "id", "orderId" or "object.id" in the response.
func (c *Client) CreateOrder(ctx context.Context, p order.Payload) (string, error) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	p.Encode(e)

	body, err := c.post(ctx, "/orders", e.Bytes())
	if err != nil {
		return "", errors.Wrap(err, "post order")
	}
	id, err := decodeOrderID(body)
	if err != nil {
		return "", errors.Wrap(err, "decode order response")
	}
	if id == "" {
		return "", errors.New("order response has no id")
	}
	return id, nil
}

// SubmitContact posts f to /contact.
func (c *Client) SubmitContact(ctx context.Context, f contact.Form) error {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encodeContact(e, f)

	if _, err := c.post(ctx, "/contact", e.Bytes()); err != nil {
		return errors.Wrap(err, "post contact")
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func decodeOrderID(body []byte) (string, error) {
	var id, orderID, objectID string
	err := jx.DecodeBytes(body).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			return decodeID(d, &id)
		case "orderId", "order_id":
			return decodeID(d, &orderID)
		case "object", "order":
			if d.Next() != jx.Object {
				return d.Skip()
			}
			return d.Obj(func(d *jx.Decoder, key string) error {
				if key == "id" {
					return decodeID(d, &objectID)
				}
				return d.Skip()
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return "", err
	}
	for _, v := range []string{id, orderID, objectID} {
		if v != "" {
			return v, nil
		}
	}
	return "", nil
}

// decodeID accepts string and numeric ids.
func decodeID(d *jx.Decoder, out *string) error {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		*out = strings.TrimSpace(s)
		return err
	case jx.Number:
		n, err := d.Num()
		*out = string(n)
		return err
	default:
		return d.Skip()
	}
}

func encodeContact(e *jx.Encoder, f contact.Form) {
	e.ObjStart()
	e.FieldStart("name")
	e.Str(f.Name)
	e.FieldStart("email")
	e.Str(f.Email)
	if f.Phone != "" {
		e.FieldStart("phone")
		e.Str(f.Phone)
	}
	if f.Company != "" {
		e.FieldStart("company")
		e.Str(f.Company)
	}
	e.FieldStart("inquiryType")
	e.Str(string(f.InquiryType))
	e.FieldStart("subject")
	e.Str(f.Subject)
	e.FieldStart("message")
	e.Str(f.Message)
	e.ObjEnd()
}
