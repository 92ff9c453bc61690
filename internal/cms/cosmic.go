// Package cms reads catalog content from a Cosmic-style headless CMS or
// from a local snapshot of it.
package cms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/xenking/storefront/internal/domain/catalog"
)

const maxResponseSize = 16 << 20

// Props requested for listing objects.
var listProps = []string{
	"id", "title", "slug", "type", "created_at",
	"metadata",
}

// Config configures the CMS client.
type Config struct {
	BaseURL      string        `default:"https://api.cosmicjs.com/v3" usage:"CMS API base URL"`
	BucketSlug   string        `usage:"CMS bucket slug" flag:"cms-bucket"`
	ReadKey      string        `usage:"CMS read key" flag:"cms-read-key"`
	ObjectType   string        `default:"rfp-services" usage:"CMS object type listed in the catalog"`
	CategoryType string        `default:"categories" usage:"CMS object type holding categories"`
	Timeout      time.Duration `default:"10s" usage:"CMS request timeout"`
}

// StatusError is returned for unexpected CMS response codes.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cms: unexpected status %d", e.Code)
}

// Client fetches raw catalog records from the CMS REST API. It implements
// catalog.Provider; records are returned as-is and must be normalized.
type Client struct {
	cfg  Config
	http *http.Client
}

var _ catalog.Provider = (*Client)(nil)

// NewClient creates a CMS client. A nil httpClient gets an instrumented
// default.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.Timeout,
		}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: httpClient}
}

// FetchCatalog lists every catalog object.
func (c *Client) FetchCatalog(ctx context.Context) ([]catalog.RawRecord, error) {
	return c.find(ctx, map[string]string{"type": c.cfg.ObjectType}, 0)
}

// FetchCatalogItem returns the object with slug, or nil when there is none.
func (c *Client) FetchCatalogItem(ctx context.Context, slug string) (catalog.RawRecord, error) {
	recs, err := c.find(ctx, map[string]string{"type": c.cfg.ObjectType, "slug": slug}, 1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}

// FetchCategories lists category objects.
func (c *Client) FetchCategories(ctx context.Context) ([]catalog.RawRecord, error) {
	if c.cfg.CategoryType == "" {
		return []catalog.RawRecord{}, nil
	}
	return c.find(ctx, map[string]string{"type": c.cfg.CategoryType}, 0)
}

func (c *Client) find(ctx context.Context, query map[string]string, limit int) ([]catalog.RawRecord, error) {
	u, err := c.objectsURL(query, limit)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer func() { _ = resp.Body.Close() }()

	// The CMS answers 404 when a query matches nothing.
	if resp.StatusCode == http.StatusNotFound {
		return []catalog.RawRecord{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	return DecodeObjects(body)
}

func (c *Client) objectsURL(query map[string]string, limit int) (string, error) {
	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", errors.Wrap(err, "parse base url")
	}
	base = base.JoinPath("buckets", c.cfg.BucketSlug, "objects")

	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.ObjStart()
	for _, k := range keys {
		e.FieldStart(k)
		e.Str(query[k])
	}
	e.ObjEnd()

	q := url.Values{}
	q.Set("read_key", c.cfg.ReadKey)
	q.Set("query", string(e.Bytes()))
	q.Set("props", strings.Join(listProps, ","))
	q.Set("depth", "1")
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	base.RawQuery = q.Encode()
	return base.String(), nil
}

// DecodeObjects extracts the "objects" array of a CMS response. Elements
// that are not objects are skipped; a missing or null array is empty.
func DecodeObjects(data []byte) ([]catalog.RawRecord, error) {
	out := []catalog.RawRecord{}
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		if key != "objects" {
			return d.Skip()
		}
		if d.Next() == jx.Null {
			return d.Null()
		}
		return d.Arr(func(d *jx.Decoder) error {
			v, err := catalog.DecodeValue(d)
			if err != nil {
				return err
			}
			if rec, ok := v.(map[string]any); ok {
				out = append(out, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode objects")
	}
	return out, nil
}
