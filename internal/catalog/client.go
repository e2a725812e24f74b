package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/storefront/internal/model"
)

// DefaultBaseURL is the public products API.
const DefaultBaseURL = "https://fakestoreapi.com"

// TracerName names the tracer used for catalog spans.
const TracerName = "github.com/roach88/storefront/catalog"

// maxBodyBytes bounds a products API response.
const maxBodyBytes = 8 << 20

// FetchObserver is told about every network fetch.
// *metrics.Metrics implements it.
type FetchObserver interface {
	FetchObserved(d time.Duration, err error)
}

// Client fetches products over HTTP. It performs no retries.
type Client struct {
	baseURL  string
	http     *http.Client
	schema   *Schema
	tracer   trace.Tracer
	observer FetchObserver
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client (default: 10s timeout).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTracerProvider sets the tracer provider (default: otel global).
func WithTracerProvider(tp trace.TracerProvider) ClientOption {
	return func(c *Client) {
		c.tracer = tp.Tracer(TracerName)
	}
}

// WithFetchObserver sets the fetch observer.
func WithFetchObserver(o FetchObserver) ClientOption {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient creates a client for baseURL. An empty baseURL selects
// DefaultBaseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	schema, err := NewSchema()
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		schema:  schema,
		tracer:  otel.Tracer(TracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Products fetches the full product list.
func (c *Client) Products(ctx context.Context) ([]model.Product, error) {
	body, err := c.productsBody(ctx)
	if err != nil {
		return nil, err
	}
	return decodeProducts(body)
}

// Product fetches a single product by id.
func (c *Client) Product(ctx context.Context, id int) (model.Product, error) {
	path := "/products/" + strconv.Itoa(id)
	body, err := c.get(ctx, "catalog.Product", path, attribute.Int("product.id", id))
	if err != nil {
		return model.Product{}, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return model.Product{}, fmt.Errorf("fetch product %d: %w", id, ErrNotFound)
	}
	if err := c.schema.ValidateProduct(body); err != nil {
		return model.Product{}, fmt.Errorf("fetch product %d: %w", id, err)
	}

	var p model.Product
	if err := json.Unmarshal(body, &p); err != nil {
		return model.Product{}, fmt.Errorf("decode product %d: %w", id, err)
	}
	return p, nil
}

// productsBody fetches and validates the raw /products body.
func (c *Client) productsBody(ctx context.Context) ([]byte, error) {
	body, err := c.get(ctx, "catalog.Products", "/products")
	if err != nil {
		return nil, err
	}
	if err := c.schema.ValidateProducts(body); err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	return body, nil
}

// get performs one traced GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, spanName, path string, attrs ...attribute.KeyValue) (body []byte, err error) {
	url := c.baseURL + path

	ctx, span := c.tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append(attrs,
			attribute.String("http.method", http.MethodGet),
			attribute.String("http.url", url),
		)...),
	)
	start := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer.FetchObserved(time.Since(start), err)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("products api request failed", "url", url, "error", err)
		}
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: url}
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}

func decodeProducts(body []byte) ([]model.Product, error) {
	var products []model.Product
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}
