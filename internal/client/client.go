// Package client is a typed HTTP client for the customerdesk API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	customerdomain "github.com/smallbiznis/customerdesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/customerdesk/internal/invoice/domain"
	phonedomain "github.com/smallbiznis/customerdesk/internal/phonenumber/domain"
	"github.com/smallbiznis/customerdesk/internal/problem"
	"github.com/smallbiznis/customerdesk/pkg/telemetry/correlation"
	"go.uber.org/zap"
)

const (
	HeaderAPIKey     = "X-API-Key"
	defaultTimeout   = 10 * time.Second
	maxErrorBodySize = 64 << 10
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Client struct {
	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func New(cfg Config, log *zap.Logger, opts ...Option) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("base URL is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", raw)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}

	c := &Client{
		baseURL:    base,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Named("client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithAPIKey returns a copy of c that sends key on delete requests. An empty
// key sends no header at all.
func (c *Client) WithAPIKey(key string) *Client {
	clone := *c
	clone.apiKey = strings.TrimSpace(key)
	return &clone
}

// APIError is a non-2xx response. Problem is nil when the body was not a
// Problem Details document.
type APIError struct {
	StatusCode int
	Problem    *problem.Details
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Problem != nil {
		return fmt.Sprintf("%d %s", e.StatusCode, e.Problem.Error())
	}
	return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an
// *APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

type InvoiceInput struct {
	InvoiceNumber string          `json:"invoiceNumber"`
	CustomerID    int64           `json:"customerId,omitempty"`
	InvoiceDate   time.Time       `json:"invoiceDate"`
	Amount        decimal.Decimal `json:"amount"`
}

type PhoneNumberInput struct {
	CustomerID int64  `json:"customerId,omitempty"`
	Type       string `json:"type"`
	Number     string `json:"number"`
}

type CustomerInput struct {
	Name         string             `json:"name"`
	Email        string             `json:"email"`
	Invoices     []InvoiceInput     `json:"invoices,omitempty"`
	PhoneNumbers []PhoneNumberInput `json:"phoneNumbers,omitempty"`
}

func (c *Client) ListCustomers(ctx context.Context) ([]customerdomain.Customer, error) {
	var out []customerdomain.Customer
	err := c.do(ctx, http.MethodGet, "/api/customers", nil, &out)
	return out, err
}

func (c *Client) GetCustomer(ctx context.Context, id int64) (customerdomain.Customer, error) {
	var out customerdomain.Customer
	err := c.do(ctx, http.MethodGet, "/api/customers/"+strconv.FormatInt(id, 10), nil, &out)
	return out, err
}

func (c *Client) ListCustomerInvoices(ctx context.Context, id int64) ([]invoicedomain.Invoice, error) {
	var out []invoicedomain.Invoice
	err := c.do(ctx, http.MethodGet, "/api/customers/"+strconv.FormatInt(id, 10)+"/invoices", nil, &out)
	return out, err
}

func (c *Client) CreateCustomer(ctx context.Context, in CustomerInput) (customerdomain.Customer, error) {
	var out customerdomain.Customer
	err := c.do(ctx, http.MethodPost, "/api/customers", in, &out)
	return out, err
}

func (c *Client) UpdateCustomer(ctx context.Context, id int64, name, email string) (customerdomain.Customer, error) {
	var out customerdomain.Customer
	body := map[string]string{"name": name, "email": email}
	err := c.do(ctx, http.MethodPut, "/api/customers/"+strconv.FormatInt(id, 10), body, &out)
	return out, err
}

func (c *Client) DeleteCustomer(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/customers/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) ListInvoices(ctx context.Context) ([]invoicedomain.Invoice, error) {
	var out []invoicedomain.Invoice
	err := c.do(ctx, http.MethodGet, "/api/invoices", nil, &out)
	return out, err
}

func (c *Client) GetInvoice(ctx context.Context, customerID int64, invoiceNumber string) (invoicedomain.Invoice, error) {
	var out invoicedomain.Invoice
	path := "/api/invoices/" + strconv.FormatInt(customerID, 10) + "/" + url.PathEscape(invoiceNumber)
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) CreateInvoice(ctx context.Context, in InvoiceInput) (invoicedomain.Invoice, error) {
	var out invoicedomain.Invoice
	err := c.do(ctx, http.MethodPost, "/api/invoices", in, &out)
	return out, err
}

func (c *Client) DeleteInvoice(ctx context.Context, invoiceNumber string) error {
	return c.do(ctx, http.MethodDelete, "/api/invoices/"+url.PathEscape(invoiceNumber), nil, nil)
}

func (c *Client) CreatePhoneNumber(ctx context.Context, in PhoneNumberInput) (phonedomain.PhoneNumber, error) {
	var out phonedomain.PhoneNumber
	err := c.do(ctx, http.MethodPost, "/api/phonenumbers", in, &out)
	return out, err
}

func (c *Client) DeletePhoneNumber(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/phonenumbers/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ctx, requestID := correlation.EnsureCorrelationID(ctx)

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	target := strings.TrimRight(c.baseURL.String(), "/") + path
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, "+problem.ContentType)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	correlation.InjectHeader(ctx, req.Header)
	if method == http.MethodDelete && c.apiKey != "" {
		req.Header.Set(HeaderAPIKey, c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
		zap.String("request_id", requestID),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp, requestID)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response, requestID string) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: requestID}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return apiErr
	}
	var details problem.Details
	if err := json.Unmarshal(raw, &details); err == nil && details.Status != 0 {
		apiErr.Problem = &details
	}
	return apiErr
}
