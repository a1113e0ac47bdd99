// Package upstream is the typed HTTP client for the remote billing API, the
// only system of record. Every inbound record passes through the billing
// normalization functions before it leaves this package.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/powerflowhq/powerflow/internal/billing"
	"github.com/powerflowhq/powerflow/internal/metrics"
)

// Config controls how the client reaches the billing API.
type Config struct {
	// BaseURL of the API, e.g. http://127.0.0.1:5000.
	BaseURL string
	// Timeout applied to every request.
	Timeout time.Duration
}

// Client wraps the billing API endpoints.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// New builds a Client. A zero timeout defaults to 10s.
func New(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// BillPayload is the wire shape for bill creation and update.
type BillPayload struct {
	CustomerID  int64              `json:"customer_id"`
	BillingDate string             `json:"billing_date"`
	DueDate     string             `json:"due_date"`
	ReadingID   *int64             `json:"reading_id,omitempty"`
	Units       float64            `json:"units"`
	AmountDue   float64            `json:"amount_due"`
	Status      billing.BillStatus `json:"status"`
}

// Customers

func (c *Client) ListCustomers(ctx context.Context) ([]billing.Customer, error) {
	raws, err := c.list(ctx, "customers")
	if err != nil {
		return nil, err
	}
	out := make([]billing.Customer, 0, len(raws))
	for _, raw := range raws {
		out = append(out, billing.NormalizeCustomer(raw))
	}
	return out, nil
}

func (c *Client) CreateCustomer(ctx context.Context, in billing.CustomerInput) (billing.Customer, error) {
	raw, err := c.one(ctx, "customers", http.MethodPost, "/api/customers", in)
	if err != nil {
		return billing.Customer{}, err
	}
	return billing.NormalizeCustomer(raw), nil
}

func (c *Client) UpdateCustomer(ctx context.Context, id int64, in billing.CustomerInput) (billing.Customer, error) {
	raw, err := c.one(ctx, "customers", http.MethodPut, fmt.Sprintf("/api/customers/%d", id), in)
	if err != nil {
		return billing.Customer{}, err
	}
	return billing.NormalizeCustomer(raw), nil
}

func (c *Client) DeleteCustomer(ctx context.Context, id int64) error {
	_, err := c.do(ctx, "customers", http.MethodDelete, fmt.Sprintf("/api/customers/%d", id), nil)
	return err
}

// Meters

func (c *Client) ListMeters(ctx context.Context) ([]billing.Meter, error) {
	raws, err := c.list(ctx, "meters")
	if err != nil {
		return nil, err
	}
	out := make([]billing.Meter, 0, len(raws))
	for _, raw := range raws {
		out = append(out, billing.NormalizeMeter(raw))
	}
	return out, nil
}

func (c *Client) CreateMeter(ctx context.Context, in billing.MeterInput) (billing.Meter, error) {
	raw, err := c.one(ctx, "meters", http.MethodPost, "/api/meters", in)
	if err != nil {
		return billing.Meter{}, err
	}
	return billing.NormalizeMeter(raw), nil
}

func (c *Client) UpdateMeter(ctx context.Context, id int64, in billing.MeterInput) (billing.Meter, error) {
	raw, err := c.one(ctx, "meters", http.MethodPut, fmt.Sprintf("/api/meters/%d", id), in)
	if err != nil {
		return billing.Meter{}, err
	}
	return billing.NormalizeMeter(raw), nil
}

func (c *Client) DeleteMeter(ctx context.Context, id int64) error {
	_, err := c.do(ctx, "meters", http.MethodDelete, fmt.Sprintf("/api/meters/%d", id), nil)
	return err
}

// Readings

func (c *Client) ListReadings(ctx context.Context) ([]billing.Reading, error) {
	raws, err := c.list(ctx, "readings")
	if err != nil {
		return nil, err
	}
	out := make([]billing.Reading, 0, len(raws))
	for _, raw := range raws {
		out = append(out, billing.NormalizeReading(raw))
	}
	return out, nil
}

func (c *Client) CreateReading(ctx context.Context, in billing.ReadingInput) (billing.Reading, error) {
	raw, err := c.one(ctx, "readings", http.MethodPost, "/api/readings", in)
	if err != nil {
		return billing.Reading{}, err
	}
	return billing.NormalizeReading(raw), nil
}

func (c *Client) UpdateReading(ctx context.Context, id int64, in billing.ReadingInput) (billing.Reading, error) {
	raw, err := c.one(ctx, "readings", http.MethodPut, fmt.Sprintf("/api/readings/%d", id), in)
	if err != nil {
		return billing.Reading{}, err
	}
	return billing.NormalizeReading(raw), nil
}

func (c *Client) DeleteReading(ctx context.Context, id int64) error {
	_, err := c.do(ctx, "readings", http.MethodDelete, fmt.Sprintf("/api/readings/%d", id), nil)
	return err
}

// Bills

func (c *Client) ListBills(ctx context.Context) ([]billing.Bill, error) {
	raws, err := c.list(ctx, "bills")
	if err != nil {
		return nil, err
	}
	out := make([]billing.Bill, 0, len(raws))
	for _, raw := range raws {
		out = append(out, billing.NormalizeBill(raw))
	}
	return out, nil
}

func (c *Client) CreateBill(ctx context.Context, p BillPayload) (billing.Bill, error) {
	raw, err := c.one(ctx, "bills", http.MethodPost, "/api/bills", p)
	if err != nil {
		return billing.Bill{}, err
	}
	return billing.NormalizeBill(raw), nil
}

func (c *Client) UpdateBill(ctx context.Context, id int64, p BillPayload) (billing.Bill, error) {
	raw, err := c.one(ctx, "bills", http.MethodPut, fmt.Sprintf("/api/bills/%d", id), p)
	if err != nil {
		return billing.Bill{}, err
	}
	return billing.NormalizeBill(raw), nil
}

func (c *Client) DeleteBill(ctx context.Context, id int64) error {
	_, err := c.do(ctx, "bills", http.MethodDelete, fmt.Sprintf("/api/bills/%d", id), nil)
	return err
}

// list fetches a whole collection as raw objects.
func (c *Client) list(ctx context.Context, resource string) ([]map[string]any, error) {
	data, err := c.do(ctx, resource, http.MethodGet, "/api/"+resource, nil)
	if err != nil {
		return nil, err
	}
	var raws []map[string]any
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode %s list: %w", resource, err)
	}
	return raws, nil
}

// one issues a mutating request and decodes the canonical record the server
// returns.
func (c *Client) one(ctx context.Context, resource, method, path string, body any) (map[string]any, error) {
	data, err := c.do(ctx, resource, method, path, body)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", resource, err)
	}
	return raw, nil
}

func (c *Client) do(ctx context.Context, resource, method, path string, body any) ([]byte, error) {
	start := time.Now()
	metrics.UpstreamRequestsTotal.WithLabelValues(resource, method).Inc()
	defer func() {
		metrics.UpstreamRequestDurationSeconds.WithLabelValues(resource, method).Observe(time.Since(start).Seconds())
	}()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues(resource, method, "transport").Inc()
		c.logger.Warn("billing api request failed",
			zap.String("resource", resource),
			zap.String("method", method),
			zap.Error(err))
		return nil, fmt.Errorf("billing api unreachable: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues(resource, method, "transport").Inc()
		return nil, fmt.Errorf("read billing api response: %w", err)
	}

	if resp.StatusCode >= 300 {
		metrics.UpstreamErrorsTotal.WithLabelValues(resource, method, fmt.Sprintf("%d", resp.StatusCode)).Inc()
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data, resp.StatusCode)}
		c.logger.Warn("billing api returned non-success",
			zap.String("resource", resource),
			zap.String("method", method),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message))
		return nil, apiErr
	}

	return data, nil
}

// errorMessage extracts the server-supplied error string, falling back to a
// generic message when the body carries none.
func errorMessage(body []byte, status int) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return fmt.Sprintf("request failed with status %d", status)
}
