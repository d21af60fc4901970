// Package hmsclient is a typed client for the voucher REST API, shared by the
// desk and voucherctl. It speaks in this module's entity and workflow types.
package hmsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/medcenter/hms-vouchers/internal/domain/entity"
	"github.com/medcenter/hms-vouchers/internal/domain/workflow"
	"github.com/medcenter/hms-vouchers/pkg/utils"
)

// DefaultTimeout bounds every request unless WithTimeout or WithHTTPClient says otherwise
const DefaultTimeout = 15 * time.Second

// limits how much of an error body is read
const maxErrorBody = 64 << 10

// Client talks to the voucher API under <baseURL>/api
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	actor      string
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithToken sends "Authorization: Bearer <token>"
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithActor names the person acting; the service records it in voucher history
func WithActor(actor string) Option {
	return func(c *Client) {
		c.actor = actor
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithLogger enables debug logging of requests
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the service at baseURL, e.g. http://localhost:8000
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if err := utils.ValidateBaseURL(baseURL); err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListVouchers returns the vouchers matching filter in server order
func (c *Client) ListVouchers(ctx context.Context, filter entity.VoucherFilter) ([]*entity.Voucher, error) {
	var vouchers []*entity.Voucher
	if err := c.do(ctx, http.MethodGet, "/vouchers", filterQuery(filter), nil, &vouchers); err != nil {
		return nil, err
	}
	if vouchers == nil {
		vouchers = []*entity.Voucher{}
	}
	return vouchers, nil
}

// VoucherSummary returns the per-status counts and totals
func (c *Client) VoucherSummary(ctx context.Context) (*entity.VoucherSummary, error) {
	var summary entity.VoucherSummary
	if err := c.do(ctx, http.MethodGet, "/vouchers/summary", nil, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// GetVoucher returns a single voucher
func (c *Client) GetVoucher(ctx context.Context, id int64) (*entity.Voucher, error) {
	var voucher entity.Voucher
	if err := c.do(ctx, http.MethodGet, voucherPath(id), nil, nil, &voucher); err != nil {
		return nil, err
	}
	return &voucher, nil
}

// CreateVoucher stores draft as a new DRAFT voucher
func (c *Client) CreateVoucher(ctx context.Context, draft entity.VoucherDraft) (*entity.Voucher, error) {
	var voucher entity.Voucher
	if err := c.do(ctx, http.MethodPost, "/vouchers", nil, draft, &voucher); err != nil {
		return nil, err
	}
	return &voucher, nil
}

// TransitionVoucher performs trigger and returns the service's confirmation message
func (c *Client) TransitionVoucher(ctx context.Context, id int64, trigger workflow.Trigger) (string, error) {
	method, path := http.MethodPost, voucherPath(id)+"/"+trigger.Verb()
	switch {
	case trigger == workflow.TriggerDelete:
		method, path = http.MethodDelete, voucherPath(id)
	case !trigger.IsValid():
		return "", fmt.Errorf("%w: unknown action %q", workflow.ErrInvalidTransition, trigger)
	}

	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, method, path, nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// VoucherHistory returns the audit trail of a voucher, deleted ones included
func (c *Client) VoucherHistory(ctx context.Context, id int64) ([]*entity.VoucherHistory, error) {
	var entries []*entity.VoucherHistory
	if err := c.do(ctx, http.MethodGet, voucherPath(id)+"/history", nil, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ExportVouchers downloads the xlsx voucher register for filter
func (c *Client) ExportVouchers(ctx context.Context, filter entity.VoucherFilter) ([]byte, error) {
	resp, err := c.send(ctx, http.MethodGet, "/vouchers/export", filterQuery(filter), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, unavailable("read export: %v", err)
	}
	return data, nil
}

// ListDoctors returns the doctor lookup
func (c *Client) ListDoctors(ctx context.Context) ([]*entity.Doctor, error) {
	var doctors []*entity.Doctor
	if err := c.do(ctx, http.MethodGet, "/doctors", nil, nil, &doctors); err != nil {
		return nil, err
	}
	return doctors, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	resp, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return unavailable("malformed response from %s %s: %v", method, path, err)
	}
	return nil
}

// send performs the request and returns a 2xx response; the caller closes the body
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body interface{}) (*http.Response, error) {
	endpoint := c.baseURL + "/api" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.actor != "" {
		req.Header.Set("X-Actor", c.actor)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("Voucher API request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}

	c.logger.Debug("Voucher API request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	return nil, decodeError(resp)
}

// decodeError turns a non-2xx response into an *APIError when it carries a
// detail, else into ErrRemoteUnavailable
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Detail) == 0 {
		return unavailable("status %d", resp.StatusCode)
	}

	var detail string
	if err := json.Unmarshal(body.Detail, &detail); err != nil {
		// structured details are passed through as JSON text
		detail = string(body.Detail)
	}
	if detail == "" {
		return unavailable("status %d", resp.StatusCode)
	}

	return &APIError{StatusCode: resp.StatusCode, Detail: detail}
}

func voucherPath(id int64) string {
	return "/vouchers/" + strconv.FormatInt(id, 10)
}

func filterQuery(filter entity.VoucherFilter) url.Values {
	query := url.Values{}
	if filter.VoucherType != "" {
		query.Set("voucher_type", string(filter.VoucherType))
	}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}
	if filter.DoctorID != "" {
		query.Set("doctor_id", filter.DoctorID)
	}
	if filter.DateFrom != nil {
		query.Set("date_from", filter.DateFrom.String())
	}
	return query
}
