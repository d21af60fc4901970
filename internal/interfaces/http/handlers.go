package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medcenter/hms-vouchers/internal/application/service"
	"github.com/medcenter/hms-vouchers/internal/domain/entity"
	"github.com/medcenter/hms-vouchers/internal/domain/workflow"
)

// XLSXContentType is served for voucher register exports
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handlers contains all HTTP request handlers
type Handlers struct {
	voucherService service.VoucherService
	health         HealthChecker
	version        string
	logger         Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(voucherService service.VoucherService, health HealthChecker, version string, logger Logger) *Handlers {
	return &Handlers{
		voucherService: voucherService,
		health:         health,
		version:        version,
		logger:         logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Error     string `json:"error,omitempty"`
}

// ListVouchersRequest holds the optional listing filters
type ListVouchersRequest struct {
	VoucherType string `form:"voucher_type"`
	Status      string `form:"status"`
	DoctorID    string `form:"doctor_id"`
	DateFrom    string `form:"date_from"`
}

// CreateVoucherRequest is the body of POST /api/vouchers.
// Amount accepts a JSON number or a numeric string.
type CreateVoucherRequest struct {
	VoucherType        string          `json:"voucher_type"`
	Amount             json.RawMessage `json:"amount"`
	VoucherDate        string          `json:"voucher_date"`
	Description        string          `json:"description"`
	DoctorID           string          `json:"doctor_id"`
	PaymentPeriodStart string          `json:"payment_period_start"`
	PaymentPeriodEnd   string          `json:"payment_period_end"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
	}

	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.health.Health(ctx); err != nil {
			h.logger.Error("Health check failed", "error", err)
			response.Status = "unhealthy"
			response.Error = err.Error()
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
	}

	c.JSON(http.StatusOK, response)
}

// ListVouchers handles GET /api/vouchers
func (h *Handlers) ListVouchers(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	vouchers, err := h.voucherService.ListVouchers(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, vouchers)
}

// Summary handles GET /api/vouchers/summary
func (h *Handlers) Summary(c *gin.Context) {
	summary, err := h.voucherService.Summary(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetVoucher handles GET /api/vouchers/:id
func (h *Handlers) GetVoucher(c *gin.Context) {
	id, ok := voucherID(c)
	if !ok {
		return
	}

	voucher, err := h.voucherService.GetVoucher(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, voucher)
}

// CreateVoucher handles POST /api/vouchers
func (h *Handlers) CreateVoucher(c *gin.Context) {
	var req CreateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Info("Invalid voucher body", "error", err)
		badRequest(c, "invalid request body")
		return
	}

	draft, err := req.toDraft()
	if err != nil {
		h.writeError(c, err)
		return
	}

	voucher, err := h.voucherService.CreateVoucher(c.Request.Context(), draft, actorFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, voucher)
}

// Transition returns the handler for one lifecycle action on /api/vouchers/:id
func (h *Handlers) Transition(trigger workflow.Trigger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := voucherID(c)
		if !ok {
			return
		}

		result, err := h.voucherService.Transition(c.Request.Context(), id, trigger, actorFrom(c))
		if err != nil {
			h.writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, MessageResponse{Message: result.Message})
	}
}

// History handles GET /api/vouchers/:id/history
func (h *Handlers) History(c *gin.Context) {
	id, ok := voucherID(c)
	if !ok {
		return
	}

	entries, err := h.voucherService.History(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// ExportVouchers handles GET /api/vouchers/export
func (h *Handlers) ExportVouchers(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	data, err := h.voucherService.ExportRegister(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	filename := fmt.Sprintf("vouchers-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.DataFromReader(http.StatusOK, int64(len(data)), XLSXContentType, bytes.NewReader(data), nil)
}

// ListDoctors handles GET /api/doctors
func (h *Handlers) ListDoctors(c *gin.Context) {
	doctors, err := h.voucherService.ListDoctors(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, doctors)
}

func (h *Handlers) bindFilter(c *gin.Context) (entity.VoucherFilter, bool) {
	var req ListVouchersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "invalid query parameters")
		return entity.VoucherFilter{}, false
	}

	dateFrom, err := entity.ParseOptionalDate(req.DateFrom)
	if err != nil {
		h.writeError(c, err)
		return entity.VoucherFilter{}, false
	}

	return entity.VoucherFilter{
		VoucherType: entity.VoucherType(req.VoucherType),
		Status:      workflow.State(req.Status),
		DoctorID:    req.DoctorID,
		DateFrom:    dateFrom,
	}, true
}

func voucherID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, fmt.Sprintf("invalid voucher id %q", idStr))
		return 0, false
	}
	return id, true
}

// toDraft parses the wire fields. The type is reported before the amount so
// errors come out in the same order as VoucherDraft.Validate.
func (r CreateVoucherRequest) toDraft() (entity.VoucherDraft, error) {
	draft := entity.VoucherDraft{
		VoucherType: entity.VoucherType(r.VoucherType),
		Description: r.Description,
		DoctorID:    r.DoctorID,
	}
	if !draft.VoucherType.IsValid() {
		return draft, fmt.Errorf("%w: %q", entity.ErrInvalidType, r.VoucherType)
	}

	amount, err := parseAmount(r.Amount)
	if err != nil {
		return draft, err
	}
	draft.Amount = amount

	if r.VoucherDate != "" {
		if draft.VoucherDate, err = entity.ParseDate(r.VoucherDate); err != nil {
			return draft, err
		}
	}
	if draft.PaymentPeriodStart, err = entity.ParseOptionalDate(r.PaymentPeriodStart); err != nil {
		return draft, err
	}
	if draft.PaymentPeriodEnd, err = entity.ParseOptionalDate(r.PaymentPeriodEnd); err != nil {
		return draft, err
	}

	return draft, nil
}

func parseAmount(raw json.RawMessage) (entity.Amount, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return entity.Amount{}, fmt.Errorf("%w: missing", entity.ErrInvalidAmount)
	}

	text := string(raw)
	var quoted string
	if err := json.Unmarshal(raw, &quoted); err == nil {
		text = quoted
	}
	return entity.ParseAmount(text)
}
