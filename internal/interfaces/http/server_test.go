package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medcenter/hms-vouchers/internal/application/service"
	"github.com/medcenter/hms-vouchers/internal/domain/entity"
	"github.com/medcenter/hms-vouchers/internal/domain/workflow"
	"github.com/medcenter/hms-vouchers/internal/infrastructure/export"
	"github.com/medcenter/hms-vouchers/internal/infrastructure/persistence/repository"
	"github.com/medcenter/hms-vouchers/internal/infrastructure/persistence/sqlite"
	"github.com/medcenter/hms-vouchers/pkg/database"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

type healthFunc func(ctx context.Context) error

func (f healthFunc) Health(ctx context.Context) error { return f(ctx) }

func newTestServer(t *testing.T, config ServerConfig, health HealthChecker) *Server {
	t.Helper()
	ctx := context.Background()

	db, err := database.New(ctx, database.Config{Path: filepath.Join(t.TempDir(), "hms.db"), MaxOpenConns: 1}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewMigrator(db, zap.NewNop()).Run(ctx, sqlite.Migrations, sqlite.MigrationsDir))

	logger := zap.NewNop()
	svc := service.NewVoucherService(
		repository.NewVoucherRepository(db.DB, logger),
		repository.NewDoctorRepository(db.DB, logger),
		repository.NewHistoryRepository(db.DB, logger),
		sqlite.NewDB(db.DB, logger),
		nil,
		nopLogger{},
		service.WithRegisterRenderer(export.NewRegisterRenderer(export.Config{}, logger)),
	)

	return NewServer(config, svc, health, nopLogger{})
}

func do(t *testing.T, srv *Server, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func summary(t *testing.T, srv *Server) entity.VoucherSummary {
	t.Helper()
	rec := do(t, srv, http.MethodGet, "/api/vouchers/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	return decode[entity.VoucherSummary](t, rec)
}

func TestVoucherLifecycle_EndToEnd(t *testing.T) {
	srv := newTestServer(t, DefaultServerConfig(), nil)
	before := summary(t, srv)

	rec := do(t, srv, http.MethodPost, "/api/vouchers",
		`{"voucher_type":"HOSPITAL_EXPENSE","amount":1000,"voucher_date":"2025-03-14","description":"Oxygen refill"}`,
		HeaderActor, "cashier")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[entity.Voucher](t, rec)
	assert.Equal(t, workflow.StateDraft, created.Status)
	assert.True(t, strings.HasPrefix(created.VoucherNumber, "VCH-"))
	path := "/api/vouchers/" + itoa(created.ID)

	afterCreate := summary(t, srv)
	approvedBefore := afterCreate.ApprovedCount

	rec = do(t, srv, http.MethodPost, path+"/approve", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Detail, "in status DRAFT")

	rec = do(t, srv, http.MethodGet, path, "")
	assert.Equal(t, workflow.StateDraft, decode[entity.Voucher](t, rec).Status)

	for _, step := range []struct{ action, message string }{
		{"submit", "submitted for approval"},
		{"approve", "approved"},
		{"pay", "marked as paid"},
	} {
		rec = do(t, srv, http.MethodPost, path+"/"+step.action, "", HeaderActor, "manager")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "Voucher "+created.VoucherNumber+" "+step.message, decode[MessageResponse](t, rec).Message)
	}

	rec = do(t, srv, http.MethodGet, path, "")
	paid := decode[entity.Voucher](t, rec)
	assert.Equal(t, workflow.StatePaid, paid.Status)
	assert.Equal(t, "manager", paid.ApprovedBy)
	assert.NotNil(t, paid.PaidAt)

	after := summary(t, srv)
	assert.Equal(t, before.TotalAmount.Add(entity.AmountFromCents(100000)).String(), after.TotalAmount.String())
	assert.Equal(t, approvedBefore, after.ApprovedCount)
	assert.Equal(t, before.PaidCount+1, after.PaidCount)

	rec = do(t, srv, http.MethodGet, path+"/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]entity.VoucherHistory](t, rec)
	require.Len(t, history, 4)
	assert.Equal(t, "cashier", history[0].Actor)
	assert.Equal(t, "PAY", history[3].Action)
}

func TestCreateVoucher_DoctorPayment(t *testing.T) {
	srv := newTestServer(t, DefaultServerConfig(), nil)

	rec := do(t, srv, http.MethodPost, "/api/vouchers",
		`{"voucher_type":"DOCTOR_PAYMENT","amount":"1,500.00","doctor_id":"DR003","payment_period_start":"2024-12-01","payment_period_end":"2024-12-31"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[entity.Voucher](t, rec)

	rec = do(t, srv, http.MethodGet, "/api/vouchers/"+itoa(created.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[entity.Voucher](t, rec)
	assert.Equal(t, workflow.StateDraft, got.Status)
	assert.Equal(t, "DR003", got.DoctorID)
	assert.Equal(t, "Dr. Michael Brown", got.DoctorName)
	assert.Equal(t, "1500.00", got.Amount.String())
	assert.Equal(t, "2024-12-31", got.PaymentPeriodEnd.String())
}

func TestCreateVoucher_Invalid(t *testing.T) {
	srv := newTestServer(t, DefaultServerConfig(), nil)

	tests := []struct {
		name   string
		body   string
		status int
		detail string
	}{
		{"malformed", `{"voucher_type":`, http.StatusBadRequest, "invalid request body"},
		{"unknown type", `{"voucher_type":"OTHER","amount":"abc"}`, http.StatusUnprocessableEntity, "invalid voucher type"},
		{"missing amount", `{"voucher_type":"ADJUSTMENT"}`, http.StatusUnprocessableEntity, "amount must be a positive number"},
		{"negative amount", `{"voucher_type":"ADJUSTMENT","amount":-5}`, http.StatusUnprocessableEntity, "amount must be a positive number"},
		{"amount past int64 cents", `{"voucher_type":"ADJUSTMENT","amount":92233720368547758.08}`, http.StatusUnprocessableEntity, "amount must be a positive number"},
		{"amount wraps uint64 cents", `{"voucher_type":"ADJUSTMENT","amount":"184467440737095516.17"}`, http.StatusUnprocessableEntity, "amount must be a positive number"},
		{"amount in exponent form", `{"voucher_type":"ADJUSTMENT","amount":1e20}`, http.StatusUnprocessableEntity, "amount must be a positive number"},
		{"bad date", `{"voucher_type":"ADJUSTMENT","amount":5,"voucher_date":"14/03/2025"}`, http.StatusUnprocessableEntity, "invalid date"},
		{"doctor missing", `{"voucher_type":"DOCTOR_PAYMENT","amount":5}`, http.StatusUnprocessableEntity, "doctor is required"},
		{"unknown doctor", `{"voucher_type":"DOCTOR_PAYMENT","amount":5,"doctor_id":"DR999"}`, http.StatusUnprocessableEntity, "unknown doctor"},
		{"reversed period", `{"voucher_type":"DOCTOR_PAYMENT","amount":5,"doctor_id":"DR001","payment_period_start":"2024-12-31","payment_period_end":"2024-12-01"}`, http.StatusUnprocessableEntity, "payment period"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/vouchers", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, decode[ErrorResponse](t, rec).Detail, tt.detail)
		})
	}

	rec := do(t, srv, http.MethodGet, "/api/vouchers", "")
	assert.Empty(t, decode[[]entity.Voucher](t, rec))
}

func TestListVouchers_Filters(t *testing.T) {
	srv := newTestServer(t, DefaultServerConfig(), nil)

	for _, body := range []string{
		`{"voucher_type":"HOSPITAL_EXPENSE","amount":10,"voucher_date":"2025-01-01"}`,
		`{"voucher_type":"DOCTOR_PAYMENT","amount":20,"doctor_id":"DR001","voucher_date":"2025-02-01"}`,
		`{"voucher_type":"ADJUSTMENT","amount":30,"voucher_date":"2025-03-01"}`,
	} {
		require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/vouchers", body).Code)
	}

	rec := do(t, srv, http.MethodGet, "/api/vouchers", "")
	all := decode[[]entity.Voucher](t, rec)
	require.Len(t, all, 3)
	assert.Equal(t, entity.VoucherTypeAdjustment, all[0].VoucherType)

	rec = do(t, srv, http.MethodGet, "/api/vouchers?doctor_id=DR001", "")
	assert.Len(t, decode[[]entity.Voucher](t, rec), 1)

	rec = do(t, srv, http.MethodGet, "/api/vouchers?date_from=2025-02-01&status=DRAFT", "")
	assert.Len(t, decode[[]entity.Voucher](t, rec), 2)

	assert.Equal(t, http.StatusUnprocessableEntity, do(t, srv, http.MethodGet, "/api/vouchers?status=ARCHIVED", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, srv, http.MethodGet, "/api/vouchers?voucher_type=OTHER", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, srv, http.MethodGet, "/api/vouchers?date_from=yesterday", "").Code)
}

func TestVoucherNotFound(t *testing.T) {
	srv := newTestServer(t, DefaultServerConfig(), nil)

	rec := do(t, srv, http.MethodGet, "/api/vouchers/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Voucher not found", decode[ErrorResponse](t, rec).Detail)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodPost, "/api/vouchers/42/submit", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/vouchers/42/history", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/vouchers/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodDelete, "/api/vouchers/0", "").Code)
}

func TestDeleteVoucher_KeepsHistory(t *testing.T) {
	srv := newTestServer(t, DefaultServerConfig(), nil)

	rec := do(t, srv, http.MethodPost, "/api/vouchers", `{"voucher_type":"ADJUSTMENT","amount":5}`)
	created := decode[entity.Voucher](t, rec)
	path := "/api/vouchers/" + itoa(created.ID)

	rec = do(t, srv, http.MethodDelete, path, "", HeaderActor, "auditor")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Voucher "+created.VoucherNumber+" deleted successfully", decode[MessageResponse](t, rec).Message)

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodDelete, path, "").Code)

	rec = do(t, srv, http.MethodGet, path+"/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]entity.VoucherHistory](t, rec)
	require.Len(t, history, 2)
	assert.Equal(t, workflow.StateDeleted, history[1].ToStatus)
	assert.Equal(t, "auditor", history[1].Actor)
}

func TestExportVouchers(t *testing.T) {
	srv := newTestServer(t, DefaultServerConfig(), nil)
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/vouchers", `{"voucher_type":"ADJUSTMENT","amount":5}`).Code)

	rec := do(t, srv, http.MethodGet, "/api/vouchers/export?voucher_type=ADJUSTMENT", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, XLSXContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	// xlsx files are zip archives
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))
}

func TestListDoctors(t *testing.T) {
	srv := newTestServer(t, DefaultServerConfig(), nil)

	rec := do(t, srv, http.MethodGet, "/api/doctors", "")
	require.Equal(t, http.StatusOK, rec.Code)
	doctors := decode[[]entity.Doctor](t, rec)
	require.Len(t, doctors, 3)
	assert.Equal(t, "Dr. John Smith", doctors[0].Name)
}

func TestAuthToken(t *testing.T) {
	config := DefaultServerConfig()
	config.APIToken = "s3cret"
	srv := newTestServer(t, config, nil)

	rec := do(t, srv, http.MethodGet, "/api/vouchers", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authenticated", decode[ErrorResponse](t, rec).Detail)

	assert.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodGet, "/api/vouchers", "", "Authorization", "Bearer wrong").Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/vouchers", "", "Authorization", "Bearer s3cret").Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/health", "").Code)
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(t, DefaultServerConfig(), nil)

	rec := do(t, srv, http.MethodGet, "/health", "", HeaderRequestID, "req-42")
	assert.Equal(t, "req-42", rec.Header().Get(HeaderRequestID))

	rec = do(t, srv, http.MethodGet, "/health", "")
	assert.Len(t, rec.Header().Get(HeaderRequestID), 36)
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, DefaultServerConfig(), healthFunc(func(ctx context.Context) error {
		return errors.New("database is locked")
	}))

	rec := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[HealthResponse](t, rec)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "database is locked", body.Error)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(entity.ErrNotFound))
	assert.Equal(t, http.StatusConflict, statusFor(workflow.ErrInvalidTransition))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(entity.ErrInvalidPeriod))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("disk I/O error")))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
