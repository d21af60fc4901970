package hmsclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medcenter/hms-vouchers/internal/domain/entity"
	"github.com/medcenter/hms-vouchers/internal/domain/workflow"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, opts...)
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient("localhost:8000")
	assert.Error(t, err)
}

func TestListVouchers_SendsFilterAndHeaders(t *testing.T) {
	from, _ := entity.ParseDate("2025-01-01")

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/vouchers", r.URL.Path)
		assert.Equal(t, "DOCTOR_PAYMENT", r.URL.Query().Get("voucher_type"))
		assert.Equal(t, "APPROVED", r.URL.Query().Get("status"))
		assert.Equal(t, "2025-01-01", r.URL.Query().Get("date_from"))
		assert.Empty(t, r.URL.Query().Get("doctor_id"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "cashier", r.Header.Get("X-Actor"))

		_, _ = io.WriteString(w, `[{"voucher_id":7,"voucher_number":"VCH-20250102-0001","voucher_type":"DOCTOR_PAYMENT",
			"status":"APPROVED","amount":1500.5,"voucher_date":"2025-01-02","doctor_id":"DR001"}]`)
	}, WithToken("secret"), WithActor("cashier"))

	vouchers, err := client.ListVouchers(context.Background(), entity.VoucherFilter{
		VoucherType: entity.VoucherTypeDoctorPayment,
		Status:      workflow.StateApproved,
		DateFrom:    &from,
	})
	require.NoError(t, err)
	require.Len(t, vouchers, 1)
	assert.Equal(t, int64(7), vouchers[0].ID)
	assert.Equal(t, "1500.50", vouchers[0].Amount.String())
	assert.Equal(t, "2025-01-02", vouchers[0].VoucherDate.String())
}

func TestListVouchers_EmptyBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `null`)
	})

	vouchers, err := client.ListVouchers(context.Background(), entity.VoucherFilter{})
	require.NoError(t, err)
	assert.NotNil(t, vouchers)
	assert.Empty(t, vouchers)
}

func TestCreateVoucher(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "HOSPITAL_EXPENSE", body["voucher_type"])
		assert.Equal(t, 250.0, body["amount"])
		assert.Nil(t, body["voucher_date"])
		assert.NotContains(t, body, "payment_period_start")

		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"voucher_id": 3, "voucher_number": "VCH-20250314-0003", "status": "DRAFT",
		})
	})

	voucher, err := client.CreateVoucher(context.Background(), entity.VoucherDraft{
		VoucherType: entity.VoucherTypeHospitalExpense,
		Amount:      entity.AmountFromCents(25000),
	})
	require.NoError(t, err)
	assert.Equal(t, "VCH-20250314-0003", voucher.VoucherNumber)
	assert.Equal(t, workflow.StateDraft, voucher.Status)
}

func TestTransitionVoucher_Routes(t *testing.T) {
	tests := []struct {
		trigger workflow.Trigger
		method  string
		path    string
	}{
		{workflow.TriggerSubmit, http.MethodPost, "/api/vouchers/9/submit"},
		{workflow.TriggerApprove, http.MethodPost, "/api/vouchers/9/approve"},
		{workflow.TriggerReject, http.MethodPost, "/api/vouchers/9/reject"},
		{workflow.TriggerPay, http.MethodPost, "/api/vouchers/9/pay"},
		{workflow.TriggerDelete, http.MethodDelete, "/api/vouchers/9"},
	}

	for _, tt := range tests {
		t.Run(tt.trigger.String(), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.method, r.Method)
				assert.Equal(t, tt.path, r.URL.Path)
				writeJSON(w, http.StatusOK, map[string]string{"message": "done"})
			})

			msg, err := client.TransitionVoucher(context.Background(), 9, tt.trigger)
			require.NoError(t, err)
			assert.Equal(t, "done", msg)
		})
	}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unknown trigger must not reach the server")
	})
	_, err := client.TransitionVoucher(context.Background(), 9, workflow.Trigger("ARCHIVE"))
	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantIs      []error
		wantNot     []error
		wantDetail  string
		unavailable bool
	}{
		{
			name:       "not found",
			status:     http.StatusNotFound,
			body:       `{"detail":"Voucher not found"}`,
			wantIs:     []error{ErrRemoteRejected, ErrNotFound},
			wantNot:    []error{workflow.ErrInvalidTransition, ErrRemoteUnavailable},
			wantDetail: "Voucher not found",
		},
		{
			name:       "conflict",
			status:     http.StatusConflict,
			body:       `{"detail":"cannot approve voucher in status DRAFT"}`,
			wantIs:     []error{ErrRemoteRejected, workflow.ErrInvalidTransition},
			wantNot:    []error{ErrNotFound},
			wantDetail: "cannot approve voucher in status DRAFT",
		},
		{
			name:       "structured detail",
			status:     http.StatusUnprocessableEntity,
			body:       `{"detail":[{"loc":["amount"]}]}`,
			wantIs:     []error{ErrRemoteRejected},
			wantDetail: `[{"loc":["amount"]}]`,
		},
		{
			name:        "html error page",
			status:      http.StatusBadGateway,
			body:        `<html>bad gateway</html>`,
			wantIs:      []error{ErrRemoteUnavailable},
			wantNot:     []error{ErrRemoteRejected},
			unavailable: true,
		},
		{
			name:        "empty detail",
			status:      http.StatusInternalServerError,
			body:        `{"detail":""}`,
			wantIs:      []error{ErrRemoteUnavailable},
			unavailable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.GetVoucher(context.Background(), 1)
			require.Error(t, err)
			for _, target := range tt.wantIs {
				assert.ErrorIs(t, err, target)
			}
			for _, target := range tt.wantNot {
				assert.False(t, errors.Is(err, target), "unexpected match %v", target)
			}

			detail, ok := Detail(err)
			assert.Equal(t, !tt.unavailable, ok)
			assert.Equal(t, tt.wantDetail, detail)
		})
	}
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := NewClient(url, WithTimeout(time.Second))
	require.NoError(t, err)

	_, err = client.VoucherSummary(context.Background())
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
}

func TestMalformedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"total_vouchers":`)
	})

	_, err := client.VoucherSummary(context.Background())
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
}

func TestContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []interface{}{})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListDoctors(ctx)
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExportVouchers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/vouchers/export", r.URL.Path)
		assert.Equal(t, "PAID", r.URL.Query().Get("status"))
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		_, _ = w.Write([]byte("PK\x03\x04"))
	})

	data, err := client.ExportVouchers(context.Background(), entity.VoucherFilter{Status: workflow.StatePaid})
	require.NoError(t, err)
	assert.Equal(t, []byte("PK\x03\x04"), data)
}

func TestVoucherHistoryAndDoctors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/vouchers/4/history":
			_, _ = io.WriteString(w, `[{"id":1,"voucher_id":4,"action":"CREATE","to_status":"DRAFT"}]`)
		case "/api/doctors":
			_, _ = io.WriteString(w, `[{"doctor_id":"DR001","doctor_name":"Dr. John Smith","consultation_charges":100}]`)
		default:
			http.NotFound(w, r)
		}
	})

	history, err := client.VoucherHistory(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entity.HistoryActionCreate, history[0].Action)

	doctors, err := client.ListDoctors(context.Background())
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Equal(t, "Dr. John Smith", doctors[0].Name)
}
