package desk_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medcenter/hms-vouchers/internal/config"
	"github.com/medcenter/hms-vouchers/internal/container"
	"github.com/medcenter/hms-vouchers/internal/desk"
	"github.com/medcenter/hms-vouchers/internal/domain/entity"
	"github.com/medcenter/hms-vouchers/internal/domain/workflow"
	"github.com/medcenter/hms-vouchers/internal/hmsclient"
)

// startService runs the full voucher service on an httptest server and
// returns a client for it
func startService(t *testing.T) *hmsclient.Client {
	t.Helper()

	cfg := &config.Config{
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: 8000, APIToken: "desk-token", Version: "test"},
		Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "hms.db"), MaxOpenConns: 1, BusyTimeout: time.Second},
		Logger:   config.LoggerConfig{Format: "json"},
		Export:   config.ExportConfig{SheetName: "Vouchers"},
		Client:   config.ClientConfig{BaseURL: "http://localhost:8000", Timeout: time.Second},
	}
	c, err := container.NewContainer(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { _ = c.Close() })

	srv := httptest.NewServer(c.Server().Router())
	t.Cleanup(srv.Close)

	client, err := hmsclient.NewClient(srv.URL, hmsclient.WithToken("desk-token"), hmsclient.WithActor("clerk"))
	require.NoError(t, err)
	return client
}

func TestScenario_HospitalExpenseLifecycle(t *testing.T) {
	ctx := context.Background()
	client := startService(t)
	store := desk.NewStore(client, nil)
	d := desk.New(client, store, desk.AutoConfirm(false), nil)

	before, err := store.Summary(ctx)
	require.NoError(t, err)

	number, err := d.Create(ctx, entity.VoucherDraft{
		VoucherType: entity.VoucherTypeHospitalExpense,
		Amount:      entity.AmountFromCents(100000),
		Description: "Oxygen cylinders",
	})
	require.NoError(t, err)
	assert.Regexp(t, `^VCH-\d{8}-\d{4}$`, number)

	vouchers := store.Vouchers()
	require.Len(t, vouchers, 1)
	id := vouchers[0].ID
	assert.Equal(t, number, vouchers[0].VoucherNumber)

	_, err = d.Approve(ctx, id)
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)

	voucher, err := client.GetVoucher(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, workflow.StateDraft, voucher.Status)

	_, err = d.Submit(ctx, id)
	require.NoError(t, err)
	afterSubmit := store.LastSummary()

	msg, err := d.Approve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Voucher "+number+" approved", msg)

	_, err = d.MarkPaid(ctx, id)
	require.NoError(t, err)

	voucher, err = client.GetVoucher(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatePaid, voucher.Status)
	assert.NotNil(t, voucher.PaidAt)
	assert.Equal(t, "clerk", voucher.ApprovedBy)

	after := store.LastSummary()
	require.NotNil(t, after)
	assert.Equal(t, before.TotalAmount.Add(entity.AmountFromCents(100000)).String(), after.TotalAmount.String())
	assert.Equal(t, afterSubmit.ApprovedCount, after.ApprovedCount)
	assert.Equal(t, 1, after.PaidCount)

	// a paid voucher is only deleted with elevated confirmation
	_, err = d.Delete(ctx, id)
	assert.ErrorIs(t, err, desk.ErrNotConfirmed)

	elevated := desk.New(client, store, desk.AutoConfirm(true), nil)
	_, err = elevated.Delete(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, store.Vouchers())

	_, err = client.GetVoucher(ctx, id)
	assert.ErrorIs(t, err, hmsclient.ErrNotFound)

	history, err := client.VoucherHistory(ctx, id)
	require.NoError(t, err)
	assert.Len(t, history, 5)
}

func TestScenario_DoctorPayment(t *testing.T) {
	ctx := context.Background()
	client := startService(t)
	d := desk.New(client, desk.NewStore(client, nil), desk.AutoConfirm(false), nil)

	_, err := d.Create(ctx, entity.VoucherDraft{
		VoucherType: entity.VoucherTypeDoctorPayment,
		Amount:      entity.AmountFromCents(150000),
		DoctorID:    "DR003",
	})
	require.NoError(t, err)

	vouchers := d.Store().Vouchers()
	require.Len(t, vouchers, 1)

	voucher, err := client.GetVoucher(ctx, vouchers[0].ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StateDraft, voucher.Status)
	assert.Equal(t, "DR003", voucher.DoctorID)
	assert.Equal(t, "1500.00", voucher.Amount.String())

	_, err = d.Create(ctx, entity.VoucherDraft{
		VoucherType: entity.VoucherTypeDoctorPayment,
		Amount:      entity.AmountFromCents(100),
		DoctorID:    "DR999",
	})
	require.ErrorIs(t, err, hmsclient.ErrRemoteRejected)
	assert.Equal(t, desk.LevelError, desk.NoticeFor(err).Level)
}
