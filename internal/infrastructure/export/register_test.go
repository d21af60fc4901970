package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/medcenter/hms-vouchers/internal/domain/entity"
	"github.com/medcenter/hms-vouchers/internal/domain/workflow"
)

func TestRegisterRenderer_Render(t *testing.T) {
	start, _ := entity.ParseDate("2024-12-01")
	end, _ := entity.ParseDate("2024-12-31")
	day, _ := entity.ParseDate("2025-01-05")
	paidAt := time.Date(2025, 1, 7, 11, 0, 0, 0, time.UTC)

	vouchers := []*entity.Voucher{
		{
			VoucherNumber:      "VCH-20250105-0001",
			VoucherType:        entity.VoucherTypeDoctorPayment,
			Status:             workflow.StatePaid,
			Amount:             entity.AmountFromCents(150000),
			VoucherDate:        day,
			DoctorID:           "DR003",
			DoctorName:         "Dr. Michael Brown",
			PaymentPeriodStart: &start,
			PaymentPeriodEnd:   &end,
			ApprovedBy:         "manager",
			PaidAt:             &paidAt,
		},
		{
			VoucherNumber: "VCH-20250105-0002",
			VoucherType:   entity.VoucherTypeHospitalExpense,
			Status:        workflow.StateDraft,
			Amount:        entity.AmountFromCents(2550),
			VoucherDate:   day,
			Description:   "Oxygen refill",
		},
	}

	renderer := NewRegisterRenderer(Config{CompanyName: "City Hospital"}, zap.NewNop())
	data, err := renderer.Render(context.Background(), vouchers, time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Vouchers"}, f.GetSheetList())

	rows, err := f.GetRows("Vouchers")
	require.NoError(t, err)
	require.Len(t, rows, 6)

	assert.Equal(t, "City Hospital - Voucher Register", rows[0][0])
	assert.Equal(t, "Generated Jan 8, 2025 09:00", rows[1][0])
	assert.Equal(t, registerHeaders, rows[2])

	assert.Equal(t, "VCH-20250105-0001", rows[3][0])
	assert.Equal(t, "Doctor Payment", rows[3][1])
	assert.Equal(t, "Dr. Michael Brown (DR003)", rows[3][4])
	assert.Equal(t, "Dec 1, 2024 - Dec 31, 2024", rows[3][5])
	assert.Equal(t, "2025-01-07 11:00", rows[3][10])

	assert.Equal(t, "Oxygen refill", rows[4][6])
	assert.Empty(t, rows[4][5])

	total, err := f.GetCellValue("Vouchers", "H6", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "1525.5", total)
	assert.Equal(t, "Total", rows[5][6])
}

func TestRegisterRenderer_Empty(t *testing.T) {
	renderer := NewRegisterRenderer(Config{SheetName: "Register"}, zap.NewNop())
	data, err := renderer.Render(context.Background(), nil, time.Now())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue("Register", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Voucher Register", title)
}

func TestRegisterRenderer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRegisterRenderer(Config{}, zap.NewNop()).Render(ctx, nil, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}
