package export

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/medcenter/hms-vouchers/internal/application/port"
	"github.com/medcenter/hms-vouchers/internal/domain/entity"
	"github.com/medcenter/hms-vouchers/internal/presenter"
)

// Config holds register layout settings
type Config struct {
	SheetName   string
	CompanyName string
}

// RegisterRenderer writes vouchers to an xlsx voucher register
type RegisterRenderer struct {
	config Config
	logger *zap.Logger
}

// NewRegisterRenderer creates a new register renderer
func NewRegisterRenderer(config Config, logger *zap.Logger) *RegisterRenderer {
	if config.SheetName == "" {
		config.SheetName = "Vouchers"
	}
	return &RegisterRenderer{
		config: config,
		logger: logger,
	}
}

var registerHeaders = []string{
	"Voucher #", "Type", "Status", "Date", "Doctor", "Payment Period",
	"Description", "Amount (LKR)", "Created By", "Approved By", "Paid At",
}

// first row of voucher data; rows above hold the title block and headers
const firstDataRow = 4

// Render builds the workbook and returns its bytes
func (r *RegisterRenderer) Render(ctx context.Context, vouchers []*entity.Voucher, generatedAt time.Time) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := r.config.SheetName
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	title := "Voucher Register"
	if r.config.CompanyName != "" {
		title = r.config.CompanyName + " - " + title
	}
	r.setCell(f, sheet, "A1", title)
	r.setCell(f, sheet, "A2", "Generated "+generatedAt.Format("Jan 2, 2006 15:04"))

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, fmt.Errorf("failed to create amount style: %w", err)
	}

	for i, h := range registerHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, firstDataRow-1)
		r.setCell(f, sheet, cell, h)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(registerHeaders))
	if err := f.SetCellStyle(sheet, "A3", fmt.Sprintf("%s3", lastCol), headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	total := entity.AmountFromCents(0)
	for i, v := range vouchers {
		row := firstDataRow + i
		paidAt := ""
		if v.PaidAt != nil {
			paidAt = v.PaidAt.Format("2006-01-02 15:04")
		}
		values := []interface{}{
			v.VoucherNumber,
			presenter.TypeLabel(v.VoucherType),
			presenter.StatusLabel(v.Status),
			v.VoucherDate.String(),
			presenter.Doctor(v),
			periodText(v),
			v.Description,
			v.Amount.InexactFloat64(),
			v.CreatedBy,
			v.ApprovedBy,
			paidAt,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write voucher %s: %w", v.VoucherNumber, err)
		}
		total = total.Add(v.Amount)
	}

	totalRow := firstDataRow + len(vouchers)
	r.setCell(f, sheet, fmt.Sprintf("G%d", totalRow), "Total")
	if err := f.SetCellValue(sheet, fmt.Sprintf("H%d", totalRow), total.InexactFloat64()); err != nil {
		return nil, fmt.Errorf("failed to write total: %w", err)
	}
	if err := f.SetCellStyle(sheet, fmt.Sprintf("H%d", firstDataRow), fmt.Sprintf("H%d", totalRow), amountStyle); err != nil {
		return nil, fmt.Errorf("failed to style amounts: %w", err)
	}

	_ = f.SetColWidth(sheet, "A", "A", 20)
	_ = f.SetColWidth(sheet, "B", "C", 18)
	_ = f.SetColWidth(sheet, "D", "D", 12)
	_ = f.SetColWidth(sheet, "E", "F", 28)
	_ = f.SetColWidth(sheet, "G", "G", 36)
	_ = f.SetColWidth(sheet, "H", "H", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	r.logger.Info("Voucher register rendered",
		zap.Int("vouchers", len(vouchers)),
		zap.String("total", total.String()))

	return buf.Bytes(), nil
}

func periodText(v *entity.Voucher) string {
	if !v.IsDoctorPayment() {
		return ""
	}
	return presenter.Period(v.PaymentPeriodStart, v.PaymentPeriodEnd)
}

func (r *RegisterRenderer) setCell(f *excelize.File, sheet, cell string, value interface{}) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		r.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}

var _ port.RegisterRenderer = (*RegisterRenderer)(nil)
