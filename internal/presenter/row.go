package presenter

import (
	"fmt"
	"strconv"

	"github.com/medcenter/hms-vouchers/internal/domain/entity"
	"github.com/medcenter/hms-vouchers/internal/domain/workflow"
)

// VoucherRow is one voucher ready for a table
type VoucherRow struct {
	ID          string
	Number      string
	Type        string
	Status      string
	StatusClass Class
	Amount      string
	Date        string
	Doctor      string
	Period      string
	Actions     string
}

// Row renders v for a voucher table
func Row(v *entity.Voucher) VoucherRow {
	return VoucherRow{
		ID:          strconv.FormatInt(v.ID, 10),
		Number:      v.VoucherNumber,
		Type:        TypeLabel(v.VoucherType),
		Status:      StatusLabel(v.Status),
		StatusClass: StatusClass(v.Status),
		Amount:      Amount(v.Amount),
		Date:        Date(v.VoucherDate),
		Doctor:      Doctor(v),
		Period:      Period(v.PaymentPeriodStart, v.PaymentPeriodEnd),
		Actions:     ActionHint(v.Status),
	}
}

// Doctor renders "Dr. Michael Brown (DR003)" or "-" when the voucher has no doctor
func Doctor(v *entity.Voucher) string {
	switch {
	case v.DoctorID == "":
		return "-"
	case v.DoctorName == "":
		return v.DoctorID
	default:
		return fmt.Sprintf("%s (%s)", v.DoctorName, v.DoctorID)
	}
}

// SummaryLine is one labelled figure of the voucher summary
type SummaryLine struct {
	Label string
	Value string
	Class Class
}

// Summary renders the summary as labelled figures in a stable order
func Summary(s *entity.VoucherSummary) []SummaryLine {
	lines := []SummaryLine{
		{Label: "Total Vouchers", Value: strconv.Itoa(s.TotalVouchers), Class: ClassSecondary},
	}
	for _, status := range workflow.States() {
		lines = append(lines, SummaryLine{
			Label: StatusLabel(status),
			Value: strconv.Itoa(s.CountFor(status)),
			Class: StatusClass(status),
		})
	}
	return append(lines,
		SummaryLine{Label: "Total Amount", Value: Amount(s.TotalAmount), Class: ClassSecondary},
		SummaryLine{Label: "Pending Amount", Value: Amount(s.PendingAmount), Class: ClassWarning},
	)
}
