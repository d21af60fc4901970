package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/medcenter/hms-vouchers/internal/domain/workflow"
)

// VoucherType classifies what a voucher pays for
type VoucherType string

const (
	VoucherTypeDoctorPayment   VoucherType = "DOCTOR_PAYMENT"
	VoucherTypeHospitalExpense VoucherType = "HOSPITAL_EXPENSE"
	VoucherTypeAdjustment      VoucherType = "ADJUSTMENT"
)

var voucherTypes = []VoucherType{
	VoucherTypeDoctorPayment,
	VoucherTypeHospitalExpense,
	VoucherTypeAdjustment,
}

// VoucherTypes returns every voucher type
func VoucherTypes() []VoucherType {
	return append([]VoucherType(nil), voucherTypes...)
}

// IsValid returns true if t is one of the known voucher types
func (t VoucherType) IsValid() bool {
	for _, known := range voucherTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Voucher is a payment voucher as stored and served by the voucher API
type Voucher struct {
	ID                 int64          `json:"voucher_id"`
	VoucherNumber      string         `json:"voucher_number"`
	VoucherType        VoucherType    `json:"voucher_type"`
	Status             workflow.State `json:"status"`
	Amount             Amount         `json:"amount"`
	VoucherDate        Date           `json:"voucher_date"`
	Description        string         `json:"description,omitempty"`
	DoctorID           string         `json:"doctor_id,omitempty"`
	DoctorName         string         `json:"doctor_name,omitempty"`
	PaymentPeriodStart *Date          `json:"payment_period_start,omitempty"`
	PaymentPeriodEnd   *Date          `json:"payment_period_end,omitempty"`
	CreatedBy          string         `json:"created_by,omitempty"`
	ApprovedBy         string         `json:"approved_by,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	ApprovedAt         *time.Time     `json:"approved_at,omitempty"`
	PaidAt             *time.Time     `json:"paid_at,omitempty"`
}

// IsDoctorPayment returns true for doctor payment vouchers
func (v *Voucher) IsDoctorPayment() bool {
	return v.VoucherType == VoucherTypeDoctorPayment
}

// Actions returns the actions legal from the voucher's current status
func (v *Voucher) Actions() []workflow.Trigger {
	return workflow.Actions(v.Status)
}

// VoucherDraft is the input for creating a voucher
type VoucherDraft struct {
	VoucherType        VoucherType `json:"voucher_type"`
	Amount             Amount      `json:"amount"`
	VoucherDate        Date        `json:"voucher_date"`
	Description        string      `json:"description,omitempty"`
	DoctorID           string      `json:"doctor_id,omitempty"`
	PaymentPeriodStart *Date       `json:"payment_period_start,omitempty"`
	PaymentPeriodEnd   *Date       `json:"payment_period_end,omitempty"`
}

// Validate checks the draft in a fixed order: type, amount, doctor, period
func (d *VoucherDraft) Validate() error {
	if !d.VoucherType.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, d.VoucherType)
	}

	if !d.Amount.InRange() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, d.Amount)
	}

	if d.VoucherType == VoucherTypeDoctorPayment {
		if strings.TrimSpace(d.DoctorID) == "" {
			return ErrDoctorRequired
		}
		if d.PaymentPeriodStart != nil && d.PaymentPeriodEnd != nil &&
			d.PaymentPeriodEnd.Before(d.PaymentPeriodStart.Time) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidPeriod, d.PaymentPeriodStart, d.PaymentPeriodEnd)
		}
	}

	return nil
}

// Normalize returns a copy ready to store: doctor fields are cleared for
// non doctor payments, the amount is rounded and a missing date becomes today.
func (d VoucherDraft) Normalize(today time.Time) VoucherDraft {
	d.Amount = NewAmount(d.Amount.Decimal)
	d.Description = strings.TrimSpace(d.Description)
	d.DoctorID = strings.TrimSpace(d.DoctorID)

	if d.VoucherDate.IsZero() {
		d.VoucherDate = NewDate(today)
	}

	if d.VoucherType != VoucherTypeDoctorPayment {
		d.DoctorID = ""
		d.PaymentPeriodStart = nil
		d.PaymentPeriodEnd = nil
	}

	return d
}

// VoucherSummary aggregates vouchers by status
type VoucherSummary struct {
	TotalVouchers        int    `json:"total_vouchers"`
	DraftCount           int    `json:"draft_count"`
	PendingApprovalCount int    `json:"pending_approval_count"`
	ApprovedCount        int    `json:"approved_count"`
	PaidCount            int    `json:"paid_count"`
	RejectedCount        int    `json:"rejected_count"`
	TotalAmount          Amount `json:"total_amount"`
	PendingAmount        Amount `json:"pending_amount"`
}

// CountFor returns the number of vouchers in status
func (s *VoucherSummary) CountFor(status workflow.State) int {
	switch status {
	case workflow.StateDraft:
		return s.DraftCount
	case workflow.StatePendingApproval:
		return s.PendingApprovalCount
	case workflow.StateApproved:
		return s.ApprovedCount
	case workflow.StatePaid:
		return s.PaidCount
	case workflow.StateRejected:
		return s.RejectedCount
	default:
		return 0
	}
}

// VoucherFilter narrows a voucher listing; zero fields do not filter
type VoucherFilter struct {
	VoucherType VoucherType
	Status      workflow.State
	DoctorID    string
	DateFrom    *Date
}

// IsEmpty returns true if no option is set
func (f VoucherFilter) IsEmpty() bool {
	return f.VoucherType == "" && f.Status == "" && f.DoctorID == "" && f.DateFrom == nil
}
