// Package presenter turns voucher enums and values into display text.
//
// Every lookup table is exhaustive over its closed enum. Values outside the
// enum fail closed: they render as the raw string with the neutral class.
package presenter

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/medcenter/hms-vouchers/internal/domain/entity"
	"github.com/medcenter/hms-vouchers/internal/domain/workflow"
)

// Currency prefixes every displayed amount
const Currency = "LKR"

// NotAvailable is shown for missing dates and timestamps
const NotAvailable = "N/A"

const (
	dateLayout      = "Jan 2, 2006"
	timestampLayout = "Jan 2, 2006 15:04"
)

// Class is the severity class a status badge is drawn with
type Class string

const (
	ClassSecondary Class = "secondary"
	ClassWarning   Class = "warning"
	ClassSuccess   Class = "success"
	ClassInfo      Class = "info"
	ClassDanger    Class = "danger"
)

var typeLabels = map[entity.VoucherType]string{
	entity.VoucherTypeDoctorPayment:   "Doctor Payment",
	entity.VoucherTypeHospitalExpense: "Hospital Expense",
	entity.VoucherTypeAdjustment:      "Adjustment",
}

var statusLabels = map[workflow.State]string{
	workflow.StateDraft:           "Draft",
	workflow.StatePendingApproval: "Pending Approval",
	workflow.StateApproved:        "Approved",
	workflow.StatePaid:            "Paid",
	workflow.StateRejected:        "Rejected",
}

var statusClasses = map[workflow.State]Class{
	workflow.StateDraft:           ClassSecondary,
	workflow.StatePendingApproval: ClassWarning,
	workflow.StateApproved:        ClassSuccess,
	workflow.StatePaid:            ClassInfo,
	workflow.StateRejected:        ClassDanger,
}

var actionLabels = map[workflow.Trigger]string{
	workflow.TriggerSubmit:  "Submit",
	workflow.TriggerApprove: "Approve",
	workflow.TriggerReject:  "Reject",
	workflow.TriggerPay:     "Mark Paid",
	workflow.TriggerDelete:  "Delete",
}

var printer = message.NewPrinter(language.English)

// TypeLabel returns the display label of a voucher type
func TypeLabel(t entity.VoucherType) string {
	if label, ok := typeLabels[t]; ok {
		return label
	}
	return string(t)
}

// StatusLabel returns the display label of a status
func StatusLabel(s workflow.State) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// StatusClass returns the badge class of a status
func StatusClass(s workflow.State) Class {
	if class, ok := statusClasses[s]; ok {
		return class
	}
	return ClassSecondary
}

// ActionLabel returns the button label of an action
func ActionLabel(t workflow.Trigger) string {
	if label, ok := actionLabels[t]; ok {
		return label
	}
	return string(t)
}

// Amount formats money as "LKR 1,500.00". Only the whole part goes through
// the locale printer so cents never pass through a float.
func Amount(a entity.Amount) string {
	sign := ""
	if a.IsNegative() {
		sign = "-"
	}
	whole, cents, _ := strings.Cut(a.Decimal.Abs().StringFixed(entity.AmountPlaces), ".")

	grouped := whole
	if n, ok := new(big.Int).SetString(whole, 10); ok && n.IsInt64() {
		grouped = printer.Sprintf("%v", number.Decimal(n.Int64()))
	}
	return fmt.Sprintf("%s %s%s.%s", Currency, sign, grouped, cents)
}

// Date formats a calendar date as "Jan 2, 2006"
func Date(d entity.Date) string {
	if d.IsZero() {
		return NotAvailable
	}
	return d.Format(dateLayout)
}

// OptionalDate formats a date that may be absent
func OptionalDate(d *entity.Date) string {
	if d == nil {
		return NotAvailable
	}
	return Date(*d)
}

// Timestamp formats a point in time in loc
func Timestamp(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return NotAvailable
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(timestampLayout)
}

// Period formats a doctor payment period
func Period(start, end *entity.Date) string {
	if start == nil && end == nil {
		return ""
	}
	return fmt.Sprintf("%s - %s", OptionalDate(start), OptionalDate(end))
}

// ActionHint lists the action labels available for status, e.g. "Approve | Reject | Delete"
func ActionHint(status workflow.State) string {
	actions := workflow.Actions(status)
	labels := make([]string, len(actions))
	for i, a := range actions {
		labels[i] = ActionLabel(a)
	}
	return strings.Join(labels, " | ")
}
