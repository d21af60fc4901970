package event

import "github.com/medcenter/hms-vouchers/internal/domain/workflow"

// Type identifies the type of domain event
type Type string

const (
	TypeVoucherCreated   Type = "voucher.created"
	TypeVoucherSubmitted Type = "voucher.submitted"
	TypeVoucherApproved  Type = "voucher.approved"
	TypeVoucherRejected  Type = "voucher.rejected"
	TypeVoucherPaid      Type = "voucher.paid"
	TypeVoucherDeleted   Type = "voucher.deleted"
)

// Types returns every event type in lifecycle order
func Types() []Type {
	return []Type{
		TypeVoucherCreated,
		TypeVoucherSubmitted,
		TypeVoucherApproved,
		TypeVoucherRejected,
		TypeVoucherPaid,
		TypeVoucherDeleted,
	}
}

var triggerTypes = map[workflow.Trigger]Type{
	workflow.TriggerSubmit:  TypeVoucherSubmitted,
	workflow.TriggerApprove: TypeVoucherApproved,
	workflow.TriggerReject:  TypeVoucherRejected,
	workflow.TriggerPay:     TypeVoucherPaid,
	workflow.TriggerDelete:  TypeVoucherDeleted,
}

// TypeFor returns the event raised after trigger succeeds
func TypeFor(trigger workflow.Trigger) (Type, bool) {
	t, ok := triggerTypes[trigger]
	return t, ok
}

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeVoucherCreated,
		TypeVoucherSubmitted,
		TypeVoucherApproved,
		TypeVoucherRejected,
		TypeVoucherPaid,
		TypeVoucherDeleted:
		return true
	default:
		return false
	}
}
