package presenter

import (
	"fmt"

	"github.com/medcenter/hms-vouchers/internal/domain/entity"
	"github.com/medcenter/hms-vouchers/internal/domain/workflow"
)

// ConfirmationPrompt returns the question put to the user before trigger runs on v.
// Deleting a paid voucher gets its own warning because it removes a payment record.
func ConfirmationPrompt(trigger workflow.Trigger, v *entity.Voucher) string {
	switch trigger {
	case workflow.TriggerSubmit:
		return "Are you sure you want to submit this voucher for approval?"
	case workflow.TriggerApprove:
		return "Are you sure you want to approve this voucher?"
	case workflow.TriggerReject:
		return "Are you sure you want to reject this voucher?"
	case workflow.TriggerPay:
		return "Are you sure you want to mark this voucher as paid?"
	case workflow.TriggerDelete:
		if workflow.RequiredConfirmation(v.Status) == workflow.TierElevated {
			return fmt.Sprintf("WARNING: You are about to delete a PAID voucher!\n\n"+
				"Voucher: %s\nStatus: PAID\n\n"+
				"This will permanently remove the payment record from the system.\n"+
				"This action cannot be undone.\n\n"+
				"Are you sure you want to proceed?", v.VoucherNumber)
		}
		return fmt.Sprintf("Are you sure you want to delete voucher %s?\n\nThis action cannot be undone.", v.VoucherNumber)
	default:
		return fmt.Sprintf("Are you sure you want to %s this voucher?", trigger.Verb())
	}
}
