package workflow

import (
	"context"
	"fmt"
)

// ConfirmationTier is the strength of acknowledgement an action needs
type ConfirmationTier string

const (
	TierStandard ConfirmationTier = "standard"
	TierElevated ConfirmationTier = "elevated"
)

// lifecycle is the voucher transition table. It is configured once and only read afterwards.
//
//	DRAFT            --SUBMIT-->  PENDING_APPROVAL
//	PENDING_APPROVAL --APPROVE--> APPROVED
//	PENDING_APPROVAL --REJECT-->  REJECTED
//	APPROVED         --PAY-->     PAID
//	any              --DELETE-->  (removed)
var lifecycle StateMachineBuilder

// the builder validates states through method calls, which package variable
// initialisation order does not track
func init() {
	lifecycle = newLifecycle()
}

func newLifecycle() StateMachineBuilder {
	b := NewBuilder()

	b.Configure(StateDraft).
		Permit(TriggerSubmit, StatePendingApproval).
		Permit(TriggerDelete, StateDeleted)

	b.Configure(StatePendingApproval).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected).
		Permit(TriggerDelete, StateDeleted)

	b.Configure(StateApproved).
		Permit(TriggerPay, StatePaid).
		Permit(TriggerDelete, StateDeleted)

	b.Configure(StatePaid).
		Permit(TriggerDelete, StateDeleted)

	b.Configure(StateRejected).
		Permit(TriggerDelete, StateDeleted)

	return b
}

// NewVoucherMachine returns a lifecycle machine positioned at a stored voucher's status
func NewVoucherMachine(status State) (StateMachine, error) {
	if !status.IsPersisted() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidState, status)
	}
	return lifecycle.Build(status), nil
}

// Actions returns exactly the actions legal from status, in canonical order.
// Unknown statuses have no actions.
func Actions(status State) []Trigger {
	machine, err := NewVoucherMachine(status)
	if err != nil {
		return []Trigger{}
	}
	return machine.PermittedTriggers()
}

// CanPerform reports whether trigger is legal from status
func CanPerform(status State, trigger Trigger) bool {
	machine, err := NewVoucherMachine(status)
	if err != nil {
		return false
	}
	return machine.CanFire(trigger)
}

// Next returns the status a voucher moves to when trigger fires from status
func Next(status State, trigger Trigger) (State, error) {
	machine, err := NewVoucherMachine(status)
	if err != nil {
		return "", err
	}
	if err := machine.Fire(context.Background(), trigger); err != nil {
		return "", err
	}
	return machine.State(), nil
}

// RequiredConfirmation returns the tier needed to delete a voucher in status.
// Only paid vouchers are financial records whose removal needs the elevated tier.
func RequiredConfirmation(status State) ConfirmationTier {
	if status == StatePaid {
		return TierElevated
	}
	return TierStandard
}

// ConfirmationFor returns the tier needed to perform trigger on a voucher in status
func ConfirmationFor(status State, trigger Trigger) ConfirmationTier {
	if trigger == TriggerDelete {
		return RequiredConfirmation(status)
	}
	return TierStandard
}
