package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle_ReadyAfterPackageInit(t *testing.T) {
	require.NotNil(t, lifecycle)

	for _, status := range States() {
		machine, err := NewVoucherMachine(status)
		require.NoError(t, err, status)
		assert.Contains(t, machine.PermittedTriggers(), TriggerDelete, status)
	}
}

func TestActions(t *testing.T) {
	tests := []struct {
		status   State
		expected []Trigger
	}{
		{StateDraft, []Trigger{TriggerSubmit, TriggerDelete}},
		{StatePendingApproval, []Trigger{TriggerApprove, TriggerReject, TriggerDelete}},
		{StateApproved, []Trigger{TriggerPay, TriggerDelete}},
		{StatePaid, []Trigger{TriggerDelete}},
		{StateRejected, []Trigger{TriggerDelete}},
		{StateDeleted, []Trigger{}},
		{State("ARCHIVED"), []Trigger{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, Actions(tt.status))
		})
	}
}

func TestActions_MatchCanPerform(t *testing.T) {
	for _, status := range States() {
		allowed := map[Trigger]bool{}
		for _, trigger := range Actions(status) {
			allowed[trigger] = true
		}
		for _, trigger := range Triggers() {
			assert.Equal(t, allowed[trigger], CanPerform(status, trigger), "%s from %s", trigger, status)
		}
	}
}

func TestNext(t *testing.T) {
	tests := []struct {
		status   State
		trigger  Trigger
		expected State
	}{
		{StateDraft, TriggerSubmit, StatePendingApproval},
		{StatePendingApproval, TriggerApprove, StateApproved},
		{StatePendingApproval, TriggerReject, StateRejected},
		{StateApproved, TriggerPay, StatePaid},
		{StatePaid, TriggerDelete, StateDeleted},
	}

	for _, tt := range tests {
		t.Run(tt.status.String()+"_"+tt.trigger.String(), func(t *testing.T) {
			next, err := Next(tt.status, tt.trigger)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, next)
		})
	}
}

func TestNext_Illegal(t *testing.T) {
	_, err := Next(StateDraft, TriggerPay)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = Next(StatePaid, TriggerApprove)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = Next(State("ARCHIVED"), TriggerDelete)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestNewVoucherMachine(t *testing.T) {
	_, err := NewVoucherMachine(StateDeleted)
	assert.ErrorIs(t, err, ErrInvalidState)

	machine, err := NewVoucherMachine(StateDraft)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, machine.Fire(ctx, TriggerSubmit))
	require.NoError(t, machine.Fire(ctx, TriggerApprove))
	require.NoError(t, machine.Fire(ctx, TriggerPay))
	assert.Equal(t, StatePaid, machine.State())
	assert.True(t, machine.State().IsTerminal())

	// lifecycle machines are independent
	other, err := NewVoucherMachine(StateDraft)
	require.NoError(t, err)
	assert.Equal(t, StateDraft, other.State())
}

func TestRequiredConfirmation(t *testing.T) {
	for _, status := range States() {
		expected := TierStandard
		if status == StatePaid {
			expected = TierElevated
		}
		assert.Equal(t, expected, RequiredConfirmation(status), status.String())
	}

	assert.Equal(t, TierStandard, ConfirmationFor(StatePaid, TriggerApprove))
	assert.Equal(t, TierElevated, ConfirmationFor(StatePaid, TriggerDelete))
	assert.Equal(t, TierStandard, ConfirmationFor(StateApproved, TriggerDelete))
}
