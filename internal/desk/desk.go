package desk

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/medcenter/hms-vouchers/internal/domain/entity"
	"github.com/medcenter/hms-vouchers/internal/domain/workflow"
	"github.com/medcenter/hms-vouchers/internal/presenter"
)

// Desk performs voucher actions: it checks each action against the voucher's
// current status, asks for confirmation, calls the service and then refreshes
// the store.
type Desk struct {
	api       VoucherAPI
	store     *Store
	confirmer Confirmer
	logger    *zap.Logger
}

// New creates a desk over api and store
func New(api VoucherAPI, store *Store, confirmer Confirmer, logger *zap.Logger) *Desk {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Desk{
		api:       api,
		store:     store,
		confirmer: confirmer,
		logger:    logger,
	}
}

// Store returns the desk's cache
func (d *Desk) Store() *Store {
	return d.store
}

// Create validates draft, creates the voucher and returns its number
func (d *Desk) Create(ctx context.Context, draft entity.VoucherDraft) (string, error) {
	draft = draft.Normalize(time.Now())
	if err := draft.Validate(); err != nil {
		return "", err
	}

	voucher, err := d.api.CreateVoucher(ctx, draft)
	if err != nil {
		return "", fmt.Errorf("create voucher: %w", err)
	}

	d.logger.Info("Voucher created", zap.Int64("voucher_id", voucher.ID), zap.String("voucher_number", voucher.VoucherNumber))
	d.refresh(ctx)
	return voucher.VoucherNumber, nil
}

// Submit sends a draft for approval
func (d *Desk) Submit(ctx context.Context, id int64) (string, error) {
	return d.perform(ctx, id, workflow.TriggerSubmit)
}

// Approve approves a pending voucher
func (d *Desk) Approve(ctx context.Context, id int64) (string, error) {
	return d.perform(ctx, id, workflow.TriggerApprove)
}

// Reject rejects a pending voucher
func (d *Desk) Reject(ctx context.Context, id int64) (string, error) {
	return d.perform(ctx, id, workflow.TriggerReject)
}

// MarkPaid marks an approved voucher as paid
func (d *Desk) MarkPaid(ctx context.Context, id int64) (string, error) {
	return d.perform(ctx, id, workflow.TriggerPay)
}

// Delete removes a voucher. Paid vouchers need elevated confirmation.
func (d *Desk) Delete(ctx context.Context, id int64) (string, error) {
	return d.perform(ctx, id, workflow.TriggerDelete)
}

// Perform runs trigger against voucher id
func (d *Desk) Perform(ctx context.Context, id int64, trigger workflow.Trigger) (string, error) {
	return d.perform(ctx, id, trigger)
}

func (d *Desk) perform(ctx context.Context, id int64, trigger workflow.Trigger) (string, error) {
	// the cached status may be stale, so re-read it before deciding
	voucher, err := d.api.GetVoucher(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get voucher %d: %w", id, err)
	}

	if !workflow.CanPerform(voucher.Status, trigger) {
		return "", &TransitionError{
			VoucherNumber: voucher.VoucherNumber,
			Status:        voucher.Status,
			Trigger:       trigger,
		}
	}

	confirmation := Confirmation{
		Trigger: trigger,
		Tier:    workflow.ConfirmationFor(voucher.Status, trigger),
		Voucher: voucher,
		Prompt:  presenter.ConfirmationPrompt(trigger, voucher),
	}
	ok, err := d.confirmer.Confirm(ctx, confirmation)
	if err != nil {
		return "", fmt.Errorf("confirm %s: %w", trigger.Verb(), err)
	}
	if !ok {
		return "", ErrNotConfirmed
	}

	message, err := d.api.TransitionVoucher(ctx, id, trigger)
	if err != nil {
		return "", fmt.Errorf("%s voucher %s: %w", trigger.Verb(), voucher.VoucherNumber, err)
	}

	d.logger.Info("Voucher action performed",
		zap.String("action", trigger.String()),
		zap.String("voucher_number", voucher.VoucherNumber),
		zap.String("tier", string(confirmation.Tier)))

	d.refresh(ctx)
	return message, nil
}

// refresh failures leave the previous cache in place; the mutation already happened
func (d *Desk) refresh(ctx context.Context) {
	if err := d.store.Refresh(ctx); err != nil {
		d.logger.Warn("Failed to refresh vouchers after action", zap.Error(err))
	}
}

// Run executes action and reports its outcome as a notice. A panic inside
// action becomes an error notice.
func (d *Desk) Run(ctx context.Context, action func(ctx context.Context) (string, error)) (notice Notice) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Voucher action panicked", zap.Any("panic", r), zap.Stack("stack"))
			notice = NoticeFor(fmt.Errorf("panic: %v", r))
		}
	}()

	message, err := action(ctx)
	if err != nil {
		d.logger.Info("Voucher action failed", zap.Error(err))
		return NoticeFor(err)
	}
	return Notice{Level: LevelSuccess, Message: message}
}
