package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medcenter/hms-vouchers/internal/application/port"
	"github.com/medcenter/hms-vouchers/internal/domain/entity"
	"github.com/medcenter/hms-vouchers/internal/domain/event"
	"github.com/medcenter/hms-vouchers/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// VoucherNumberPrefix starts every voucher number, e.g. VCH-20250314-0001
const VoucherNumberPrefix = "VCH"

// TransitionResult is the outcome of a successful status transition
type TransitionResult struct {
	Message string
	Voucher *entity.Voucher
}

// VoucherService manages the voucher lifecycle
type VoucherService interface {
	CreateVoucher(ctx context.Context, draft entity.VoucherDraft, actor string) (*entity.Voucher, error)
	GetVoucher(ctx context.Context, id int64) (*entity.Voucher, error)
	ListVouchers(ctx context.Context, filter entity.VoucherFilter) ([]*entity.Voucher, error)
	Summary(ctx context.Context) (*entity.VoucherSummary, error)

	// Transition re-reads the voucher and applies trigger if it is legal from the stored status
	Transition(ctx context.Context, id int64, trigger workflow.Trigger, actor string) (*TransitionResult, error)

	History(ctx context.Context, id int64) ([]*entity.VoucherHistory, error)
	ListDoctors(ctx context.Context) ([]*entity.Doctor, error)
	ExportRegister(ctx context.Context, filter entity.VoucherFilter) ([]byte, error)
}

type voucherServiceImpl struct {
	voucherRepo port.VoucherRepository
	doctorRepo  port.DoctorRepository
	historyRepo port.HistoryRepository
	txManager   port.TransactionManager
	publisher   port.EventPublisher
	renderer    port.RegisterRenderer
	logger      Logger
	now         func() time.Time
}

// VoucherServiceOption configures the voucher service
type VoucherServiceOption func(*voucherServiceImpl)

// WithClock replaces time.Now
func WithClock(now func() time.Time) VoucherServiceOption {
	return func(s *voucherServiceImpl) {
		s.now = now
	}
}

// WithRegisterRenderer enables ExportRegister
func WithRegisterRenderer(renderer port.RegisterRenderer) VoucherServiceOption {
	return func(s *voucherServiceImpl) {
		s.renderer = renderer
	}
}

// NewVoucherService creates a new VoucherService
func NewVoucherService(
	voucherRepo port.VoucherRepository,
	doctorRepo port.DoctorRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	publisher port.EventPublisher,
	logger Logger,
	opts ...VoucherServiceOption,
) VoucherService {
	s := &voucherServiceImpl{
		voucherRepo: voucherRepo,
		doctorRepo:  doctorRepo,
		historyRepo: historyRepo,
		txManager:   txManager,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateVoucher normalizes and validates the draft, then stores it as a DRAFT
// voucher with a fresh number. Validation runs on the rounded amount.
func (s *voucherServiceImpl) CreateVoucher(ctx context.Context, draft entity.VoucherDraft, actor string) (*entity.Voucher, error) {
	now := s.now().UTC()
	draft = draft.Normalize(now)
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	voucher := &entity.Voucher{
		VoucherType:        draft.VoucherType,
		Status:             workflow.StateDraft,
		Amount:             draft.Amount,
		VoucherDate:        draft.VoucherDate,
		Description:        draft.Description,
		DoctorID:           draft.DoctorID,
		PaymentPeriodStart: draft.PaymentPeriodStart,
		PaymentPeriodEnd:   draft.PaymentPeriodEnd,
		CreatedBy:          actor,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if voucher.IsDoctorPayment() {
			doctor, err := s.doctorRepo.GetByID(txCtx, voucher.DoctorID)
			if errors.Is(err, entity.ErrNotFound) {
				return fmt.Errorf("%w: %s", entity.ErrUnknownDoctor, voucher.DoctorID)
			}
			if err != nil {
				return fmt.Errorf("get doctor: %w", err)
			}
			voucher.DoctorName = doctor.Name
		}

		seq, err := s.voucherRepo.NextSequence(txCtx, entity.NewDate(now))
		if err != nil {
			return fmt.Errorf("reserve voucher number: %w", err)
		}
		voucher.VoucherNumber = FormatVoucherNumber(now, seq)

		if err := s.voucherRepo.Create(txCtx, voucher); err != nil {
			return fmt.Errorf("create voucher: %w", err)
		}

		return s.historyRepo.Create(txCtx, &entity.VoucherHistory{
			VoucherID:     voucher.ID,
			VoucherNumber: voucher.VoucherNumber,
			Action:        entity.HistoryActionCreate,
			ToStatus:      workflow.StateDraft,
			Actor:         actor,
			CreatedAt:     now,
		})
	})
	if err != nil {
		s.logger.Error("Failed to create voucher", "error", err, "voucher_type", draft.VoucherType)
		return nil, err
	}

	s.logger.Info("Voucher created",
		"voucher_id", voucher.ID,
		"voucher_number", voucher.VoucherNumber,
		"voucher_type", voucher.VoucherType,
		"amount", voucher.Amount.String(),
	)
	s.publish(ctx, event.TypeVoucherCreated, voucher, actor)

	return voucher, nil
}

// GetVoucher retrieves a voucher by ID
func (s *voucherServiceImpl) GetVoucher(ctx context.Context, id int64) (*entity.Voucher, error) {
	voucher, err := s.voucherRepo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, entity.ErrNotFound) {
			s.logger.Error("Failed to get voucher", "error", err, "voucher_id", id)
		}
		return nil, err
	}
	return voucher, nil
}

// ListVouchers returns the vouchers matching filter
func (s *voucherServiceImpl) ListVouchers(ctx context.Context, filter entity.VoucherFilter) ([]*entity.Voucher, error) {
	if filter.VoucherType != "" && !filter.VoucherType.IsValid() {
		return nil, fmt.Errorf("%w: %q", entity.ErrInvalidType, filter.VoucherType)
	}
	if filter.Status != "" && !filter.Status.IsPersisted() {
		return nil, fmt.Errorf("%w: %q", workflow.ErrInvalidState, filter.Status)
	}

	vouchers, err := s.voucherRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list vouchers", "error", err)
		return nil, err
	}
	return vouchers, nil
}

// Summary returns per-status counts and totals
func (s *voucherServiceImpl) Summary(ctx context.Context) (*entity.VoucherSummary, error) {
	summary, err := s.voucherRepo.Summary(ctx)
	if err != nil {
		s.logger.Error("Failed to summarize vouchers", "error", err)
		return nil, err
	}
	return summary, nil
}

// Transition applies trigger to the stored voucher inside one transaction
func (s *voucherServiceImpl) Transition(ctx context.Context, id int64, trigger workflow.Trigger, actor string) (*TransitionResult, error) {
	if !trigger.IsValid() {
		return nil, fmt.Errorf("%w: unknown action %q", workflow.ErrInvalidTransition, trigger)
	}

	now := s.now().UTC()
	var voucher *entity.Voucher

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.voucherRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}

		from := current.Status
		if !workflow.CanPerform(from, trigger) {
			return fmt.Errorf("%w: cannot %s voucher %s in status %s",
				workflow.ErrInvalidTransition, trigger.Verb(), current.VoucherNumber, from)
		}
		to, err := workflow.Next(from, trigger)
		if err != nil {
			return err
		}

		if trigger == workflow.TriggerDelete {
			err = s.voucherRepo.Delete(txCtx, id, from)
		} else {
			err = s.voucherRepo.UpdateStatus(txCtx, port.StatusChange{
				VoucherID: id,
				From:      from,
				To:        to,
				Actor:     actor,
				At:        now,
			})
		}
		if err != nil {
			return err
		}

		applyTransition(current, to, actor, now)
		voucher = current

		return s.historyRepo.Create(txCtx, &entity.VoucherHistory{
			VoucherID:     id,
			VoucherNumber: current.VoucherNumber,
			Action:        trigger.String(),
			FromStatus:    from,
			ToStatus:      to,
			Actor:         actor,
			CreatedAt:     now,
		})
	})
	if err != nil {
		if errors.Is(err, workflow.ErrInvalidTransition) || errors.Is(err, entity.ErrNotFound) {
			s.logger.Info("Voucher transition refused", "voucher_id", id, "action", trigger, "reason", err.Error())
		} else {
			s.logger.Error("Failed to transition voucher", "error", err, "voucher_id", id, "action", trigger)
		}
		return nil, err
	}

	s.logger.Info("Voucher transitioned",
		"voucher_id", id,
		"voucher_number", voucher.VoucherNumber,
		"action", trigger,
		"status", voucher.Status,
		"actor", actor,
	)
	if eventType, ok := event.TypeFor(trigger); ok {
		s.publish(ctx, eventType, voucher, actor)
	}

	return &TransitionResult{
		Message: TransitionMessage(trigger, voucher.VoucherNumber),
		Voucher: voucher,
	}, nil
}

// History returns the audit trail of a voucher, which survives its deletion
func (s *voucherServiceImpl) History(ctx context.Context, id int64) ([]*entity.VoucherHistory, error) {
	entries, err := s.historyRepo.ListByVoucherID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get voucher history", "error", err, "voucher_id", id)
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("voucher %d: %w", id, entity.ErrNotFound)
	}
	return entries, nil
}

// ListDoctors returns the doctor lookup
func (s *voucherServiceImpl) ListDoctors(ctx context.Context) ([]*entity.Doctor, error) {
	return s.doctorRepo.List(ctx)
}

// ExportRegister renders the vouchers matching filter as a register document
func (s *voucherServiceImpl) ExportRegister(ctx context.Context, filter entity.VoucherFilter) ([]byte, error) {
	if s.renderer == nil {
		return nil, errors.New("voucher register export is not configured")
	}

	vouchers, err := s.ListVouchers(ctx, filter)
	if err != nil {
		return nil, err
	}

	data, err := s.renderer.Render(ctx, vouchers, s.now())
	if err != nil {
		s.logger.Error("Failed to render voucher register", "error", err, "count", len(vouchers))
		return nil, fmt.Errorf("render register: %w", err)
	}

	s.logger.Info("Voucher register exported", "count", len(vouchers), "bytes", len(data))
	return data, nil
}

func (s *voucherServiceImpl) publish(ctx context.Context, eventType event.Type, voucher *entity.Voucher, actor string) {
	if s.publisher == nil {
		return
	}
	correlationID := event.CorrelationIDFrom(ctx)
	evt := event.NewEventWithCorrelation(eventType, voucher, actor, correlationID)
	// handlers outlive the request that raised the event
	s.publisher.DispatchAsync(context.WithoutCancel(ctx), evt)
}

// applyTransition mirrors on the in-memory voucher what UpdateStatus stored
func applyTransition(v *entity.Voucher, to workflow.State, actor string, at time.Time) {
	v.Status = to
	v.UpdatedAt = at
	switch to {
	case workflow.StateApproved:
		v.ApprovedAt = &at
		v.ApprovedBy = actor
	case workflow.StatePaid:
		v.PaidAt = &at
	}
}

// FormatVoucherNumber builds VCH-YYYYMMDD-NNNN
func FormatVoucherNumber(day time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%04d", VoucherNumberPrefix, day.Format("20060102"), seq)
}

// TransitionMessage returns the confirmation text for a successful action
func TransitionMessage(trigger workflow.Trigger, voucherNumber string) string {
	switch trigger {
	case workflow.TriggerSubmit:
		return fmt.Sprintf("Voucher %s submitted for approval", voucherNumber)
	case workflow.TriggerApprove:
		return fmt.Sprintf("Voucher %s approved", voucherNumber)
	case workflow.TriggerReject:
		return fmt.Sprintf("Voucher %s rejected", voucherNumber)
	case workflow.TriggerPay:
		return fmt.Sprintf("Voucher %s marked as paid", voucherNumber)
	case workflow.TriggerDelete:
		return fmt.Sprintf("Voucher %s deleted successfully", voucherNumber)
	default:
		return fmt.Sprintf("Voucher %s updated", voucherNumber)
	}
}
