package port

import (
	"context"
	"time"

	"github.com/medcenter/hms-vouchers/internal/domain/entity"
	"github.com/medcenter/hms-vouchers/internal/domain/workflow"
)

// StatusChange describes one guarded status update
type StatusChange struct {
	VoucherID int64
	From      workflow.State
	To        workflow.State
	Actor     string
	At        time.Time
}

// VoucherRepository defines persistence operations for vouchers
type VoucherRepository interface {
	Create(ctx context.Context, voucher *entity.Voucher) error
	GetByID(ctx context.Context, id int64) (*entity.Voucher, error)

	// List returns vouchers matching filter, newest voucher_date first
	List(ctx context.Context, filter entity.VoucherFilter) ([]*entity.Voucher, error)

	Summary(ctx context.Context) (*entity.VoucherSummary, error)

	// UpdateStatus applies change only if the voucher is still in change.From.
	// It returns workflow.ErrInvalidTransition when the status moved underneath.
	UpdateStatus(ctx context.Context, change StatusChange) error

	// Delete removes the voucher only if it is still in status from
	Delete(ctx context.Context, id int64, from workflow.State) error

	// NextSequence reserves the next voucher number sequence for day
	NextSequence(ctx context.Context, day entity.Date) (int, error)
}

// DoctorRepository defines read operations for the doctor lookup
type DoctorRepository interface {
	GetByID(ctx context.Context, doctorID string) (*entity.Doctor, error)
	List(ctx context.Context) ([]*entity.Doctor, error)
}

// HistoryRepository defines persistence operations for the voucher audit trail
type HistoryRepository interface {
	Create(ctx context.Context, history *entity.VoucherHistory) error
	ListByVoucherID(ctx context.Context, voucherID int64) ([]*entity.VoucherHistory, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
