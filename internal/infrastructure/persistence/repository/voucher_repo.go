package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/medcenter/hms-vouchers/internal/application/port"
	"github.com/medcenter/hms-vouchers/internal/domain/entity"
	"github.com/medcenter/hms-vouchers/internal/domain/workflow"
	"github.com/medcenter/hms-vouchers/internal/infrastructure/persistence/sqlite"
)

// VoucherRepository implements port.VoucherRepository
type VoucherRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewVoucherRepository creates a new voucher repository
func NewVoucherRepository(db *sql.DB, logger *zap.Logger) port.VoucherRepository {
	return &VoucherRepository{
		db:     db,
		logger: logger,
	}
}

const voucherColumns = `
	v.voucher_id, v.voucher_number, v.voucher_type, v.status, v.amount_cents,
	v.voucher_date, v.description, v.doctor_id, d.doctor_name,
	v.payment_period_start, v.payment_period_end, v.created_by, v.approved_by,
	v.created_at, v.updated_at, v.approved_at, v.paid_at
`

const voucherFrom = `
	FROM vouchers v
	LEFT JOIN doctors d ON d.doctor_id = v.doctor_id
`

// Create inserts a voucher and sets its ID
func (r *VoucherRepository) Create(ctx context.Context, voucher *entity.Voucher) error {
	query := `
		INSERT INTO vouchers (
			voucher_number, voucher_type, status, amount_cents, voucher_date,
			description, doctor_id, payment_period_start, payment_period_end,
			created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		voucher.VoucherNumber,
		string(voucher.VoucherType),
		string(voucher.Status),
		voucher.Amount.Cents(),
		voucher.VoucherDate.String(),
		nullString(voucher.Description),
		nullString(voucher.DoctorID),
		nullDate(voucher.PaymentPeriodStart),
		nullDate(voucher.PaymentPeriodEnd),
		nullString(voucher.CreatedBy),
		voucher.CreatedAt,
		voucher.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create voucher", zap.String("voucher_number", voucher.VoucherNumber), zap.Error(err))
		return fmt.Errorf("failed to create voucher: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	voucher.ID = id
	return nil
}

// GetByID retrieves a voucher with its doctor name
func (r *VoucherRepository) GetByID(ctx context.Context, id int64) (*entity.Voucher, error) {
	query := `SELECT ` + voucherColumns + voucherFrom + ` WHERE v.voucher_id = ?`

	voucher, err := scanVoucher(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("voucher %d: %w", id, entity.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get voucher", zap.Int64("voucher_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get voucher: %w", err)
	}
	return voucher, nil
}

// List returns vouchers matching every set filter field
func (r *VoucherRepository) List(ctx context.Context, filter entity.VoucherFilter) ([]*entity.Voucher, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.VoucherType != "" {
		conditions = append(conditions, "v.voucher_type = ?")
		args = append(args, string(filter.VoucherType))
	}
	if filter.Status != "" {
		conditions = append(conditions, "v.status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.DoctorID != "" {
		conditions = append(conditions, "v.doctor_id = ?")
		args = append(args, filter.DoctorID)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, "v.voucher_date >= ?")
		args = append(args, filter.DateFrom.String())
	}

	query := `SELECT ` + voucherColumns + voucherFrom
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY v.voucher_date DESC, v.voucher_id DESC"

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list vouchers", zap.Error(err))
		return nil, fmt.Errorf("failed to list vouchers: %w", err)
	}
	defer rows.Close()

	vouchers := []*entity.Voucher{}
	for rows.Next() {
		voucher, err := scanVoucher(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan voucher: %w", err)
		}
		vouchers = append(vouchers, voucher)
	}

	return vouchers, rows.Err()
}

// Summary counts vouchers per status. Pending amount covers vouchers approved
// or awaiting approval that have not been paid yet.
func (r *VoucherRepository) Summary(ctx context.Context) (*entity.VoucherSummary, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'DRAFT' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'PENDING_APPROVAL' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'APPROVED' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'PAID' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'REJECTED' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(amount_cents), 0),
			COALESCE(SUM(CASE WHEN status IN ('PENDING_APPROVAL', 'APPROVED') THEN amount_cents ELSE 0 END), 0)
		FROM vouchers
	`

	var (
		summary                  entity.VoucherSummary
		totalCents, pendingCents int64
	)
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query).Scan(
		&summary.TotalVouchers,
		&summary.DraftCount,
		&summary.PendingApprovalCount,
		&summary.ApprovedCount,
		&summary.PaidCount,
		&summary.RejectedCount,
		&totalCents,
		&pendingCents,
	)
	if err != nil {
		r.logger.Error("Failed to summarize vouchers", zap.Error(err))
		return nil, fmt.Errorf("failed to summarize vouchers: %w", err)
	}

	summary.TotalAmount = entity.AmountFromCents(totalCents)
	summary.PendingAmount = entity.AmountFromCents(pendingCents)
	return &summary, nil
}

// UpdateStatus moves a voucher from change.From to change.To, stamping approval and payment fields
func (r *VoucherRepository) UpdateStatus(ctx context.Context, change port.StatusChange) error {
	sets := []string{"status = ?", "updated_at = ?"}
	args := []interface{}{string(change.To), change.At}

	switch change.To {
	case workflow.StateApproved:
		sets = append(sets, "approved_at = ?", "approved_by = ?")
		args = append(args, change.At, nullString(change.Actor))
	case workflow.StatePaid:
		sets = append(sets, "paid_at = ?")
		args = append(args, change.At)
	}

	query := "UPDATE vouchers SET " + strings.Join(sets, ", ") + " WHERE voucher_id = ? AND status = ?"
	args = append(args, change.VoucherID, string(change.From))

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update voucher status",
			zap.Int64("voucher_id", change.VoucherID),
			zap.String("to", string(change.To)),
			zap.Error(err))
		return fmt.Errorf("failed to update voucher status: %w", err)
	}

	return r.checkGuard(ctx, result, change.VoucherID, change.From)
}

// Delete removes a voucher still in status from
func (r *VoucherRepository) Delete(ctx context.Context, id int64, from workflow.State) error {
	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx,
		"DELETE FROM vouchers WHERE voucher_id = ? AND status = ?", id, string(from))
	if err != nil {
		r.logger.Error("Failed to delete voucher", zap.Int64("voucher_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete voucher: %w", err)
	}

	return r.checkGuard(ctx, result, id, from)
}

// NextSequence bumps the per-day counter and returns the new value
func (r *VoucherRepository) NextSequence(ctx context.Context, day entity.Date) (int, error) {
	query := `
		INSERT INTO voucher_sequences (day, last_seq) VALUES (?, 1)
		ON CONFLICT(day) DO UPDATE SET last_seq = last_seq + 1
		RETURNING last_seq
	`

	var seq int
	if err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, day.String()).Scan(&seq); err != nil {
		r.logger.Error("Failed to reserve voucher sequence", zap.String("day", day.String()), zap.Error(err))
		return 0, fmt.Errorf("failed to reserve voucher sequence: %w", err)
	}
	return seq, nil
}

// checkGuard turns a zero-row guarded write into ErrNotFound or ErrInvalidTransition
func (r *VoucherRepository) checkGuard(ctx context.Context, result sql.Result, id int64, from workflow.State) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var status string
	err = sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx,
		"SELECT status FROM vouchers WHERE voucher_id = ?", id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("voucher %d: %w", id, entity.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to re-read voucher status: %w", err)
	}
	return fmt.Errorf("%w: voucher %d is %s, expected %s", workflow.ErrInvalidTransition, id, status, from)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVoucher(row rowScanner) (*entity.Voucher, error) {
	var (
		v                                 entity.Voucher
		voucherType, status, voucherDate  string
		amountCents                       int64
		description, doctorID, doctorName sql.NullString
		periodStart, periodEnd            sql.NullString
		createdBy, approvedBy             sql.NullString
		approvedAt, paidAt                sql.NullTime
	)

	err := row.Scan(
		&v.ID,
		&v.VoucherNumber,
		&voucherType,
		&status,
		&amountCents,
		&voucherDate,
		&description,
		&doctorID,
		&doctorName,
		&periodStart,
		&periodEnd,
		&createdBy,
		&approvedBy,
		&v.CreatedAt,
		&v.UpdatedAt,
		&approvedAt,
		&paidAt,
	)
	if err != nil {
		return nil, err
	}

	v.VoucherType = entity.VoucherType(voucherType)
	v.Status = workflow.State(status)
	v.Amount = entity.AmountFromCents(amountCents)
	v.Description = description.String
	v.DoctorID = doctorID.String
	v.DoctorName = doctorName.String
	v.CreatedBy = createdBy.String
	v.ApprovedBy = approvedBy.String

	if v.VoucherDate, err = entity.ParseDate(voucherDate); err != nil {
		return nil, err
	}
	if v.PaymentPeriodStart, err = entity.ParseOptionalDate(periodStart.String); err != nil {
		return nil, err
	}
	if v.PaymentPeriodEnd, err = entity.ParseOptionalDate(periodEnd.String); err != nil {
		return nil, err
	}
	if approvedAt.Valid {
		v.ApprovedAt = &approvedAt.Time
	}
	if paidAt.Valid {
		v.PaidAt = &paidAt.Time
	}

	return &v, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDate(d *entity.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

var _ port.VoucherRepository = (*VoucherRepository)(nil)
