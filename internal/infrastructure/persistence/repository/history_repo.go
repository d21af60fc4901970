package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/medcenter/hms-vouchers/internal/application/port"
	"github.com/medcenter/hms-vouchers/internal/domain/entity"
	"github.com/medcenter/hms-vouchers/internal/domain/workflow"
	"github.com/medcenter/hms-vouchers/internal/infrastructure/persistence/sqlite"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends an entry to the voucher audit trail
func (r *HistoryRepository) Create(ctx context.Context, history *entity.VoucherHistory) error {
	query := `
		INSERT INTO voucher_history (
			voucher_id, voucher_number, action, from_status, to_status, actor, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		history.VoucherID,
		history.VoucherNumber,
		history.Action,
		nullString(string(history.FromStatus)),
		string(history.ToStatus),
		nullString(history.Actor),
		history.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create history record", zap.Int64("voucher_id", history.VoucherID), zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	history.ID = id
	return nil
}

// ListByVoucherID returns the entries of a voucher, oldest first
func (r *HistoryRepository) ListByVoucherID(ctx context.Context, voucherID int64) ([]*entity.VoucherHistory, error) {
	query := `
		SELECT id, voucher_id, voucher_number, action, from_status, to_status, actor, created_at
		FROM voucher_history
		WHERE voucher_id = ?
		ORDER BY id ASC
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, voucherID)
	if err != nil {
		r.logger.Error("Failed to get history by voucher ID", zap.Int64("voucher_id", voucherID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var records []*entity.VoucherHistory
	for rows.Next() {
		var (
			record     entity.VoucherHistory
			fromStatus sql.NullString
			toStatus   string
			actor      sql.NullString
		)
		err := rows.Scan(
			&record.ID,
			&record.VoucherID,
			&record.VoucherNumber,
			&record.Action,
			&fromStatus,
			&toStatus,
			&actor,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		record.FromStatus = workflow.State(fromStatus.String)
		record.ToStatus = workflow.State(toStatus)
		record.Actor = actor.String
		records = append(records, &record)
	}

	return records, rows.Err()
}

var _ port.HistoryRepository = (*HistoryRepository)(nil)
