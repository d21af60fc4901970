package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/medcenter/hms-vouchers/internal/application/port"
	"github.com/medcenter/hms-vouchers/internal/domain/entity"
	"github.com/medcenter/hms-vouchers/internal/infrastructure/persistence/sqlite"
)

// DoctorRepository implements port.DoctorRepository
type DoctorRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDoctorRepository creates a new doctor repository
func NewDoctorRepository(db *sql.DB, logger *zap.Logger) port.DoctorRepository {
	return &DoctorRepository{
		db:     db,
		logger: logger,
	}
}

const doctorColumns = `doctor_id, doctor_name, specialization, consultation_charges_cents, status`

// GetByID retrieves a doctor
func (r *DoctorRepository) GetByID(ctx context.Context, doctorID string) (*entity.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE doctor_id = ?`

	doctor, err := scanDoctor(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, doctorID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("doctor %s: %w", doctorID, entity.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get doctor", zap.String("doctor_id", doctorID), zap.Error(err))
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return doctor, nil
}

// List returns all doctors ordered by id
func (r *DoctorRepository) List(ctx context.Context) ([]*entity.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors ORDER BY doctor_id`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list doctors", zap.Error(err))
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	defer rows.Close()

	doctors := []*entity.Doctor{}
	for rows.Next() {
		doctor, err := scanDoctor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan doctor: %w", err)
		}
		doctors = append(doctors, doctor)
	}
	return doctors, rows.Err()
}

func scanDoctor(row rowScanner) (*entity.Doctor, error) {
	var (
		d     entity.Doctor
		cents int64
	)
	if err := row.Scan(&d.DoctorID, &d.Name, &d.Specialization, &cents, &d.Status); err != nil {
		return nil, err
	}
	d.ConsultationCharges = entity.AmountFromCents(cents)
	return &d, nil
}

var _ port.DoctorRepository = (*DoctorRepository)(nil)
