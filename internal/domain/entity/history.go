package entity

import (
	"time"

	"github.com/medcenter/hms-vouchers/internal/domain/workflow"
)

// HistoryActionCreate marks the history entry written when a voucher is created
const HistoryActionCreate = "CREATE"

// VoucherHistory is one entry of a voucher's audit trail.
// Entries outlive the voucher so deletions stay traceable.
type VoucherHistory struct {
	ID            int64          `json:"id"`
	VoucherID     int64          `json:"voucher_id"`
	VoucherNumber string         `json:"voucher_number"`
	Action        string         `json:"action"`
	FromStatus    workflow.State `json:"from_status,omitempty"`
	ToStatus      workflow.State `json:"to_status"`
	Actor         string         `json:"actor,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}
