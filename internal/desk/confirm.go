package desk

import (
	"context"
	"errors"

	"github.com/medcenter/hms-vouchers/internal/domain/entity"
	"github.com/medcenter/hms-vouchers/internal/domain/workflow"
)

// ErrNotConfirmed is returned when the user declines a confirmation prompt
var ErrNotConfirmed = errors.New("action not confirmed")

// Confirmation describes an action waiting for the user's acknowledgement
type Confirmation struct {
	Trigger workflow.Trigger
	Tier    workflow.ConfirmationTier
	Voucher *entity.Voucher
	Prompt  string
}

// Confirmer asks the user to acknowledge an action before it is sent
type Confirmer interface {
	Confirm(ctx context.Context, c Confirmation) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, c Confirmation) (bool, error)

// Confirm calls f
func (f ConfirmFunc) Confirm(ctx context.Context, c Confirmation) (bool, error) {
	return f(ctx, c)
}

// AutoConfirm acknowledges standard prompts, and elevated ones too when
// elevated is true. Everything else is declined.
func AutoConfirm(elevated bool) Confirmer {
	return ConfirmFunc(func(ctx context.Context, c Confirmation) (bool, error) {
		switch c.Tier {
		case workflow.TierStandard:
			return true, nil
		case workflow.TierElevated:
			return elevated, nil
		default:
			return false, nil
		}
	})
}
