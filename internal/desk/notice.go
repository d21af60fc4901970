package desk

import (
	"errors"
	"fmt"

	"github.com/medcenter/hms-vouchers/internal/domain/entity"
	"github.com/medcenter/hms-vouchers/internal/domain/workflow"
	"github.com/medcenter/hms-vouchers/internal/hmsclient"
	"github.com/medcenter/hms-vouchers/internal/presenter"
)

// Level is the severity of a notice
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a dismissible message shown after an action
type Notice struct {
	Level   Level
	Message string
}

// TransitionError is returned when an action is not legal from the voucher's
// current status. No request was sent to change it.
type TransitionError struct {
	VoucherNumber string
	Status        workflow.State
	Trigger       workflow.Trigger
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s voucher %s in status %s", e.Trigger.Verb(), e.VoucherNumber, e.Status)
}

func (e *TransitionError) Unwrap() error {
	return workflow.ErrInvalidTransition
}

var validationErrors = []error{
	entity.ErrInvalidType,
	entity.ErrInvalidAmount,
	entity.ErrDoctorRequired,
	entity.ErrInvalidPeriod,
	entity.ErrInvalidDate,
	entity.ErrUnknownDoctor,
}

// NoticeFor turns an action error into a notice. Server details are shown
// verbatim; anything unrecognised gets a generic message.
func NoticeFor(err error) Notice {
	if err == nil {
		return Notice{Level: LevelSuccess, Message: "Done"}
	}

	if errors.Is(err, ErrNotConfirmed) {
		return Notice{Level: LevelInfo, Message: "Action cancelled"}
	}

	var transitionErr *TransitionError
	if errors.As(err, &transitionErr) {
		return Notice{
			Level: LevelWarning,
			Message: fmt.Sprintf("Cannot %s voucher %s while it is %s",
				transitionErr.Trigger.Verb(), transitionErr.VoucherNumber, presenter.StatusLabel(transitionErr.Status)),
		}
	}

	if detail, ok := hmsclient.Detail(err); ok {
		return Notice{Level: LevelError, Message: detail}
	}

	if errors.Is(err, entity.ErrNotFound) {
		return Notice{Level: LevelWarning, Message: "Voucher not found"}
	}

	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return Notice{Level: LevelWarning, Message: target.Error()}
		}
	}

	if errors.Is(err, hmsclient.ErrRemoteUnavailable) {
		return Notice{Level: LevelError, Message: "The voucher service is unavailable. Please try again."}
	}

	return Notice{Level: LevelError, Message: "Something went wrong. Please try again."}
}
