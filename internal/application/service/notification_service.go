package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/medcenter/hms-vouchers/internal/application/port"
	"github.com/medcenter/hms-vouchers/internal/domain/event"
	"github.com/medcenter/hms-vouchers/internal/presenter"
)

// NotificationTargets names the chats that hear about voucher progress
type NotificationTargets struct {
	ApproverChatID   string
	AccountantChatID string
}

// NotificationService tells approvers and accountants about vouchers that need them
type NotificationService interface {
	// HandleEvent is a dispatcher handler for voucher events
	HandleEvent(ctx context.Context, evt *event.Event) error

	// EventTypes lists the events worth subscribing HandleEvent to
	EventTypes() []event.Type
}

type notificationServiceImpl struct {
	messenger port.ChatMessenger
	targets   NotificationTargets
	logger    Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(messenger port.ChatMessenger, targets NotificationTargets, logger Logger) NotificationService {
	return &notificationServiceImpl{
		messenger: messenger,
		targets:   targets,
		logger:    logger,
	}
}

// EventTypes returns the events that have a configured recipient
func (s *notificationServiceImpl) EventTypes() []event.Type {
	var types []event.Type
	if s.targets.ApproverChatID != "" {
		types = append(types, event.TypeVoucherSubmitted)
	}
	if s.targets.AccountantChatID != "" {
		types = append(types, event.TypeVoucherApproved)
	}
	return types
}

// HandleEvent sends the message for evt, ignoring events nobody is waiting on
func (s *notificationServiceImpl) HandleEvent(ctx context.Context, evt *event.Event) error {
	var chatID, text string

	switch evt.Type {
	case event.TypeVoucherSubmitted:
		chatID = s.targets.ApproverChatID
		text = s.buildMessage(evt, "Voucher waiting for approval", "Submitted by")
	case event.TypeVoucherApproved:
		chatID = s.targets.AccountantChatID
		text = s.buildMessage(evt, "Voucher approved for payment", "Approved by")
	default:
		return nil
	}

	if chatID == "" {
		return nil
	}

	if err := s.messenger.SendText(ctx, chatID, text); err != nil {
		s.logger.Error("Failed to send voucher notification",
			"error", err,
			"event_type", evt.Type,
			"voucher_number", evt.VoucherNumber,
			"chat_id", chatID,
		)
		return fmt.Errorf("send notification: %w", err)
	}

	s.logger.Info("Voucher notification sent",
		"event_type", evt.Type,
		"voucher_number", evt.VoucherNumber,
		"chat_id", chatID,
	)
	return nil
}

func (s *notificationServiceImpl) buildMessage(evt *event.Event, title, actorLabel string) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Voucher: %s\n", evt.VoucherNumber)

	if v := evt.Voucher; v != nil {
		fmt.Fprintf(&b, "Type: %s\n", presenter.TypeLabel(v.VoucherType))
		fmt.Fprintf(&b, "Amount: %s\n", presenter.Amount(v.Amount))
		fmt.Fprintf(&b, "Date: %s\n", presenter.Date(v.VoucherDate))
		if v.DoctorID != "" {
			fmt.Fprintf(&b, "Doctor: %s\n", presenter.Doctor(v))
		}
		if period := presenter.Period(v.PaymentPeriodStart, v.PaymentPeriodEnd); period != "" {
			fmt.Fprintf(&b, "Period: %s\n", period)
		}
		if v.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", v.Description)
		}
	}

	if evt.Actor != "" {
		fmt.Fprintf(&b, "%s: %s\n", actorLabel, evt.Actor)
	}
	return strings.TrimRight(b.String(), "\n")
}
