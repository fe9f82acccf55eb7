package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tinywideclouds/go-notification-dispatcher/pkg/dispatch"
	"github.com/tinywideclouds/go-notification-dispatcher/pkg/notification"
)

// Dispatcher forwards one newly created notification record to its device
// and writes the outcome back onto the record.
type Dispatcher struct {
	sender       dispatch.Sender
	store        dispatch.RecordStore
	presentation notification.Presentation
	logger       *slog.Logger
}

func NewDispatcher(sender dispatch.Sender, store dispatch.RecordStore, presentation notification.Presentation, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		sender:       sender,
		store:        store,
		presentation: presentation,
		logger:       logger.With("component", "NotificationDispatcher"),
	}
}

// Handle runs the whole send-and-record sequence for a single record.
//
// It returns the delivery message id on success and "" when the record has no
// token or the delivery failed. Delivery failures are recorded on the record
// and are not returned; the error result only reports a failed outcome write.
func (d *Dispatcher) Handle(ctx context.Context, notificationID string, record notification.Record) (string, error) {
	logger := d.logger.With("notification_id", notificationID)

	if record.FCMToken == "" {
		logger.Info("No FCM token found for notification")
		return "", nil
	}

	msg := notification.BuildMessage(record, d.presentation)

	messageID, err := d.sender.Send(ctx, msg)
	if err == nil {
		logger.Info("Successfully sent notification", "message_id", messageID)
		if err := d.store.MarkSent(ctx, notificationID); err != nil {
			return messageID, fmt.Errorf("delivery succeeded (%s) but outcome was not recorded: %w", messageID, err)
		}
		return messageID, nil
	}

	de := notification.AsDeliveryError(err)
	logger.Error("Error sending notification", "code", de.Code, "err", err)

	if de.StaleToken() {
		d.clearStaleToken(ctx, logger, record.UserID)
	}

	code := de.Code
	if code == "" {
		code = notification.CodeUnknown
	}
	if err := d.store.MarkFailed(ctx, notificationID, code, de.Message); err != nil {
		return "", fmt.Errorf("delivery failed (%s) and outcome was not recorded: %w", code, err)
	}
	return "", nil
}

// clearStaleToken never fails the caller: the failure outcome must still be recorded.
func (d *Dispatcher) clearStaleToken(ctx context.Context, logger *slog.Logger, userID string) {
	if userID == "" {
		logger.Warn("Stale FCM token but notification has no userId; skipping cleanup")
		return
	}
	logger.Info("Removing invalid FCM token for user", "user_id", userID)
	if err := d.store.ClearUserToken(ctx, userID); err != nil {
		logger.Warn("Failed to remove invalid FCM token", "user_id", userID, "err", err)
	}
}
