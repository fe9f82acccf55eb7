package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-notification-dispatcher/pkg/dispatch"
	"github.com/tinywideclouds/go-notification-dispatcher/pkg/notification"
)

// NewProcessor creates the stage that loads the created record and hands it
// to the dispatcher.
//
// A record that cannot be decoded is marked failed with messaging/invalid-payload
// without a send. Only errors raised before any send are returned for
// redelivery; once the dispatcher has run, the event is always acknowledged so
// a push is never sent twice for the same delivery of the event.
func NewProcessor(
	dispatcher *Dispatcher,
	store dispatch.RecordStore,
	logger *slog.Logger,
) messagepipeline.StreamProcessor[NotificationCreatedEvent] {

	return func(ctx context.Context, original messagepipeline.Message, event *NotificationCreatedEvent) error {
		procLogger := logger.With(
			"notification_id", event.NotificationID,
			"pubsub_msg_id", original.ID,
		)

		record, err := store.Fetch(ctx, event.NotificationID)
		if err != nil {
			if errors.Is(err, dispatch.ErrRecordNotFound) {
				procLogger.Warn("Notification record no longer exists; dropping event")
				return nil
			}
			if errors.Is(err, dispatch.ErrMalformedRecord) {
				procLogger.Error("Notification record cannot be decoded; marking failed", "err", err)
				if writeErr := store.MarkFailed(ctx, event.NotificationID, notification.CodeInvalidPayload, err.Error()); writeErr != nil {
					procLogger.Error("Failed to mark undecodable notification", "err", writeErr)
					return writeErr // Retryable: nothing was sent
				}
				return nil
			}
			procLogger.Error("Failed to fetch notification record", "err", err)
			return err // Retryable
		}

		messageID, err := dispatcher.Handle(ctx, event.NotificationID, *record)
		if err != nil {
			procLogger.Error("Failed to record notification outcome", "err", err)
			return nil
		}
		if messageID != "" {
			procLogger.Debug("Notification processed", "message_id", messageID)
		}
		return nil
	}
}
