// Package pipeline contains the core message processing components for the service.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
)

// NotificationCreatedEvent announces that a notification document was created.
// Either field identifies the document. DocumentPath is "<collection>/<id>",
// optionally prefixed with "projects/<p>/databases/<db>/documents/".
type NotificationCreatedEvent struct {
	NotificationID string `json:"notificationId"`
	DocumentPath   string `json:"documentPath,omitempty"`
}

// NewNotificationCreatedTransformer returns a dataflow Transformer that
// unmarshals and validates a raw message payload into a NotificationCreatedEvent.
// A documentPath outside the notifications collection is rejected.
// Invalid payloads are returned with skip=true so the StreamingService can
// handle the Nack/DLQ logic.
func NewNotificationCreatedTransformer(notificationsCollection string) func(context.Context, *messagepipeline.Message) (*NotificationCreatedEvent, bool, error) {
	if notificationsCollection == "" {
		notificationsCollection = "notifications"
	}

	return func(_ context.Context, msg *messagepipeline.Message) (*NotificationCreatedEvent, bool, error) {
		var event NotificationCreatedEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return nil, true, fmt.Errorf("failed to unmarshal notification event from message %s: %w", msg.ID, err)
		}

		if event.DocumentPath != "" {
			id, err := notificationIDFromPath(event.DocumentPath, notificationsCollection)
			if err != nil {
				return nil, true, fmt.Errorf("notification event in message %s: %w", msg.ID, err)
			}
			if event.NotificationID != "" && event.NotificationID != id {
				return nil, true, fmt.Errorf("notification event in message %s: id %q does not match path %q",
					msg.ID, event.NotificationID, event.DocumentPath)
			}
			event.NotificationID = id
		}
		if event.NotificationID == "" || strings.Contains(event.NotificationID, "/") {
			return nil, true, fmt.Errorf("notification event in message %s has no notification id", msg.ID)
		}

		return &event, false, nil
	}
}

// notificationIDFromPath only accepts top-level documents of collection.
func notificationIDFromPath(docPath, collection string) (string, error) {
	p := strings.Trim(docPath, "/")
	if i := strings.LastIndex(p, "/documents/"); i >= 0 {
		p = p[i+len("/documents/"):]
	}
	parts := strings.Split(p, "/")
	if len(parts) != 2 || parts[0] != collection || parts[1] == "" {
		return "", fmt.Errorf("document path %q is not in collection %q", docPath, collection)
	}
	return parts[1], nil
}
