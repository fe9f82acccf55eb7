package fcm

import (
	"context"
	"log/slog"
	"strings"

	"firebase.google.com/go/v4/messaging"
	"github.com/tinywideclouds/go-notification-dispatcher/pkg/notification"
)

// MessagingClient defines the subset of the Firebase Messaging API we use.
// *messaging.Client satisfies it.
type MessagingClient interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

// Dispatcher delivers single-device messages through Firebase Cloud Messaging.
type Dispatcher struct {
	client MessagingClient
	logger *slog.Logger
}

// NewDispatcher wraps a messaging client; *messaging.Client can be passed directly.
func NewDispatcher(client MessagingClient, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		client: client,
		logger: logger.With("component", "FCMDispatcher"),
	}
}

// Send delivers msg to its single token. SDK errors are normalized into
// *notification.DeliveryError.
func (d *Dispatcher) Send(ctx context.Context, msg notification.Message) (string, error) {
	id, err := d.client.Send(ctx, toFCMMessage(msg))
	if err != nil {
		de := classify(err)
		d.logger.Debug("FCM send failed", "code", de.Code, "err", err)
		return "", de
	}
	return id, nil
}

func toFCMMessage(msg notification.Message) *messaging.Message {
	return &messaging.Message{
		Token: msg.Token,
		Data:  msg.Data,
		Notification: &messaging.Notification{
			Title: msg.Content.Title,
			Body:  msg.Content.Body,
		},
		Android: &messaging.AndroidConfig{
			Priority: msg.Android.Priority,
			Notification: &messaging.AndroidNotification{
				Sound: msg.Android.Sound,
				Icon:  msg.Android.Icon,
				Color: msg.Android.Color,
			},
		},
	}
}

// classify maps Firebase SDK errors onto the messaging/* codes.
// Unregistered is checked first: FCM can report it under an INVALID_ARGUMENT
// status. A plain INVALID_ARGUMENT only means a dead token when the error
// names the registration token; otherwise the payload was rejected.
func classify(err error) *notification.DeliveryError {
	de := &notification.DeliveryError{Message: err.Error(), Err: err}
	switch {
	case messaging.IsUnregistered(err), messaging.IsRegistrationTokenNotRegistered(err):
		de.Code = notification.CodeTokenNotRegistered
	case messaging.IsInvalidArgument(err):
		if strings.Contains(strings.ToLower(err.Error()), "registration token") {
			de.Code = notification.CodeInvalidRegistrationToken
		} else {
			de.Code = notification.CodeInvalidArgument
		}
	case messaging.IsSenderIDMismatch(err):
		de.Code = notification.CodeSenderIDMismatch
	case messaging.IsQuotaExceeded(err):
		de.Code = notification.CodeQuotaExceeded
	case messaging.IsUnavailable(err):
		de.Code = notification.CodeUnavailable
	case messaging.IsInternal(err):
		de.Code = notification.CodeInternal
	case messaging.IsThirdPartyAuthError(err):
		de.Code = notification.CodeThirdPartyAuth
	}
	return de
}
