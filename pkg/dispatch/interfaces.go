package dispatch

import (
	"context"
	"errors"

	"github.com/tinywideclouds/go-notification-dispatcher/pkg/notification"
)

var (
	// ErrRecordNotFound is returned by RecordStore.Fetch when the notification does not exist.
	ErrRecordNotFound = errors.New("notification record not found")
	// ErrMalformedRecord is returned by RecordStore.Fetch when the stored document cannot be decoded.
	ErrMalformedRecord = errors.New("malformed notification record")
)

// Sender defines the contract for a component that delivers a single push
// message to one device (e.g. Google's FCM).
type Sender interface {
	// Send delivers the message and returns the platform message id.
	// Failures should be returned as *notification.DeliveryError when they can be classified.
	Send(ctx context.Context, msg notification.Message) (string, error)
}

// RecordStore defines the contract for reading notification records and
// writing back their delivery outcome.
type RecordStore interface {
	// Fetch returns the notification record snapshot.
	Fetch(ctx context.Context, notificationID string) (*notification.Record, error)

	// MarkSent records a successful delivery with a server-assigned timestamp.
	MarkSent(ctx context.Context, notificationID string) error

	// MarkFailed records a failed delivery with a server-assigned timestamp.
	MarkFailed(ctx context.Context, notificationID, code, message string) error

	// ClearUserToken deletes the fcmToken field from the user record.
	ClearUserToken(ctx context.Context, userID string) error
}
