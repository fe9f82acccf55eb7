package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tinywideclouds/go-notification-dispatcher/pkg/dispatch"
	"github.com/tinywideclouds/go-notification-dispatcher/pkg/notification"
)

const (
	DefaultNotificationsCollection = "notifications"
	DefaultUsersCollection         = "users"

	fieldFCMToken = "fcmToken"
)

// RecordStore implements dispatch.RecordStore using Google Cloud Firestore.
type RecordStore struct {
	client        *firestore.Client
	notifications string
	users         string
}

// NewRecordStore creates a store over the given collections. Empty names
// fall back to "notifications" and "users".
func NewRecordStore(client *firestore.Client, notificationsCollection, usersCollection string) *RecordStore {
	if notificationsCollection == "" {
		notificationsCollection = DefaultNotificationsCollection
	}
	if usersCollection == "" {
		usersCollection = DefaultUsersCollection
	}
	return &RecordStore{
		client:        client,
		notifications: notificationsCollection,
		users:         usersCollection,
	}
}

func (s *RecordStore) Fetch(ctx context.Context, notificationID string) (*notification.Record, error) {
	snap, err := s.notificationRef(notificationID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%w: %s", dispatch.ErrRecordNotFound, notificationID)
		}
		return nil, fmt.Errorf("firestore get %s failed: %w", notificationID, err)
	}

	var record notification.Record
	if err := snap.DataTo(&record); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", dispatch.ErrMalformedRecord, notificationID, err)
	}
	return &record, nil
}

func (s *RecordStore) MarkSent(ctx context.Context, notificationID string) error {
	_, err := s.notificationRef(notificationID).Update(ctx, []firestore.Update{
		{Path: "sent", Value: true},
		{Path: "sentAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return fmt.Errorf("failed to mark notification %s sent: %w", notificationID, err)
	}
	return nil
}

func (s *RecordStore) MarkFailed(ctx context.Context, notificationID, code, message string) error {
	_, err := s.notificationRef(notificationID).Update(ctx, []firestore.Update{
		{Path: "sent", Value: false},
		{Path: "error", Value: message},
		{Path: "errorCode", Value: code},
		{Path: "erroredAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return fmt.Errorf("failed to mark notification %s failed: %w", notificationID, err)
	}
	return nil
}

// ClearUserToken removes the field entirely so later reads see "no token"
// rather than an empty string.
func (s *RecordStore) ClearUserToken(ctx context.Context, userID string) error {
	_, err := s.client.Collection(s.users).Doc(userID).Update(ctx, []firestore.Update{
		{Path: fieldFCMToken, Value: firestore.Delete},
	})
	if err != nil {
		return fmt.Errorf("failed to clear fcm token for user %s: %w", userID, err)
	}
	return nil
}

// notificationRef: notifications/{notificationID}
func (s *RecordStore) notificationRef(notificationID string) *firestore.DocumentRef {
	return s.client.Collection(s.notifications).Doc(notificationID)
}
