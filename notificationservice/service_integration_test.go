//go:build integration

package notificationservice_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/google/uuid"
	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/illmade-knight/go-test/emulators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/tinywideclouds/go-notification-dispatcher/internal/pipeline"
	fsStore "github.com/tinywideclouds/go-notification-dispatcher/internal/storage/firestore"
	"github.com/tinywideclouds/go-notification-dispatcher/notificationservice"
	"github.com/tinywideclouds/go-notification-dispatcher/notificationservice/config"
	"github.com/tinywideclouds/go-notification-dispatcher/pkg/notification"
)

// --- MOCKS ---

// fakeSender fails every message addressed to failToken with failCode.
type fakeSender struct {
	mu        sync.Mutex
	sent      []notification.Message
	failToken string
	failCode  string
}

func (f *fakeSender) Send(_ context.Context, msg notification.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	if msg.Token == f.failToken {
		return "", &notification.DeliveryError{Code: f.failCode, Message: "Requested entity was not found."}
	}
	return fmt.Sprintf("projects/p/messages/%d", len(f.sent)), nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// --- TEST ---

func TestNotificationService_Integration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	projectID := "test-project-integ"

	// 1. Emulators
	pubsubConn := emulators.SetupPubsubEmulator(t, ctx, emulators.GetDefaultPubsubConfig(projectID))
	psClient, err := pubsub.NewClient(ctx, projectID, pubsubConn.ClientOptions...)
	require.NoError(t, err)
	t.Cleanup(func() { psClient.Close() })

	fsConn := emulators.SetupFirestoreEmulator(t, ctx, emulators.GetDefaultFirestoreConfig(projectID))
	fsClient, err := firestore.NewClient(ctx, projectID, fsConn.ClientOptions...)
	require.NoError(t, err)
	t.Cleanup(func() { fsClient.Close() })

	store := fsStore.NewRecordStore(fsClient, "", "")

	topicID := "notification-created-" + uuid.NewString()
	subID := topicID + "-sub"
	createPubsubResources(t, ctx, psClient, projectID, topicID, subID)

	sender := &fakeSender{failToken: "stale-token", failCode: notification.CodeTokenNotRegistered}

	consumerCfg := *messagepipeline.NewGooglePubsubConsumerDefaults(subID)
	consumer, err := messagepipeline.NewGooglePubsubConsumer(&consumerCfg, psClient, logger)
	require.NoError(t, err)

	cfg := &config.Config{
		ListenAddr:         ":0",
		NumPipelineWorkers: 2,
		Presentation:       notification.DefaultPresentation(),
	}
	svc, err := notificationservice.New(cfg, consumer, sender, store, logger)
	require.NoError(t, err)

	svcCtx, svcCancel := context.WithCancel(ctx)
	defer svcCancel()
	go func() { svc.Start(svcCtx) }()
	t.Cleanup(func() { svc.Shutdown(context.Background()) })

	publish := func(notificationID string) {
		payload, _ := json.Marshal(pipeline.NotificationCreatedEvent{NotificationID: notificationID})
		_, err := psClient.Publisher(topicID).Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)
		require.NoError(t, err)
	}

	readNotification := func(id string) map[string]interface{} {
		snap, err := fsClient.Collection("notifications").Doc(id).Get(ctx)
		require.NoError(t, err)
		return snap.Data()
	}

	t.Run("Created notification is sent and marked", func(t *testing.T) {
		id := uuid.NewString()
		_, err := fsClient.Collection("notifications").Doc(id).Set(ctx, map[string]interface{}{
			"fcmToken": "good-token",
			"title":    "Hola",
			"userId":   "user-ok",
		})
		require.NoError(t, err)

		publish(id)

		require.Eventually(t, func() bool {
			_, ok := readNotification(id)["sent"]
			return ok
		}, 15*time.Second, 200*time.Millisecond)

		data := readNotification(id)
		assert.Equal(t, true, data["sent"])
		assert.IsType(t, time.Time{}, data["sentAt"])
	})

	t.Run("Stale token is removed from the user", func(t *testing.T) {
		id := uuid.NewString()
		userID := "user-" + uuid.NewString()
		_, err := fsClient.Collection("users").Doc(userID).Set(ctx, map[string]interface{}{
			"fcmToken": "stale-token",
			"name":     "Luis",
		})
		require.NoError(t, err)
		_, err = fsClient.Collection("notifications").Doc(id).Set(ctx, map[string]interface{}{
			"fcmToken": "stale-token",
			"userId":   userID,
		})
		require.NoError(t, err)

		publish(id)

		require.Eventually(t, func() bool {
			_, ok := readNotification(id)["sent"]
			return ok
		}, 15*time.Second, 200*time.Millisecond)

		data := readNotification(id)
		assert.Equal(t, false, data["sent"])
		assert.Equal(t, notification.CodeTokenNotRegistered, data["errorCode"])
		assert.IsType(t, time.Time{}, data["erroredAt"])

		userSnap, err := fsClient.Collection("users").Doc(userID).Get(ctx)
		require.NoError(t, err)
		assert.NotContains(t, userSnap.Data(), "fcmToken")
		assert.Equal(t, "Luis", userSnap.Data()["name"])
	})

	t.Run("Notification without token is left untouched", func(t *testing.T) {
		id := uuid.NewString()
		_, err := fsClient.Collection("notifications").Doc(id).Set(ctx, map[string]interface{}{
			"title": "No device",
		})
		require.NoError(t, err)

		before := sender.count()
		publish(id)

		// Give the pipeline time to consume; nothing observable should change.
		time.Sleep(2 * time.Second)
		assert.NotContains(t, readNotification(id), "sent")
		assert.Equal(t, before, sender.count())
	})
}

func createPubsubResources(t *testing.T, ctx context.Context, client *pubsub.Client, projectID, topicID, subID string) {
	t.Helper()
	topicName := fmt.Sprintf("projects/%s/topics/%s", projectID, topicID)
	_, err := client.TopicAdminClient.CreateTopic(ctx, &pubsubpb.Topic{Name: topicName})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.TopicAdminClient.DeleteTopic(context.Background(), &pubsubpb.DeleteTopicRequest{Topic: topicName})
	})

	subName := fmt.Sprintf("projects/%s/subscriptions/%s", projectID, subID)
	sub := &pubsubpb.Subscription{
		Name:               subName,
		Topic:              topicName,
		AckDeadlineSeconds: 10,
		RetryPolicy: &pubsubpb.RetryPolicy{
			MinimumBackoff: &durationpb.Duration{Seconds: 1},
		},
	}
	_, err = client.SubscriptionAdminClient.CreateSubscription(ctx, sub)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.SubscriptionAdminClient.DeleteSubscription(context.Background(), &pubsubpb.DeleteSubscriptionRequest{Subscription: subName})
	})
}
