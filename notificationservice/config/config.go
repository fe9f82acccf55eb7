package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-notification-dispatcher/pkg/notification"
)

type FirestoreConfig struct {
	NotificationsCollection string
	UsersCollection         string
}

// Config defines the *single*, authoritative configuration.
type Config struct {
	ProjectID              string
	ListenAddr             string
	CredentialsFile        string
	TopicID                string
	SubscriptionID         string
	SubscriptionDLQTopicID string
	NumPipelineWorkers     int

	Firestore    FirestoreConfig
	Presentation notification.Presentation

	PubsubConsumerConfig *messagepipeline.GooglePubsubConsumerConfig
}

// UpdateConfigWithEnvOverrides applies environment variables and final validation.
func UpdateConfigWithEnvOverrides(cfg *Config, logger *slog.Logger) (*Config, error) {
	logger.Debug("Applying environment variable overrides...")

	// 1. Apply Environment Overrides
	override := func(key string, target *string) {
		if val := os.Getenv(key); val != "" {
			logger.Debug("Overriding config value", "key", key, "source", "env")
			*target = val
		}
	}

	override("PROJECT_ID", &cfg.ProjectID)
	if val := os.Getenv("PORT"); val != "" {
		logger.Debug("Overriding config value", "key", "PORT", "source", "env")
		cfg.ListenAddr = ":" + val
	}
	override("CREDENTIALS_FILE", &cfg.CredentialsFile)
	override("TOPIC_ID", &cfg.TopicID)
	if val := os.Getenv("SUBSCRIPTION_ID"); val != "" {
		logger.Debug("Overriding config value", "key", "SUBSCRIPTION_ID", "source", "env")
		cfg.SubscriptionID = val
		cfg.PubsubConsumerConfig = messagepipeline.NewGooglePubsubConsumerDefaults(val)
	}
	override("SUBSCRIPTION_DLQ_TOPIC_ID", &cfg.SubscriptionDLQTopicID)
	if val := os.Getenv("NUM_PIPELINE_WORKERS"); val != "" {
		if workers, err := strconv.Atoi(val); err == nil && workers > 0 {
			logger.Debug("Overriding config value", "key", "NUM_PIPELINE_WORKERS", "source", "env")
			cfg.NumPipelineWorkers = workers
		}
	}

	override("NOTIFICATIONS_COLLECTION", &cfg.Firestore.NotificationsCollection)
	override("USERS_COLLECTION", &cfg.Firestore.UsersCollection)

	override("DEFAULT_TITLE", &cfg.Presentation.DefaultTitle)
	override("ANDROID_ICON", &cfg.Presentation.Icon)
	override("ANDROID_COLOR", &cfg.Presentation.Color)

	// 2. Final Validation
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required (set via YAML or PROJECT_ID env var)")
	}
	if cfg.SubscriptionID == "" {
		return nil, fmt.Errorf("subscription_id is required (set via YAML or SUBSCRIPTION_ID env var)")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.NumPipelineWorkers <= 0 {
		cfg.NumPipelineWorkers = 1
	}
	if cfg.Firestore.NotificationsCollection == "" {
		cfg.Firestore.NotificationsCollection = "notifications"
	}
	if cfg.Firestore.UsersCollection == "" {
		cfg.Firestore.UsersCollection = "users"
	}

	defaults := notification.DefaultPresentation()
	if cfg.Presentation.DefaultTitle == "" {
		cfg.Presentation.DefaultTitle = defaults.DefaultTitle
	}
	if cfg.Presentation.Sound == "" {
		cfg.Presentation.Sound = defaults.Sound
	}
	if cfg.Presentation.Icon == "" {
		cfg.Presentation.Icon = defaults.Icon
	}
	if cfg.Presentation.Color == "" {
		cfg.Presentation.Color = defaults.Color
	}

	if cfg.PubsubConsumerConfig == nil && cfg.SubscriptionID != "" {
		cfg.PubsubConsumerConfig = messagepipeline.NewGooglePubsubConsumerDefaults(cfg.SubscriptionID)
	}

	logger.Debug("Configuration finalized and validated successfully")
	return cfg, nil
}
