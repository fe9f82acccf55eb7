package config

import (
	"log/slog"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-notification-dispatcher/pkg/notification"
)

type YamlFirestoreConfig struct {
	NotificationsCollection string `yaml:"notifications_collection"`
	UsersCollection         string `yaml:"users_collection"`
}

type YamlPresentationConfig struct {
	DefaultTitle string `yaml:"default_title"`
	Sound        string `yaml:"sound"`
	Icon         string `yaml:"icon"`
	Color        string `yaml:"color"`
}

// YamlConfig is the structure that mirrors the raw config.yaml file.
type YamlConfig struct {
	ProjectID              string                 `yaml:"project_id"`
	ListenAddr             string                 `yaml:"listen_addr"`
	CredentialsFile        string                 `yaml:"credentials_file"`
	TopicID                string                 `yaml:"topic_id"`
	SubscriptionID         string                 `yaml:"subscription_id"`
	SubscriptionDLQTopicID string                 `yaml:"subscription_dlq_topic_id"`
	FirestoreConfig        YamlFirestoreConfig    `yaml:"firestore"`
	PresentationConfig     YamlPresentationConfig `yaml:"presentation"`
	NumPipelineWorkers     int                    `yaml:"num_pipeline_workers"`
}

// NewConfigFromYaml converts the YamlConfig into a clean, base Config struct.
func NewConfigFromYaml(baseCfg *YamlConfig, logger *slog.Logger) (*Config, error) {
	logger.Debug("Mapping YAML config to base config struct")

	cfg := &Config{
		ProjectID:       baseCfg.ProjectID,
		ListenAddr:      baseCfg.ListenAddr,
		CredentialsFile: baseCfg.CredentialsFile,
		TopicID:         baseCfg.TopicID,
		SubscriptionID:  baseCfg.SubscriptionID,
		Firestore: FirestoreConfig{
			NotificationsCollection: baseCfg.FirestoreConfig.NotificationsCollection,
			UsersCollection:         baseCfg.FirestoreConfig.UsersCollection,
		},
		Presentation: notification.Presentation{
			DefaultTitle: baseCfg.PresentationConfig.DefaultTitle,
			Sound:        baseCfg.PresentationConfig.Sound,
			Icon:         baseCfg.PresentationConfig.Icon,
			Color:        baseCfg.PresentationConfig.Color,
		},
		SubscriptionDLQTopicID: baseCfg.SubscriptionDLQTopicID,
		NumPipelineWorkers:     baseCfg.NumPipelineWorkers,
	}

	if cfg.SubscriptionID != "" {
		cfg.PubsubConsumerConfig = messagepipeline.NewGooglePubsubConsumerDefaults(cfg.SubscriptionID)
	}

	logger.Debug("YAML config mapping complete",
		"project_id", cfg.ProjectID,
		"listen_addr", cfg.ListenAddr,
		"subscription_id", cfg.SubscriptionID,
	)

	return cfg, nil
}
