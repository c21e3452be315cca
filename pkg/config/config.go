package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// MaxBatchSize is the FCM ceiling for tokens per multicast call
const MaxBatchSize = 500

type Config struct {
	Port        string
	DatabaseURL string
	GinMode     string
	LogLevel    string
	LogFormat   string
	JWTSecret   string

	// Requests per second accepted on /push routes, 0 disables limiting
	PushRateLimit float64
	PushRateBurst int

	// Push provider
	FirebaseCredentials string
	BatchSize           int
	BroadcastPageSize   int
	PruneConcurrency    int

	// Event bus
	EventBusEnabled   bool
	GoogleProjectID   string
	GoogleCredentials string
	PubSubTopic       string
	PubSubGroupID     string
	RedisAddr         string
	EventDedupTTL     time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("FCM_BATCH_SIZE", MaxBatchSize)
	v.SetDefault("BROADCAST_PAGE_SIZE", 20)
	v.SetDefault("PRUNE_CONCURRENCY", 8)
	v.SetDefault("EVENT_BUS_ENABLED", false)
	v.SetDefault("PUBSUB_TOPIC", "push-user-notifications")
	v.SetDefault("PUBSUB_GROUP_ID", "push-relay")
	v.SetDefault("EVENT_DEDUP_TTL", 10*time.Minute)
	v.SetDefault("PUSH_RATE_LIMIT", 0)
	v.SetDefault("PUSH_RATE_BURST", 10)
}

// Load reads configuration from the environment, after loading a .env file if it exists
func Load() *Config {
	_ = godotenv.Load()
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	return v
}

// FromViper maps the raw keys of v onto a Config
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Port:                v.GetString("PORT"),
		DatabaseURL:         v.GetString("DATABASE_URL"),
		GinMode:             v.GetString("GIN_MODE"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		LogFormat:           v.GetString("LOG_FORMAT"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		PushRateLimit:       v.GetFloat64("PUSH_RATE_LIMIT"),
		PushRateBurst:       v.GetInt("PUSH_RATE_BURST"),
		FirebaseCredentials: v.GetString("FIREBASE_CREDENTIALS"),
		BatchSize:           v.GetInt("FCM_BATCH_SIZE"),
		BroadcastPageSize:   v.GetInt("BROADCAST_PAGE_SIZE"),
		PruneConcurrency:    v.GetInt("PRUNE_CONCURRENCY"),
		EventBusEnabled:     v.GetBool("EVENT_BUS_ENABLED"),
		GoogleProjectID:     v.GetString("GOOGLE_PROJECT_ID"),
		GoogleCredentials:   v.GetString("GOOGLE_CREDENTIALS"),
		PubSubTopic:         topicName(v.GetString("PUBSUB_TOPIC")),
		PubSubGroupID:       v.GetString("PUBSUB_GROUP_ID"),
		RedisAddr:           v.GetString("REDIS_ADDR"),
		EventDedupTTL:       v.GetDuration("EVENT_DEDUP_TTL"),
	}
}

// topicName extracts the short topic name from a full resource name if necessary
func topicName(name string) string {
	if parts := strings.Split(name, "/"); len(parts) > 1 {
		return parts[len(parts)-1]
	}
	return name
}

// Validate checks the configuration once at startup
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.BatchSize <= 0 || c.BatchSize > MaxBatchSize {
		errs = append(errs, fmt.Errorf("FCM_BATCH_SIZE must be between 1 and %d, got %d", MaxBatchSize, c.BatchSize))
	}
	if c.BroadcastPageSize <= 0 {
		errs = append(errs, fmt.Errorf("BROADCAST_PAGE_SIZE must be positive, got %d", c.BroadcastPageSize))
	}
	if c.PruneConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("PRUNE_CONCURRENCY must be positive, got %d", c.PruneConcurrency))
	}
	if c.PushRateLimit < 0 {
		errs = append(errs, fmt.Errorf("PUSH_RATE_LIMIT must not be negative, got %v", c.PushRateLimit))
	}
	if c.PushRateLimit > 0 && c.PushRateBurst <= 0 {
		errs = append(errs, fmt.Errorf("PUSH_RATE_BURST must be positive when PUSH_RATE_LIMIT is set, got %d", c.PushRateBurst))
	}
	if c.EventBusEnabled {
		if c.GoogleProjectID == "" {
			errs = append(errs, errors.New("GOOGLE_PROJECT_ID is required when EVENT_BUS_ENABLED is set"))
		}
		if c.PubSubTopic == "" {
			errs = append(errs, errors.New("PUBSUB_TOPIC is required when EVENT_BUS_ENABLED is set"))
		}
		if c.PubSubGroupID == "" {
			errs = append(errs, errors.New("PUBSUB_GROUP_ID is required when EVENT_BUS_ENABLED is set"))
		}
		if c.EventDedupTTL <= 0 {
			errs = append(errs, fmt.Errorf("EVENT_DEDUP_TTL must be positive when EVENT_BUS_ENABLED is set, got %v", c.EventDedupTTL))
		}
	}
	return errors.Join(errs...)
}
