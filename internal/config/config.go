package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr   string
	MySQLDSN   string
	SQLitePath string
	RedisAddr  string
	RedisPass  string

	RabbitMQURL         string
	RabbitExchange      string
	RabbitQueue         string
	RabbitRoutingKey    string
	RabbitConsumerTag   string
	RabbitPublishPrefix string
	RabbitPrefetch      int

	JWTSecret    string
	SSEHeartbeat time.Duration
	HistoryLimit int

	LifecycleCron   string
	LifecycleWindow time.Duration
	SoonLead        time.Duration
	LedgerTTL       time.Duration
	ReminderCron    string
	InactiveAfter   time.Duration
	Timezone        string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	OTELServiceName string
	OTLPEndpoint    string
	OTLPInsecure    bool
	OTELSampleRatio float64
	Environment     string
}

// DevJWTSecret signs tokens in local runs only; release mode refuses it.
const DevJWTSecret = "dev-secret-key"

var ErrInsecureJWTSecret = errors.New("JWT_SECRET must be set to a private value when GIN_MODE=release")

func New() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "notifications")
	v.SetDefault("RABBITMQ_QUEUE", "notifications.dispatch")
	v.SetDefault("RABBITMQ_ROUTING_KEY", "notification.*")
	v.SetDefault("RABBITMQ_CONSUMER_TAG", "dispatch-consumer")
	v.SetDefault("RABBITMQ_PUBLISH_PREFIX", "notification")
	v.SetDefault("RABBITMQ_PREFETCH", 10)
	v.SetDefault("JWT_SECRET", DevJWTSecret)
	v.SetDefault("SSE_HEARTBEAT_SECONDS", 15)
	v.SetDefault("HISTORY_LIMIT", 20)
	v.SetDefault("LIFECYCLE_CRON", "*/5 * * * *")
	v.SetDefault("LIFECYCLE_WINDOW", 5*time.Minute)
	v.SetDefault("SOON_LEAD", 30*time.Minute)
	v.SetDefault("LEDGER_TTL", 7*24*time.Hour)
	v.SetDefault("REMINDER_CRON", "0 9 * * *")
	v.SetDefault("INACTIVE_AFTER", 7*24*time.Hour)
	v.SetDefault("TZ", "UTC")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("OTEL_SERVICE_NAME", "prepnotify")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", true)
	v.SetDefault("OTEL_TRACES_SAMPLER_ARG", 1.0)
	v.SetDefault("GIN_MODE", "debug")

	cfg := &Config{
		HTTPAddr:   ":8080",
		MySQLDSN:   v.GetString("MYSQL_DSN"),
		SQLitePath: v.GetString("SQLITE_PATH"),
		RedisAddr:  v.GetString("REDIS_ADDR"),
		RedisPass:  v.GetString("REDIS_PASSWORD"),

		RabbitMQURL:         v.GetString("RABBITMQ_URL"),
		RabbitExchange:      v.GetString("RABBITMQ_EXCHANGE"),
		RabbitQueue:         v.GetString("RABBITMQ_QUEUE"),
		RabbitRoutingKey:    v.GetString("RABBITMQ_ROUTING_KEY"),
		RabbitConsumerTag:   v.GetString("RABBITMQ_CONSUMER_TAG"),
		RabbitPublishPrefix: v.GetString("RABBITMQ_PUBLISH_PREFIX"),
		RabbitPrefetch:      v.GetInt("RABBITMQ_PREFETCH"),

		JWTSecret:    v.GetString("JWT_SECRET"),
		SSEHeartbeat: 15 * time.Second,
		HistoryLimit: 20,

		LifecycleCron:   v.GetString("LIFECYCLE_CRON"),
		LifecycleWindow: v.GetDuration("LIFECYCLE_WINDOW"),
		SoonLead:        v.GetDuration("SOON_LEAD"),
		LedgerTTL:       v.GetDuration("LEDGER_TTL"),
		ReminderCron:    v.GetString("REMINDER_CRON"),
		InactiveAfter:   v.GetDuration("INACTIVE_AFTER"),
		Timezone:        v.GetString("TZ"),

		SMTPHost: v.GetString("SMTP_HOST"),
		SMTPPort: v.GetInt("SMTP_PORT"),
		SMTPUser: v.GetString("SMTP_USER"),
		SMTPPass: v.GetString("SMTP_PASSWORD"),
		SMTPFrom: v.GetString("SMTP_FROM"),

		OTELServiceName: v.GetString("OTEL_SERVICE_NAME"),
		OTLPEndpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPInsecure:    v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
		OTELSampleRatio: v.GetFloat64("OTEL_TRACES_SAMPLER_ARG"),
		Environment:     v.GetString("GIN_MODE"),
	}

	if addr := v.GetString("HTTP_ADDR"); addr != "" {
		cfg.HTTPAddr = addr
	} else if port := v.GetString("PORT"); port != "" {
		cfg.HTTPAddr = ":" + port
	}

	if n := v.GetInt("SSE_HEARTBEAT_SECONDS"); n > 0 {
		cfg.SSEHeartbeat = time.Duration(n) * time.Second
	}
	if n := v.GetInt("HISTORY_LIMIT"); n > 0 {
		cfg.HistoryLimit = n
	}
	if cfg.LifecycleWindow <= 0 {
		cfg.LifecycleWindow = 5 * time.Minute
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that are only acceptable outside release mode.
func (c *Config) Validate() error {
	if c.Environment == "release" && (c.JWTSecret == "" || c.JWTSecret == DevJWTSecret) {
		return ErrInsecureJWTSecret
	}
	return nil
}

// Location resolves Timezone, falling back to UTC for unknown names.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
