// Package config defines the global configuration structure for the SRI
// invoice notifier. Configuration is loaded once at process initialization
// (Lambda Cold Start) and is immutable thereafter. It follows 12-Factor App
// principles by strictly separating code from configuration.
//
// Values come from OS environment variables, optionally seeded from a .env
// file for local runs. Any missing required value or invalid format fails
// the process immediately on startup (fail fast). Credentials are never part
// of this configuration: all AWS access is IAM-role based.
package config

// Config is the top-level configuration struct for the notifier. It is
// populated once during process initialization and never modified.
// Sub-components receive only the specific config subsets they require
// (Least Privilege principle).
type Config struct {
	// System Metadata
	AppEnv   string `envconfig:"APP_ENV" default:"prod" validate:"required,oneof=local dev prod"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain Configurations
	AWS     AWSConfig
	Mail    MailConfig
	Storage StorageConfig
	Handoff HandoffConfig
	Metrics MetricsConfig
}

// AWSConfig holds regional configuration and the optional endpoint override
// used with LocalStack.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// MailConfig holds the sender identity and SES tracking configuration.
type MailConfig struct {
	Sender string `envconfig:"SENDER_EMAIL" validate:"required,email"`
	// ConfigSetName is the SES configuration set used for delivery tracking.
	// Optional; if empty, no configuration set is attached.
	ConfigSetName string `envconfig:"SES_CONFIG_SET"`
}

// StorageConfig holds the per-environment buckets where authorized voucher
// documents are stored.
type StorageConfig struct {
	TestBucket       string `envconfig:"TEST_BUCKET" validate:"required"`
	ProductionBucket string `envconfig:"PRODUCTION_BUCKET" validate:"required"`
}

// HandoffConfig holds the downstream hand-off destination for the stream
// processor. Exactly one of TopicARN or QueueURL should be set; the stream
// processor entry point enforces this at startup.
//
// SourceEnvironment, when set, overrides the substring-based environment
// inference from the stream's table name. Deployments that pin each stream
// processor to a single voucher table should set it explicitly.
type HandoffConfig struct {
	TopicARN          string `envconfig:"TOPIC_ARN"`
	QueueURL          string `envconfig:"QUEUE_URL" validate:"omitempty,url"`
	SourceEnvironment string `envconfig:"SOURCE_ENVIRONMENT" validate:"omitempty,oneof=test production"`
}

// MetricsConfig holds CloudWatch metric emission settings.
type MetricsConfig struct {
	Namespace string `envconfig:"METRIC_NAMESPACE" default:"SRINotifier"`
	Enabled   bool   `envconfig:"METRICS_ENABLED" default:"true"`
}
