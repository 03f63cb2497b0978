package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/weather-digest/internal/domain"
)

//go:embed digest.yaml
var defaultDigest []byte

// Config holds all job settings. Secrets and endpoints come from environment
// variables; the digest layout comes from digest.yaml.
type Config struct {
	QWeatherHost           string `env:"QWEATHER_API_HOST" validate:"required"`
	QWeatherCredentialID   string `env:"QWEATHER_CREDENTIAL_ID" validate:"required"`
	QWeatherProjectID      string `env:"QWEATHER_PROJECT_ID" validate:"required"`
	QWeatherPrivateKeyPath string `env:"QWEATHER_PRIVATE_KEY_PATH" validate:"required"`
	QWeatherLang           string `env:"QWEATHER_LANG"`

	// CWA open data alerts are skipped when CWAAPIKey is empty.
	CWAAPIKey  string `env:"CWA_API_KEY"`
	CWABaseURL string `env:"CWA_BASE_URL" validate:"omitempty,url"`

	// Alert summarization is skipped when ArkAPIKey is empty.
	ArkAPIKey  string `env:"ARK_API_KEY"`
	ArkBaseURL string `env:"ARK_BASE_URL" validate:"omitempty,url"`
	ArkModel   string `env:"ARK_MODEL"`

	PushURL   string `env:"PUSH_URL" validate:"omitempty,url"`
	PushGroup string `env:"PUSH_GROUP"`

	FeedLink     string         `env:"RSS_FEED_LINK" validate:"required,url"`
	FeedPath     string         `env:"FEED_PATH" validate:"required"`
	FeedTimezone string         `env:"FEED_TIMEZONE" validate:"required"`
	Location     *time.Location `validate:"-"`

	HTTPTimeout       time.Duration `env:"HTTP_TIMEOUT" validate:"gt=0"`
	SummarizerTimeout time.Duration `env:"SUMMARIZER_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT"`

	KafkaBrokers   []string `env:"KAFKA_BROKERS"`
	KafkaFeedTopic string   `env:"KAFKA_FEED_TOPIC" validate:"required_with=KafkaBrokers"`

	PushgatewayURL string `env:"PUSHGATEWAY_URL" validate:"omitempty,url"`

	LogLevel    string `env:"LOG_LEVEL" validate:"oneof=debug info warn warning error"`
	LogFormat   string `env:"LOG_FORMAT" validate:"oneof=json text"`
	PreviewAddr string `env:"PREVIEW_ADDR"`

	Digest Digest `env:"DIGEST_CONFIG"`
}

// Digest is the layout of the summary: which cities, which alert regions, how
// the day is split and which observation levels raise alerts.
type Digest struct {
	Cities          []City          `yaml:"cities" validate:"required,min=1,unique=Name,dive"`
	AlertRegions    []Region        `yaml:"alert_regions" validate:"dive"`
	Windows         []domain.Window `yaml:"windows" validate:"required,min=1,dive"`
	OutlookDays     int             `yaml:"outlook_days" validate:"gte=0,lte=7"`
	SummarizeAlerts bool            `yaml:"summarize_alerts"`
	BreakerFailures uint32          `yaml:"breaker_failures"`
	Rain            Rain            `yaml:"rain"`
	Wind            Wind            `yaml:"wind"`
}

// City is one forecast location.
type City struct {
	Name       string `yaml:"name" validate:"required"`
	LocationID string `yaml:"location_id" validate:"omitempty,numeric"`
	County     string `yaml:"county"`
}

// Region is one location polled for QWeather warnings.
type Region struct {
	Name       string `yaml:"name" validate:"required"`
	LocationID string `yaml:"location_id" validate:"required,numeric"`
}

// Rain holds accumulation thresholds in millimetres. Zero disables a check.
type Rain struct {
	OneHourMM        float64 `yaml:"one_hour_mm" validate:"gte=0"`
	TwentyFourHourMM float64 `yaml:"twenty_four_hour_mm" validate:"gte=0"`
}

// Wind holds speed thresholds in m/s. Zero disables a check.
type Wind struct {
	SustainedMS float64 `yaml:"sustained_ms" validate:"gte=0"`
	GustMS      float64 `yaml:"gust_ms" validate:"gte=0"`
}

// Load reads configuration from environment variables and the digest layout,
// applying defaults where unset. Every error wraps domain.ErrConfiguration.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	return cfg, nil
}

func load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	httpTimeout, err := parseDuration("HTTP_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	summarizerTimeout, err := parseDuration("SUMMARIZER_TIMEOUT", "20s")
	if err != nil {
		return nil, err
	}

	digest, err := loadDigest(os.Getenv("DIGEST_CONFIG"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		QWeatherHost:           os.Getenv("QWEATHER_API_HOST"),
		QWeatherCredentialID:   os.Getenv("QWEATHER_CREDENTIAL_ID"),
		QWeatherProjectID:      os.Getenv("QWEATHER_PROJECT_ID"),
		QWeatherPrivateKeyPath: os.Getenv("QWEATHER_PRIVATE_KEY_PATH"),
		QWeatherLang:           sharedcfg.EnvOrDefault("QWEATHER_LANG", "zh"),

		CWAAPIKey:  os.Getenv("CWA_API_KEY"),
		CWABaseURL: os.Getenv("CWA_BASE_URL"),

		ArkAPIKey:  os.Getenv("ARK_API_KEY"),
		ArkBaseURL: os.Getenv("ARK_BASE_URL"),
		ArkModel:   os.Getenv("ARK_MODEL"),

		PushURL:   os.Getenv("PUSH_URL"),
		PushGroup: sharedcfg.EnvOrDefault("PUSH_GROUP", "weather"),

		FeedLink:     sharedcfg.EnvOrDefault("RSS_FEED_LINK", "https://example.com/rss.xml"),
		FeedPath:     sharedcfg.EnvOrDefault("FEED_PATH", "docs/weather.xml"),
		FeedTimezone: sharedcfg.EnvOrDefault("FEED_TIMEZONE", "Asia/Taipei"),

		HTTPTimeout:       httpTimeout,
		SummarizerTimeout: summarizerTimeout,
		ShutdownTimeout:   shutdownTimeout,

		KafkaFeedTopic: sharedcfg.EnvOrDefault("KAFKA_FEED_TOPIC", "weather-digest-feed"),
		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),

		LogLevel:    strings.ToLower(sharedcfg.EnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(sharedcfg.EnvOrDefault("LOG_FORMAT", "json")),
		PreviewAddr: sharedcfg.EnvOrDefault("PREVIEW_ADDR", ":8080"),

		Digest: digest,
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.FeedTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid FEED_TIMEZONE %q: %w", cfg.FeedTimezone, err)
	}
	cfg.Location = loc

	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	s := sharedcfg.EnvOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return d, nil
}

// loadDigest decodes the layout file at path, or the embedded default when
// path is empty. Unknown keys are rejected.
func loadDigest(path string) (Digest, error) {
	data := defaultDigest
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Digest{}, fmt.Errorf("read DIGEST_CONFIG: %w", err)
		}
		data = b
	}

	var d Digest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return Digest{}, fmt.Errorf("decode digest config: %w", err)
	}
	return d, nil
}

var validateStruct = newValidator().Struct

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by the name an operator sets: the env var or YAML key.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		if name, _, _ := strings.Cut(f.Tag.Get("yaml"), ","); name != "" && name != "-" {
			return name
		}
		return f.Name
	})
	return v
}

func validate(cfg *Config) error {
	err := validateStruct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required", "required_with":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "url":
		return field + " must be a URL"
	case "gtfield":
		return field + " must be after start"
	default:
		return fmt.Sprintf("%s failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
}

// Cities returns the configured forecast locations in digest order.
func (c *Config) Cities() []domain.City {
	out := make([]domain.City, 0, len(c.Digest.Cities))
	for _, city := range c.Digest.Cities {
		out = append(out, domain.City{Name: city.Name, LocationID: city.LocationID, County: city.County})
	}
	return out
}

// AlertRegions returns the warning regions, defaulting to every city with a
// location id.
func (c *Config) AlertRegions() []Region {
	if len(c.Digest.AlertRegions) > 0 {
		return c.Digest.AlertRegions
	}
	var out []Region
	for _, city := range c.Digest.Cities {
		if city.LocationID != "" {
			out = append(out, Region{Name: city.Name, LocationID: city.LocationID})
		}
	}
	return out
}

// SummaryPolicy returns the rendering policy for the digest.
func (c *Config) SummaryPolicy() domain.SummaryPolicy {
	return domain.SummaryPolicy{Windows: c.Digest.Windows, OutlookDays: c.Digest.OutlookDays}
}

// SummarizerEnabled reports whether alerts are condensed by the generative-text
// call.
func (c *Config) SummarizerEnabled() bool {
	return c.ArkAPIKey != "" && c.Digest.SummarizeAlerts
}

// KafkaEnabled reports whether feed items are also published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
