package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jittakal/ticketbuffer/internal/config/dto"
	apperrors "github.com/jittakal/ticketbuffer/internal/errors"
	"github.com/jittakal/ticketbuffer/internal/sched"
)

// EnvPrefix is the prefix of environment variables read by the loader,
// e.g. TICKETBUFFER_QUEUE_CAPACITY.
const EnvPrefix = "TICKETBUFFER"

// flagKeys maps command-line flags to configuration keys
var flagKeys = map[string]string{
	"capacity":      "queue.capacity",
	"max-produced":  "queue.max_produced",
	"producers":     "producers.count",
	"scheduler":     "scheduler.enabled",
	"sched-policy":  "scheduler.policy",
	"holders":       "generator.holders",
	"report-format": "report.format",
	"report-output": "report.output",
	"log-level":     "logging.level",
	"log-format":    "logging.format",
	"metrics":       "metrics.enabled",
	"metrics-port":  "metrics.port",
}

// Loader handles configuration loading and validation
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// RegisterFlags defines the command-line flags the loader can bind.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Int("capacity", 10, "buffer capacity (tickets)")
	fs.Int("max-produced", 1000, "total number of tickets produced in the run")
	fs.Int("producers", 2, "number of producer agents")
	fs.Bool("scheduler", true, "apply consumer priority hints")
	fs.String("sched-policy", "rr", "scheduler hint policy (rr, nice)")
	fs.Bool("holders", false, "attach generated holder names to tickets")
	fs.String("report-format", "text", "report format (text, cloudevents, none)")
	fs.String("report-output", "stdout", "report output (stdout, stderr)")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-format", "json", "log format (json, console)")
	fs.Bool("metrics", false, "serve Prometheus metrics and health endpoints")
	fs.Int("metrics-port", 9090, "metrics and health port")
}

// BindFlags binds the flags registered by RegisterFlags. Flags missing
// from fs are skipped.
func (l *Loader) BindFlags(fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := l.v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load loads configuration from file, environment variables and bound flags
func (l *Loader) Load(path string) (*dto.ApplicationConfig, error) {
	l.setDefaults()

	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var config dto.ApplicationConfig
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := l.Validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func (l *Loader) setDefaults() {
	l.v.SetDefault("application.name", "ticketbuffer")
	l.v.SetDefault("application.version", "dev")

	// Queue defaults
	l.v.SetDefault("queue.capacity", 10)
	l.v.SetDefault("queue.max_produced", 1000)

	// Agent defaults
	l.v.SetDefault("producers.count", 2)
	l.v.SetDefault("consumers", []map[string]any{
		{"id": "1", "priority": 20},
		{"id": "2", "priority": 40},
		{"id": "3", "priority": 30},
	})

	// Scheduler defaults
	l.v.SetDefault("scheduler.enabled", true)
	l.v.SetDefault("scheduler.policy", "rr")

	// Generator defaults
	l.v.SetDefault("generator.holders", false)
	l.v.SetDefault("generator.time_layout", "2006-01-02-15.04.05")
	l.v.SetDefault("generator.utc", false)

	// Report defaults
	l.v.SetDefault("report.format", "text")
	l.v.SetDefault("report.output", "stdout")
	l.v.SetDefault("report.stats", true)

	// Observability defaults
	l.v.SetDefault("logging.level", "info")
	l.v.SetDefault("logging.format", "json")
	l.v.SetDefault("metrics.enabled", false)
	l.v.SetDefault("metrics.port", 9090)
	l.v.SetDefault("metrics.path", "/metrics")
}

func invalid(field string, value any, err error) error {
	return &apperrors.ConfigError{Field: field, Value: value, Err: err}
}

// Validate validates the configuration and normalises scheduler.policy.
func (l *Loader) Validate(config *dto.ApplicationConfig) error {
	// Queue validation
	if config.Queue.Capacity < 1 {
		return invalid("queue.capacity", config.Queue.Capacity, apperrors.ErrInvalidCapacity)
	}
	if config.Queue.MaxProduced < 0 {
		return invalid("queue.max_produced", config.Queue.MaxProduced, apperrors.ErrInvalidProductionCap)
	}

	// Agent validation
	if config.Producers.Count < 0 || (config.Producers.Count == 0 && config.Queue.MaxProduced > 0) {
		return invalid("producers.count", config.Producers.Count, apperrors.ErrInvalidAgentCount)
	}
	if len(config.Consumers) == 0 {
		return invalid("consumers", 0, apperrors.ErrInvalidAgentCount)
	}
	seen := make(map[string]bool, len(config.Consumers))
	for _, consumer := range config.Consumers {
		if consumer.ID == "" {
			return invalid("consumers.id", consumer.ID, fmt.Errorf("%w: consumer id is required", apperrors.ErrInvalidSetting))
		}
		if seen[consumer.ID] {
			return invalid("consumers.id", consumer.ID, fmt.Errorf("%w: duplicate consumer id", apperrors.ErrInvalidSetting))
		}
		seen[consumer.ID] = true
	}

	// Scheduler validation; the policy is stored in canonical form.
	policy, err := sched.ParsePolicy(config.Scheduler.Policy)
	if err != nil {
		return err
	}
	config.Scheduler.Policy = policy
	if config.Scheduler.Enabled {
		for _, consumer := range config.Consumers {
			if err := sched.ValidateLevel(policy, consumer.Priority); err != nil {
				return invalid("consumers.priority", consumer.Priority, err)
			}
		}
	}

	// Report validation
	switch config.Report.Format {
	case "text", "cloudevents", "none":
	default:
		return invalid("report.format", config.Report.Format, apperrors.ErrInvalidSetting)
	}
	switch config.Report.Output {
	case "stdout", "stderr":
	default:
		return invalid("report.output", config.Report.Output, apperrors.ErrInvalidSetting)
	}

	if config.Generator.TimeLayout == "" {
		return invalid("generator.time_layout", config.Generator.TimeLayout, apperrors.ErrInvalidSetting)
	}

	// Port validation
	if config.Metrics.Enabled && (config.Metrics.Port < 1 || config.Metrics.Port > 65535) {
		return invalid("metrics.port", config.Metrics.Port, apperrors.ErrInvalidSetting)
	}
	if config.Metrics.Enabled && !strings.HasPrefix(config.Metrics.Path, "/") {
		return invalid("metrics.path", config.Metrics.Path, apperrors.ErrInvalidSetting)
	}

	return nil
}
