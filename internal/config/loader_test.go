package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"github.com/jittakal/ticketbuffer/internal/config/dto"
	apperrors "github.com/jittakal/ticketbuffer/internal/errors"
)

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("expected non-nil loader")
	}
	if loader.v == nil {
		t.Fatal("expected non-nil viper instance")
	}
}

func TestLoader_LoadDefaults(t *testing.T) {
	loader := NewLoader()
	config, err := loader.Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if config.Queue.Capacity != 10 {
		t.Errorf("Queue.Capacity = %d, want 10", config.Queue.Capacity)
	}
	if config.Queue.MaxProduced != 1000 {
		t.Errorf("Queue.MaxProduced = %d, want 1000", config.Queue.MaxProduced)
	}
	if config.Producers.Count != 2 {
		t.Errorf("Producers.Count = %d, want 2", config.Producers.Count)
	}
	want := []dto.ConsumerConfig{{ID: "1", Priority: 20}, {ID: "2", Priority: 40}, {ID: "3", Priority: 30}}
	if len(config.Consumers) != len(want) {
		t.Fatalf("len(Consumers) = %d, want %d", len(config.Consumers), len(want))
	}
	for i, c := range want {
		if config.Consumers[i] != c {
			t.Errorf("Consumers[%d] = %+v, want %+v", i, config.Consumers[i], c)
		}
	}
	if config.Scheduler.Policy != "rr" {
		t.Errorf("Scheduler.Policy = %s, want rr", config.Scheduler.Policy)
	}
	if config.Report.Format != "text" {
		t.Errorf("Report.Format = %s, want text", config.Report.Format)
	}
	if config.Metrics.Enabled {
		t.Error("Metrics.Enabled should default to false")
	}
	if config.Generator.TimeLayout != "2006-01-02-15.04.05" {
		t.Errorf("Generator.TimeLayout = %s", config.Generator.TimeLayout)
	}
}

func TestLoader_LoadWithValidConfig(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "ticketbuffer.yaml")

	configContent := `
queue:
  capacity: 1
  max_produced: 5

producers:
  count: 1

consumers:
  - id: solo
    priority: 10

scheduler:
  enabled: false
  policy: nice

report:
  format: cloudevents
`

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to create test config file: %v", err)
	}

	loader := NewLoader()
	config, err := loader.Load(configFile)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if config.Queue.Capacity != 1 {
		t.Errorf("Queue.Capacity = %d, want 1", config.Queue.Capacity)
	}
	if config.Queue.MaxProduced != 5 {
		t.Errorf("Queue.MaxProduced = %d, want 5", config.Queue.MaxProduced)
	}
	if len(config.Consumers) != 1 || config.Consumers[0].ID != "solo" || config.Consumers[0].Priority != 10 {
		t.Errorf("Consumers = %+v, want [{solo 10}]", config.Consumers)
	}
	if config.Scheduler.Enabled {
		t.Error("Scheduler.Enabled = true, want false")
	}
	if config.Report.Format != "cloudevents" {
		t.Errorf("Report.Format = %s, want cloudevents", config.Report.Format)
	}
	// Untouched keys keep their defaults.
	if config.Logging.Level != "info" {
		t.Errorf("Logging.Level = %s, want info", config.Logging.Level)
	}
}

func TestLoader_LoadWithMissingFile(t *testing.T) {
	loader := NewLoader()

	config, err := loader.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v, want defaults", err)
	}
	if config.Queue.Capacity != 10 {
		t.Errorf("Queue.Capacity = %d, want 10", config.Queue.Capacity)
	}
}

func TestLoader_LoadInvalidFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(configFile, []byte("queue: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to create test config file: %v", err)
	}

	if _, err := NewLoader().Load(configFile); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoader_EnvOverride(t *testing.T) {
	t.Setenv("TICKETBUFFER_QUEUE_CAPACITY", "3")
	t.Setenv("TICKETBUFFER_LOGGING_LEVEL", "debug")

	config, err := NewLoader().Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if config.Queue.Capacity != 3 {
		t.Errorf("Queue.Capacity = %d, want 3", config.Queue.Capacity)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s, want debug", config.Logging.Level)
	}
}

func TestLoader_BindFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse([]string{"--capacity=4", "--producers=5", "--report-format=none"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	loader := NewLoader()
	if err := loader.BindFlags(fs); err != nil {
		t.Fatalf("BindFlags() error = %v", err)
	}

	config, err := loader.Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if config.Queue.Capacity != 4 {
		t.Errorf("Queue.Capacity = %d, want 4", config.Queue.Capacity)
	}
	if config.Producers.Count != 5 {
		t.Errorf("Producers.Count = %d, want 5", config.Producers.Count)
	}
	if config.Report.Format != "none" {
		t.Errorf("Report.Format = %s, want none", config.Report.Format)
	}
	// Unset flags fall back to defaults.
	if config.Queue.MaxProduced != 1000 {
		t.Errorf("Queue.MaxProduced = %d, want 1000", config.Queue.MaxProduced)
	}
}

func validConfig() *dto.ApplicationConfig {
	return &dto.ApplicationConfig{
		Queue:     dto.QueueConfig{Capacity: 10, MaxProduced: 1000},
		Producers: dto.ProducersConfig{Count: 2},
		Consumers: []dto.ConsumerConfig{{ID: "1", Priority: 20}, {ID: "2", Priority: 40}},
		Scheduler: dto.SchedulerConfig{Enabled: true, Policy: "rr"},
		Generator: dto.GeneratorConfig{TimeLayout: "2006-01-02-15.04.05"},
		Report:    dto.ReportConfig{Format: "text", Output: "stdout"},
		Metrics:   dto.MetricsConfig{Enabled: false},
	}
}

func TestLoader_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *dto.ApplicationConfig)
		wantErr error
	}{
		{
			name:   "valid config",
			mutate: func(c *dto.ApplicationConfig) {},
		},
		{
			name:    "zero capacity",
			mutate:  func(c *dto.ApplicationConfig) { c.Queue.Capacity = 0 },
			wantErr: apperrors.ErrInvalidCapacity,
		},
		{
			name:    "negative cap",
			mutate:  func(c *dto.ApplicationConfig) { c.Queue.MaxProduced = -1 },
			wantErr: apperrors.ErrInvalidProductionCap,
		},
		{
			name: "zero cap without producers",
			mutate: func(c *dto.ApplicationConfig) {
				c.Queue.MaxProduced = 0
				c.Producers.Count = 0
			},
		},
		{
			name:    "no producers",
			mutate:  func(c *dto.ApplicationConfig) { c.Producers.Count = 0 },
			wantErr: apperrors.ErrInvalidAgentCount,
		},
		{
			name:    "no consumers",
			mutate:  func(c *dto.ApplicationConfig) { c.Consumers = nil },
			wantErr: apperrors.ErrInvalidAgentCount,
		},
		{
			name:    "duplicate consumer",
			mutate:  func(c *dto.ApplicationConfig) { c.Consumers[1].ID = "1" },
			wantErr: apperrors.ErrInvalidSetting,
		},
		{
			name:    "empty consumer id",
			mutate:  func(c *dto.ApplicationConfig) { c.Consumers[0].ID = "" },
			wantErr: apperrors.ErrInvalidSetting,
		},
		{
			name:    "unknown policy",
			mutate:  func(c *dto.ApplicationConfig) { c.Scheduler.Policy = "fifo" },
			wantErr: apperrors.ErrInvalidSetting,
		},
		{
			name:    "negative rr priority",
			mutate:  func(c *dto.ApplicationConfig) { c.Consumers[0].Priority = -1 },
			wantErr: apperrors.ErrInvalidSetting,
		},
		{
			name:    "rr priority above range",
			mutate:  func(c *dto.ApplicationConfig) { c.Consumers[1].Priority = 100 },
			wantErr: apperrors.ErrInvalidSetting,
		},
		{
			name: "nice priority out of range",
			mutate: func(c *dto.ApplicationConfig) {
				c.Scheduler.Policy = "nice"
				c.Consumers[0].Priority = 30
			},
			wantErr: apperrors.ErrInvalidSetting,
		},
		{
			name: "priority unchecked when scheduler disabled",
			mutate: func(c *dto.ApplicationConfig) {
				c.Scheduler.Enabled = false
				c.Consumers[0].Priority = -1
			},
		},
		{
			name:   "mixed case policy",
			mutate: func(c *dto.ApplicationConfig) { c.Scheduler.Policy = "RR" },
		},
		{
			name:    "unknown report format",
			mutate:  func(c *dto.ApplicationConfig) { c.Report.Format = "xml" },
			wantErr: apperrors.ErrInvalidSetting,
		},
		{
			name:    "unknown report output",
			mutate:  func(c *dto.ApplicationConfig) { c.Report.Output = "file" },
			wantErr: apperrors.ErrInvalidSetting,
		},
		{
			name:    "empty time layout",
			mutate:  func(c *dto.ApplicationConfig) { c.Generator.TimeLayout = "" },
			wantErr: apperrors.ErrInvalidSetting,
		},
		{
			name: "invalid metrics port",
			mutate: func(c *dto.ApplicationConfig) {
				c.Metrics.Enabled = true
				c.Metrics.Port = 70000
			},
			wantErr: apperrors.ErrInvalidSetting,
		},
		{
			name: "relative metrics path",
			mutate: func(c *dto.ApplicationConfig) {
				c.Metrics.Enabled = true
				c.Metrics.Port = 9090
				c.Metrics.Path = "metrics"
			},
			wantErr: apperrors.ErrInvalidSetting,
		},
		{
			name:   "metrics port ignored when disabled",
			mutate: func(c *dto.ApplicationConfig) { c.Metrics.Port = 0 },
		},
	}

	loader := NewLoader()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(config)

			err := loader.Validate(config)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			var configErr *apperrors.ConfigError
			if !errors.As(err, &configErr) {
				t.Errorf("Validate() error type = %T, want *ConfigError", err)
			}
		})
	}
}

func TestLoader_ValidateNormalisesPolicy(t *testing.T) {
	config := validConfig()
	config.Scheduler.Policy = " Nice "
	config.Consumers[0].Priority = 5
	config.Consumers[1].Priority = -5

	if err := NewLoader().Validate(config); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if config.Scheduler.Policy != "nice" {
		t.Errorf("Scheduler.Policy = %q, want nice", config.Scheduler.Policy)
	}
}

func TestLoader_LoadMixedCasePolicyFromEnv(t *testing.T) {
	t.Setenv("TICKETBUFFER_SCHEDULER_POLICY", "RR")

	config, err := NewLoader().Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if config.Scheduler.Policy != "rr" {
		t.Errorf("Scheduler.Policy = %q, want rr", config.Scheduler.Policy)
	}
}
