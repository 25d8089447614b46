package dto

import (
	"fmt"
	"strconv"
	"strings"
)

// ApplicationConfig is the root configuration structure
type ApplicationConfig struct {
	Application ApplicationInfo  `mapstructure:"application"`
	Queue       QueueConfig      `mapstructure:"queue"`
	Producers   ProducersConfig  `mapstructure:"producers"`
	Consumers   []ConsumerConfig `mapstructure:"consumers"`
	Scheduler   SchedulerConfig  `mapstructure:"scheduler"`
	Generator   GeneratorConfig  `mapstructure:"generator"`
	Report      ReportConfig     `mapstructure:"report"`
	Logging     LoggingConfig    `mapstructure:"logging"`
	Metrics     MetricsConfig    `mapstructure:"metrics"`
}

// ApplicationInfo contains application metadata
type ApplicationInfo struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// QueueConfig contains the shared buffer settings
type QueueConfig struct {
	Capacity    int `mapstructure:"capacity"`
	MaxProduced int `mapstructure:"max_produced"`
}

// ProducersConfig contains producer agent settings
type ProducersConfig struct {
	Count int `mapstructure:"count"`
}

// ConsumerConfig describes one consumer agent
type ConsumerConfig struct {
	ID       string `mapstructure:"id"`
	Priority int    `mapstructure:"priority"`
}

// SchedulerConfig contains scheduler hint settings
type SchedulerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Policy  string `mapstructure:"policy"` // rr, nice
}

// GeneratorConfig contains ticket generation settings
type GeneratorConfig struct {
	Holders    bool   `mapstructure:"holders"`
	TimeLayout string `mapstructure:"time_layout"`
	UTC        bool   `mapstructure:"utc"`
}

// ReportConfig contains reporting sink settings
type ReportConfig struct {
	Format string `mapstructure:"format"` // text, cloudevents, none
	Output string `mapstructure:"output"` // stdout, stderr
	Stats  bool   `mapstructure:"stats"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, console
}

// MetricsConfig contains metrics endpoint settings
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// ConsumerIDs returns the configured consumer IDs in order.
func (c *ApplicationConfig) ConsumerIDs() []string {
	ids := make([]string, 0, len(c.Consumers))
	for _, consumer := range c.Consumers {
		ids = append(ids, consumer.ID)
	}
	return ids
}

// ParseConsumers parses a consumer list in the form "1=20,2=40,3=30",
// mapping consumer IDs to priority levels. A bare ID gets priority 0.
func ParseConsumers(list string) ([]ConsumerConfig, error) {
	var consumers []ConsumerConfig
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, level, hasLevel := strings.Cut(part, "=")
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("consumer %q has an empty id", part)
		}

		consumer := ConsumerConfig{ID: id}
		if hasLevel {
			priority, err := strconv.Atoi(strings.TrimSpace(level))
			if err != nil {
				return nil, fmt.Errorf("consumer %q has an invalid priority: %w", part, err)
			}
			consumer.Priority = priority
		}
		consumers = append(consumers, consumer)
	}

	if len(consumers) == 0 {
		return nil, fmt.Errorf("no consumers in %q", list)
	}
	return consumers, nil
}
