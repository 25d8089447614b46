package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/jittakal/ticketbuffer/internal/config"
	"github.com/jittakal/ticketbuffer/internal/config/dto"
	"github.com/jittakal/ticketbuffer/internal/generator"
	"github.com/jittakal/ticketbuffer/internal/metrics"
	"github.com/jittakal/ticketbuffer/internal/observability"
	"github.com/jittakal/ticketbuffer/internal/pipeline"
	"github.com/jittakal/ticketbuffer/internal/report"
	"github.com/jittakal/ticketbuffer/internal/sched"
	"github.com/jittakal/ticketbuffer/internal/server"
	"github.com/jittakal/ticketbuffer/internal/stats"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "ticketbuffer: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("ticketbuffer", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to configuration file")
	consumersFlag := fs.String("consumers", "", `consumer ids and priority levels, e.g. "1=20,2=40,3=30"`)
	config.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Priority: CLI flag > CONFIG_PATH env var > default path
	cfgPath := *configPath
	if cfgPath == "" {
		if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
			cfgPath = envPath
		} else {
			cfgPath = "config/ticketbuffer.yaml"
		}
	}

	loader := config.NewLoader()
	if err := loader.BindFlags(fs); err != nil {
		return err
	}
	cfg, err := loader.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if *consumersFlag != "" {
		consumers, err := dto.ParseConsumers(*consumersFlag)
		if err != nil {
			return fmt.Errorf("invalid --consumers: %w", err)
		}
		cfg.Consumers = consumers
		if err := loader.Validate(cfg); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}

	logger, err := observability.NewLogger(observability.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting ticketbuffer",
		zap.String("version", cfg.Application.Version),
		zap.String("config", cfgPath),
	)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	sink, err := report.NewSink(cfg.Report.Format, selectOutput(cfg.Report.Output, stdout, stderr))
	if err != nil {
		return err
	}

	gen := generator.NewGenerator(cfg.Generator, logger)

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithSink(sink),
		pipeline.WithFactory(gen.NewTicket),
		pipeline.WithRecorder(collector),
		pipeline.WithMetrics(collector),
	}
	if cfg.Scheduler.Enabled {
		hinter, err := sched.NewHinter(cfg.Scheduler.Policy)
		if err != nil {
			return err
		}
		opts = append(opts, pipeline.WithHinter(hinter))
	}

	p, err := pipeline.New(pipelineConfig(cfg), opts...)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	if cfg.Metrics.Enabled {
		httpServer := server.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, p, registry, logger)
		if err := httpServer.Start(); err != nil {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = httpServer.Shutdown(ctx)
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := p.Run(ctx)
	if err != nil {
		return err
	}
	collector.ObserveRunDuration(result.Elapsed.Seconds())

	if cfg.Report.Stats {
		if err := stats.Render(stdout, result.Stats, cfg.Queue.MaxProduced); err != nil {
			return err
		}
	}

	logger.Info("ticketbuffer stopped",
		zap.Int("total_produced", result.TotalProduced),
		zap.Int("remaining", result.Remaining),
	)
	return nil
}

func pipelineConfig(cfg *dto.ApplicationConfig) pipeline.Config {
	consumers := make([]pipeline.ConsumerSpec, 0, len(cfg.Consumers))
	for _, c := range cfg.Consumers {
		consumers = append(consumers, pipeline.ConsumerSpec{ID: c.ID, Priority: c.Priority})
	}
	return pipeline.Config{
		Capacity:    cfg.Queue.Capacity,
		MaxProduced: cfg.Queue.MaxProduced,
		Producers:   cfg.Producers.Count,
		Consumers:   consumers,
	}
}

func selectOutput(name string, stdout, stderr io.Writer) io.Writer {
	if name == "stderr" {
		return stderr
	}
	return stdout
}
