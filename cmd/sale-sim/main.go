package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"presale/config"
	"presale/observability"
	"presale/observability/logging"
)

func main() {
	configPath := flag.String("config", "./sale.toml", "Path to sale configuration file")
	scenarioPath := flag.String("scenario", "", "Path to YAML scenario to replay")
	initOnly := flag.Bool("init", false, "Write the configuration file (defaults when missing) and exit")
	logLevel := flag.String("log-level", "info", "Minimum log level (debug, info, warn, error)")
	dumpMetrics := flag.Bool("metrics", false, "Print Prometheus metrics to stderr after the run")
	flag.Parse()

	if err := run(*configPath, *scenarioPath, *initOnly, *logLevel, *dumpMetrics); err != nil {
		fmt.Fprintf(os.Stderr, "sale-sim: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, scenarioPath string, initOnly bool, logLevel string, dumpMetrics bool) error {
	cfg, err := config.LoadSale(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if initOnly {
		fmt.Fprintf(os.Stderr, "configuration ready at %s\n", configPath)
		return nil
	}
	if scenarioPath == "" {
		return fmt.Errorf("-scenario is required")
	}

	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logger := logging.SetupWriter(os.Stderr, cfg.Logging.Service, cfg.Logging.Env, level)

	scenario, err := LoadScenario(scenarioPath)
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.SaleMetrics()
	runner, err := NewRunner(cfg, os.Stdout, logger, metrics)
	if err != nil {
		return fmt.Errorf("failed to deploy sale: %w", err)
	}
	logger.Info("replaying scenario", "scenario", scenario.Name, "steps", len(scenario.Steps))
	summary, runErr := runner.Run(ctx, scenario)

	output, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	fmt.Fprintln(os.Stderr, string(output))

	if dumpMetrics {
		if err := writeMetrics(os.Stderr, prometheus.DefaultGatherer); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return runErr
}

func writeMetrics(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, family := range families {
		if err := enc.Encode(family); err != nil {
			return err
		}
	}
	return nil
}
