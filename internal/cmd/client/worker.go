package client

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/rivetq/rivet/internal/config"
	"github.com/rivetq/rivet/pkg/log"
	"github.com/rivetq/rivet/pkg/worker"
)

// NewWorkerCommand constructs the `worker` command group.
func NewWorkerCommand(baseURL BaseURLFunc) *cobra.Command {
	workerCmd := &cobra.Command{
		Use:   "worker",
		Short: "Worker operations",
	}
	workerCmd.AddCommand(
		newWorkerListCommand(baseURL),
		newWorkerRunCommand(),
	)
	return workerCmd
}

// newWorkerListCommand constructs the `worker list` subcommand.
func newWorkerListCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List connected workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			workers, err := newAPIClient(baseURL).ListWorkers(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, workers)
		},
	}
}

// newWorkerRunCommand constructs the `worker run` subcommand. It starts an
// echo worker: each task's input is returned as its output after an optional
// simulated delay. Useful for smoke-testing a queue end to end.
func newWorkerRunCommand() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run an echo worker against a queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			if configPath == "" {
				configPath = config.DefaultPath()
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			config.FromEnv(&cfg)

			if v, _ := cmd.Flags().GetString("server"); v != "" {
				cfg.ServerURL = v
			}
			if v, _ := cmd.Flags().GetString("name"); v != "" {
				cfg.Worker.Name = v
			}
			if v, _ := cmd.Flags().GetStringSlice("queue"); len(v) > 0 {
				cfg.Worker.Queues = v
			}
			if cmd.Flags().Changed("concurrency") {
				cfg.Worker.Concurrency, _ = cmd.Flags().GetInt("concurrency")
			}
			if v, _ := cmd.Flags().GetString("metrics-addr"); v != "" {
				cfg.MetricsAddr = v
			}
			sleepMs, _ := cmd.Flags().GetInt("sleep-ms")

			level, err := log.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			format := log.TextFormat
			if cfg.LogFormat == "json" {
				format = log.JSONFormat
			}
			logger := log.NewLogger(log.WithLevel(level), log.WithFormat(format))

			var metrics *worker.Metrics
			if cfg.MetricsAddr != "" {
				reg := prometheus.NewRegistry()
				metrics = worker.NewMetrics(reg)
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
				go func() {
					logger.Info("metrics listening", log.Str("addr", cfg.MetricsAddr))
					if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
						logger.Error("metrics server stopped", log.Err(err))
					}
				}()
			}

			w, err := worker.New(worker.Config{
				Name:              cfg.Worker.Name,
				ServerURL:         cfg.ServerURL,
				Queues:            cfg.Worker.Queues,
				Concurrency:       cfg.Worker.Concurrency,
				Handler:           echoHandler(time.Duration(sleepMs) * time.Millisecond),
				Logger:            logger,
				Metrics:           metrics,
				HeartbeatInterval: time.Duration(cfg.Worker.HeartbeatSeconds) * time.Second,
				DrainTimeout:      time.Duration(cfg.Worker.DrainSeconds) * time.Second,
			})
			if err != nil {
				return err
			}
			return w.Run(cmd.Context())
		},
	}
	runCmd.Flags().String("config", "", "Config file (JSON or YAML)")
	runCmd.Flags().String("server", "", "Session endpoint (ws:// or wss://)")
	runCmd.Flags().String("name", "", "Worker display name")
	runCmd.Flags().StringSliceP("queue", "q", nil, "Queue to consume (repeatable)")
	runCmd.Flags().Int("concurrency", 0, "Concurrent task limit")
	runCmd.Flags().String("metrics-addr", "", "Serve prometheus metrics on this address")
	runCmd.Flags().Int("sleep-ms", 0, "Simulated work per task")
	return runCmd
}

// echoHandler returns each task's input as its output.
func echoHandler(delay time.Duration) worker.Handler {
	return func(ctx *worker.TaskContext) (interface{}, error) {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if ctx.RawInput == "" {
			return nil, nil
		}
		var input json.RawMessage
		if err := ctx.Input(&input); err != nil {
			return nil, worker.NewHandlerError("input is not valid JSON: "+err.Error(), false)
		}
		ctx.Log("echoing input")
		return string(input), nil
	}
}
