package main

import (
	"context"
	"os"

	clientcmd "github.com/rivetq/rivet/internal/cmd/client"
	logpkg "github.com/rivetq/rivet/pkg/log"
)

func main() {
	// Respect RIVET_LOG_LEVEL / RIVET_LOG_FORMAT for all command output.
	level := os.Getenv("RIVET_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	format := logpkg.TextFormat
	if os.Getenv("RIVET_LOG_FORMAT") == "json" {
		format = logpkg.JSONFormat
	}
	logger := logpkg.NewLogger(logpkg.WithLevel(parsed), logpkg.WithFormat(format))

	// Interrupt handling is owned by long-running commands themselves;
	// `worker run` drains gracefully on SIGINT/SIGTERM.
	rootCmd := clientcmd.NewRoot(clientcmd.HTTPURLFromEnv)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error("command failed", logpkg.Err(err))
		os.Exit(1)
	}
}
