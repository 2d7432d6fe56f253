// Package log provides Rivet's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. Internally it is backed by Go's
// standard library slog, so output interleaves cleanly with anything else
// writing through slog handlers.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormat(log.TextFormat),
//	)
//	l = l.WithComponent("worker")
//	l.Info("connected", log.Str("server", addr), log.Int("concurrency", 4))
//
// The worker SDK accepts any Logger; tests use NewNopLogger.
package log
