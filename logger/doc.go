// Package logger provides structured logging on top of zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with structured fields. WithContext copies the
// active OpenTelemetry trace and span IDs onto every line.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//	  output: "stderr"
//
// # Usage
//
//	log := logger.Get("apify")
//	log.Info("run started", logger.Fields("actor_id", id))
package logger
