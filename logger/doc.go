// Package logger provides structured logging for the transcription service
// using zerolog.
//
// It supports JSON and console output formats, level configuration, and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("pipeline")
//	log.Info("transcription complete", logger.Fields("chunks", 3))
package logger
