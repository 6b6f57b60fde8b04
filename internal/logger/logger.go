// Package logger configures the global zerolog logger.
package logger

import (
	"fmt"
	"io"
	"os"

	"quizontal-backend/internal/config"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup installs the global logger described by cfg. The returned closer
// flushes the Fluent connection when one is configured.
func Setup(cfg config.LogConfig) (io.Closer, error) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	var out io.Writer = os.Stderr
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	if !cfg.Fluent.Enabled {
		log.Logger = log.Output(out)
		return nopCloser{}, nil
	}

	client, err := fluent.New(fluent.Config{
		FluentHost: cfg.Fluent.Host,
		FluentPort: cfg.Fluent.Port,
		TagPrefix:  cfg.Fluent.TagPrefix,
		Async:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to fluent: %w", err)
	}

	fw := NewFluentWriter(client)
	log.Logger = log.Output(zerolog.MultiLevelWriter(out, fw))
	return fw, nil
}

// ParseLevel maps a config level name to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Poster sends one record to a log collector
type Poster interface {
	Post(tag string, message interface{}) error
	Close() error
}

// FluentWriter forwards zerolog JSON lines to Fluent, tagged by level
type FluentWriter struct {
	client Poster
}

// NewFluentWriter wraps a Fluent client
func NewFluentWriter(client Poster) *FluentWriter {
	return &FluentWriter{client: client}
}

func (w *FluentWriter) Write(p []byte) (int, error) {
	record, ok := gjson.ParseBytes(p).Value().(map[string]interface{})
	if !ok {
		return len(p), nil
	}

	tag := gjson.GetBytes(p, zerolog.LevelFieldName).String()
	if tag == "" {
		tag = "log"
	}
	if err := w.client.Post(tag, record); err != nil {
		return 0, fmt.Errorf("failed to post log record: %w", err)
	}
	return len(p), nil
}

func (w *FluentWriter) Close() error {
	return w.client.Close()
}
