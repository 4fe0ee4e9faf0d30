package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/viper"
)

func loggerFromViper() (*slog.Logger, error) {
	level, err := parseSlogLevel(viper.GetString("logging.level"))
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: viper.GetBool("logging.add_source"),
	}

	var h slog.Handler
	switch strings.ToLower(strings.TrimSpace(viper.GetString("logging.format"))) {
	case "", "text":
		h = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		h = slog.NewJSONHandler(os.Stderr, opts)
	case "dev":
		h = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			AddSource:  opts.AddSource,
			TimeFormat: time.Kitchen,
		})
	default:
		return nil, fmt.Errorf("unknown logging.format: %s", viper.GetString("logging.format"))
	}

	return slog.New(h), nil
}

func parseSlogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown logging.level: %s", s)
	}
}
