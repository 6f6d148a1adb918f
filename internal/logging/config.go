package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Config describes where and how a Logger writes.
type Config struct {
	Level  string // debug, info, warn, error, fatal
	Format string // json or text
	Output string // stdout, stderr or a file path

	// Fields are attached to every entry, e.g. service and environment
	Fields map[string]interface{}
}

var levelNames = map[string]LogLevel{
	"DEBUG":   DebugLevel,
	"INFO":    InfoLevel,
	"WARN":    WarnLevel,
	"WARNING": WarnLevel,
	"ERROR":   ErrorLevel,
	"FATAL":   FatalLevel,
}

// NewLogger builds a Logger from cfg. A nil cfg gives an info-level JSON
// logger on stderr.
func NewLogger(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	format := strings.ToLower(cfg.Format)
	switch format {
	case "":
		format = FormatJSON
	case FormatJSON, FormatText:
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	output, err := openOutput(cfg.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to open log output: %w", err)
	}

	logger := NewWithFormat(ParseLevel(cfg.Level), format, output)
	if len(cfg.Fields) > 0 {
		logger = logger.WithFields(cfg.Fields)
	}
	return logger, nil
}

// ParseLevel converts a level name to LogLevel. Unknown names map to
// InfoLevel.
func ParseLevel(level string) LogLevel {
	if l, ok := levelNames[strings.ToUpper(strings.TrimSpace(level))]; ok {
		return l
	}
	return InfoLevel
}

func openOutput(output string) (io.Writer, error) {
	switch output {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}
	return os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
