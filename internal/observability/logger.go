// Package observability builds the zap loggers used by the client and the server.
package observability

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// Log output formats.
const (
	FormatAuto    = "auto"
	FormatJSON    = "json"
	FormatConsole = "console"
)

// NewLogger builds a logger writing to stderr. With format "auto" the console
// encoder is used when stderr is a terminal and JSON otherwise.
func NewLogger(level, format string) (*zap.Logger, error) {
	return newLogger(level, format, os.Stderr, term.IsTerminal(int(os.Stderr.Fd())))
}

// NewLoggerTo builds a logger writing to w. isTTY stands in for terminal
// detection when format is "auto".
func NewLoggerTo(w io.Writer, level, format string, isTTY bool) (*zap.Logger, error) {
	return newLogger(level, format, w, isTTY)
}

func newLogger(level, format string, w io.Writer, isTTY bool) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	encoder, err := newEncoder(format, isTTY)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(w)), lvl)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func newEncoder(format string, isTTY bool) (zapcore.Encoder, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatAuto:
		if isTTY {
			return consoleEncoder(), nil
		}
		return jsonEncoder(), nil
	case FormatJSON:
		return jsonEncoder(), nil
	case FormatConsole:
		return consoleEncoder(), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

func jsonEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(cfg)
}

func consoleEncoder() zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

// ParseLevel converts a level name into a zap level. An empty name means info.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug", "trace":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}
