package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/deepgram/grokgate/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

func parseLevel(level string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func newWriter(cfg config.LogConfig, stdout io.Writer) io.Writer {
	var out io.Writer = stdout
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: stdout, TimeFormat: time.RFC3339}
	}

	if cfg.File == "" {
		return out
	}

	// the file always receives JSON so it stays machine readable
	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   true,
	}
	return zerolog.MultiLevelWriter(out, file)
}

// Setup configures the global zerolog logger from cfg
func Setup(cfg config.LogConfig) {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(newWriter(cfg, os.Stdout)).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log.Logger
}
