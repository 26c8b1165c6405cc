package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/imamik/siteforge/internal/errdefs"
)

// Rotation limits for the log file.
const (
	fileMaxSizeMB  = 10
	fileMaxBackups = 5
	fileMaxAgeDays = 14
)

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn or error. Empty means info.
	Level string
	// Verbose forces debug level.
	Verbose bool
	// File enables a rotating JSON log at this path.
	File string
	// Console receives the human-readable stream. Defaults to stderr.
	Console io.Writer
	// Color forces colored levels. When nil, color is used on terminals.
	Color *bool
}

// Logger is the configured logger together with the zap core backing it.
type Logger struct {
	logr.Logger
	zap  *zap.Logger
	file *lumberjack.Logger
}

// Close flushes buffered entries and closes the log file.
func (l *Logger) Close() error {
	_ = l.zap.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// ParseLevel maps a level name to a zap level.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, errdefs.Newf(errdefs.KindValidation, "parse log level",
		"unknown log level %q (expected debug, info, warn or error)", s)
}

// New builds a Logger from opts.
func New(opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	color := isTerminal(console)
	if opts.Color != nil {
		color = *opts.Color
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig(color)), zapcore.AddSync(console), level),
	}

	var file *lumberjack.Logger
	if opts.File != "" {
		file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    fileMaxSizeMB,
			MaxBackups: fileMaxBackups,
			MaxAge:     fileMaxAgeDays,
			LocalTime:  true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig()), zapcore.AddSync(file), level))
	}

	z := zap.New(zapcore.NewTee(cores...))
	return &Logger{Logger: zapr.NewLogger(z), zap: z, file: file}, nil
}

// Must is New for command setup where a bad level is a programming error.
func Must(opts Options) *Logger {
	l, err := New(opts)
	if err != nil {
		panic(fmt.Sprintf("logging: %v", err))
	}
	return l
}

func consoleEncoderConfig(color bool) zapcore.EncoderConfig {
	level := zapcore.CapitalLevelEncoder
	if color {
		level = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.EncoderConfig{
		TimeKey:          "T",
		LevelKey:         "L",
		NameKey:          "N",
		MessageKey:       "M",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      level,
		EncodeTime:       zapcore.TimeEncoderOfLayout(time.TimeOnly),
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: " ",
	}
}

func fileEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	return cfg
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
