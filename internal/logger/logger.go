// internal/logger/logger.go
//
// Zap logger with Lumberjack file rotation.
//
// Context
// -------
// Lifecycle, upstream, and access events land in a daily JSON file,
// `<root>/logs/YYYY-MM-DD.log`, rotated and pruned in-process by Lumberjack.
// Interactive runs also get a human-readable copy on stdout.  Every entry
// carries `service=pagesmith` so a shared collector can split streams.
//
// Usage
// -----
//
//	opts := logger.Options{Level: cfg.Log.Level, Tee: logger.IsTTY()}
//	log, err := logger.New(cfg.Paths.Root, opts)
//	log.Infow("design operation applied", "op", "deploy", "subdomain", sub)
//
// Notes
// -----
// • Zero-valued rotation fields fall back to 50 MB, 7 backups, and 14 days.
// • zap's own internal errors go to the file sink, not stderr.
// • Oxford commas, two spaces after periods.
package logger

import (
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options tunes New.  Level is "debug", "info", "warn", or "error"; empty
// means info.
type Options struct {
	Level      string
	Tee        bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func (o Options) withDefaults() Options {
	if o.MaxSizeMB <= 0 {
		o.MaxSizeMB = 50
	}
	if o.MaxBackups <= 0 {
		o.MaxBackups = 7
	}
	if o.MaxAgeDays <= 0 {
		o.MaxAgeDays = 14
	}
	return o
}

var encoderConfig = zapcore.EncoderConfig{
	TimeKey:      "ts",
	LevelKey:     "level",
	NameKey:      "logger",
	MessageKey:   "msg",
	CallerKey:    "caller",
	EncodeTime:   zapcore.ISO8601TimeEncoder,
	EncodeLevel:  zapcore.LowercaseLevelEncoder,
	EncodeCaller: zapcore.ShortCallerEncoder,
	EncodeName:   zapcore.FullNameEncoder,
}

// New builds the process logger under rootDir/logs and installs it as the
// zap global.
func New(rootDir string, opts Options) (*zap.SugaredLogger, error) {
	opts = opts.withDefaults()

	var lvl zapcore.Level
	if opts.Level != "" {
		if err := lvl.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, err
		}
	}

	dir := filepath.Join(rootDir, "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(dir, time.Now().Format("2006-01-02")+".log"),
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	})

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), sink, lvl)
	if opts.Tee {
		console := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stdout), lvl)
		core = zapcore.NewTee(core, console)
	}

	base := zap.New(core,
		zap.AddCaller(),
		zap.ErrorOutput(sink),
		zap.Fields(zap.String("service", "pagesmith")),
	)
	zap.ReplaceGlobals(base)

	log := base.Sugar()
	log.Infow("logger online", "tee", opts.Tee, "level", lvl.String(), "dir", dir)
	return log, nil
}

// Bootstrap installs a console logger for the window before config is
// loaded, so early failures are visible.
func Bootstrap() *zap.SugaredLogger {
	z, err := zap.NewDevelopment()
	if err != nil {
		z = zap.NewNop()
	}
	zap.ReplaceGlobals(z)
	return z.Sugar()
}

// IsTTY reports whether stdout is an interactive terminal.
func IsTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
