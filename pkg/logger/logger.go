package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is replaced by InitLogger; the no-op default keeps packages usable in tests.
var Logger = zap.NewNop()

type Options struct {
	// File enables a rotating file sink. Empty logs to stdout.
	File       string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func InitLogger(opts Options) error {
	level := zap.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return err
		}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfig)

	writeSyncer := zapcore.AddSync(os.Stdout)
	if opts.File != "" {
		writeSyncer = zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 30),
			Compress:   true,
		})
	}

	core := zapcore.NewCore(encoder, writeSyncer, level)
	Logger = zap.New(core, zap.AddCaller())
	return nil
}

func Sync() {
	_ = Logger.Sync()
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
