package logger

import (
	"alertflow/conf"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 全局日志实例，InitLogger 之前使用 nop，保证测试和工具代码可以直接调用
var (
	zl    = zap.NewNop()
	sugar = zl.Sugar()
)

// InitLogger 初始化zap日志，文件按 lumberjack 规则切割
func InitLogger(cfg *conf.LogConfig, appName string) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	layout := cfg.TimeFormat
	if layout == "" {
		layout = time.RFC3339
	}
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(layout)
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	level := parseLevel(cfg.Level)

	var cores []zapcore.Core
	if cfg.FileName != "" {
		writer := &lumberjack.Logger{
			Filename:   cfg.FileName,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
			LocalTime:  cfg.LocalTime,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(writer), level))
	}
	if cfg.Console || len(cores) == 0 {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), level))
	}

	zl = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1)).
		With(zap.String("app", appName))
	sugar = zl.Sugar()
}

func parseLevel(l string) zapcore.Level {
	switch strings.ToLower(l) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// L 返回底层 zap.Logger
func L() *zap.Logger {
	return zl
}

// Pair 构造一个结构化字段
func Pair(key string, v any) zap.Field {
	return zap.Any(key, v)
}

func Debug(msg string, fields ...zap.Field) { zl.Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { zl.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { zl.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { zl.Error(msg, fields...) }

func Debugf(format string, args ...any) { sugar.Debugf(format, args...) }
func Infof(format string, args ...any)  { sugar.Infof(format, args...) }
func Warnf(format string, args ...any)  { sugar.Warnf(format, args...) }
func Errorf(format string, args ...any) { sugar.Errorf(format, args...) }

// Fatal 记录日志后退出进程
func Fatal(args ...any) {
	sugar.Fatal(args...)
}

func Fatalf(format string, args ...any) {
	sugar.Fatalf(format, args...)
}

// Sync 刷新缓冲区，进程退出前调用
func Sync() {
	if err := zl.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "logger sync: %v\n", err)
	}
}
