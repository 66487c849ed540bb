package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	serviceName = "xmrpay"

	defaultLogDirName    = "logs"
	defaultLogFilename   = "app.log"
	defaultLogMaxSizeMB  = 100
	defaultLogMaxBackups = 7
	defaultLogMaxAgeDays = 30
)

// Options 日志输出配置
type Options struct {
	Dir        string
	Filename   string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// L 全局结构化日志实例
var L *zap.Logger

var (
	level = zap.NewAtomicLevel()

	fallbackOnce sync.Once
	fallbackLog  *zap.Logger
)

// Init 初始化全局日志
func Init(mode string, options Options) *zap.Logger {
	L = New(mode, options)
	zap.ReplaceGlobals(L)
	return L
}

// New 创建日志实例
// debug 模式只输出到控制台；其他模式写滚动文件，warn 以上同时输出到 stderr
func New(mode string, options Options) *zap.Logger {
	level.SetLevel(resolveLevel(mode, options.Level))
	encoderConfig := newEncoderConfig()
	console := zapcore.NewConsoleEncoder(encoderConfig)

	var core zapcore.Core
	if isDebugMode(mode) {
		core = zapcore.NewCore(console, zapcore.Lock(os.Stdout), level)
	} else {
		fileSink, err := newFileWriteSyncer(options)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logger init failed, fallback to stdout: %v\n", err)
			fileSink = zapcore.Lock(os.Stdout)
		}
		core = zapcore.NewTee(
			zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), fileSink, level),
			zapcore.NewCore(console, zapcore.Lock(os.Stderr), zap.WarnLevel),
		)
	}
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).With(zap.String("service", serviceName))
}

// SetLevel 运行期调整日志级别
func SetLevel(raw string) {
	level.SetLevel(resolveLevel("", raw))
}

// StdLogger 返回兼容标准库 log 的 logger
func StdLogger() *log.Logger {
	return zap.NewStdLog(Z())
}

// Z 返回可用的结构化日志实例
func Z() *zap.Logger {
	if L != nil {
		return L
	}
	fallbackOnce.Do(func() {
		fallbackLog = zap.New(
			zapcore.NewCore(zapcore.NewConsoleEncoder(newEncoderConfig()), zapcore.Lock(os.Stdout), zap.InfoLevel),
			zap.AddCaller(), zap.AddCallerSkip(1),
		)
	})
	return fallbackLog
}

// S 返回可用的 SugaredLogger
func S() *zap.SugaredLogger {
	return Z().Sugar()
}

// SW 返回带上下文字段的 SugaredLogger
func SW(kv ...interface{}) *zap.SugaredLogger {
	return S().With(kv...)
}

func Debugw(message string, kv ...interface{}) { S().Debugw(message, kv...) }
func Infow(message string, kv ...interface{}) { S().Infow(message, kv...) }
func Warnw(message string, kv ...interface{}) { S().Warnw(message, kv...) }
func Errorw(message string, kv ...interface{}) { S().Errorw(message, kv...) }

func isDebugMode(mode string) bool {
	return strings.EqualFold(strings.TrimSpace(mode), "debug")
}

// resolveLevel 显式配置的级别优先，否则按运行模式推断
func resolveLevel(mode, raw string) zapcore.Level {
	if parsed, err := zapcore.ParseLevel(strings.TrimSpace(raw)); err == nil && strings.TrimSpace(raw) != "" {
		return parsed
	}
	if isDebugMode(mode) {
		return zap.DebugLevel
	}
	return zap.InfoLevel
}

func newEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.MessageKey = "message"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.MillisDurationEncoder
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return cfg
}

func newFileWriteSyncer(options Options) (zapcore.WriteSyncer, error) {
	path, err := resolveLogFilePath(options)
	if err != nil {
		return nil, err
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    orDefault(options.MaxSizeMB, defaultLogMaxSizeMB),
		MaxBackups: orDefault(options.MaxBackups, defaultLogMaxBackups),
		MaxAge:     orDefault(options.MaxAgeDays, defaultLogMaxAgeDays),
		Compress:   options.Compress,
	}), nil
}

// resolveLogFilePath 确保目录存在且文件可写
func resolveLogFilePath(options Options) (string, error) {
	dir := strings.TrimSpace(options.Dir)
	if dir == "" {
		dir = defaultLogDirName
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve log dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create log dir: %w", err)
	}
	filename := strings.TrimSpace(options.Filename)
	if filename == "" {
		filename = defaultLogFilename
	}
	path := filepath.Join(dir, filename)
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open log file: %w", err)
	}
	return path, file.Close()
}

func orDefault(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}
