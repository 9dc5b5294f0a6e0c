package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

/*
使用 zap.Logger: 如果你的应用程序对性能要求很高，或者你需要记录结构化日志
（例如，日志需要被机器解析），那么使用 zap.Logger 是更好的选择。
使用 zap.SugaredLogger: 如果你更关注开发的便利性，或者你的日志记录需求相
对简单，zap.SugaredLogger 提供了更友好的接口。
*/

// LogConfig 日志配置。配置解析发生在日志初始化之前，
// 因此这里直接接收参数而不是从全局配置读取，由 runtime 负责衔接。
type LogConfig struct {
	Path          string
	ConsoleOutput bool
	Level         string
	FileOutput    bool
	MaxSize       int // 日志文件最大大小，单位MB
	InfoMaxAge    int // info日志保留时间，单位天
	ErrorMaxAge   int // error日志保留时间，单位天
	MaxBackups    int
	Compress      bool
}

// DefaultLogConfig 返回本地开发可用的默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Path:          "logs",
		ConsoleOutput: true,
		Level:         "info",
		FileOutput:    false,
		MaxSize:       100,
		InfoMaxAge:    7,
		ErrorMaxAge:   30,
		MaxBackups:    10,
		Compress:      true,
	}
}

// Setup 初始化全局日志记录器，放在程序运行前执行
func Setup(config LogConfig) {
	// 配置日志编码器
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	// 解析日志级别
	var logLevel zapcore.Level
	err := logLevel.UnmarshalText([]byte(config.Level))
	if err != nil {
		// 默认使用info级别
		logLevel = zapcore.InfoLevel
	}

	// 准备写入同步器列表
	var cores []zapcore.Core

	if config.FileOutput {
		// 根据配置的日志级别决定是否添加infoCore
		if logLevel <= zapcore.InfoLevel {
			infoCore := zapcore.NewCore(
				zapcore.NewJSONEncoder(encoderConfig),
				getInfoLogWriter(config),
				zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
					return lvl >= logLevel && lvl < zapcore.ErrorLevel
				}),
			)
			cores = append(cores, infoCore)
		}

		// 始终添加errorCore
		errorCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			getErrorLogWriter(config),
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
				return lvl >= zapcore.ErrorLevel
			}),
		)
		cores = append(cores, errorCore)
	}

	// 根据配置决定是否输出到控制台
	if config.ConsoleOutput {
		// 创建控制台编码器配置
		consoleEncoderConfig := encoderConfig
		consoleEncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

		// 创建控制台core
		consoleCore := zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleEncoderConfig),
			zapcore.AddSync(os.Stdout),
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
				return lvl >= logLevel
			}),
		)
		cores = append(cores, consoleCore)
	}

	// 如果没有任何core，添加一个空core防止panic
	if len(cores) == 0 {
		nullCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(io.Discard),
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
				return false // 不记录任何日志
			}),
		)
		cores = append(cores, nullCore)
	}

	// 创建logger
	core := zapcore.NewTee(cores...)

	// 创建 logger 实例
	Logger = zap.New(core, zap.AddCaller())
	// 创建一个简易输出的 SugarLogger 实例
	DefaultLogger = Logger.Sugar()
}

// 创建info日志文件写入器
func getInfoLogWriter(config LogConfig) zapcore.WriteSyncer {
	lumberJackLogger := &lumberjack.Logger{
		Filename:   config.Path + "/info.log",
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.InfoMaxAge,
		Compress:   config.Compress,
	}
	return zapcore.AddSync(lumberJackLogger)
}

// 创建error日志文件写入器
func getErrorLogWriter(config LogConfig) zapcore.WriteSyncer {
	lumberJackLogger := &lumberjack.Logger{
		Filename:   config.Path + "/error.log",
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.ErrorMaxAge,
		Compress:   config.Compress,
	}
	return zapcore.AddSync(lumberJackLogger)
}
