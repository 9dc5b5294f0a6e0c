package logger

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// CustomGormLogger 基于zap的GORM日志器，连接池构建时挂到每个gorm.DB上
type CustomGormLogger struct {
	ZapLogger     *zap.Logger
	LogLevel      logger.LogLevel
	SlowThreshold time.Duration
}

// NewGormLogger 创建自定义 GORM 日志器。
// name 用于区分连接池（single_node/master/slave）。
func NewGormLogger(baseLogger *zap.Logger, name string, gormLogLevel int) logger.Interface {
	return &CustomGormLogger{
		ZapLogger:     baseLogger.Named("gorm." + name),
		LogLevel:      logger.LogLevel(gormLogLevel),
		SlowThreshold: 200 * time.Millisecond,
	}
}

// LogMode 设置日志级别
func (l *CustomGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &CustomGormLogger{
		ZapLogger:     l.ZapLogger,
		LogLevel:      level,
		SlowThreshold: l.SlowThreshold,
	}
}

func (l *CustomGormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= logger.Info {
		l.ZapLogger.Sugar().Infof(msg, data...)
	}
}

func (l *CustomGormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= logger.Warn {
		l.ZapLogger.Sugar().Warnf(msg, data...)
	}
}

func (l *CustomGormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= logger.Error {
		l.ZapLogger.Sugar().Errorf(msg, data...)
	}
}

// Trace 记录每条SQL的耗时与影响行数
func (l *CustomGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	if err != nil && l.LogLevel >= logger.Error {
		l.ZapLogger.Sugar().Errorf("SQL错误: %s, 耗时: %v, 影响行数: %d, SQL: %s", err, elapsed, rows, sql)
	} else if elapsed > l.SlowThreshold && l.LogLevel >= logger.Warn {
		l.ZapLogger.Sugar().Warnf("慢SQL: 耗时: %v, 影响行数: %d, SQL: %s", elapsed, rows, sql)
	} else if l.LogLevel >= logger.Info {
		l.ZapLogger.Sugar().Infof("SQL: 耗时: %v, 影响行数: %d, SQL: %s", elapsed, rows, sql)
	}
}
