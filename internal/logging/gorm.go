package logging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSlowThreshold = 200 * time.Millisecond

// gormLogger implements gorm's logger.Interface on top of zap
type gormLogger struct {
	logger        *zap.Logger
	slowThreshold time.Duration
}

// NewGormLogger returns a gorm logger writing to logger
func NewGormLogger(logger *zap.Logger) gormlogger.Interface {
	return &gormLogger{
		logger:        logger.Named("gorm"),
		slowThreshold: defaultSlowThreshold,
	}
}

// LogMode is a no-op, the zap level decides what is written
func (l *gormLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface {
	return l
}

func (l *gormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	l.logger.Info(fmt.Sprintf(msg, data...))
}

func (l *gormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	l.logger.Warn(fmt.Sprintf(msg, data...))
}

func (l *gormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	l.logger.Error(fmt.Sprintf(msg, data...))
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}

	switch {
	case err != nil && errors.Is(err, gorm.ErrRecordNotFound):
		l.logger.Debug("no records found", fields...)
	case err != nil:
		l.logger.Error("query failed", append(fields, zap.Error(err))...)
	case elapsed > l.slowThreshold:
		l.logger.Warn("slow query", append(fields, zap.Duration("threshold", l.slowThreshold))...)
	default:
		l.logger.Debug("query", fields...)
	}
}
