package logging

import (
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// gocronLogger implements gocron.Logger on top of zap
type gocronLogger struct {
	sugar *zap.SugaredLogger
}

// NewGocronLogger returns a gocron.Logger writing to logger
func NewGocronLogger(logger *zap.Logger) gocron.Logger {
	return &gocronLogger{sugar: logger.Named("scheduler").Sugar()}
}

func (l *gocronLogger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }
func (l *gocronLogger) Info(msg string, args ...any)  { l.sugar.Infow(msg, args...) }
func (l *gocronLogger) Warn(msg string, args ...any)  { l.sugar.Warnw(msg, args...) }
func (l *gocronLogger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }
