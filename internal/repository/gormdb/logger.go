package gormdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alcyxob/ai-reports/internal/logger"

	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const slowQueryThreshold = time.Second

// zapGormLogger sends gorm's output through the application logger.
type zapGormLogger struct {
	log   *logger.Logger
	level gormLogger.LogLevel
	slow  time.Duration
}

func newGormLogger(log *logger.Logger) gormLogger.Interface {
	if log == nil {
		log = logger.Nop()
	}
	return zapGormLogger{log: log.With("component", "gorm"), level: gormLogger.Warn, slow: slowQueryThreshold}
}

func (l zapGormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	l.level = level
	return l
}

func (l zapGormLogger) Info(_ context.Context, s string, args ...interface{}) {
	if l.level >= gormLogger.Info {
		l.log.Info(fmt.Sprintf(s, args...))
	}
}

func (l zapGormLogger) Warn(_ context.Context, s string, args ...interface{}) {
	if l.level >= gormLogger.Warn {
		l.log.Warn(fmt.Sprintf(s, args...))
	}
}

func (l zapGormLogger) Error(_ context.Context, s string, args ...interface{}) {
	if l.level >= gormLogger.Error {
		l.log.Error(fmt.Sprintf(s, args...))
	}
}

func (l zapGormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormLogger.Error:
		sql, rows := fc()
		l.log.Error("gorm query failed", "duration", elapsed, "rows", rows, "sql", sql, "error", err)
	case elapsed > l.slow && l.slow > 0 && l.level >= gormLogger.Warn:
		sql, rows := fc()
		l.log.Warn("gorm slow query", "duration", elapsed, "rows", rows, "sql", sql)
	case l.level >= gormLogger.Info:
		sql, rows := fc()
		l.log.Debug("gorm query", "duration", elapsed, "rows", rows, "sql", sql)
	}
}
