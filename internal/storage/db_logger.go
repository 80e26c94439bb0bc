package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"

	"tg-antijudi/internal/logger"
)

const slowQuery = 200 * time.Millisecond

// GormLogger routes gorm output through the process logger. Statements are
// logged as structured fields.
type GormLogger struct {
	level gormlogger.LogLevel
}

// NewGormLogger maps the configured level onto gorm levels. SQL traces are
// only produced at DEBUG.
func NewGormLogger(level string) gormlogger.Interface {
	l := gormlogger.Error
	switch strings.ToUpper(level) {
	case "DEBUG":
		l = gormlogger.Info
	case "INFO", "WARNING", "WARN":
		l = gormlogger.Warn
	}
	return &GormLogger{level: l}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &GormLogger{level: level}
}

func (l *GormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		logger.Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		logger.Warningf(msg, data...)
	}
}

func (l *GormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		logger.Errorf(msg, data...)
	}
}

// Trace logs one executed statement. A missing row is the normal answer to
// loading a collection that was never written, so it is not an error here.
func (l *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	slow := elapsed >= slowQuery
	if !failed && !slow && l.level < gormlogger.Info {
		return
	}

	sql, rows := fc()
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.String("source", utils.FileWithLineNum()),
		zap.String("sql", sql),
		zap.Int64("rows", rows),
	}
	log := logger.L().WithOptions(zap.AddCallerSkip(-1))

	switch {
	case failed && l.level >= gormlogger.Error:
		log.Error("gorm query failed", append(fields, zap.Error(err))...)
	case slow && l.level >= gormlogger.Warn:
		log.Warn(fmt.Sprintf("gorm slow query >= %s", slowQuery), fields...)
	case l.level >= gormlogger.Info:
		log.Debug("gorm query", fields...)
	}
}
