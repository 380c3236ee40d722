package db

import (
	"gorm.io/gorm/logger"
)

// NewLogger maps the application log level onto gorm's logger. SQL tracing
// only shows up at debug and below; warnings and errors always surface.
func NewLogger(level string) logger.Interface {
	switch level {
	case "trace", "debug":
		return logger.Default.LogMode(logger.Info)
	case "warn":
		return logger.Default.LogMode(logger.Warn)
	case "error":
		return logger.Default.LogMode(logger.Error)
	}
	return logger.Default.LogMode(logger.Silent)
}
