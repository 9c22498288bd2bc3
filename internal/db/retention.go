package db

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// runRetentionOnce performs a single pass of retention cleanup, deleting
// events older than the retention window.
func runRetentionOnce(gdb *gorm.DB, days int) error {
	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	return gdb.Where("timestamp <= ?", cutoff).Delete(&Event{}).Error
}

// StartRetentionWorker launches a background goroutine that runs the
// retention cleanup once at startup and then once per day. A non-positive
// retention disables the worker.
func StartRetentionWorker(gdb *gorm.DB, days int, log *zap.Logger) {
	if days <= 0 {
		return
	}
	go func() {
		if err := runRetentionOnce(gdb, days); err != nil {
			log.Warn("retention cleanup failed (startup)", zap.Error(err))
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			if err := runRetentionOnce(gdb, days); err != nil {
				log.Warn("retention cleanup failed", zap.Error(err))
			}
		}
	}()
}
