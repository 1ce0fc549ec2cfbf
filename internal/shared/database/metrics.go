package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

const startKey = "metrics:start"

// QueryRecorder receives the duration of each gorm operation.
type QueryRecorder interface {
	RecordDBQuery(operation string, duration time.Duration)
}

// InstrumentQueries registers gorm callbacks reporting query durations to rec.
func InstrumentQueries(db *gorm.DB, rec QueryRecorder) error {
	cb := db.Callback()
	type hook struct {
		op     string
		before func(name string, fn func(*gorm.DB)) error
		after  func(name string, fn func(*gorm.DB)) error
	}
	hooks := []hook{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, h := range hooks {
		op := h.op
		if err := h.before("metrics:before_"+op, func(tx *gorm.DB) {
			tx.InstanceSet(startKey, time.Now())
		}); err != nil {
			return fmt.Errorf("register %s metrics callback: %w", op, err)
		}
		if err := h.after("metrics:after_"+op, func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(startKey)
			if !ok {
				return
			}
			if start, ok := v.(time.Time); ok {
				rec.RecordDBQuery(op, time.Since(start))
			}
		}); err != nil {
			return fmt.Errorf("register %s metrics callback: %w", op, err)
		}
	}
	return nil
}
