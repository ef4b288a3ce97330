package domain

import "time"

// Entry is one row of the durable key-value table. The journal keeps its
// whole state in a handful of entries (orders, debts, deleted snapshots and
// the migration marker), each value being a JSON document or a plain tag.
type Entry struct {
	Key       string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Value     string    `gorm:"type:TEXT NOT NULL"`
	UpdatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoUpdateTime;index"`
}

// TableName implements the GORM tabler interface.
func (Entry) TableName() string { return "kv_entries" }
