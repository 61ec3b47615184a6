// Package store persists analytics snapshots through gorm. It is an
// optional best-effort cache: no DSN configured means no store, and a
// write failure never fails the request that produced the snapshot.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

// Snapshot is one persisted analytics payload.
type Snapshot struct {
	ID         uint            `gorm:"primaryKey"`
	Kind       string          `gorm:"column:kind;index"`
	Payload    json.RawMessage `gorm:"column:payload"`
	CapturedAt time.Time       `gorm:"column:captured_at;index"`
}

func (Snapshot) TableName() string {
	return "snapshots"
}

// Open connects to the configured backend. driver is "sqlite" or
// "postgres"; for sqlite the dsn is a file path and parent directories are
// created as needed.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector

	switch driver {
	case "sqlite", "":
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s store: %w", driver, err)
	}

	if err := db.AutoMigrate(&Snapshot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate snapshots table: %w", err)
	}

	return &Store{db: db}, nil
}

// Save marshals and persists one snapshot. Best effort by contract: the
// caller logs and moves on when this fails.
func (s *Store) Save(kind string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s snapshot: %w", kind, err)
	}

	snapshot := Snapshot{
		Kind:       kind,
		Payload:    data,
		CapturedAt: time.Now().UTC(),
	}
	if err := s.db.Create(&snapshot).Error; err != nil {
		return fmt.Errorf("failed to save %s snapshot: %w", kind, err)
	}

	log.WithFields(log.Fields{"kind": kind, "bytes": len(data)}).Debug("snapshot saved")
	return nil
}

// Latest returns the most recent snapshot of a kind, or nil when none
// exists.
func (s *Store) Latest(kind string) (*Snapshot, error) {
	var snapshot Snapshot
	result := s.db.Where("kind = ?", kind).Order("captured_at DESC, id DESC").First(&snapshot)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, result.Error
	}
	return &snapshot, nil
}

// Prune deletes snapshots older than the retention window.
func (s *Store) Prune(olderThan time.Duration) error {
	cutoff := time.Now().UTC().Add(-olderThan)
	return s.db.Where("captured_at < ?", cutoff).Delete(&Snapshot{}).Error
}
