package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RunRecord is one completed backtest run.
type RunRecord struct {
	ID         string `gorm:"primaryKey"`
	StartedAt  time.Time
	FinishedAt time.Time
	Events     int
	Strategies string
	Venues     string
}

// FillRecord is one fill produced during a run.
type FillRecord struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	RunID      string `gorm:"index"`
	OrderID    string
	PositionID string
	Symbol     string
	Side       string
	Price      string
	Quantity   string
	FilledAt   time.Time
}

// BalanceRecord is one final account balance of a run.
type BalanceRecord struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	RunID    string `gorm:"index"`
	Venue    string
	Currency string
	Amount   string
}

// Store persists run results to SQLite.
type Store struct {
	db *gorm.DB
}

// NewStore opens (or creates) the results database at path.
func NewStore(path string) (*Store, error) {
	dbDir := filepath.Dir(path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&RunRecord{}, &FillRecord{}, &BalanceRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// SaveRun writes a run with its fills and final balances atomically.
func (s *Store) SaveRun(run RunRecord, fills []FillRecord, balances []BalanceRecord) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return err
		}
		for i := range fills {
			fills[i].RunID = run.ID
		}
		if len(fills) > 0 {
			if err := tx.Create(&fills).Error; err != nil {
				return err
			}
		}
		for i := range balances {
			balances[i].RunID = run.ID
		}
		if len(balances) > 0 {
			if err := tx.Create(&balances).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Run retrieves one run by ID. Not found is not an error.
func (s *Store) Run(id string) (*RunRecord, error) {
	var run RunRecord
	err := s.db.First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &run, err
}

// Runs retrieves all runs, most recent first.
func (s *Store) Runs() ([]RunRecord, error) {
	var runs []RunRecord
	err := s.db.Order("started_at desc").Find(&runs).Error
	return runs, err
}

// Fills retrieves the fills of one run in fill order.
func (s *Store) Fills(runID string) ([]FillRecord, error) {
	var fills []FillRecord
	err := s.db.Where("run_id = ?", runID).Order("id").Find(&fills).Error
	return fills, err
}

// Balances retrieves the final balances of one run.
func (s *Store) Balances(runID string) ([]BalanceRecord, error) {
	var balances []BalanceRecord
	err := s.db.Where("run_id = ?", runID).Order("id").Find(&balances).Error
	return balances, err
}
