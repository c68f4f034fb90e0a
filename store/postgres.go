package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"reelops/models"
)

// operationRow is the gorm mapping of the operations table.
type operationRow struct {
	ID             uint      `gorm:"column:id;primaryKey;autoIncrement"`
	BatchID        string    `gorm:"column:batch_id;type:text;index"`
	Position       int       `gorm:"column:position;not null;default:0"`
	Date           string    `gorm:"column:date;type:text;not null"`
	Time           string    `gorm:"column:time;type:text;not null"`
	Timeslot       string    `gorm:"column:timeslot;type:text;not null"`
	TechnicianName string    `gorm:"column:technician_name;type:text;not null"`
	ButtonName     string    `gorm:"column:button_name;type:text;not null"`
	Status         string    `gorm:"column:status;type:text;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;not null;index"`
}

func (operationRow) TableName() string { return "operations" }

// GormStore keeps the log in a relational table through gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the operations table.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&operationRow{}); err != nil {
		return nil, fmt.Errorf("migrate operations: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Append(ctx context.Context, records []models.OperationRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]operationRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, operationRow{
			BatchID:        r.BatchID,
			Position:       r.Position,
			Date:           r.Date,
			Time:           r.Time,
			Timeslot:       r.Timeslot,
			TechnicianName: r.TechnicianName,
			ButtonName:     r.ButtonName,
			Status:         r.Status,
			CreatedAt:      r.CreatedAt,
		})
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("insert operations: %w", err)
	}
	return nil
}

func (s *GormStore) List(ctx context.Context) ([]models.OperationRecord, error) {
	var rows []operationRow
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	records := make([]models.OperationRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, models.OperationRecord{
			ID:             strconv.FormatUint(uint64(r.ID), 10),
			BatchID:        r.BatchID,
			Position:       r.Position,
			Date:           r.Date,
			Time:           r.Time,
			Timeslot:       r.Timeslot,
			TechnicianName: r.TechnicianName,
			ButtonName:     r.ButtonName,
			Status:         r.Status,
			CreatedAt:      r.CreatedAt,
		})
	}
	return records, nil
}

func (s *GormStore) Clear(ctx context.Context) error {
	err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&operationRow{}).Error
	if err != nil {
		return fmt.Errorf("delete operations: %w", err)
	}
	return nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}
