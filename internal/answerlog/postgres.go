package answerlog

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Row is the answer_logs table.
type Row struct {
	ID           uint      `gorm:"primaryKey"`
	RecordedAt   time.Time `gorm:"index;not null"`
	Prediction   int       `gorm:"not null"`
	UserResponse bool      `gorm:"not null"`
	Correct      bool      `gorm:"not null"`
	CreatedAt    time.Time
}

// TableName pins the table name.
func (Row) TableName() string { return "answer_logs" }

// NewRow maps an entry onto its table row.
func NewRow(e Entry) Row {
	return Row{
		RecordedAt:   e.Timestamp.UTC(),
		Prediction:   e.Prediction,
		UserResponse: e.Yes,
		Correct:      e.Correct,
	}
}

// Postgres inserts entries into answer_logs.
type Postgres struct {
	db *gorm.DB
}

// OpenPostgres connects to dsn and migrates answer_logs.
func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("answerlog: connect postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("answerlog: sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.AutoMigrate(&Row{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("answerlog: migrate answer_logs: %w", err)
	}
	return &Postgres{db: db}, nil
}

// Record inserts one row.
func (p *Postgres) Record(e Entry) error {
	row := NewRow(e)
	if err := p.db.Create(&row).Error; err != nil {
		return fmt.Errorf("answerlog: insert: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
