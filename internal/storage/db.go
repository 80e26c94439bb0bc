package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tg-antijudi/internal/config"
	"tg-antijudi/internal/logger"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// collectionDocument is one row per collection.
type collectionDocument struct {
	Name      string `gorm:"primaryKey;size:64"`
	Data      []byte `gorm:"type:longblob"`
	Version   int64  `gorm:"not null"`
	UpdatedAt time.Time
}

func (collectionDocument) TableName() string {
	return "collection_documents"
}

// OpenDatabase sets up the MySQL connection based on configuration
func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	dbCfg := cfg.Storage.Database
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		dbCfg.Username,
		dbCfg.Password,
		dbCfg.Host,
		dbCfg.Port,
		dbCfg.DBName,
		dbCfg.Charset,
	)

	logger.Infof("Connecting to database: %s:%d/%s", dbCfg.Host, dbCfg.Port, dbCfg.DBName)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: NewGormLogger(cfg.Logger.Level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get SQL DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.Infof("Database connection established successfully")
	return db, nil
}

// DatabaseBackend stores collections in a SQL table with a version column
// used for compare-and-swap.
type DatabaseBackend struct {
	db *gorm.DB
}

// NewDatabaseBackend migrates the documents table.
func NewDatabaseBackend(db *gorm.DB) (*DatabaseBackend, error) {
	if err := db.AutoMigrate(&collectionDocument{}); err != nil {
		return nil, fmt.Errorf("failed to migrate collection table: %w", err)
	}
	return &DatabaseBackend{db: db}, nil
}

func (b *DatabaseBackend) Load(ctx context.Context, collection Collection) (Document, error) {
	var row collectionDocument
	err := b.db.WithContext(ctx).Where("name = ?", string(collection)).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Document{}, nil
	}
	if err != nil {
		return Document{}, err
	}
	return Document{Data: row.Data, Version: row.Version}, nil
}

func (b *DatabaseBackend) Commit(ctx context.Context, writes []Write) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for _, w := range writes {
			var result *gorm.DB
			if w.Version == 0 {
				result = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&collectionDocument{
					Name:      string(w.Collection),
					Data:      w.Data,
					Version:   1,
					UpdatedAt: now,
				})
			} else {
				result = tx.Model(&collectionDocument{}).
					Where("name = ? AND version = ?", string(w.Collection), w.Version).
					Updates(map[string]any{
						"data":       w.Data,
						"version":    w.Version + 1,
						"updated_at": now,
					})
			}
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrVersionConflict
			}
		}
		return nil
	})
}

func (b *DatabaseBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
