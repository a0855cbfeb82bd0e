package sqlite

import (
	"path/filepath"
	"time"

	"jurisync/internal/domain/entity"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func Init() (*gorm.DB, error) {
	dbPath := filepath.Join(".", "jurisync.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&entity.Partner{},
		&entity.PartnerService{},
		&entity.Process{},
		&entity.ProcessDocument{},
		&entity.Distribution{},
		&entity.Publication{},
		&entity.SearchTerm{},
		&entity.SyncLog{},
		&entity.ClientSystem{},
		&entity.ClientEntitlement{},
		&entity.ApiToken{},
		&entity.ClientDelivery{},
		&entity.IpRule{},
		&entity.SecurityLogEntry{},
		&entity.RateLimitHit{},
		&entity.ClientWebhook{},
	)
	if err != nil {
		return nil, err
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}
