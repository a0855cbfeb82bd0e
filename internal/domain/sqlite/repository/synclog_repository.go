package repository

import (
	"gorm.io/gorm"
	"jurisync/internal/domain/entity"
	"jurisync/internal/utils"
	"jurisync/internal/utils/uid"
)

type DefaultSyncLogRepository struct {
	db *gorm.DB
}

func NewSyncLogRepository(db *gorm.DB) *DefaultSyncLogRepository {
	return &DefaultSyncLogRepository{db: db}
}

// Start opens a RUNNING log row for one service pass.
func (d *DefaultSyncLogRepository) Start(serviceID int64) (*entity.SyncLog, error) {
	entry := &entity.SyncLog{
		ID:               uid.Generate(),
		PartnerServiceID: serviceID,
		Status:           entity.SyncRunning,
		StartedAt:        utils.NowUTC(),
	}
	if err := d.db.Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// Finish closes the pass. After this the row is never touched again.
func (d *DefaultSyncLogRepository) Finish(entry *entity.SyncLog, status entity.SyncStatus, records int, errMsg string) error {
	entry.Status = status
	entry.RecordsSynced = records
	entry.ErrorMessage = errMsg
	entry.FinishedAt = utils.NowUTC()
	return d.db.Save(entry).Error
}

func (d *DefaultSyncLogRepository) ListByService(serviceID int64, limit int) ([]*entity.SyncLog, error) {
	var logs []*entity.SyncLog
	err := d.db.Where("partner_service_id = ?", serviceID).
		Order("started_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
