package repository

import (
	"errors"

	"gorm.io/gorm"
	"jurisync/internal/domain/entity"
	"jurisync/internal/utils"
	"jurisync/internal/utils/uid"
)

type DefaultDeliveryRepository struct {
	db *gorm.DB
}

func NewDeliveryRepository(db *gorm.DB) *DefaultDeliveryRepository {
	return &DefaultDeliveryRepository{db: db}
}

// Record stores the batch a list call just handed to a token, so a later
// ?action=confirm can reference it.
func (d *DefaultDeliveryRepository) Record(tokenID int64, domain entity.ServiceType, recordIDs []int64) error {
	if len(recordIDs) == 0 {
		return nil
	}
	return d.db.Create(&entity.ClientDelivery{
		ID:          uid.Generate(),
		ApiTokenID:  tokenID,
		ServiceType: domain,
		RecordIDs:   utils.JoinInt64(recordIDs),
		DeliveredAt: utils.NowUTC(),
	}).Error
}

func (d *DefaultDeliveryRepository) FindLatestUnconfirmed(tokenID int64, domain entity.ServiceType) (*entity.ClientDelivery, error) {
	var delivery entity.ClientDelivery
	err := d.db.Where("api_token_id = ? AND service_type = ? AND confirmed = ?", tokenID, domain, false).
		Order("delivered_at DESC").
		First(&delivery).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (d *DefaultDeliveryRepository) MarkConfirmed(delivery *entity.ClientDelivery) error {
	delivery.Confirmed = true
	delivery.ConfirmedAt = utils.NowUTC()
	return d.db.Save(delivery).Error
}
