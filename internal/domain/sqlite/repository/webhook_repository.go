package repository

import (
	"errors"

	"gorm.io/gorm"
	"jurisync/internal/domain/entity"
)

type DefaultWebhookRepository struct {
	db *gorm.DB
}

func NewWebhookRepository(db *gorm.DB) *DefaultWebhookRepository {
	return &DefaultWebhookRepository{db: db}
}

// FindActive returns active webhooks, optionally restricted to client ids.
// Category filtering happens in the service since subscriptions are a JSON
// array column.
func (d *DefaultWebhookRepository) FindActive(clientIDs []int64) ([]*entity.ClientWebhook, error) {
	q := d.db.Where("active = ?", true)
	if len(clientIDs) > 0 {
		q = q.Where("client_system_id IN ?", clientIDs)
	}

	var hooks []*entity.ClientWebhook
	err := q.Find(&hooks).Error
	if err != nil {
		return nil, err
	}
	return hooks, nil
}

func (d *DefaultWebhookRepository) FindByID(id int64) (*entity.ClientWebhook, error) {
	var hook entity.ClientWebhook
	err := d.db.First(&hook, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &hook, nil
}

func (d *DefaultWebhookRepository) FindByClient(clientID int64) ([]*entity.ClientWebhook, error) {
	var hooks []*entity.ClientWebhook
	err := d.db.Where("client_system_id = ?", clientID).Order("id").Find(&hooks).Error
	if err != nil {
		return nil, err
	}
	return hooks, nil
}

func (d *DefaultWebhookRepository) Save(hook *entity.ClientWebhook) error {
	return d.db.Save(hook).Error
}

func (d *DefaultWebhookRepository) Delete(hook *entity.ClientWebhook) error {
	return d.db.Delete(hook).Error
}
