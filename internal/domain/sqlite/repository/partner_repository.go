package repository

import (
	"errors"

	"gorm.io/gorm"
	"jurisync/internal/domain/entity"
	"jurisync/internal/utils"
)

type DefaultPartnerRepository struct {
	db *gorm.DB
}

func NewPartnerRepository(db *gorm.DB) *DefaultPartnerRepository {
	return &DefaultPartnerRepository{db: db}
}

// FindActiveServices loads the active services for the given domains,
// optionally restricted to explicit service ids.
func (d *DefaultPartnerRepository) FindActiveServices(domains []entity.ServiceType, ids []int64) ([]*entity.PartnerService, error) {
	q := d.db.Where("active = ?", true)
	if len(domains) > 0 {
		q = q.Where("service_type IN ?", domains)
	}
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}

	var services []*entity.PartnerService
	err := q.Order("id").Find(&services).Error
	if err != nil {
		return nil, err
	}
	return services, nil
}

func (d *DefaultPartnerRepository) FindServiceByID(id int64) (*entity.PartnerService, error) {
	var svc entity.PartnerService
	err := d.db.First(&svc, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &svc, nil
}

// FindFirstActiveByType picks the service used for operations that are not
// tied to a specific service, like registering a new process.
func (d *DefaultPartnerRepository) FindFirstActiveByType(serviceType entity.ServiceType) (*entity.PartnerService, error) {
	var svc entity.PartnerService
	err := d.db.Where("service_type = ? AND active = ?", serviceType, true).Order("id").First(&svc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (d *DefaultPartnerRepository) TouchLastSync(serviceID int64) error {
	return d.db.Model(&entity.PartnerService{}).
		Where("id = ?", serviceID).
		Update("last_sync_at", utils.NowUTC()).Error
}
