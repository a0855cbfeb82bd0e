package repository

import (
	"errors"

	"gorm.io/gorm"
	"jurisync/internal/domain/entity"
)

type DefaultTermRepository struct {
	db *gorm.DB
}

func NewTermRepository(db *gorm.DB) *DefaultTermRepository {
	return &DefaultTermRepository{db: db}
}

func (d *DefaultTermRepository) FindByID(id int64) (*entity.SearchTerm, error) {
	var term entity.SearchTerm
	err := d.db.First(&term, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &term, nil
}

func (d *DefaultTermRepository) FindByService(serviceID int64) ([]*entity.SearchTerm, error) {
	var terms []*entity.SearchTerm
	err := d.db.Where("partner_service_id = ?", serviceID).Order("id").Find(&terms).Error
	if err != nil {
		return nil, err
	}
	return terms, nil
}

func (d *DefaultTermRepository) Save(term *entity.SearchTerm) error {
	return d.db.Save(term).Error
}

func (d *DefaultTermRepository) Delete(term *entity.SearchTerm) error {
	return d.db.Delete(term).Error
}
