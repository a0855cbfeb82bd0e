package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"jurisync/internal/domain/entity"
	"jurisync/internal/utils"
)

// Distributions and publications share the pull/confirm shape, so their
// repositories live together.

type DefaultDistributionRepository struct {
	db *gorm.DB
}

func NewDistributionRepository(db *gorm.DB) *DefaultDistributionRepository {
	return &DefaultDistributionRepository{db: db}
}

func (d *DefaultDistributionRepository) FindByID(id int64) (*entity.Distribution, error) {
	var dist entity.Distribution
	err := d.db.First(&dist, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &dist, nil
}

type FeedFilter struct {
	Limit         int
	Offset        int
	ProcessNumber string
	Since         int64
}

func (d *DefaultDistributionRepository) List(f FeedFilter) ([]*entity.Distribution, error) {
	q := d.db.Limit(f.Limit).Offset(f.Offset).Order("id")
	if f.ProcessNumber != "" {
		q = q.Where("process_number = ?", f.ProcessNumber)
	}
	if f.Since > 0 {
		q = q.Where("distributed_at >= ?", f.Since)
	}

	var dists []*entity.Distribution
	err := q.Find(&dists).Error
	if err != nil {
		return nil, err
	}
	return dists, nil
}

func (d *DefaultDistributionRepository) Upsert(dist *entity.Distribution) error {
	return d.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "partner_service_id"}, {Name: "partner_code"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"process_number", "court", "distributed_at", "raw_data", "updated_at",
		}),
	}).Create(dist).Error
}

func (d *DefaultDistributionRepository) MarkConfirmed(serviceID int64, codes []int64, confirmed bool) error {
	return d.db.Model(&entity.Distribution{}).
		Where("partner_service_id = ? AND partner_code IN ?", serviceID, codes).
		Updates(map[string]any{"confirmed": confirmed, "updated_at": utils.NowUTC()}).Error
}

type DefaultPublicationRepository struct {
	db *gorm.DB
}

func NewPublicationRepository(db *gorm.DB) *DefaultPublicationRepository {
	return &DefaultPublicationRepository{db: db}
}

func (d *DefaultPublicationRepository) FindByID(id int64) (*entity.Publication, error) {
	var pub entity.Publication
	err := d.db.First(&pub, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &pub, nil
}

func (d *DefaultPublicationRepository) List(f FeedFilter) ([]*entity.Publication, error) {
	q := d.db.Limit(f.Limit).Offset(f.Offset).Order("id")
	if f.ProcessNumber != "" {
		q = q.Where("process_number = ?", f.ProcessNumber)
	}
	if f.Since > 0 {
		q = q.Where("published_at >= ?", f.Since)
	}

	var pubs []*entity.Publication
	err := q.Find(&pubs).Error
	if err != nil {
		return nil, err
	}
	return pubs, nil
}

func (d *DefaultPublicationRepository) Upsert(pub *entity.Publication) error {
	return d.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "partner_service_id"}, {Name: "partner_code"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"process_number", "diary", "published_at", "matched_term", "content", "raw_data", "updated_at",
		}),
	}).Create(pub).Error
}

func (d *DefaultPublicationRepository) MarkConfirmed(serviceID int64, codes []int64, confirmed bool) error {
	return d.db.Model(&entity.Publication{}).
		Where("partner_service_id = ? AND partner_code IN ?", serviceID, codes).
		Updates(map[string]any{"confirmed": confirmed, "updated_at": utils.NowUTC()}).Error
}
