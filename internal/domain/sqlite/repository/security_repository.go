package repository

import (
	"errors"

	"gorm.io/gorm"
	"jurisync/internal/domain/entity"
	"jurisync/internal/utils"
	"jurisync/internal/utils/uid"
)

type DefaultSecurityRepository struct {
	db *gorm.DB
}

func NewSecurityRepository(db *gorm.DB) *DefaultSecurityRepository {
	return &DefaultSecurityRepository{db: db}
}

func (d *DefaultSecurityRepository) FindToken(token string) (*entity.ApiToken, error) {
	var t entity.ApiToken
	err := d.db.Preload("Client").Preload("Client.Entitlements").
		Where("token = ?", token).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FindIpRules returns the unexpired rules that apply to a client: its scoped
// rules plus the global ones (client_system_id = 0).
func (d *DefaultSecurityRepository) FindIpRules(clientID int64) ([]*entity.IpRule, error) {
	now := utils.NowUTC()
	var rules []*entity.IpRule
	err := d.db.Where("(client_system_id = ? OR client_system_id = 0)", clientID).
		Where("expires_at = 0 OR expires_at > ?", now).
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (d *DefaultSecurityRepository) LogDenial(reason entity.BlockReason, ip, token, endpoint string) error {
	entry := &entity.SecurityLogEntry{
		ID:          uid.Generate(),
		BlockReason: reason,
		IpAddress:   ip,
		Token:       token,
		Endpoint:    endpoint,
		CreatedAt:   utils.NowUTC(),
	}
	return d.db.Create(entry).Error
}

// CountHits counts requests by this token since the window start. The counter
// lives in the database so concurrent stateless invocations agree on it.
func (d *DefaultSecurityRepository) CountHits(tokenID int64, since int64) (int64, error) {
	var count int64
	err := d.db.Model(&entity.RateLimitHit{}).
		Where("api_token_id = ? AND hit_at > ?", tokenID, since).
		Count(&count).Error
	return count, err
}

func (d *DefaultSecurityRepository) RecordHit(tokenID int64) error {
	return d.db.Create(&entity.RateLimitHit{
		ID:         uid.Generate(),
		ApiTokenID: tokenID,
		HitAt:      utils.NowUTC(),
	}).Error
}

func (d *DefaultSecurityRepository) DeleteHitsBefore(cutoff int64) error {
	return d.db.Where("hit_at < ?", cutoff).Delete(&entity.RateLimitHit{}).Error
}

func (d *DefaultSecurityRepository) DeleteExpiredRules(now int64) error {
	return d.db.Where("expires_at > 0 AND expires_at < ?", now).Delete(&entity.IpRule{}).Error
}
