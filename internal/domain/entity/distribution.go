package entity

import "gorm.io/datatypes"

// Distribution is one court distribution delivered by a partner. Rows are
// upserted by PartnerCode since delivery is at-least-once until confirmed.
type Distribution struct {
	ID               int64          `gorm:"primaryKey"`
	PartnerCode      int64          `gorm:"not null;index:idx_dist_service_code,unique"`
	PartnerServiceID int64          `gorm:"not null;index:idx_dist_service_code,unique"`
	ProcessNumber    string         `gorm:"not null;index"`
	Court            string         `gorm:"not null;default:''"`
	DistributedAt    int64          `gorm:"not null;default:0"`
	RawData          datatypes.JSON
	Confirmed        bool           `gorm:"not null;default:false"`
	CreatedAt        int64          `gorm:"not null"`
	UpdatedAt        int64          `gorm:"not null;autoUpdateTime:false"`
}
