package entity

import "gorm.io/datatypes"

// Publication is a diary publication matched against a registered search term.
type Publication struct {
	ID               int64          `gorm:"primaryKey"`
	PartnerCode      int64          `gorm:"not null;index:idx_pub_service_code,unique"`
	PartnerServiceID int64          `gorm:"not null;index:idx_pub_service_code,unique"`
	ProcessNumber    string         `gorm:"not null;default:'';index"`
	Diary            string         `gorm:"not null;default:''"`
	PublishedAt      int64          `gorm:"not null;default:0"`
	MatchedTerm      string         `gorm:"not null;default:''"`
	Content          string         `gorm:"not null;default:''"`
	RawData          datatypes.JSON
	Confirmed        bool           `gorm:"not null;default:false"`
	CreatedAt        int64          `gorm:"not null"`
	UpdatedAt        int64          `gorm:"not null;autoUpdateTime:false"`
}

type TermKind string

const (
	TermName       TermKind = "NAME"
	TermEscritorio TermKind = "ESCRITORIO"
)

// SearchTerm is a name (or law-firm name) registered with a partner so that
// publication matching can happen on their side. Publication sync depends on
// this list being current, which is why the publications domain always runs
// last in an orchestration pass.
type SearchTerm struct {
	ID               int64    `gorm:"primaryKey"`
	PartnerServiceID int64    `gorm:"not null;index"`
	Term             string   `gorm:"not null"`
	Kind             TermKind `gorm:"not null;default:'NAME'"`
	Active           bool     `gorm:"not null;default:true"`
	CreatedAt        int64    `gorm:"not null"`
	UpdatedAt        int64    `gorm:"not null;autoUpdateTime:false"`
}
