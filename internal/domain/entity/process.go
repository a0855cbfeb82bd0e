package entity

import "gorm.io/datatypes"

type ProcessStatus int

// Partner status codes. Anything outside this set is kept verbatim for
// display and never acted upon.
const (
	StatusPending    ProcessStatus = 1
	StatusValidating ProcessStatus = 2
	StatusRegistered ProcessStatus = 4
	StatusError      ProcessStatus = 7
	StatusArchived   ProcessStatus = 8
)

func (s ProcessStatus) Known() bool {
	switch s {
	case StatusPending, StatusValidating, StatusRegistered, StatusError, StatusArchived:
		return true
	}
	return false
}

func (s ProcessStatus) Label() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusValidating:
		return "VALIDATING"
	case StatusRegistered:
		return "REGISTERED"
	case StatusError:
		return "ERROR"
	case StatusArchived:
		return "ARCHIVED"
	default:
		return "OTHER"
	}
}

// Process is a monitored legal process, keyed by its CNJ-formatted number.
type Process struct {
	ID                int64          `gorm:"primaryKey"`
	Number            string         `gorm:"not null;uniqueIndex"` // CNJ format NNNNNNN-DD.YYYY.J.TR.OOOO
	PartnerCode       int64          `gorm:"not null;index"`       // code assigned by the partner
	PartnerServiceID  int64          `gorm:"not null;index"`       // References: partner_services(id)
	StatusCode        ProcessStatus  `gorm:"not null;default:1"`
	StatusDescription string         `gorm:"not null;default:''"`
	ErrorCategory     string         `gorm:"not null;default:''"` // set while StatusCode is ERROR, empty otherwise
	RawData           datatypes.JSON // last partner payload snapshot
	CreatedAt         int64          `gorm:"not null"`
	UpdatedAt         int64          `gorm:"not null;autoUpdateTime:false"`

	// Relations
	Clients   []*ClientSystem    `gorm:"many2many:client_system_processes"`
	Documents []*ProcessDocument `gorm:"foreignKey:ProcessID;references:ID"`
}

// ProcessDocument references an externally hosted file of a process.
// Available iff StoragePath is set; expired iff neither URL nor path exists.
type ProcessDocument struct {
	ID           int64  `gorm:"primaryKey"`
	ProcessID    int64  `gorm:"not null;index:idx_doc_process_code,unique"`
	PartnerCode  int64  `gorm:"not null;index:idx_doc_process_code,unique"`
	Name         string `gorm:"not null;default:''"`
	DocumentoURL string `gorm:"not null;default:''"` // partner URL, may expire
	StoragePath  string `gorm:"not null;default:''"` // durable location, set once, never cleared
	TamanhoBytes int64  `gorm:"not null;default:0"`
	CreatedAt    int64  `gorm:"not null"`
	UpdatedAt    int64  `gorm:"not null;autoUpdateTime:false"`
}

func (d *ProcessDocument) Available() bool {
	return d.StoragePath != ""
}

func (d *ProcessDocument) Expired() bool {
	return d.DocumentoURL == "" && d.StoragePath == ""
}
