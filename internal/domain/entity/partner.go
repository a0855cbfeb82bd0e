package entity

type ServiceType string

const (
	ServiceProcesses     ServiceType = "processes"
	ServiceDistributions ServiceType = "distributions"
	ServicePublications  ServiceType = "publications"
	ServiceTerms         ServiceType = "terms"
)

// SyncDomains lists the service types the orchestrator can be asked to sync.
// Terms are managed on demand and never pulled in bulk.
var SyncDomains = []ServiceType{ServiceProcesses, ServiceDistributions, ServicePublications}

func (s ServiceType) Valid() bool {
	switch s {
	case ServiceProcesses, ServiceDistributions, ServicePublications, ServiceTerms:
		return true
	}
	return false
}

type Partner struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Active    bool   `gorm:"not null;default:true"`
	CreatedAt int64  `gorm:"not null"`
	UpdatedAt int64  `gorm:"not null;autoUpdateTime:false"`
}

// PartnerService is one pull/confirm endpoint of a partner. Credentials are
// immutable except through explicit reconfiguration; sync only ever touches
// Active and LastSyncAt.
type PartnerService struct {
	ID             int64       `gorm:"primaryKey"`
	PartnerID      int64       `gorm:"not null;index"` // References: partners(id)
	ServiceType    ServiceType `gorm:"not null"`
	BaseURL        string      `gorm:"not null"`
	RelationalName string      `gorm:"not null"` // nomeRelacional sent to /AutenticaAPI
	StaticToken    string      `gorm:"not null"`
	Active         bool        `gorm:"not null;default:true"`
	LastSyncAt     int64       `gorm:"not null;default:0"`
	CreatedAt      int64       `gorm:"not null"`
	UpdatedAt      int64       `gorm:"not null;autoUpdateTime:false"`

	// Relations
	Partner Partner `gorm:"foreignKey:PartnerID;references:ID"`
}
