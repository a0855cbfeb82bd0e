package entity

// ClientSystem is a downstream consumer of the data API.
type ClientSystem struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Active    bool   `gorm:"not null;default:true"`
	CreatedAt int64  `gorm:"not null"`
	UpdatedAt int64  `gorm:"not null;autoUpdateTime:false"`

	// Relations
	Entitlements []*ClientEntitlement `gorm:"foreignKey:ClientSystemID;references:ID"`
}

// ClientEntitlement grants a client access to one service type. Access is
// deny-by-default: no row means no access.
type ClientEntitlement struct {
	ID             int64       `gorm:"primaryKey"`
	ClientSystemID int64       `gorm:"not null;index:idx_entitlement,unique"`
	ServiceType    ServiceType `gorm:"not null;index:idx_entitlement,unique"`
	CreatedAt      int64       `gorm:"not null"`
}

// ApiToken is a bearer credential for the client data API. Blocked always
// wins over every other check, including rate limiting and IP rules.
type ApiToken struct {
	ID                int64  `gorm:"primaryKey"`
	ClientSystemID    int64  `gorm:"not null;index"`
	Token             string `gorm:"not null;uniqueIndex"`
	Active            bool   `gorm:"not null;default:true"`
	Blocked           bool   `gorm:"not null;default:false"`
	BlockedReason     string `gorm:"not null;default:''"`
	BlockedAt         int64  `gorm:"not null;default:0"`
	ExpiresAt         int64  `gorm:"not null;default:0"` // 0 = never expires
	RateLimitOverride int    `gorm:"not null;default:0"` // 0 = use system default
	AllowedIPs        string `gorm:"not null;default:''"` // comma separated, empty = any
	CreatedAt         int64  `gorm:"not null"`
	UpdatedAt         int64  `gorm:"not null;autoUpdateTime:false"`

	// Relations
	Client ClientSystem `gorm:"foreignKey:ClientSystemID;references:ID"`
}

// ClientDelivery tracks the last batch of records listed by a token for one
// domain, so the client can acknowledge receipt with ?action=confirm.
type ClientDelivery struct {
	ID          int64       `gorm:"primaryKey"`
	ApiTokenID  int64       `gorm:"not null;index"`
	ServiceType ServiceType `gorm:"not null"`
	RecordIDs   string      `gorm:"not null;default:''"` // comma separated entity IDs
	Confirmed   bool        `gorm:"not null;default:false"`
	DeliveredAt int64       `gorm:"not null"`
	ConfirmedAt int64       `gorm:"not null;default:0"`
}
