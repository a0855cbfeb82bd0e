package entity

type IpRuleType string

const (
	IpRuleBlock IpRuleType = "BLOCK"
	IpRuleAllow IpRuleType = "ALLOW"
)

// IpRule blocks or allows an address or CIDR range. Rules scoped to a client
// take precedence over global rules; a block beats an allow at the same scope.
type IpRule struct {
	ID             int64      `gorm:"primaryKey"`
	IpAddress      string     `gorm:"not null"` // single address or CIDR
	RuleType       IpRuleType `gorm:"not null"`
	ClientSystemID int64      `gorm:"not null;default:0;index"` // 0 = global
	ExpiresAt      int64      `gorm:"not null;default:0"`       // 0 = never
	Reason         string     `gorm:"not null;default:''"`
	CreatedAt      int64      `gorm:"not null"`
}

type BlockReason string

const (
	ReasonMissingToken   BlockReason = "MISSING_TOKEN"
	ReasonUnknownToken   BlockReason = "UNKNOWN_TOKEN"
	ReasonInactiveToken  BlockReason = "INACTIVE_TOKEN"
	ReasonExpiredToken   BlockReason = "EXPIRED_TOKEN"
	ReasonBlockedToken   BlockReason = "BLOCKED_TOKEN"
	ReasonBlockedIP      BlockReason = "BLOCKED_IP"
	ReasonRateLimited    BlockReason = "RATE_LIMITED"
	ReasonNotEntitled    BlockReason = "NOT_ENTITLED"
)

// SecurityLogEntry is an append-only audit record of a denied request.
type SecurityLogEntry struct {
	ID          int64       `gorm:"primaryKey"`
	BlockReason BlockReason `gorm:"not null"`
	IpAddress   string      `gorm:"not null;default:''"`
	Token       string      `gorm:"not null;default:''"`
	Endpoint    string      `gorm:"not null;default:''"`
	CreatedAt   int64       `gorm:"not null;index"`
}

// RateLimitHit is one counted request in the persisted sliding hourly window.
// Counters live in the database, not in process memory, so concurrent
// stateless invocations agree on the count.
type RateLimitHit struct {
	ID         int64 `gorm:"primaryKey"`
	ApiTokenID int64 `gorm:"not null;index:idx_hit_token_at"`
	HitAt      int64 `gorm:"not null;index:idx_hit_token_at"`
}
