package entity

type SyncStatus string

const (
	SyncPending SyncStatus = "PENDING"
	SyncRunning SyncStatus = "RUNNING"
	SyncSuccess SyncStatus = "SUCCESS"
	SyncError   SyncStatus = "ERROR"
)

// SyncLog records one sync pass over one partner service. Rows are append-only
// and never mutated after reaching SUCCESS or ERROR.
type SyncLog struct {
	ID               int64      `gorm:"primaryKey"`
	PartnerServiceID int64      `gorm:"not null;index"`
	Status           SyncStatus `gorm:"not null;default:'PENDING'"`
	RecordsSynced    int        `gorm:"not null;default:0"`
	ErrorMessage     string     `gorm:"not null;default:''"`
	StartedAt        int64      `gorm:"not null"`
	FinishedAt       int64      `gorm:"not null;default:0"`
}
