package entity

import (
	"time"

	"github.com/google/uuid"
)

// PendingMatch keeps a client's matching intent when no provider was found,
// so it can be retried once providers become available.
type PendingMatch struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ClientID  uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	Region    string    `gorm:"type:varchar(100);not null" json:"region"`
	Category  string    `gorm:"type:varchar(100);not null" json:"category"`
	Reason    string    `gorm:"type:text" json:"reason"`
	Resolved  bool      `gorm:"not null;default:false;index" json:"resolved"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (PendingMatch) TableName() string {
	return "pending_matches"
}
