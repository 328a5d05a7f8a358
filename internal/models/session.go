package models

import "time"

// SessionModel is the durable shadow of an in-memory session. It exists so the
// session registry can be rebuilt after a restart; while the process is up the
// registry, not this row, is the authority on liveness.
type SessionModel struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"index;size:36;not null"`
	OrgID     string    `json:"org_id"     gorm:"index;size:36;not null"`
	IP        string    `json:"ip"`
	UA        string    `json:"ua"         gorm:"type:text"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index;not null"`
	CreatedAt time.Time `json:"created"`
}

func (SessionModel) TableName() string { return "sessions" }
