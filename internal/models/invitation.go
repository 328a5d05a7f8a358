package models

import "time"

// InvitationModel is a pending invite into an organization. The token is an
// opaque secret mailed to the invitee; accepting creates a MemberModel.
type InvitationModel struct {
	Base
	OrgID      string     `json:"org_id"     gorm:"index;size:36;not null"`
	Email      string     `json:"email"      gorm:"index;size:191;not null"`
	Role       string     `json:"role"       gorm:"not null;default:member"`
	Token      string     `json:"-"          gorm:"uniqueIndex;size:64;not null"`
	InvitedBy  string     `json:"invited_by" gorm:"size:36;not null"`
	ExpiresAt  time.Time  `json:"expires_at" gorm:"index;not null"`
	AcceptedAt *time.Time `json:"accepted_at"`
}

func (InvitationModel) TableName() string { return "invitations" }
