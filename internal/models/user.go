package models

import "time"

// UserModel is a registered account. Organization membership is tracked
// separately in MemberModel.
type UserModel struct {
	Base
	Email         string     `json:"email"    gorm:"uniqueIndex;size:191;not null"`
	Name          string     `json:"name"     gorm:"not null"`
	Password      string     `json:"-"        gorm:"not null"`
	Avatar        string     `json:"avatar"`
	LastLoginTime *time.Time `json:"last_login_time"`
	LastLoginIP   string     `json:"last_login_ip,omitempty"`
}

func (UserModel) TableName() string { return "users" }
