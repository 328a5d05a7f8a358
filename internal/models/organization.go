package models

// OrganizationModel is a tenant. Every session, document and index belongs to
// exactly one organization.
type OrganizationModel struct {
	Base
	Name        string `json:"name"        gorm:"not null"`
	Slug        string `json:"slug"        gorm:"uniqueIndex;size:191;not null"`
	Description string `json:"description" gorm:"type:text"`
	OwnerID     string `json:"owner_id"    gorm:"index;not null"`
}

func (OrganizationModel) TableName() string { return "organizations" }

// Membership roles, ordered by privilege.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// MemberModel links a user to an organization with a role.
type MemberModel struct {
	Base
	OrgID  string `json:"org_id"  gorm:"index:idx_member_org_user,unique;size:36;not null"`
	UserID string `json:"user_id" gorm:"index:idx_member_org_user,unique;size:36;not null"`
	Role   string `json:"role"    gorm:"not null;default:member"`
}

func (MemberModel) TableName() string { return "members" }
