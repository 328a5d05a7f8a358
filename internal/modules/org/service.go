package org

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/docspace/core/internal/models"
	"gorm.io/gorm"
)

const inviteTTL = 7 * 24 * time.Hour

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// Create makes a new organization with the creator as its owner.
func (s *Service) Create(creatorID, name, slug, description string) (*models.OrganizationModel, error) {
	var count int64
	if err := s.db.Model(&models.OrganizationModel{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errSlugTaken
	}

	org := models.OrganizationModel{Name: name, Slug: slug, Description: description, OwnerID: creatorID}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&org).Error; err != nil {
			return err
		}
		member := models.MemberModel{OrgID: org.ID, UserID: creatorID, Role: models.RoleOwner}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (s *Service) Get(id string) (*models.OrganizationModel, error) {
	var org models.OrganizationModel
	if err := s.db.First(&org, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

// ListForUser returns the organizations the user is a member of.
func (s *Service) ListForUser(userID string) ([]models.OrganizationModel, error) {
	var orgs []models.OrganizationModel
	err := s.db.
		Joins("JOIN members ON members.org_id = organizations.id AND members.deleted_at IS NULL").
		Where("members.user_id = ?", userID).
		Find(&orgs).Error
	return orgs, err
}

func (s *Service) Update(id string, name, description *string) (*models.OrganizationModel, error) {
	org, err := s.Get(id)
	if err != nil || org == nil {
		return org, err
	}
	updates := map[string]interface{}{}
	if name != nil {
		updates["name"] = *name
	}
	if description != nil {
		updates["description"] = *description
	}
	if len(updates) == 0 {
		return org, nil
	}
	if err := s.db.Model(org).Updates(updates).Error; err != nil {
		return nil, err
	}
	return org, nil
}

func (s *Service) Delete(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("org_id = ?", id).Delete(&models.MemberModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("org_id = ?", id).Delete(&models.InvitationModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.OrganizationModel{}, "id = ?", id).Error
	})
}

// Role returns the member's role in the organization, or "" for non-members.
func (s *Service) Role(orgID, userID string) (string, error) {
	var m models.MemberModel
	err := s.db.Where("org_id = ? AND user_id = ?", orgID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return m.Role, nil
}

func (s *Service) ListMembers(orgID string) ([]models.MemberModel, error) {
	var members []models.MemberModel
	err := s.db.Where("org_id = ?", orgID).Find(&members).Error
	return members, err
}

// RemoveMember drops a member, refusing to orphan the organization.
func (s *Service) RemoveMember(orgID, userID string) error {
	var m models.MemberModel
	if err := s.db.Where("org_id = ? AND user_id = ?", orgID, userID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if m.Role == models.RoleOwner {
		var owners int64
		if err := s.db.Model(&models.MemberModel{}).
			Where("org_id = ? AND role = ?", orgID, models.RoleOwner).
			Count(&owners).Error; err != nil {
			return err
		}
		if owners <= 1 {
			return errLastOwner
		}
	}
	return s.db.Delete(&m).Error
}

// Invite creates a pending invitation with an opaque token.
func (s *Service) Invite(orgID, invitedBy, email, role string) (*models.InvitationModel, error) {
	if role != models.RoleAdmin && role != models.RoleMember {
		role = models.RoleMember
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	inv := models.InvitationModel{
		OrgID:     orgID,
		Email:     email,
		Role:      role,
		Token:     hex.EncodeToString(buf),
		InvitedBy: invitedBy,
		ExpiresAt: time.Now().Add(inviteTTL),
	}
	if err := s.db.Create(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// Accept redeems an invitation token for the given user, creating the
// membership.
func (s *Service) Accept(token, userID string) (*models.MemberModel, error) {
	var inv models.InvitationModel
	if err := s.db.Where("token = ?", token).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if inv.AcceptedAt != nil {
		return nil, errInviteAccepted
	}
	if !inv.ExpiresAt.After(time.Now()) {
		return nil, errInviteExpired
	}

	role, err := s.Role(inv.OrgID, userID)
	if err != nil {
		return nil, err
	}
	if role != "" {
		return nil, errAlreadyMember
	}

	member := models.MemberModel{OrgID: inv.OrgID, UserID: userID, Role: inv.Role}
	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		return tx.Model(&inv).Update("accepted_at", &now).Error
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// PurgeExpiredInvitations removes unaccepted invitations past their expiry.
func (s *Service) PurgeExpiredInvitations() (int64, error) {
	result := s.db.
		Where("accepted_at IS NULL AND expires_at <= ?", time.Now()).
		Delete(&models.InvitationModel{})
	return result.RowsAffected, result.Error
}
