package auth

import (
	"context"
	"errors"
	"time"

	"github.com/docspace/core/internal/models"
	"github.com/docspace/core/internal/modules/sessions"
	"github.com/docspace/core/internal/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	registry *sessions.Registry
	tokenTTL time.Duration
}

func NewService(db *gorm.DB, registry *sessions.Registry, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = sessions.DefaultTTL
	}
	return &Service{db: db, registry: registry, tokenTTL: tokenTTL}
}

// Login verifies credentials and organization membership, then opens a
// session in the registry and signs a JWT bound to it. Session creation is
// the one hard failure here: if the session cannot be durably recorded the
// login fails outright.
func (s *Service) Login(ctx context.Context, email, password, orgSlug, ip, ua string) (string, *models.UserModel, error) {
	var u models.UserModel
	if err := s.db.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, errInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", nil, errInvalidCredentials
	}

	var org models.OrganizationModel
	if err := s.db.Where("slug = ?", orgSlug).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, errNotAMember
		}
		return "", nil, err
	}
	var memberCount int64
	if err := s.db.Model(&models.MemberModel{}).
		Where("org_id = ? AND user_id = ?", org.ID, u.ID).
		Count(&memberCount).Error; err != nil {
		return "", nil, err
	}
	if memberCount == 0 {
		return "", nil, errNotAMember
	}

	session, err := s.registry.Create(ctx, u.ID, org.ID, ip, ua)
	if err != nil {
		return "", nil, err
	}

	token, err := jwt.Sign(u.ID, org.ID, session.ID, s.tokenTTL)
	if err != nil {
		// The session was already persisted; tear it back down so a
		// token-less session does not linger.
		s.registry.Destroy(ctx, session.ID)
		return "", nil, err
	}

	now := time.Now()
	s.db.Model(&u).Updates(map[string]interface{}{
		"last_login_time": now,
		"last_login_ip":   ip,
	})
	u.LastLoginTime = &now
	u.LastLoginIP = ip

	return token, &u, nil
}

// Register creates a new account. Organization membership comes later through
// the invitation workflow (or by creating an organization).
func (s *Service) Register(email, name, password string) (*models.UserModel, error) {
	var count int64
	if err := s.db.Model(&models.UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = email
	}
	u := models.UserModel{Email: email, Name: name, Password: string(hash)}
	return &u, s.db.Create(&u).Error
}
