package sessions

import (
	"context"
	"time"

	"github.com/docspace/core/internal/models"
)

// Session is one authenticated login, owned by the Registry while live. The
// durable row in the sessions table is a shadow copy used only for recovery.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	OrgID        string    `json:"org_id"`
	IP           string    `json:"ip,omitempty"`
	UA           string    `json:"ua,omitempty"`
	CreatedAt    time.Time `json:"created"`
	LastActiveAt time.Time `json:"last_active"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the session's lifetime has passed.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Store is the durable side of the registry. Create failures are hard
// (login fails); Delete failures are soft (logged, local state wins).
type Store interface {
	Create(ctx context.Context, record *models.SessionModel) error
	Delete(ctx context.Context, id string) error
	ListNonExpired(ctx context.Context) ([]models.SessionModel, error)
}

// Listener observes organization activity transitions. Implementations must
// not block; long work belongs in a goroutine.
type Listener interface {
	OrganizationFirstLogin(orgID string)
	OrganizationLastLogout(orgID string)
}
