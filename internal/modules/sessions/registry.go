package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/docspace/core/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultTTL = 8 * time.Hour

// Registry is the in-memory authority on live sessions. Every create writes
// through to the Store so the registry can be rebuilt from it after a crash;
// destroys succeed locally even when the durable delete fails.
type Registry struct {
	ttl     time.Duration
	store   Store
	tracker *Tracker
	logger  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithTTL overrides the default session lifetime.
func WithTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithLogger sets the logger for the registry.
func WithLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l.Named("SessionRegistry")
		}
	}
}

func NewRegistry(store Store, tracker *Tracker, opts ...RegistryOption) *Registry {
	r := &Registry{
		ttl:      DefaultTTL,
		store:    store,
		tracker:  tracker,
		logger:   zap.NewNop(),
		sessions: make(map[string]*Session),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Tracker returns the activity tracker backing this registry.
func (r *Registry) Tracker() *Tracker { return r.tracker }

// Create registers a new session and persists its durable shadow. If the
// durable write fails the in-memory insert is rolled back and the error is
// returned: the registry must never hold a session the store does not.
func (r *Registry) Create(ctx context.Context, userID, orgID, ip, ua string) (*Session, error) {
	now := time.Now()
	s := &Session{
		ID:           uuid.New().String(),
		UserID:       userID,
		OrgID:        orgID,
		IP:           ip,
		UA:           ua,
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    now.Add(r.ttl),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	record := &models.SessionModel{
		ID:        s.ID,
		UserID:    s.UserID,
		OrgID:     s.OrgID,
		IP:        s.IP,
		UA:        s.UA,
		ExpiresAt: s.ExpiresAt,
		CreatedAt: s.CreatedAt,
	}
	if err := r.store.Create(ctx, record); err != nil {
		r.mu.Lock()
		delete(r.sessions, s.ID)
		r.mu.Unlock()
		return nil, err
	}

	r.tracker.Add(s.OrgID, s.ID)

	out := *s
	return &out, nil
}

// Destroy removes a session. Unknown ids are a no-op. The durable delete is
// best-effort: a user must always be able to get out.
func (r *Registry) Destroy(ctx context.Context, sessionID string) {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	if ok {
		delete(r.sessions, sessionID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	r.tracker.Remove(s.OrgID, sessionID)

	if err := r.store.Delete(ctx, sessionID); err != nil {
		r.logger.Warn("durable session delete failed",
			zap.String("session_id", sessionID), zap.Error(err))
	}
}

// Touch bumps a live session's last-activity time. Memory only; durability of
// last-activity is not required for correctness.
func (r *Registry) Touch(sessionID string) {
	r.mu.Lock()
	if s, ok := r.sessions[sessionID]; ok {
		s.LastActiveAt = time.Now()
	}
	r.mu.Unlock()
}

// Get returns a live session by id. Sessions past their expiry are reported
// as gone even before the sweeper reclaims them.
func (r *Registry) Get(sessionID string) (Session, bool) {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	if ok {
		copied := *s
		r.mu.Unlock()
		if copied.Expired(time.Now()) {
			return Session{}, false
		}
		return copied, true
	}
	r.mu.Unlock()
	return Session{}, false
}

// ForUser returns all live sessions belonging to a user.
func (r *Registry) ForUser(userID string) []Session {
	r.mu.Lock()
	out := make([]Session, 0, 4)
	for _, s := range r.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	r.mu.Unlock()
	return out
}

// DestroyAllForUser ends every session of a user ("logout all") and returns
// how many were destroyed.
func (r *Registry) DestroyAllForUser(ctx context.Context, userID string) int {
	r.mu.Lock()
	ids := make([]string, 0, 4)
	for id, s := range r.sessions {
		if s.UserID == userID {
			ids = append(ids, id)
		}
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.Destroy(ctx, id)
	}
	return len(ids)
}

// SweepExpired destroys every session past its expiry through the same path an
// explicit logout takes, so downstream reactions are identical. Returns the
// number of sessions reclaimed.
func (r *Registry) SweepExpired(ctx context.Context) int {
	now := time.Now()
	r.mu.Lock()
	expired := make([]string, 0)
	for id, s := range r.sessions {
		if s.Expired(now) {
			expired = append(expired, id)
		}
	}
	r.mu.Unlock()

	for _, id := range expired {
		r.Destroy(ctx, id)
	}
	if len(expired) > 0 {
		r.logger.Info("expired sessions reclaimed", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// IsOrganizationActive reports whether an organization has live sessions.
func (r *Registry) IsOrganizationActive(orgID string) bool {
	return r.tracker.IsActive(orgID)
}

// ActiveOrganizations returns the ids of organizations with live sessions.
func (r *Registry) ActiveOrganizations() []string {
	return r.tracker.ActiveOrganizations()
}
