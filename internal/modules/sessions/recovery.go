package sessions

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Recover rebuilds in-memory state from the durable store after a restart so
// already-logged-in users are not spuriously logged out. Runs once, before
// serving requests. Rows bypass the durable-write path (they already exist)
// but replay the activity tracker so index builds re-trigger for organizations
// that were active across the restart.
func (r *Registry) Recover(ctx context.Context) (int, error) {
	records, err := r.store.ListNonExpired(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	loaded := 0
	for _, rec := range records {
		// ListNonExpired already filters, but a slow startup can cross
		// an expiry boundary; leave those rows for the sweeper.
		if !rec.ExpiresAt.After(now) {
			continue
		}
		s := &Session{
			ID:           rec.ID,
			UserID:       rec.UserID,
			OrgID:        rec.OrgID,
			IP:           rec.IP,
			UA:           rec.UA,
			CreatedAt:    rec.CreatedAt,
			LastActiveAt: now,
			ExpiresAt:    rec.ExpiresAt,
		}
		r.mu.Lock()
		_, exists := r.sessions[s.ID]
		if !exists {
			r.sessions[s.ID] = s
		}
		r.mu.Unlock()
		if exists {
			continue
		}
		r.tracker.Add(s.OrgID, s.ID)
		loaded++
	}

	r.logger.Info("session state recovered",
		zap.Int("sessions", loaded),
		zap.Int("organizations", len(r.tracker.ActiveOrganizations())))
	return loaded, nil
}
