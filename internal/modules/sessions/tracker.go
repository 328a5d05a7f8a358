package sessions

import (
	"sort"
	"sync"
)

// Tracker maintains the per-organization set of live session ids and raises
// edge-triggered transition notifications: exactly one first-login per
// inactive→active transition and one last-logout per active→inactive
// transition, decided atomically with the set mutation.
type Tracker struct {
	mu        sync.Mutex
	orgs      map[string]map[string]struct{}
	listeners []Listener
}

func NewTracker() *Tracker {
	return &Tracker{orgs: make(map[string]map[string]struct{})}
}

// Subscribe registers a listener. Call before sessions start flowing;
// subscription is not synchronized with in-flight notifications.
func (t *Tracker) Subscribe(l Listener) {
	if l == nil {
		return
	}
	t.mu.Lock()
	t.listeners = append(t.listeners, l)
	t.mu.Unlock()
}

// Add records a live session for an organization, firing first-login when the
// organization transitions from inactive to active.
func (t *Tracker) Add(orgID, sessionID string) {
	t.mu.Lock()
	set, ok := t.orgs[orgID]
	if !ok {
		set = make(map[string]struct{})
		t.orgs[orgID] = set
	}
	set[sessionID] = struct{}{}
	// Sets are removed the moment they empty, so a missing entry is the
	// inactive→active edge.
	first := !ok
	listeners := t.listeners
	t.mu.Unlock()

	if first {
		for _, l := range listeners {
			l.OrganizationFirstLogin(orgID)
		}
	}
}

// Remove drops a session from its organization's set, firing last-logout when
// the set empties. Unknown sessions are ignored.
func (t *Tracker) Remove(orgID, sessionID string) {
	t.mu.Lock()
	set, ok := t.orgs[orgID]
	if !ok {
		t.mu.Unlock()
		return
	}
	if _, member := set[sessionID]; !member {
		t.mu.Unlock()
		return
	}
	delete(set, sessionID)
	last := len(set) == 0
	if last {
		delete(t.orgs, orgID)
	}
	listeners := t.listeners
	t.mu.Unlock()

	if last {
		for _, l := range listeners {
			l.OrganizationLastLogout(orgID)
		}
	}
}

// IsActive reports whether the organization has at least one live session.
func (t *Tracker) IsActive(orgID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.orgs[orgID]) > 0
}

// SessionCount returns the number of live sessions for an organization.
func (t *Tracker) SessionCount(orgID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.orgs[orgID])
}

// ActiveOrganizations returns the ids of all active organizations, sorted.
func (t *Tracker) ActiveOrganizations() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.orgs))
	for orgID := range t.orgs {
		out = append(out, orgID)
	}
	sort.Strings(out)
	return out
}
