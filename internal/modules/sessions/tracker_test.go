package sessions

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordListener struct {
	mu    sync.Mutex
	first []string
	last  []string
}

func (l *recordListener) OrganizationFirstLogin(orgID string) {
	l.mu.Lock()
	l.first = append(l.first, orgID)
	l.mu.Unlock()
}

func (l *recordListener) OrganizationLastLogout(orgID string) {
	l.mu.Lock()
	l.last = append(l.last, orgID)
	l.mu.Unlock()
}

func (l *recordListener) counts() (int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.first), len(l.last)
}

func TestTrackerFirstLoginFiresOnce(t *testing.T) {
	tr := NewTracker()
	rec := &recordListener{}
	tr.Subscribe(rec)

	tr.Add("org-a", "s1")
	tr.Add("org-a", "s2")
	tr.Add("org-a", "s3")

	first, last := rec.counts()
	assert.Equal(t, 1, first)
	assert.Equal(t, 0, last)
	assert.True(t, tr.IsActive("org-a"))
	assert.Equal(t, 3, tr.SessionCount("org-a"))
}

func TestTrackerLastLogoutFiresOnEmpty(t *testing.T) {
	tr := NewTracker()
	rec := &recordListener{}
	tr.Subscribe(rec)

	tr.Add("org-a", "s1")
	tr.Add("org-a", "s2")

	tr.Remove("org-a", "s1")
	first, last := rec.counts()
	require.Equal(t, 0, last, "logout with sessions remaining must not fire")
	require.Equal(t, 1, first)
	assert.True(t, tr.IsActive("org-a"))

	tr.Remove("org-a", "s2")
	_, last = rec.counts()
	assert.Equal(t, 1, last)
	assert.False(t, tr.IsActive("org-a"))
	assert.Equal(t, 0, tr.SessionCount("org-a"))
}

func TestTrackerReactivationFiresAgain(t *testing.T) {
	tr := NewTracker()
	rec := &recordListener{}
	tr.Subscribe(rec)

	tr.Add("org-a", "s1")
	tr.Remove("org-a", "s1")
	tr.Add("org-a", "s2")

	first, last := rec.counts()
	assert.Equal(t, 2, first, "each inactive to active transition fires")
	assert.Equal(t, 1, last)
}

func TestTrackerRemoveUnknownIsNoop(t *testing.T) {
	tr := NewTracker()
	rec := &recordListener{}
	tr.Subscribe(rec)

	tr.Remove("org-a", "never-seen")

	tr.Add("org-a", "s1")
	tr.Remove("org-a", "other")

	first, last := rec.counts()
	assert.Equal(t, 1, first)
	assert.Equal(t, 0, last)
	assert.True(t, tr.IsActive("org-a"))
}

func TestTrackerActiveOrganizationsSorted(t *testing.T) {
	tr := NewTracker()
	tr.Add("zulu", "s1")
	tr.Add("alpha", "s2")
	tr.Add("mike", "s3")

	assert.Equal(t, []string{"alpha", "mike", "zulu"}, tr.ActiveOrganizations())
}

func TestTrackerConcurrentAddRemove(t *testing.T) {
	tr := NewTracker()
	rec := &recordListener{}
	tr.Subscribe(rec)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n%26))
			tr.Add("org-a", id+"-s")
			tr.Remove("org-a", id+"-s")
		}(i)
	}
	wg.Wait()

	assert.False(t, tr.IsActive("org-a"))
	first, last := rec.counts()
	assert.Equal(t, first, last, "every activation must eventually deactivate")
}
