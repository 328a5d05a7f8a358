package sessions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/docspace/core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu         sync.Mutex
	rows       map[string]models.SessionModel
	failCreate bool
	failDelete bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]models.SessionModel)}
}

func (s *fakeStore) Create(_ context.Context, record *models.SessionModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return errors.New("store unavailable")
	}
	s.rows[record.ID] = *record
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDelete {
		return errors.New("store unavailable")
	}
	delete(s.rows, id)
	return nil
}

func (s *fakeStore) ListNonExpired(_ context.Context) ([]models.SessionModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	out := make([]models.SessionModel, 0, len(s.rows))
	for _, r := range s.rows {
		if r.ExpiresAt.After(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func TestRegistryCreateWritesThrough(t *testing.T) {
	store := newFakeStore()
	tr := NewTracker()
	rec := &recordListener{}
	tr.Subscribe(rec)
	r := NewRegistry(store, tr)

	s, err := r.Create(context.Background(), "user-1", "org-a", "1.2.3.4", "test-agent")
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)

	got, ok := r.Get(s.ID)
	require.True(t, ok)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "org-a", got.OrgID)

	assert.Equal(t, 1, store.count())
	assert.True(t, r.IsOrganizationActive("org-a"))
	first, _ := rec.counts()
	assert.Equal(t, 1, first)
}

func TestRegistryCreateRollsBackOnStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.failCreate = true
	tr := NewTracker()
	rec := &recordListener{}
	tr.Subscribe(rec)
	r := NewRegistry(store, tr)

	_, err := r.Create(context.Background(), "user-1", "org-a", "", "")
	require.Error(t, err)

	assert.Equal(t, 0, r.Len(), "failed create must not leave a live session")
	assert.False(t, r.IsOrganizationActive("org-a"))
	first, _ := rec.counts()
	assert.Equal(t, 0, first, "activity must not be signalled for a failed login")
}

func TestRegistryDestroyIsIdempotent(t *testing.T) {
	store := newFakeStore()
	tr := NewTracker()
	rec := &recordListener{}
	tr.Subscribe(rec)
	r := NewRegistry(store, tr)

	s, err := r.Create(context.Background(), "user-1", "org-a", "", "")
	require.NoError(t, err)

	r.Destroy(context.Background(), s.ID)
	r.Destroy(context.Background(), s.ID)
	r.Destroy(context.Background(), "no-such-session")

	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, store.count())
	_, last := rec.counts()
	assert.Equal(t, 1, last, "repeated destroys must not re-fire last-logout")
}

func TestRegistryDestroySurvivesStoreFailure(t *testing.T) {
	store := newFakeStore()
	tr := NewTracker()
	r := NewRegistry(store, tr)

	s, err := r.Create(context.Background(), "user-1", "org-a", "", "")
	require.NoError(t, err)

	store.failDelete = true
	r.Destroy(context.Background(), s.ID)

	_, ok := r.Get(s.ID)
	assert.False(t, ok, "local state wins even when the durable delete fails")
	assert.False(t, r.IsOrganizationActive("org-a"))
}

func TestRegistryOrganizationStaysActiveUntilLastLogout(t *testing.T) {
	store := newFakeStore()
	tr := NewTracker()
	rec := &recordListener{}
	tr.Subscribe(rec)
	r := NewRegistry(store, tr)

	s1, err := r.Create(context.Background(), "user-1", "org-a", "", "")
	require.NoError(t, err)
	s2, err := r.Create(context.Background(), "user-2", "org-a", "", "")
	require.NoError(t, err)

	r.Destroy(context.Background(), s1.ID)
	assert.True(t, r.IsOrganizationActive("org-a"))
	_, last := rec.counts()
	assert.Equal(t, 0, last)

	r.Destroy(context.Background(), s2.ID)
	assert.False(t, r.IsOrganizationActive("org-a"))
	_, last = rec.counts()
	assert.Equal(t, 1, last)
}

func TestRegistryDestroyAllForUser(t *testing.T) {
	store := newFakeStore()
	tr := NewTracker()
	r := NewRegistry(store, tr)

	ctx := context.Background()
	_, err := r.Create(ctx, "user-1", "org-a", "", "")
	require.NoError(t, err)
	_, err = r.Create(ctx, "user-1", "org-b", "", "")
	require.NoError(t, err)
	keep, err := r.Create(ctx, "user-2", "org-a", "", "")
	require.NoError(t, err)

	n := r.DestroyAllForUser(ctx, "user-1")
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, r.Len())
	assert.Empty(t, r.ForUser("user-1"))

	_, ok := r.Get(keep.ID)
	assert.True(t, ok)
	assert.Equal(t, []string{"org-a"}, r.ActiveOrganizations())
}

func TestRegistryExpiredSessionIsGoneBeforeSweep(t *testing.T) {
	store := newFakeStore()
	tr := NewTracker()
	r := NewRegistry(store, tr, WithTTL(10*time.Millisecond))

	s, err := r.Create(context.Background(), "user-1", "org-a", "", "")
	require.NoError(t, err)

	time.Sleep(25 * time.Millisecond)

	_, ok := r.Get(s.ID)
	assert.False(t, ok, "expired sessions must not authenticate")
	assert.Equal(t, 1, r.Len(), "the record remains until the sweeper reclaims it")
}

func TestRegistrySweepExpired(t *testing.T) {
	store := newFakeStore()
	tr := NewTracker()
	rec := &recordListener{}
	tr.Subscribe(rec)
	r := NewRegistry(store, tr, WithTTL(10*time.Millisecond))

	_, err := r.Create(context.Background(), "user-1", "org-a", "", "")
	require.NoError(t, err)
	_, err = r.Create(context.Background(), "user-2", "org-a", "", "")
	require.NoError(t, err)

	time.Sleep(25 * time.Millisecond)

	n := r.SweepExpired(context.Background())
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, store.count())
	assert.False(t, r.IsOrganizationActive("org-a"))
	_, last := rec.counts()
	assert.Equal(t, 1, last, "sweeping the last session takes the logout path")
}

func TestRegistryRecover(t *testing.T) {
	store := newFakeStore()
	now := time.Now()
	store.rows["live-1"] = models.SessionModel{
		ID: "live-1", UserID: "user-1", OrgID: "org-a",
		CreatedAt: now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour),
	}
	store.rows["live-2"] = models.SessionModel{
		ID: "live-2", UserID: "user-2", OrgID: "org-b",
		CreatedAt: now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour),
	}
	store.rows["stale-1"] = models.SessionModel{
		ID: "stale-1", UserID: "user-3", OrgID: "org-c",
		CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour),
	}

	tr := NewTracker()
	rec := &recordListener{}
	tr.Subscribe(rec)
	r := NewRegistry(store, tr)

	loaded, err := r.Recover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, loaded)

	_, ok := r.Get("live-1")
	assert.True(t, ok)
	_, ok = r.Get("stale-1")
	assert.False(t, ok)
	assert.Equal(t, []string{"org-a", "org-b"}, r.ActiveOrganizations())

	first, _ := rec.counts()
	assert.Equal(t, 2, first, "recovery replays activity so index builds re-trigger")

	// Running recovery again must not duplicate anything.
	loaded, err = r.Recover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, loaded)
	assert.Equal(t, 2, r.Len())
}

func TestRegistryConcurrentLoginsFireOneFirstLogin(t *testing.T) {
	store := newFakeStore()
	tr := NewTracker()
	rec := &recordListener{}
	tr.Subscribe(rec)
	r := NewRegistry(store, tr)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Create(context.Background(), "user-1", "org-foo", "", "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	first, _ := rec.counts()
	assert.Equal(t, 1, first, "racing logins to an inactive organization fire exactly one first-login")
	assert.Equal(t, 10, r.Tracker().SessionCount("org-foo"))
}

func TestRegistryRecoverRestoresSessionCounts(t *testing.T) {
	store := newFakeStore()
	now := time.Now()
	for _, id := range []string{"s1", "s2", "s3"} {
		store.rows[id] = models.SessionModel{
			ID: id, UserID: "user-" + id, OrgID: "org-bar",
			CreatedAt: now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour),
		}
	}

	tr := NewTracker()
	r := NewRegistry(store, tr)

	loaded, err := r.Recover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, loaded)
	assert.True(t, r.IsOrganizationActive("org-bar"))
	assert.Equal(t, 3, r.Tracker().SessionCount("org-bar"))
}

func TestRegistryCreateReturnsCopy(t *testing.T) {
	store := newFakeStore()
	r := NewRegistry(store, NewTracker())

	s, err := r.Create(context.Background(), "user-1", "org-a", "", "")
	require.NoError(t, err)

	s.UserID = "tampered"
	got, ok := r.Get(s.ID)
	require.True(t, ok)
	assert.Equal(t, "user-1", got.UserID)
}
