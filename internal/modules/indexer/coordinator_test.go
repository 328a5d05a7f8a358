package indexer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu         sync.Mutex
	ensured    map[string]int
	added      map[string]int
	deleted    map[string]int
	ensureErr  error
	addErr     error
	deleteErr  error
	lastDocs   []Document
	searchHits []Hit
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		ensured: make(map[string]int),
		added:   make(map[string]int),
		deleted: make(map[string]int),
	}
}

func (f *fakeClient) EnsureIndex(_ context.Context, orgID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ensureErr != nil {
		return f.ensureErr
	}
	f.ensured[orgID]++
	return nil
}

func (f *fakeClient) AddDocuments(_ context.Context, orgID string, docs []Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.added[orgID]++
	f.lastDocs = docs
	return nil
}

func (f *fakeClient) DeleteIndex(_ context.Context, orgID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted[orgID]++
	return nil
}

func (f *fakeClient) Search(_ context.Context, _, _ string, _ int) ([]Hit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchHits, nil
}

func (f *fakeClient) deleteCount(orgID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleted[orgID]
}

// fakeSource optionally blocks inside ListIndexable until release is closed,
// so tests can hold a build in flight.
type fakeSource struct {
	mu      sync.Mutex
	docs    []Document
	err     error
	calls   int
	release chan struct{}
}

func (f *fakeSource) ListIndexable(ctx context.Context, _ string) ([]Document, error) {
	f.mu.Lock()
	f.calls++
	release := f.release
	docs, err := f.docs, f.err
	f.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return docs, err
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func someDocs(n int) []Document {
	docs := make([]Document, n)
	for i := range docs {
		docs[i] = Document{ID: string(rune('a' + i)), Title: "doc", Text: "text"}
	}
	return docs
}

func TestCoordinatorBuildSuccess(t *testing.T) {
	client := newFakeClient()
	source := &fakeSource{docs: someDocs(3)}
	c := NewCoordinator(client, source)

	err := c.Build(context.Background(), "org-a", false)
	require.NoError(t, err)

	st := c.Status("org-a")
	assert.Equal(t, StatusReady, st.Status)
	assert.Equal(t, 3, st.Documents)
	assert.NotNil(t, st.BuiltAt)
	assert.Equal(t, []string{"org-a"}, c.ReadyOrganizations())
}

func TestCoordinatorBuildSkipsWhenReady(t *testing.T) {
	client := newFakeClient()
	source := &fakeSource{docs: someDocs(1)}
	c := NewCoordinator(client, source)

	require.NoError(t, c.Build(context.Background(), "org-a", false))
	require.NoError(t, c.Build(context.Background(), "org-a", false))

	assert.Equal(t, 1, source.callCount(), "a ready index must not rebuild without force")
}

func TestCoordinatorForceRebuild(t *testing.T) {
	client := newFakeClient()
	source := &fakeSource{docs: someDocs(1)}
	c := NewCoordinator(client, source)

	require.NoError(t, c.Build(context.Background(), "org-a", false))
	require.NoError(t, c.Build(context.Background(), "org-a", true))

	assert.Equal(t, 2, source.callCount())
	assert.Equal(t, StatusReady, c.Status("org-a").Status)
}

func TestCoordinatorBuildFailureThenRetry(t *testing.T) {
	client := newFakeClient()
	source := &fakeSource{err: errors.New("db gone")}
	c := NewCoordinator(client, source)

	err := c.Build(context.Background(), "org-a", false)
	require.Error(t, err)

	st := c.Status("org-a")
	assert.Equal(t, StatusFailed, st.Status)
	assert.Contains(t, st.Error, "db gone")
	assert.Empty(t, c.ReadyOrganizations())

	// A failed index is rebuildable without force.
	source.mu.Lock()
	source.err = nil
	source.docs = someDocs(2)
	source.mu.Unlock()

	require.NoError(t, c.Build(context.Background(), "org-a", false))
	assert.Equal(t, StatusReady, c.Status("org-a").Status)
}

func TestCoordinatorConcurrentBuildsShareOneFlight(t *testing.T) {
	client := newFakeClient()
	source := &fakeSource{docs: someDocs(2), release: make(chan struct{})}
	c := NewCoordinator(client, source)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs[n] = c.Build(context.Background(), "org-a", false)
		}(i)
	}

	require.Eventually(t, func() bool { return c.IsBuilding("org-a") },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, StatusBuilding, c.Status("org-a").Status)

	close(source.release)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, source.callCount(), "joiners must not start a second build")
	assert.Equal(t, StatusReady, c.Status("org-a").Status)
	assert.False(t, c.IsBuilding("org-a"))
}

func TestCoordinatorJoinerHonoursItsOwnContext(t *testing.T) {
	client := newFakeClient()
	source := &fakeSource{docs: someDocs(1), release: make(chan struct{})}
	c := NewCoordinator(client, source)

	done := make(chan error, 1)
	go func() { done <- c.Build(context.Background(), "org-a", false) }()

	require.Eventually(t, func() bool { return c.IsBuilding("org-a") },
		time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Build(ctx, "org-a", false)
	assert.ErrorIs(t, err, context.Canceled, "a joiner's cancellation returns to it alone")

	// The original build is unaffected.
	close(source.release)
	assert.NoError(t, <-done)
	assert.Equal(t, StatusReady, c.Status("org-a").Status)
}

func TestCoordinatorDestroyClearsState(t *testing.T) {
	client := newFakeClient()
	source := &fakeSource{docs: someDocs(1)}
	c := NewCoordinator(client, source)

	require.NoError(t, c.Build(context.Background(), "org-a", false))
	c.Destroy("org-a")

	assert.Equal(t, StatusNotBuilt, c.Status("org-a").Status)
	assert.Empty(t, c.ReadyOrganizations())
	assert.Equal(t, 1, client.deleteCount("org-a"))
}

func TestCoordinatorDestroySurvivesTeardownFailure(t *testing.T) {
	client := newFakeClient()
	client.deleteErr = errors.New("index service down")
	source := &fakeSource{docs: someDocs(1)}
	c := NewCoordinator(client, source)

	require.NoError(t, c.Build(context.Background(), "org-a", false))
	c.Destroy("org-a")

	assert.Equal(t, StatusNotBuilt, c.Status("org-a").Status,
		"local state clears regardless of the external teardown")
}

func TestCoordinatorDestroyMidBuildDiscardsCompletion(t *testing.T) {
	client := newFakeClient()
	source := &fakeSource{docs: someDocs(3), release: make(chan struct{})}
	c := NewCoordinator(client, source)

	done := make(chan error, 1)
	go func() { done <- c.Build(context.Background(), "org-a", false) }()

	require.Eventually(t, func() bool { return c.IsBuilding("org-a") },
		time.Second, 5*time.Millisecond)

	c.Destroy("org-a")
	close(source.release)
	require.NoError(t, <-done)

	assert.Equal(t, StatusNotBuilt, c.Status("org-a").Status,
		"a completion from before the destroy must not resurrect the index")
	assert.Empty(t, c.ReadyOrganizations())
}

func TestCoordinatorStatesSnapshot(t *testing.T) {
	client := newFakeClient()
	source := &fakeSource{docs: someDocs(1)}
	c := NewCoordinator(client, source)

	require.NoError(t, c.Build(context.Background(), "org-b", false))
	require.NoError(t, c.Build(context.Background(), "org-a", false))

	states := c.States()
	require.Len(t, states, 2)
	assert.Equal(t, "org-a", states[0].OrgID)
	assert.Equal(t, "org-b", states[1].OrgID)
}

func TestCoordinatorListenerTriggersBuild(t *testing.T) {
	client := newFakeClient()
	source := &fakeSource{docs: someDocs(2)}
	c := NewCoordinator(client, source)

	c.OrganizationFirstLogin("org-a")
	require.Eventually(t, func() bool {
		return c.Status("org-a").Status == StatusReady
	}, time.Second, 5*time.Millisecond)

	c.OrganizationLastLogout("org-a")
	require.Eventually(t, func() bool {
		return c.Status("org-a").Status == StatusNotBuilt && client.deleteCount("org-a") == 1
	}, time.Second, 5*time.Millisecond)
}
