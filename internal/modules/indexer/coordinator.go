package indexer

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultBuildTimeout = 5 * time.Minute

// build is the shared completion handle for one in-flight index build.
// Concurrent requesters for the same organization wait on done and observe
// the same outcome.
type build struct {
	done chan struct{}
	err  error
	docs int
}

// Coordinator keeps each organization's external search index aligned with
// its activity state. It is the only writer of index-status state. At most
// one build per organization is in flight at any time; a per-organization
// generation counter, bumped on every destroy, discards completions that a
// newer transition has made stale.
type Coordinator struct {
	client  Client
	source  Source
	timeout time.Duration
	logger  *zap.Logger

	mu       sync.Mutex
	states   map[string]*IndexState
	inflight map[string]*build
	gen      map[string]uint64
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithBuildTimeout bounds a single external build or teardown call.
func WithBuildTimeout(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger for the coordinator.
func WithLogger(l *zap.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l.Named("IndexCoordinator")
		}
	}
}

func NewCoordinator(client Client, source Source, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		client:   client,
		source:   source,
		timeout:  defaultBuildTimeout,
		logger:   zap.NewNop(),
		states:   make(map[string]*IndexState),
		inflight: make(map[string]*build),
		gen:      make(map[string]uint64),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Build ensures the organization's index exists and is populated. If a build
// is already in flight the caller joins it instead of starting a second one.
// The build itself runs on a detached, timeout-bounded context so that one
// caller's cancellation never aborts an operation other callers share; ctx
// only governs how long this caller waits.
func (c *Coordinator) Build(ctx context.Context, orgID string, force bool) error {
	c.mu.Lock()
	if b, ok := c.inflight[orgID]; ok {
		c.mu.Unlock()
		return c.await(ctx, b)
	}
	if !force {
		if st, ok := c.states[orgID]; ok && st.Status == StatusReady {
			c.mu.Unlock()
			return nil
		}
	}
	b := &build{done: make(chan struct{})}
	c.inflight[orgID] = b
	c.states[orgID] = &IndexState{OrgID: orgID, Status: StatusBuilding}
	gen := c.gen[orgID]
	c.mu.Unlock()

	b.docs, b.err = c.runBuild(orgID)

	now := time.Now()
	c.mu.Lock()
	delete(c.inflight, orgID)
	if c.gen[orgID] == gen {
		st := &IndexState{OrgID: orgID, Documents: b.docs}
		if b.err != nil {
			st.Status = StatusFailed
			st.Error = b.err.Error()
		} else {
			st.Status = StatusReady
			st.BuiltAt = &now
		}
		c.states[orgID] = st
	}
	// A bumped generation means a destroy ran mid-build; its cleared state
	// stands and this completion is discarded.
	c.mu.Unlock()
	close(b.done)

	if b.err != nil {
		c.logger.Warn("index build failed", zap.String("org_id", orgID), zap.Error(b.err))
	} else {
		c.logger.Info("index built", zap.String("org_id", orgID), zap.Int("documents", b.docs))
	}
	return b.err
}

func (c *Coordinator) await(ctx context.Context, b *build) error {
	select {
	case <-b.done:
		return b.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) runBuild(orgID string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	docs, err := c.source.ListIndexable(ctx, orgID)
	if err != nil {
		return 0, err
	}
	if err := c.client.EnsureIndex(ctx, orgID); err != nil {
		return 0, err
	}
	if len(docs) > 0 {
		if err := c.client.AddDocuments(ctx, orgID, docs); err != nil {
			return 0, err
		}
	}
	return len(docs), nil
}

// Destroy tears down the organization's external index. Local status is
// cleared first so a stale "ready" is never reported for an inactive
// organization; the external call is best-effort and never blocks the caller's
// transition.
func (c *Coordinator) Destroy(orgID string) {
	c.mu.Lock()
	c.gen[orgID]++
	delete(c.states, orgID)
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.client.DeleteIndex(ctx, orgID); err != nil {
		c.logger.Warn("index teardown failed", zap.String("org_id", orgID), zap.Error(err))
		return
	}
	c.logger.Info("index destroyed", zap.String("org_id", orgID))
}

// Status returns the tracked state for an organization, defaulting to
// not_built.
func (c *Coordinator) Status(orgID string) IndexState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.states[orgID]; ok {
		return *st
	}
	return IndexState{OrgID: orgID, Status: StatusNotBuilt}
}

// IsBuilding reports whether a build for the organization is in flight.
func (c *Coordinator) IsBuilding(orgID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[orgID]
	return ok
}

// ReadyOrganizations returns the ids of organizations whose index is ready,
// sorted.
func (c *Coordinator) ReadyOrganizations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.states))
	for orgID, st := range c.states {
		if st.Status == StatusReady {
			out = append(out, orgID)
		}
	}
	sort.Strings(out)
	return out
}

// States returns a snapshot of all tracked index states.
func (c *Coordinator) States() []IndexState {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]IndexState, 0, len(c.states))
	for _, st := range c.states {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrgID < out[j].OrgID })
	return out
}

// OrganizationFirstLogin implements sessions.Listener: the first live session
// for an organization triggers an index build, detached from the login that
// caused it.
func (c *Coordinator) OrganizationFirstLogin(orgID string) {
	go func() {
		_ = c.Build(context.Background(), orgID, false)
	}()
}

// OrganizationLastLogout implements sessions.Listener: the last logout tears
// the index down.
func (c *Coordinator) OrganizationLastLogout(orgID string) {
	go c.Destroy(orgID)
}
