package indexer

import (
	"context"
	"time"
)

// Status is the lifecycle state of an organization's search index.
type Status string

const (
	StatusNotBuilt Status = "not_built"
	StatusBuilding Status = "building"
	StatusReady    Status = "ready"
	StatusFailed   Status = "failed"
)

// IndexState is the coordinator's view of one organization's index.
type IndexState struct {
	OrgID     string     `json:"org_id"`
	Status    Status     `json:"status"`
	Error     string     `json:"error,omitempty"`
	Documents int        `json:"documents,omitempty"`
	BuiltAt   *time.Time `json:"built_at,omitempty"`
}

// Document is one unit of indexable content.
type Document struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Text     string   `json:"text"`
	Tags     []string `json:"tags,omitempty"`
	Modified int64    `json:"modified"`
}

// Hit is a single search result from the external index.
type Hit struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet,omitempty"`
}

// Client is the boundary to the external indexing service. All operations are
// assumed idempotent on the service side.
type Client interface {
	EnsureIndex(ctx context.Context, orgID string) error
	AddDocuments(ctx context.Context, orgID string, docs []Document) error
	DeleteIndex(ctx context.Context, orgID string) error
	Search(ctx context.Context, orgID, q string, limit int) ([]Hit, error)
}

// Source supplies the documents to index for an organization.
type Source interface {
	ListIndexable(ctx context.Context, orgID string) ([]Document, error)
}
