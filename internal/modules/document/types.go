package document

import "github.com/docspace/core/internal/modules/indexer"

const (
	servedByIndex = "index"
	servedBySQL   = "sql"
)

type createDocumentDTO struct {
	Title    string   `json:"title" binding:"required"`
	Text     string   `json:"text"`
	Tags     []string `json:"tags"`
	MimeType string   `json:"mime_type"`
}

type updateDocumentDTO struct {
	Title *string   `json:"title"`
	Text  *string   `json:"text"`
	Tags  *[]string `json:"tags"`
}

type searchResponse struct {
	Hits     []indexer.Hit `json:"hits"`
	ServedBy string        `json:"served_by"`
}
