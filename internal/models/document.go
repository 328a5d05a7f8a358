package models

// DocumentModel is org-scoped document metadata plus its extracted text. The
// text is what gets pushed into the organization's search index.
type DocumentModel struct {
	Base
	OrgID     string   `json:"org_id"     gorm:"index;size:36;not null"`
	Title     string   `json:"title"      gorm:"not null"`
	Text      string   `json:"text"       gorm:"type:longtext"`
	Tags      []string `json:"tags"       gorm:"type:longtext;serializer:json"`
	MimeType  string   `json:"mime_type"`
	SizeBytes int64    `json:"size_bytes"`
	CreatedBy string   `json:"created_by" gorm:"size:36;not null"`
}

func (DocumentModel) TableName() string { return "documents" }
