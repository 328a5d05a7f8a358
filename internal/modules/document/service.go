package document

import (
	"bytes"
	"context"
	"errors"

	"github.com/docspace/core/internal/models"
	"github.com/docspace/core/internal/modules/indexer"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service handles org-scoped document metadata and search. It doubles as the
// indexer.Source that feeds index builds.
type Service struct {
	db     *gorm.DB
	search indexer.Client
	logger *zap.Logger
	md     goldmark.Markdown
}

// ServiceOption configures a document Service.
type ServiceOption func(*Service)

// WithLogger sets the logger for the document service.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l.Named("DocumentService")
		}
	}
}

func NewService(db *gorm.DB, search indexer.Client, opts ...ServiceOption) *Service {
	s := &Service{
		db:     db,
		search: search,
		logger: zap.NewNop(),
		md:     goldmark.New(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Create(orgID, createdBy string, dto createDocumentDTO) (*models.DocumentModel, error) {
	doc := models.DocumentModel{
		OrgID:     orgID,
		Title:     dto.Title,
		Text:      dto.Text,
		Tags:      dto.Tags,
		MimeType:  dto.MimeType,
		SizeBytes: int64(len(dto.Text)),
		CreatedBy: createdBy,
	}
	return &doc, s.db.Create(&doc).Error
}

func (s *Service) Get(orgID, id string) (*models.DocumentModel, error) {
	var doc models.DocumentModel
	err := s.db.Where("org_id = ? AND id = ?", orgID, id).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Service) Update(orgID, id string, dto updateDocumentDTO) (*models.DocumentModel, error) {
	doc, err := s.Get(orgID, id)
	if err != nil || doc == nil {
		return doc, err
	}
	updates := map[string]interface{}{}
	if dto.Title != nil {
		updates["title"] = *dto.Title
	}
	if dto.Text != nil {
		updates["text"] = *dto.Text
		updates["size_bytes"] = int64(len(*dto.Text))
	}
	if dto.Tags != nil {
		doc.Tags = *dto.Tags
		if err := s.db.Model(doc).Update("tags", doc.Tags).Error; err != nil {
			return nil, err
		}
	}
	if len(updates) > 0 {
		if err := s.db.Model(doc).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (s *Service) Delete(orgID, id string) error {
	return s.db.Where("org_id = ?", orgID).Delete(&models.DocumentModel{}, "id = ?", id).Error
}

// Query returns the base query for an organization's documents, for
// pagination by the handler.
func (s *Service) Query(orgID string) *gorm.DB {
	return s.db.Model(&models.DocumentModel{}).
		Where("org_id = ?", orgID).
		Order("updated_at DESC")
}

// Search queries the external index, falling back to SQL LIKE when the index
// is unavailable (not yet built, build failed, or the service is down).
func (s *Service) Search(ctx context.Context, orgID, q string, limit int) ([]indexer.Hit, string, error) {
	if hits, err := s.search.Search(ctx, orgID, q, limit); err == nil {
		return hits, servedByIndex, nil
	} else {
		s.logger.Debug("index search failed, falling back to SQL",
			zap.String("org_id", orgID), zap.Error(err))
	}
	hits, err := s.sqlSearch(orgID, q, limit)
	return hits, servedBySQL, err
}

func (s *Service) sqlSearch(orgID, q string, limit int) ([]indexer.Hit, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + q + "%"
	var docs []models.DocumentModel
	err := s.db.
		Where("org_id = ? AND (title LIKE ? OR text LIKE ?)", orgID, like, like).
		Select("id, title, text").
		Limit(limit).
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	hits := make([]indexer.Hit, 0, len(docs))
	for _, d := range docs {
		text := d.Text
		if len(text) > 280 {
			text = text[:280]
		}
		hits = append(hits, indexer.Hit{ID: d.ID, Title: d.Title, Snippet: text})
	}
	return hits, nil
}

// ListIndexable implements indexer.Source: every document of the organization
// in its indexable form.
func (s *Service) ListIndexable(ctx context.Context, orgID string) ([]indexer.Document, error) {
	var docs []models.DocumentModel
	if err := s.db.WithContext(ctx).Where("org_id = ?", orgID).Find(&docs).Error; err != nil {
		return nil, err
	}
	out := make([]indexer.Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, indexer.Document{
			ID:       d.ID,
			Title:    d.Title,
			Text:     d.Text,
			Tags:     d.Tags,
			Modified: d.UpdatedAt.UnixMilli(),
		})
	}
	return out, nil
}

// RenderPreview converts a document's markdown text to HTML.
func (s *Service) RenderPreview(doc *models.DocumentModel) (string, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(doc.Text), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
