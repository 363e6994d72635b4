package mapper

import (
	"encoding/json"
	"time"

	"github.com/SLatz18/thoughtsAI/internal/entity"
	"github.com/SLatz18/thoughtsAI/internal/model"
	"github.com/SLatz18/thoughtsAI/pkg/outline"

	"gorm.io/datatypes"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	return &entity.Document{
		Id:              d.Id,
		UserId:          d.UserId,
		Title:           d.Title,
		Sections:        sectionsFromJSON(d.Content),
		ContentMarkdown: d.ContentMarkdown,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       updatedAt,
	}
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	return &model.Document{
		Id:              d.Id,
		UserId:          d.UserId,
		Title:           d.Title,
		Content:         sectionsToJSON(d.Sections),
		ContentMarkdown: d.ContentMarkdown,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       updatedAt,
	}
}

func (m *DocumentMapper) ToEntities(docs []*model.Document) []*entity.Document {
	entities := make([]*entity.Document, len(docs))
	for i, d := range docs {
		entities[i] = m.ToEntity(d)
	}
	return entities
}

func (m *DocumentMapper) VersionToEntity(v *model.DocumentVersion) *entity.DocumentVersion {
	if v == nil {
		return nil
	}
	return &entity.DocumentVersion{
		Id:              v.Id,
		DocumentId:      v.DocumentId,
		Version:         v.Version,
		Sections:        sectionsFromJSON(v.Content),
		ContentMarkdown: v.ContentMarkdown,
		CreatedAt:       v.CreatedAt,
	}
}

func (m *DocumentMapper) VersionToModel(v *entity.DocumentVersion) *model.DocumentVersion {
	if v == nil {
		return nil
	}
	return &model.DocumentVersion{
		Id:              v.Id,
		DocumentId:      v.DocumentId,
		Version:         v.Version,
		Content:         sectionsToJSON(v.Sections),
		ContentMarkdown: v.ContentMarkdown,
		CreatedAt:       v.CreatedAt,
	}
}

func (m *DocumentMapper) VersionsToEntities(versions []*model.DocumentVersion) []*entity.DocumentVersion {
	entities := make([]*entity.DocumentVersion, len(versions))
	for i, v := range versions {
		entities[i] = m.VersionToEntity(v)
	}
	return entities
}

// sectionsToJSON marshals outline sections into the JSONB column. Sections are
// plain data so marshaling cannot fail; a nil slice persists as an empty array
// rather than SQL NULL.
func sectionsToJSON(sections []outline.SectionData) datatypes.JSON {
	if sections == nil {
		sections = []outline.SectionData{}
	}
	raw, _ := json.Marshal(sections)
	return datatypes.JSON(raw)
}

func sectionsFromJSON(raw datatypes.JSON) []outline.SectionData {
	if len(raw) == 0 {
		return []outline.SectionData{}
	}
	var sections []outline.SectionData
	if err := json.Unmarshal(raw, &sections); err != nil {
		return []outline.SectionData{}
	}
	return sections
}
