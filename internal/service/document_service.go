package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/SLatz18/thoughtsAI/internal/dto"
	"github.com/SLatz18/thoughtsAI/internal/entity"
	"github.com/SLatz18/thoughtsAI/internal/pkg/mailer"
	"github.com/SLatz18/thoughtsAI/internal/repository/specification"
	"github.com/SLatz18/thoughtsAI/internal/repository/unitofwork"
	"github.com/SLatz18/thoughtsAI/pkg/outline"

	"github.com/google/uuid"
)

type IDocumentService interface {
	List(ctx context.Context, userId string) ([]dto.DocumentSummaryResponse, error)
	Create(ctx context.Context, userId string, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error)
	Show(ctx context.Context, userId string, id uuid.UUID) (*dto.ShowDocumentResponse, error)
	Export(ctx context.Context, userId string, id uuid.UUID) (*dto.ExportDocumentResponse, error)
	Share(ctx context.Context, userId string, req *dto.ShareDocumentRequest) (*dto.ShareDocumentResponse, error)
	Versions(ctx context.Context, userId string, id uuid.UUID) ([]dto.DocumentVersionResponse, error)
}

type documentService struct {
	uowFactory   unitofwork.RepositoryFactory
	emailService mailer.IEmailService
}

func NewDocumentService(uowFactory unitofwork.RepositoryFactory, emailService mailer.IEmailService) IDocumentService {
	return &documentService{
		uowFactory:   uowFactory,
		emailService: emailService,
	}
}

func (c *documentService) List(ctx context.Context, userId string) ([]dto.DocumentSummaryResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.DocumentOwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]dto.DocumentSummaryResponse, 0, len(docs))
	for _, doc := range docs {
		res = append(res, dto.DocumentSummaryResponse{
			Id:        doc.Id,
			Title:     doc.Title,
			CreatedAt: doc.CreatedAt,
			UpdatedAt: doc.UpdatedAt,
		})
	}
	return res, nil
}

func (c *documentService) Create(ctx context.Context, userId string, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	doc := entity.Document{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     req.Title,
		Sections:  []outline.SectionData{},
		CreatedAt: time.Now(),
	}

	if err := uow.DocumentRepository().Create(ctx, &doc); err != nil {
		return nil, err
	}

	return &dto.CreateDocumentResponse{
		Id: doc.Id,
	}, nil
}

func (c *documentService) Show(ctx context.Context, userId string, id uuid.UUID) (*dto.ShowDocumentResponse, error) {
	doc, err := c.findOwned(ctx, userId, id)
	if err != nil || doc == nil {
		return nil, err
	}

	return &dto.ShowDocumentResponse{
		Id:        doc.Id,
		Title:     doc.Title,
		Sections:  doc.Sections,
		Markdown:  doc.ContentMarkdown,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func (c *documentService) Export(ctx context.Context, userId string, id uuid.UUID) (*dto.ExportDocumentResponse, error) {
	doc, err := c.findOwned(ctx, userId, id)
	if err != nil || doc == nil {
		return nil, err
	}

	title := doc.Title
	if title == "" {
		title = defaultDocumentTitle
	}

	markdown := fmt.Sprintf("# %s\n\n*Exported from ThoughtsAI*\n\n---\n\n%s", title, doc.ContentMarkdown)

	return &dto.ExportDocumentResponse{
		Markdown: markdown,
		Filename: exportFilename(title),
	}, nil
}

func (c *documentService) Share(ctx context.Context, userId string, req *dto.ShareDocumentRequest) (*dto.ShareDocumentResponse, error) {
	doc, err := c.findOwned(ctx, userId, req.Id)
	if err != nil || doc == nil {
		return nil, err
	}

	title := doc.Title
	if title == "" {
		title = defaultDocumentTitle
	}

	if err := c.emailService.SendDocument(req.To, title, doc.ContentMarkdown); err != nil {
		return nil, fmt.Errorf("failed to share document: %w", err)
	}

	return &dto.ShareDocumentResponse{
		Id:     doc.Id,
		SentTo: req.To,
	}, nil
}

func (c *documentService) Versions(ctx context.Context, userId string, id uuid.UUID) ([]dto.DocumentVersionResponse, error) {
	doc, err := c.findOwned(ctx, userId, id)
	if err != nil || doc == nil {
		return nil, err
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	versions, err := uow.DocumentVersionRepository().FindAll(ctx,
		specification.ByDocumentID{DocumentID: doc.Id},
		specification.OrderBy{Field: "version", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]dto.DocumentVersionResponse, 0, len(versions))
	for _, v := range versions {
		res = append(res, dto.DocumentVersionResponse{
			Version:   v.Version,
			CreatedAt: v.CreatedAt,
		})
	}
	return res, nil
}

func (c *documentService) findOwned(ctx context.Context, userId string, id uuid.UUID) (*entity.Document, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	return uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.DocumentOwnedBy{UserID: userId},
	)
}

// exportFilename keeps letters, digits, spaces, dashes and underscores from
// the title, then swaps spaces for underscores.
func exportFilename(title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	safe := strings.ReplaceAll(strings.TrimSpace(b.String()), " ", "_")
	if safe == "" {
		safe = "thinking_session"
	}
	return safe + ".md"
}
