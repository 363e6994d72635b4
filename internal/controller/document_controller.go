package controller

import (
	"fmt"

	"github.com/SLatz18/thoughtsAI/internal/dto"
	"github.com/SLatz18/thoughtsAI/internal/pkg/serverutils"
	"github.com/SLatz18/thoughtsAI/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Export(ctx *fiber.Ctx) error
	Share(ctx *fiber.Ctx) error
	Versions(ctx *fiber.Ctx) error
}

type documentController struct {
	documentService service.IDocumentService
}

func NewDocumentController(documentService service.IDocumentService) IDocumentController {
	return &documentController{
		documentService: documentService,
	}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/documents")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.List)
	h.Post("", c.Create)
	h.Get(":id", c.Show)
	h.Get(":id/export", c.Export)
	h.Post(":id/share", c.Share)
	h.Get(":id/versions", c.Versions)
}

func (c *documentController) List(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	res, err := c.documentService.List(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list documents", res))
}

func (c *documentController) Create(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	var req dto.CreateDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.documentService.Create(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create document", res))
}

func (c *documentController) Show(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	res, err := c.documentService.Show(ctx.Context(), userId, id)
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "Document not found")
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show document", res))
}

func (c *documentController) Export(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	res, err := c.documentService.Export(ctx.Context(), userId, id)
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "Document not found")
	}

	ctx.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", res.Filename))
	return ctx.SendString(res.Markdown)
}

func (c *documentController) Share(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	var req dto.ShareDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.Id = id

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.documentService.Share(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "Document not found")
	}

	return ctx.JSON(serverutils.SuccessResponse("Success share document", res))
}

func (c *documentController) Versions(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	res, err := c.documentService.Versions(ctx.Context(), userId, id)
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "Document not found")
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list document versions", res))
}
