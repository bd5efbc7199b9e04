package controller

import (
	"dealdocs-be/internal/dto"
	"dealdocs-be/internal/pkg/serverutils"
	"dealdocs-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IRunController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Artifacts(ctx *fiber.Ctx) error
	DownloadArtifact(ctx *fiber.Ctx) error
}

type runController struct {
	runService service.IRunService
}

func NewRunController(runService service.IRunService) IRunController {
	return &runController{
		runService: runService,
	}
}

func (c *runController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/run/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("deal/:dealId", c.Create)
	h.Get("deal/:dealId", c.List)
	h.Get("deal/:dealId/:id", c.Show)
	h.Get(":id/artifacts", c.Artifacts)
	h.Get("artifact/:artifactId/download", c.DownloadArtifact)
}

func (c *runController) Create(ctx *fiber.Ctx) error {
	dealId, err := uuid.Parse(ctx.Params("dealId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid deal id")
	}

	var req dto.CreateRunRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return err
		}
	}
	req.DealId = dealId

	res, err := c.runService.Create(ctx.Context(), &req)
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "deal not found")
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Success create run", res))
}

func (c *runController) Show(ctx *fiber.Ctx) error {
	dealId, err := uuid.Parse(ctx.Params("dealId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid deal id")
	}
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid run id")
	}

	res, err := c.runService.Show(ctx.Context(), dealId, id)
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "run not found")
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show run", res))
}

func (c *runController) List(ctx *fiber.Ctx) error {
	dealId, err := uuid.Parse(ctx.Params("dealId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid deal id")
	}

	res, err := c.runService.List(ctx.Context(), dealId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list runs", res))
}

func (c *runController) Artifacts(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid run id")
	}

	res, err := c.runService.Artifacts(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list artifacts", res))
}

func (c *runController) DownloadArtifact(ctx *fiber.Ctx) error {
	artifactId, err := uuid.Parse(ctx.Params("artifactId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid artifact id")
	}

	filename, content, err := c.runService.DownloadArtifact(ctx.Context(), artifactId)
	if err != nil {
		return err
	}
	if content == nil {
		return fiber.NewError(fiber.StatusNotFound, "artifact not found")
	}

	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return ctx.Send(content)
}
