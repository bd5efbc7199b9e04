package controller

import (
	"dealdocs-be/internal/dto"
	"dealdocs-be/internal/pkg/serverutils"
	"dealdocs-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDealController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type dealController struct {
	dealService service.IDealService
}

func NewDealController(dealService service.IDealService) IDealController {
	return &dealController{
		dealService: dealService,
	}
}

func (c *dealController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/deal/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Put(":id", c.Update)
	h.Delete(":id", c.Delete)
}

// Create accepts multipart form data: deal fields plus zero or more
// files under the "files" key. Files are queued for ingestion.
func (c *dealController) Create(ctx *fiber.Ctx) error {
	form, err := ctx.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "expected multipart form data")
	}

	req := dto.CreateDealRequest{
		Name:        firstValue(form.Value["name"]),
		Description: firstValue(form.Value["description"]),
		Focus:       firstValue(form.Value["focus"]),
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.dealService.Create(ctx.Context(), &req, form.File["files"])
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create deal", res))
}

func (c *dealController) Show(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid deal id")
	}

	res, err := c.dealService.Show(ctx.Context(), id)
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "deal not found")
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show deal", res))
}

func (c *dealController) List(ctx *fiber.Ctx) error {
	res, err := c.dealService.List(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list deals", res))
}

func (c *dealController) Update(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid deal id")
	}

	var req dto.UpdateDealRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.Id = id

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.dealService.Update(ctx.Context(), &req)
	if err != nil {
		return err
	}
	if res == nil {
		return fiber.NewError(fiber.StatusNotFound, "deal not found")
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update deal", res))
}

func (c *dealController) Delete(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid deal id")
	}

	if err := c.dealService.Delete(ctx.Context(), id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete deal", nil))
}

func firstValue(values []string) string {
	if len(values) > 0 {
		return values[0]
	}
	return ""
}
