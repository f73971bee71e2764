package controller

import (
	"tablepick/core/controller"
	"tablepick/core/errors"
	"tablepick/core/utils"
	"tablepick/modules/plan/dto"
	"tablepick/modules/plan/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type PlanController struct {
	controller.BaseController
	service service.PlanServiceInterface
}

func NewPlanController(svc service.PlanServiceInterface) *PlanController {
	return &PlanController{
		BaseController: controller.NewBaseController(),
		service:        svc,
	}
}

func (c *PlanController) GetUserIDFromContext(ctx echo.Context) (uuid.UUID, error) {
	tokenData := ctx.Get("token_data")
	if tokenData == nil {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "Token data not found in context", nil)
	}
	claims, ok := tokenData.(*utils.TokenClaims)
	if !ok {
		return uuid.Nil, errors.NewAppError(errors.ErrUnauthorized, "Invalid token data format", nil)
	}
	return claims.UserID, nil
}

// Create handles POST /plans
func (c *PlanController) Create(ctx echo.Context) error {
	userID, err := c.GetUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	req := new(dto.CreatePlanRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	plan, appErr := c.service.Create(ctx.Request().Context(), userID, req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.CreatedResponse(ctx, plan, "Plan created")
}

// List handles GET /plans
func (c *PlanController) List(ctx echo.Context) error {
	userID, err := c.GetUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	plans, appErr := c.service.ListMine(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, plans, "Plans retrieved")
}

// Get handles GET /plans/:id
func (c *PlanController) Get(ctx echo.Context) error {
	userID, err := c.GetUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	plan, appErr := c.service.GetByID(ctx.Request().Context(), ctx.Param("id"), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, plan, "Plan retrieved")
}

// RSVP handles POST /plans/:id/rsvp
func (c *PlanController) RSVP(ctx echo.Context) error {
	userID, err := c.GetUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	req := new(dto.RSVPRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	plan, appErr := c.service.RSVP(ctx.Request().Context(), ctx.Param("id"), userID, req.Action)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, plan, "Response recorded")
}

// Swipe handles POST /plans/:id/swipe
func (c *PlanController) Swipe(ctx echo.Context) error {
	userID, err := c.GetUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	req := new(dto.SwipeRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	plan, appErr := c.service.Swipe(ctx.Request().Context(), ctx.Param("id"), userID, req.CandidateIDs)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, plan, "Votes recorded")
}

// Leave handles POST /plans/:id/leave
func (c *PlanController) Leave(ctx echo.Context) error {
	userID, err := c.GetUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	if appErr := c.service.Leave(ctx.Request().Context(), ctx.Param("id"), userID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Left the plan")
}

// Delegate handles POST /plans/:id/delegate
func (c *PlanController) Delegate(ctx echo.Context) error {
	userID, err := c.GetUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	req := new(dto.DelegateRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}
	newOwnerID, err := uuid.Parse(req.NewOwnerID)
	if err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid new owner ID")
	}

	plan, appErr := c.service.Delegate(ctx.Request().Context(), ctx.Param("id"), userID, newOwnerID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, plan, "Ownership delegated")
}

// Confirm handles POST /plans/:id/confirm
func (c *PlanController) Confirm(ctx echo.Context) error {
	userID, err := c.GetUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	req := new(dto.ConfirmRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	plan, appErr := c.service.Confirm(ctx.Request().Context(), ctx.Param("id"), userID, req.CandidateID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, plan, "Plan confirmed")
}

// Complete handles POST /plans/:id/complete
func (c *PlanController) Complete(ctx echo.Context) error {
	userID, err := c.GetUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	plan, appErr := c.service.Complete(ctx.Request().Context(), ctx.Param("id"), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, plan, "Plan completed")
}

// Cancel handles POST /plans/:id/cancel
func (c *PlanController) Cancel(ctx echo.Context) error {
	userID, err := c.GetUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	plan, appErr := c.service.Cancel(ctx.Request().Context(), ctx.Param("id"), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, plan, "Plan cancelled")
}

// PhotoUploadURL handles POST /plans/:id/candidates/:cid/photo-upload-url
func (c *PlanController) PhotoUploadURL(ctx echo.Context) error {
	userID, err := c.GetUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	url, appErr := c.service.PhotoUploadURL(ctx.Request().Context(), ctx.Param("id"), userID, ctx.Param("cid"))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, dto.PhotoUploadURLResponse{UploadURL: url}, "Upload URL created")
}
