package controller

import (
	"strconv"

	"tablepick/core/controller"
	"tablepick/core/errors"
	"tablepick/core/params"
	"tablepick/core/utils"
	"tablepick/modules/notification/dto"
	"tablepick/modules/notification/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type NotificationController struct {
	controller.BaseController
	service *service.NotificationService
}

func NewNotificationController(service *service.NotificationService) *NotificationController {
	return &NotificationController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

func (c *NotificationController) GetUserIDFromContext(ctx echo.Context) (uuid.UUID, error) {
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

// GetMyNotifications handles GET /notifications
func (c *NotificationController) GetMyNotifications(ctx echo.Context) error {
	userID, err := c.GetUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	page, _ := strconv.Atoi(ctx.QueryParam("page"))
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))

	result, err := c.service.GetMyNotifications(ctx.Request().Context(), userID, params.QueryParams{Page: page, Limit: limit})
	if err != nil {
		return c.InternalServerError(errors.ErrInternalServer, err.Error())
	}
	return c.SuccessResponse(ctx, result, "Notifications retrieved")
}

// CountUnread handles GET /notifications/unread-count
func (c *NotificationController) CountUnread(ctx echo.Context) error {
	userID, err := c.GetUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	count, err := c.service.CountUnread(ctx.Request().Context(), userID)
	if err != nil {
		return c.InternalServerError(errors.ErrInternalServer, err.Error())
	}
	return c.SuccessResponse(ctx, map[string]int{"count": count}, "Unread count retrieved")
}

// MarkAsRead handles POST /notifications/read
func (c *NotificationController) MarkAsRead(ctx echo.Context) error {
	userID, err := c.GetUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	req := new(dto.MarkReadRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	if err := c.service.MarkAsRead(ctx.Request().Context(), userID, req.IDs); err != nil {
		return c.InternalServerError(errors.ErrInternalServer, err.Error())
	}
	return c.SuccessResponse(ctx, nil, "Notifications marked as read")
}

// MarkAllAsRead handles POST /notifications/read-all
func (c *NotificationController) MarkAllAsRead(ctx echo.Context) error {
	userID, err := c.GetUserIDFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Unauthorized")
	}

	if err := c.service.MarkAllAsRead(ctx.Request().Context(), userID); err != nil {
		return c.InternalServerError(errors.ErrInternalServer, err.Error())
	}
	return c.SuccessResponse(ctx, nil, "All notifications marked as read")
}
