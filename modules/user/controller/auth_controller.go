package controller

import (
	"tablepick/core/controller"
	"tablepick/core/errors"
	"tablepick/modules/user/dto"
	"tablepick/modules/user/service"

	"github.com/labstack/echo/v4"
)

type AuthController struct {
	controller.BaseController
	service *service.UserService
}

func NewAuthController(service *service.UserService) *AuthController {
	return &AuthController{
		BaseController: controller.NewBaseController(),
		service:        service,
	}
}

// Register handles POST /auth/register
func (c *AuthController) Register(ctx echo.Context) error {
	req := new(dto.RegisterRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	resp, appErr := c.service.Register(ctx.Request().Context(), req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.CreatedResponse(ctx, resp, "Account created")
}

// Login handles POST /auth/login
func (c *AuthController) Login(ctx echo.Context) error {
	req := new(dto.LoginRequest)
	if err := ctx.Bind(req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request body")
	}

	resp, appErr := c.service.Login(ctx.Request().Context(), req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, resp, "Logged in")
}
