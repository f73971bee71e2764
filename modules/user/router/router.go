package router

import (
	"tablepick/modules/user/controller"

	"github.com/labstack/echo/v4"
)

type AuthRouter struct {
	controller *controller.AuthController
}

func NewAuthRouter(controller *controller.AuthController) *AuthRouter {
	return &AuthRouter{
		controller: controller,
	}
}

func (r *AuthRouter) Register(g *echo.Group) {
	auth := g.Group("/auth")

	auth.POST("/register", r.controller.Register)
	auth.POST("/login", r.controller.Login)
}
