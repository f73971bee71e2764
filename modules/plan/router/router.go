package router

import (
	"tablepick/core/middleware"
	"tablepick/modules/plan/controller"

	"github.com/labstack/echo/v4"
)

type PlanRouter struct {
	controller *controller.PlanController
}

func NewPlanRouter(controller *controller.PlanController) *PlanRouter {
	return &PlanRouter{
		controller: controller,
	}
}

func (r *PlanRouter) Register(g *echo.Group, mw *middleware.Middleware) {
	plans := g.Group("/plans")
	plans.Use(mw.AuthMiddleware())

	plans.POST("", r.controller.Create)
	plans.GET("", r.controller.List)
	plans.GET("/:id", r.controller.Get)
	plans.POST("/:id/rsvp", r.controller.RSVP)
	plans.POST("/:id/swipe", r.controller.Swipe)
	plans.POST("/:id/leave", r.controller.Leave)
	plans.POST("/:id/delegate", r.controller.Delegate)
	plans.POST("/:id/confirm", r.controller.Confirm)
	plans.POST("/:id/complete", r.controller.Complete)
	plans.POST("/:id/cancel", r.controller.Cancel)
	plans.POST("/:id/candidates/:cid/photo-upload-url", r.controller.PhotoUploadURL)
}
