package router

import (
	"tablepick/core/middleware"
	"tablepick/modules/notification/controller"

	"github.com/labstack/echo/v4"
)

type NotificationRouter struct {
	controller *controller.NotificationController
}

func NewNotificationRouter(controller *controller.NotificationController) *NotificationRouter {
	return &NotificationRouter{
		controller: controller,
	}
}

func (r *NotificationRouter) Register(g *echo.Group, mw *middleware.Middleware) {
	notifications := g.Group("/notifications")
	notifications.Use(mw.AuthMiddleware())

	notifications.GET("", r.controller.GetMyNotifications)
	notifications.GET("/unread-count", r.controller.CountUnread)
	notifications.POST("/read", r.controller.MarkAsRead)
	notifications.POST("/read-all", r.controller.MarkAllAsRead)
}
