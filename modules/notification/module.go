package notification

import (
	"tablepick/core/database"
	"tablepick/core/middleware"
	"tablepick/core/queue"
	"tablepick/modules/notification/controller"
	"tablepick/modules/notification/repository"
	"tablepick/modules/notification/router"
	"tablepick/modules/notification/service"

	"github.com/labstack/echo/v4"
)

// Init initializes the notification module and returns the service for use by other modules
func Init(g *echo.Group, db database.IDatabase, mw *middleware.Middleware, queueClient *queue.Client) *service.NotificationService {
	repo := repository.NewNotificationRepository(db)
	svc := service.NewNotificationService(repo, queueClient)
	ctrl := controller.NewNotificationController(svc)
	r := router.NewNotificationRouter(ctrl)

	r.Register(g, mw)

	return svc
}
