package user

import (
	"tablepick/core/config"
	"tablepick/core/database"
	"tablepick/modules/user/controller"
	"tablepick/modules/user/repository"
	"tablepick/modules/user/router"
	"tablepick/modules/user/service"

	"github.com/labstack/echo/v4"
)

// Init initializes the user module and returns the service for use by other modules
func Init(g *echo.Group, db database.IDatabase, cfg *config.Config) *service.UserService {
	repo := repository.NewUserRepository(db)
	svc := service.NewUserService(repo, cfg.JWT)
	ctrl := controller.NewAuthController(svc)
	r := router.NewAuthRouter(ctrl)

	r.Register(g)

	return svc
}
