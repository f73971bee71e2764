package plan

import (
	"tablepick/core/config"
	"tablepick/core/database"
	"tablepick/core/lock"
	"tablepick/core/middleware"
	"tablepick/core/storage"
	"tablepick/modules/plan/controller"
	"tablepick/modules/plan/repository"
	"tablepick/modules/plan/router"
	"tablepick/modules/plan/service"

	"github.com/labstack/echo/v4"
)

// Init initializes the plan module and returns the service so the worker can
// register the sweep task handler.
func Init(g *echo.Group, db database.IDatabase, mw *middleware.Middleware, cfg *config.Config,
	locker lock.PlanLocker, notif service.Notifier, names service.NameResolver, photos storage.PhotoStorage) *service.PlanService {

	repo := repository.NewPlanRepository(db)
	svc := service.NewPlanService(repo, notif, names, locker, service.SystemClock(), photos, cfg.Plan)
	ctrl := controller.NewPlanController(svc)
	r := router.NewPlanRouter(ctrl)

	r.Register(g, mw)

	return svc
}
