package middleware

import (
	"errors"
	"strings"

	"tablepick/core/config"
	"tablepick/core/controller"
	coreErrors "tablepick/core/errors"
	"tablepick/core/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type Middleware struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Middleware {
	return &Middleware{cfg: cfg}
}

// AuthMiddleware validates the Bearer token and stores its claims under "token_data".
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return controller.NewErrorResponse(401, coreErrors.ErrMissingAuthorizationHeader, "Authorization header is required")
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return controller.NewErrorResponse(401, coreErrors.ErrInvalidTokenFormat, "Authorization header must be a Bearer token")
			}

			claims, err := utils.ParseToken(parts[1], m.cfg.JWT.Secret)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					return controller.NewErrorResponse(401, coreErrors.ErrTokenExpired, "Token has expired")
				}
				return controller.NewErrorResponse(401, coreErrors.ErrUnauthorized, "Invalid token")
			}

			c.Set("token_data", claims)
			return next(c)
		}
	}
}
