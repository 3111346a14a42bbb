package middleware

import (
	"glee-scheduler/core/constants"
	"glee-scheduler/core/controller"
	"glee-scheduler/core/errors"
	"glee-scheduler/core/logger"
	"glee-scheduler/core/utils"
	"slices"

	"github.com/labstack/echo/v4"
)

type Middleware struct {
	controller.BaseController
}

func NewMiddleware() *Middleware {
	return &Middleware{BaseController: controller.NewBaseController()}
}

// AuthMiddleware rejects requests without a valid bearer token.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := utils.GetTokenFromHeader(c)
			if err != nil {
				return m.Unauthorized(errors.CodeOf(err), "Authentication required")
			}

			claims, err := utils.ValidateAndParseToken(token)
			if err != nil {
				logger.Warn("Middleware:AuthMiddleware:InvalidToken", "error", err)
				return m.Unauthorized(errors.CodeOf(err), "Invalid or expired token")
			}

			c.Set(constants.ContextTokenData, claims)
			return next(c)
		}
	}
}

// OptionalAuthMiddleware attaches claims when a valid token is present and
// otherwise lets the request through as anonymous.
func (m *Middleware) OptionalAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := utils.GetTokenFromHeader(c)
			if err == nil {
				if claims, err := utils.ValidateAndParseToken(token); err == nil {
					c.Set(constants.ContextTokenData, claims)
				}
			}
			return next(c)
		}
	}
}

// RequireRoles must run after AuthMiddleware.
func (m *Middleware) RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := utils.ClaimsFromContext(c, constants.ContextTokenData)
			if !ok {
				return m.Unauthorized(errors.ErrUnauthorized, "Authentication required")
			}
			if !slices.Contains(roles, claims.Role) {
				return m.Forbidden(errors.ErrForbidden, "Insufficient permissions")
			}
			return next(c)
		}
	}
}

// ManagerRoles may manage calendars, events, appointments and scan tokens.
var ManagerRoles = []string{constants.RoleAdmin, constants.RoleExecBoard, constants.RoleSecretary}
