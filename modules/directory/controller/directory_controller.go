package controller

import (
	"glee-scheduler/core/constants"
	"glee-scheduler/core/controller"
	"glee-scheduler/core/errors"
	"glee-scheduler/core/utils"
	"glee-scheduler/modules/directory/service"

	"github.com/labstack/echo/v4"
)

type DirectoryController struct {
	controller.BaseController
	service service.DirectoryService
}

func NewDirectoryController(svc service.DirectoryService) *DirectoryController {
	return &DirectoryController{
		BaseController: controller.NewBaseController(),
		service:        svc,
	}
}

// GetMe handles GET /private/me
// @Summary Current member profile
// @Tags Directory
// @Security BearerAuth
// @Produce json
// @Success 200 {object} entity.Profile
// @Failure 401 {object} errors.AppError
// @Router /private/me [get]
func (c *DirectoryController) GetMe(ctx echo.Context) error {
	claims, ok := utils.ClaimsFromContext(ctx, constants.ContextTokenData)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	profile, appErr := c.service.GetProfile(ctx.Request().Context(), claims.UserID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, profile, "Success")
}
