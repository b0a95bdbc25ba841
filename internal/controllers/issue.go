package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"safety-tracker/internal/dto"
	"safety-tracker/internal/services"
	apperrors "safety-tracker/pkg/errors"
	"safety-tracker/pkg/middleware"
	"safety-tracker/pkg/utils"
)

type IssueController struct {
	issueService services.IssueServiceInterface
	logger       *zap.Logger
}

func NewIssueController(issueService services.IssueServiceInterface, logger *zap.Logger) *IssueController {
	return &IssueController{issueService: issueService, logger: logger}
}

// RaiseIssue доступен любому клиенту, включая анонима.
func (c *IssueController) RaiseIssue(ctx echo.Context) error {
	equipmentID, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.RaiseIssueDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("Invalid issue payload"), c.logger)
	}
	// описание проверяет сервис, после проверки оборудования

	principal := middleware.PrincipalFrom(ctx)
	res, msg, err := c.issueService.RaiseIssue(ctx.Request().Context(), principal, equipmentID, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, msg, http.StatusCreated)
}

func (c *IssueController) GetIssues(ctx echo.Context) error {
	res, err := c.issueService.GetIssues(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "", http.StatusOK)
}

func (c *IssueController) ToggleResolve(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, msg, err := c.issueService.ToggleResolve(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, msg, http.StatusOK)
}

func (c *IssueController) DeleteIssue(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	msg, err := c.issueService.DeleteIssue(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, msg, http.StatusOK)
}
