package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"safety-tracker/internal/dto"
	"safety-tracker/internal/services"
	"safety-tracker/pkg/middleware"
	"safety-tracker/pkg/utils"
)

type DashboardController struct {
	dashboardService services.DashboardServiceInterface
	logger           *zap.Logger
}

func NewDashboardController(ds services.DashboardServiceInterface, logger *zap.Logger) *DashboardController {
	return &DashboardController{
		dashboardService: ds,
		logger:           logger,
	}
}

func (ctrl *DashboardController) AdminDashboard(c echo.Context) error {
	stats, err := ctrl.dashboardService.AdminDashboard(c.Request().Context())
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, stats, "", http.StatusOK)
}

func (ctrl *DashboardController) EmployeeDashboard(c echo.Context) error {
	board, err := ctrl.dashboardService.EmployeeDashboard(c.Request().Context(), middleware.PrincipalFrom(c))
	if err != nil {
		return utils.ErrorResponse(c, err, ctrl.logger)
	}
	return utils.SuccessResponse(c, board, "", http.StatusOK)
}

// Pinger - всё, что умеет проверить своё соединение: пул Postgres, Redis, память.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	storage       Pinger
	storageDriver string
	logger        *zap.Logger
}

func NewHealthController(storage Pinger, storageDriver string, logger *zap.Logger) *HealthController {
	return &HealthController{storage: storage, storageDriver: storageDriver, logger: logger}
}

func (ctrl *HealthController) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.HealthDTO{Status: "ok"})
}

func (ctrl *HealthController) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := ctrl.storage.Ping(ctx); err != nil {
		ctrl.logger.Warn("хранилище недоступно", zap.String("driver", ctrl.storageDriver), zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, dto.HealthDTO{Status: "unavailable", Storage: ctrl.storageDriver})
	}
	return c.JSON(http.StatusOK, dto.HealthDTO{Status: "ok", Storage: ctrl.storageDriver})
}
