package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"safety-tracker/internal/services"
	"safety-tracker/pkg/utils"
)

type ReportController struct {
	exportService services.ExportServiceInterface
	logger        *zap.Logger
}

func NewReportController(exportService services.ExportServiceInterface, logger *zap.Logger) *ReportController {
	return &ReportController{exportService: exportService, logger: logger}
}

// ExportEquipment отдаёт реестр оборудования файлом: ?format=xlsx (по умолчанию) или pdf.
func (c *ReportController) ExportEquipment(ctx echo.Context) error {
	format := ctx.QueryParam("format")
	c.logger.Debug("Запрос на выгрузку оборудования", zap.String("format", format))

	file, err := c.exportService.ExportEquipment(ctx.Request().Context(), format)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	ctx.Response().Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(file.FileName))
	return ctx.Blob(http.StatusOK, file.ContentType, file.Content)
}
