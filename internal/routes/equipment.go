package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"safety-tracker/internal/controllers"
	"safety-tracker/internal/services"
)

func runEquipmentRouter(
	api *echo.Group,
	equipmentService services.EquipmentServiceInterface,
	exportService services.ExportServiceInterface,
	logger *zap.Logger,
	adminOnly echo.MiddlewareFunc,
) {
	equipmentCtrl := controllers.NewEquipmentController(equipmentService, logger)
	reportCtrl := controllers.NewReportController(exportService, logger)

	equipment := api.Group("/equipment")
	{
		equipment.GET("", equipmentCtrl.GetEquipment, adminOnly)
		equipment.POST("", equipmentCtrl.CreateEquipment, adminOnly)
		equipment.GET("/export", reportCtrl.ExportEquipment, adminOnly)
		equipment.GET("/:id", equipmentCtrl.FindEquipment, adminOnly)
		equipment.PUT("/:id/assign", equipmentCtrl.AssignEquipment, adminOnly)
	}
}
