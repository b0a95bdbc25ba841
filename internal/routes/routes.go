package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"safety-tracker/internal/controllers"
	"safety-tracker/internal/repositories"
	"safety-tracker/internal/services"
	"safety-tracker/pkg/config"
	"safety-tracker/pkg/eventbus"
	"safety-tracker/pkg/middleware"
	"safety-tracker/pkg/service"
)

type Loggers struct {
	Main      *zap.Logger
	Auth      *zap.Logger
	Equipment *zap.Logger
	Issue     *zap.Logger
}

// Dependencies - хранилище, выбранное при старте (Postgres или память), и общие сервисы.
type Dependencies struct {
	TxManager     repositories.TxManagerInterface
	EmployeeRepo  repositories.EmployeeRepositoryInterface
	EquipmentRepo repositories.EquipmentRepositoryInterface
	IssueRepo     repositories.IssueRepositoryInterface
	CacheRepo     repositories.CacheRepositoryInterface
	Storage       controllers.Pinger
	Sessions      service.SessionService
	Bus           *eventbus.Bus
	// Clock по умолчанию - системные часы
	Clock services.Clock
}

func InitRouter(e *echo.Echo, deps Dependencies, loggers *Loggers, cfg *config.Config) error {
	loggers.Main.Info("InitRouter: Начало создания маршрутов")
	nearExpiryDays := cfg.Tracker.NearExpiryDays

	// счётчик неудачных входов ведётся по IP; заголовкам клиента верим только за доверенным прокси
	if cfg.Server.TrustProxy {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
	} else {
		e.IPExtractor = echo.ExtractIPDirect()
	}

	// --- 1. СЕРВИСЫ ---
	authService, err := services.NewAuthService(deps.EmployeeRepo, deps.CacheRepo, deps.Sessions, cfg.Auth, loggers.Auth)
	if err != nil {
		return err
	}
	employeeService := services.NewEmployeeService(deps.TxManager, deps.EmployeeRepo, deps.EquipmentRepo, deps.IssueRepo, nearExpiryDays, deps.Clock, loggers.Main)
	equipmentService := services.NewEquipmentService(deps.TxManager, deps.EquipmentRepo, deps.EmployeeRepo, deps.IssueRepo, nearExpiryDays, deps.Clock, loggers.Equipment)
	issueService := services.NewIssueService(deps.TxManager, deps.IssueRepo, deps.EquipmentRepo, deps.Bus, nearExpiryDays, deps.Clock, loggers.Issue)
	dashboardService := services.NewDashboardService(deps.EmployeeRepo, deps.EquipmentRepo, deps.IssueRepo, nearExpiryDays, deps.Clock, loggers.Main)
	exportService := services.NewExportService(deps.EquipmentRepo, nearExpiryDays, deps.Clock, loggers.Equipment)

	// --- 2. MIDDLEWARE ---
	sessionMW := middleware.NewSessionMiddleware(deps.Sessions, authService, loggers.Auth)
	adminOnly := middleware.RequireAdmin(loggers.Auth)
	employeeOnly := middleware.RequireEmployee(loggers.Auth)

	healthCtrl := controllers.NewHealthController(deps.Storage, cfg.Storage.Driver, loggers.Main)
	e.GET("/healthz", healthCtrl.Live)
	e.GET("/readyz", healthCtrl.Ready)

	// --- 3. РОУТЕРЫ ---
	api := e.Group("/api", sessionMW.Resolve)

	runAuthRouter(api, authService, cfg.IsProduction(), loggers.Auth)
	runDashboardRouter(api, dashboardService, loggers.Main, adminOnly, employeeOnly)
	runEmployeeRouter(api, employeeService, loggers.Main, adminOnly)
	runEquipmentRouter(api, equipmentService, exportService, loggers.Equipment, adminOnly)
	runIssueRouter(api, issueService, loggers.Issue, adminOnly)

	loggers.Main.Info("INIT_ROUTER: Создание маршрутов завершено")
	return nil
}

func runDashboardRouter(api *echo.Group, dashboardService services.DashboardServiceInterface, logger *zap.Logger, adminOnly, employeeOnly echo.MiddlewareFunc) {
	ctrl := controllers.NewDashboardController(dashboardService, logger)

	api.GET("/admin/dashboard", ctrl.AdminDashboard, adminOnly)
	api.GET("/me", ctrl.EmployeeDashboard, employeeOnly)
}

func runEmployeeRouter(api *echo.Group, employeeService services.EmployeeServiceInterface, logger *zap.Logger, adminOnly echo.MiddlewareFunc) {
	ctrl := controllers.NewEmployeeController(employeeService, logger)

	employees := api.Group("/employees")
	{
		employees.GET("", ctrl.GetEmployees, adminOnly)
		employees.POST("", ctrl.CreateEmployee, adminOnly)
		employees.GET("/:id", ctrl.FindEmployee, adminOnly)
		employees.DELETE("/:id", ctrl.DeleteEmployee, adminOnly)
	}
}

func runIssueRouter(api *echo.Group, issueService services.IssueServiceInterface, logger *zap.Logger, adminOnly echo.MiddlewareFunc) {
	ctrl := controllers.NewIssueController(issueService, logger)

	// заявку может завести кто угодно, в том числе без входа
	api.POST("/equipment/:id/issues", ctrl.RaiseIssue)

	issues := api.Group("/issues")
	{
		issues.GET("", ctrl.GetIssues, adminOnly)
		issues.PUT("/:id/resolve", ctrl.ToggleResolve, adminOnly)
		issues.DELETE("/:id", ctrl.DeleteIssue, adminOnly)
	}
}
