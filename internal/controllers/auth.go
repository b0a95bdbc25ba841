package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"safety-tracker/internal/dto"
	"safety-tracker/internal/entities"
	"safety-tracker/internal/services"
	apperrors "safety-tracker/pkg/errors"
	"safety-tracker/pkg/middleware"
	"safety-tracker/pkg/utils"
)

const (
	AdminDashboardPath    = "/api/admin/dashboard"
	EmployeeDashboardPath = "/api/me"
)

type AuthController struct {
	authService   services.AuthServiceInterface
	secureCookies bool
	logger        *zap.Logger
}

func NewAuthController(authService services.AuthServiceInterface, secureCookies bool, logger *zap.Logger) *AuthController {
	return &AuthController{
		authService:   authService,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

func (ctrl *AuthController) errorResponse(c echo.Context, err error) error {
	return utils.ErrorResponse(c, err, ctrl.logger)
}

// Root отправляет клиента туда, где ему место: админа на сводку,
// сотрудника на его оборудование, остальных на вход.
func (ctrl *AuthController) Root(c echo.Context) error {
	p := middleware.PrincipalFrom(c)

	location := middleware.EmployeeLoginPath
	switch p.Kind() {
	case entities.PrincipalAdmin:
		location = AdminDashboardPath
	case entities.PrincipalEmployee:
		location = EmployeeDashboardPath
	}

	c.Response().Header().Set(echo.HeaderLocation, location)
	return utils.SuccessResponse(c, dto.RootDTO{Principal: services.PrincipalDTO(p), Location: location}, "", http.StatusSeeOther)
}

func (ctrl *AuthController) Login(c echo.Context) error {
	var payload dto.EmployeeLoginDTO
	if err := c.Bind(&payload); err != nil {
		ctrl.logger.Error("Login: ошибка привязки данных", zap.Error(err))
		return ctrl.errorResponse(c, apperrors.NewBadRequestError("Invalid login payload"))
	}
	if err := c.Validate(&payload); err != nil {
		return ctrl.errorResponse(c, err)
	}

	resp, msg, err := ctrl.authService.EmployeeLogin(c.Request().Context(), c.RealIP(), payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	middleware.SetSessionCookie(c, resp.Token, resp.Expires, ctrl.secureCookies)
	return utils.SuccessResponse(c, resp, msg, http.StatusOK)
}

func (ctrl *AuthController) AdminLogin(c echo.Context) error {
	var payload dto.AdminLoginDTO
	if err := c.Bind(&payload); err != nil {
		ctrl.logger.Error("AdminLogin: ошибка привязки данных", zap.Error(err))
		return ctrl.errorResponse(c, apperrors.NewBadRequestError("Invalid login payload"))
	}
	if err := c.Validate(&payload); err != nil {
		return ctrl.errorResponse(c, err)
	}

	resp, msg, err := ctrl.authService.AdminLogin(c.Request().Context(), c.RealIP(), payload)
	if err != nil {
		return ctrl.errorResponse(c, err)
	}
	middleware.SetSessionCookie(c, resp.Token, resp.Expires, ctrl.secureCookies)
	return utils.SuccessResponse(c, resp, msg, http.StatusOK)
}

// Logout не требует входа: cookie стирается у любого клиента.
func (ctrl *AuthController) Logout(c echo.Context) error {
	middleware.ClearSessionCookie(c, ctrl.secureCookies)
	return utils.SuccessResponse(c, services.PrincipalDTO(entities.AnonymousPrincipal()), "Logged out.", http.StatusOK)
}

func (ctrl *AuthController) Me(c echo.Context) error {
	return utils.SuccessResponse(c, services.PrincipalDTO(middleware.PrincipalFrom(c)), "", http.StatusOK)
}
