package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"safety-tracker/internal/entities"
	"safety-tracker/pkg/contextkeys"
	apperrors "safety-tracker/pkg/errors"
	"safety-tracker/pkg/service"
	"safety-tracker/pkg/utils"
)

const (
	SessionCookieName = "session"

	EmployeeLoginPath = "/api/auth/login"
	AdminLoginPath    = "/api/auth/admin/login"

	employeeRequiredMessage = "Please log in with your Employee ID."
	adminRequiredMessage    = "Admin access required."

	principalContextKey = "principal"
)

// PrincipalVerifier сверяет восстановленного из токена сотрудника с хранилищем.
// Удалённый после входа сотрудник становится анонимом.
type PrincipalVerifier interface {
	Verify(ctx context.Context, p entities.Principal) entities.Principal
}

type SessionMiddleware struct {
	sessions service.SessionService
	verifier PrincipalVerifier
	logger   *zap.Logger
}

func NewSessionMiddleware(sessions service.SessionService, verifier PrincipalVerifier, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions, verifier: verifier, logger: logger}
}

// Resolve определяет Principal один раз на запрос. Ошибки токена не прерывают запрос:
// клиент просто остаётся анонимом, решение принимают guard'ы.
func (m *SessionMiddleware) Resolve(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		principal := entities.AnonymousPrincipal()

		if token := sessionToken(c); token != "" {
			parsed, err := m.sessions.Parse(token)
			if err != nil {
				m.logger.Debug("SessionMiddleware: токен отклонён", zap.Error(err))
			} else {
				principal = parsed
			}
		}
		if principal.IsEmployee() && m.verifier != nil {
			principal = m.verifier.Verify(c.Request().Context(), principal)
		}

		c.Set(principalContextKey, principal)
		ctx := context.WithValue(c.Request().Context(), contextkeys.PrincipalKey, principal)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// sessionToken берёт токен из cookie, иначе из заголовка "Bearer <token>".
func sessionToken(c echo.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	parts := strings.SplitN(c.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// PrincipalFrom возвращает Principal, определённый Resolve; без него - аноним.
func PrincipalFrom(c echo.Context) entities.Principal {
	if p, ok := c.Get(principalContextKey).(entities.Principal); ok {
		return p
	}
	return entities.AnonymousPrincipal()
}

func PrincipalFromContext(ctx context.Context) entities.Principal {
	if p, ok := ctx.Value(contextkeys.PrincipalKey).(entities.Principal); ok {
		return p
	}
	return entities.AnonymousPrincipal()
}

// RequireEmployee пропускает только сотрудника.
func RequireEmployee(logger *zap.Logger) echo.MiddlewareFunc {
	return guard(logger, entities.Principal.IsEmployee, employeeRequiredMessage, EmployeeLoginPath)
}

// RequireAdmin пропускает только админа.
func RequireAdmin(logger *zap.Logger) echo.MiddlewareFunc {
	return guard(logger, entities.Principal.IsAdmin, adminRequiredMessage, AdminLoginPath)
}

func guard(logger *zap.Logger, allowed func(entities.Principal) bool, message, loginPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFrom(c)
			if !allowed(p) {
				logger.Info("доступ запрещён",
					zap.String("path", c.Path()),
					zap.String("principal", string(p.Kind())),
				)
				return utils.ErrorResponse(c, apperrors.NewUnauthorizedError(message, loginPath), logger)
			}
			return next(c)
		}
	}
}

func SetSessionCookie(c echo.Context, token string, expiresAt time.Time, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(c echo.Context, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
