package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"safety-tracker/internal/dto"
	"safety-tracker/internal/entities"
	"safety-tracker/internal/repositories"
	"safety-tracker/pkg/config"
	apperrors "safety-tracker/pkg/errors"
	"safety-tracker/pkg/service"
	"safety-tracker/pkg/utils"
)

const (
	loginKindEmployee = "employee"
	loginKindAdmin    = "admin"
)

type AuthServiceInterface interface {
	// EmployeeLogin - вход по точному совпадению кода сотрудника, без пароля.
	EmployeeLogin(ctx context.Context, clientIP string, payload dto.EmployeeLoginDTO) (*dto.LoginResponseDTO, string, error)
	// AdminLogin - вход по PIN администратора.
	AdminLogin(ctx context.Context, clientIP string, payload dto.AdminLoginDTO) (*dto.LoginResponseDTO, string, error)
	// Verify реализует middleware.PrincipalVerifier.
	Verify(ctx context.Context, p entities.Principal) entities.Principal
}

type AuthService struct {
	employeeRepo repositories.EmployeeRepositoryInterface
	cacheRepo    repositories.CacheRepositoryInterface
	sessions     service.SessionService
	adminPINHash string
	cfg          config.AuthConfig
	logger       *zap.Logger
}

// NewAuthService хеширует PIN администратора один раз при старте,
// дальше сравнение идёт только через bcrypt.
func NewAuthService(
	employeeRepo repositories.EmployeeRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	sessions service.SessionService,
	cfg config.AuthConfig,
	logger *zap.Logger,
) (*AuthService, error) {
	hash, err := utils.HashPassword(cfg.AdminPIN)
	if err != nil {
		return nil, err
	}
	return &AuthService{
		employeeRepo: employeeRepo,
		cacheRepo:    cacheRepo,
		sessions:     sessions,
		adminPINHash: hash,
		cfg:          cfg,
		logger:       logger,
	}, nil
}

func (s *AuthService) EmployeeLogin(ctx context.Context, clientIP string, payload dto.EmployeeLoginDTO) (*dto.LoginResponseDTO, string, error) {
	if err := s.checkLockout(ctx, loginKindEmployee, clientIP); err != nil {
		return nil, "", err
	}

	code := strings.TrimSpace(payload.EmployeeCode)
	emp, err := s.employeeRepo.FindByCode(ctx, nil, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.registerFailure(ctx, loginKindEmployee, clientIP)
			s.logger.Info("неудачный вход сотрудника", zap.String("code", code), zap.String("ip", clientIP))
			return nil, "", apperrors.NewHttpError(http.StatusUnauthorized, "Invalid Employee ID.", apperrors.ErrInvalidCredentials, nil)
		}
		return nil, "", err
	}
	s.resetFailures(ctx, loginKindEmployee, clientIP)

	resp, err := s.issue(entities.EmployeePrincipal(emp.ID, emp.EmployeeCode, emp.Name))
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("сотрудник вошёл", zap.Uint64("employeeID", emp.ID))
	return resp, fmt.Sprintf("Welcome, %s!", emp.Name), nil
}

func (s *AuthService) AdminLogin(ctx context.Context, clientIP string, payload dto.AdminLoginDTO) (*dto.LoginResponseDTO, string, error) {
	if err := s.checkLockout(ctx, loginKindAdmin, clientIP); err != nil {
		return nil, "", err
	}

	pin := strings.TrimSpace(payload.PIN)
	if err := utils.ComparePasswords(s.adminPINHash, pin); err != nil {
		s.registerFailure(ctx, loginKindAdmin, clientIP)
		s.logger.Warn("неверный PIN администратора", zap.String("ip", clientIP))
		return nil, "", apperrors.NewHttpError(http.StatusUnauthorized, "Invalid PIN.", apperrors.ErrInvalidCredentials, nil)
	}
	s.resetFailures(ctx, loginKindAdmin, clientIP)

	resp, err := s.issue(entities.AdminPrincipal())
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("администратор вошёл", zap.String("ip", clientIP))
	return resp, "Admin login successful.", nil
}

func (s *AuthService) issue(p entities.Principal) (*dto.LoginResponseDTO, error) {
	token, expiresAt, err := s.sessions.Issue(p)
	if err != nil {
		return nil, fmt.Errorf("не удалось выпустить токен сессии: %w", err)
	}
	return &dto.LoginResponseDTO{
		Principal: PrincipalDTO(p),
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		Expires:   expiresAt,
	}, nil
}

func (s *AuthService) Verify(ctx context.Context, p entities.Principal) entities.Principal {
	id, ok := p.EmployeeID()
	if !ok {
		return p
	}
	emp, err := s.employeeRepo.FindByID(ctx, nil, id)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error("не удалось проверить сотрудника сессии", zap.Uint64("employeeID", id), zap.Error(err))
		}
		return entities.AnonymousPrincipal()
	}
	return entities.EmployeePrincipal(emp.ID, emp.EmployeeCode, emp.Name)
}

func failuresKey(kind, clientIP string) string {
	return fmt.Sprintf("login_failures:%s:%s", kind, clientIP)
}

// checkLockout: после MaxLoginAttempts неудач за LockoutDuration вход закрыт.
// Недоступность кеша вход не блокирует.
func (s *AuthService) checkLockout(ctx context.Context, kind, clientIP string) error {
	if s.cfg.MaxLoginAttempts <= 0 {
		return nil
	}
	raw, err := s.cacheRepo.Get(ctx, failuresKey(kind, clientIP))
	if err != nil {
		if !errors.Is(err, repositories.ErrCacheMiss) {
			s.logger.Warn("кеш попыток входа недоступен", zap.Error(err))
		}
		return nil
	}
	if attempts, _ := strconv.Atoi(raw); attempts >= s.cfg.MaxLoginAttempts {
		s.logger.Warn("вход заблокирован", zap.String("kind", kind), zap.String("ip", clientIP))
		return apperrors.NewHttpError(
			http.StatusTooManyRequests,
			fmt.Sprintf("Too many failed attempts. Try again in %d minutes.", int(s.cfg.LockoutDuration.Minutes())),
			apperrors.ErrTooManyAttempts,
			nil,
		)
	}
	return nil
}

func (s *AuthService) registerFailure(ctx context.Context, kind, clientIP string) {
	key := failuresKey(kind, clientIP)
	n, err := s.cacheRepo.Incr(ctx, key)
	if err != nil {
		s.logger.Warn("не удалось записать неудачную попытку входа", zap.Error(err))
		return
	}
	if n == 1 {
		if _, err := s.cacheRepo.Expire(ctx, key, s.cfg.LockoutDuration); err != nil {
			s.logger.Warn("не удалось выставить срок блокировки", zap.Error(err))
		}
	}
}

func (s *AuthService) resetFailures(ctx context.Context, kind, clientIP string) {
	if err := s.cacheRepo.Del(ctx, failuresKey(kind, clientIP)); err != nil {
		s.logger.Warn("не удалось сбросить счётчик попыток входа", zap.Error(err))
	}
}
