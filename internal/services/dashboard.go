package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"safety-tracker/internal/dto"
	"safety-tracker/internal/entities"
	"safety-tracker/internal/repositories"
	apperrors "safety-tracker/pkg/errors"
)

const employeeLoginRequiredMessage = "Please log in with your Employee ID."

type DashboardServiceInterface interface {
	AdminDashboard(ctx context.Context) (*dto.AdminDashboardDTO, error)
	// EmployeeDashboard - своё оборудование сотрудника и то, что скоро истекает.
	EmployeeDashboard(ctx context.Context, principal entities.Principal) (*dto.EmployeeDashboardDTO, error)
}

type DashboardService struct {
	employeeRepo  repositories.EmployeeRepositoryInterface
	equipmentRepo repositories.EquipmentRepositoryInterface
	issueRepo     repositories.IssueRepositoryInterface
	expiry        expiryView
	clock         Clock
	logger        *zap.Logger
}

func NewDashboardService(
	employeeRepo repositories.EmployeeRepositoryInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	issueRepo repositories.IssueRepositoryInterface,
	nearExpiryDays int,
	clock Clock,
	logger *zap.Logger,
) DashboardServiceInterface {
	if clock == nil {
		clock = systemClock
	}
	return &DashboardService{
		employeeRepo:  employeeRepo,
		equipmentRepo: equipmentRepo,
		issueRepo:     issueRepo,
		expiry:        expiryView{threshold: nearExpiryDays},
		clock:         clock,
		logger:        logger,
	}
}

func (s *DashboardService) AdminDashboard(ctx context.Context) (*dto.AdminDashboardDTO, error) {
	employees, err := s.employeeRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.equipmentRepo.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	openIssues, err := s.issueRepo.CountOpen(ctx)
	if err != nil {
		return nil, err
	}

	view := s.expiry.withToday(s.clock())
	var near int64
	for _, eq := range active {
		if view.isNear(eq) {
			near++
		}
	}

	return &dto.AdminDashboardDTO{
		TotalEmployees:  employees,
		ActiveEquipment: int64(len(active)),
		OpenIssues:      openIssues,
		NearExpiry:      near,
		NearExpiryDays:  view.threshold,
		Equipment:       view.equipmentList(active),
	}, nil
}

func (s *DashboardService) EmployeeDashboard(ctx context.Context, principal entities.Principal) (*dto.EmployeeDashboardDTO, error) {
	id, ok := principal.EmployeeID()
	if !ok {
		return nil, apperrors.NewUnauthorizedError(employeeLoginRequiredMessage, "/api/auth/login")
	}
	emp, err := s.employeeRepo.FindByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Info("сотрудник сессии не найден", zap.Uint64("employeeID", id))
			return nil, apperrors.NewUnauthorizedError(employeeLoginRequiredMessage, "/api/auth/login")
		}
		return nil, err
	}
	equipment, err := s.equipmentRepo.GetActiveByEmployee(ctx, id)
	if err != nil {
		return nil, err
	}

	view := s.expiry.withToday(s.clock())
	out := &dto.EmployeeDashboardDTO{
		Employee:       *shortEmployee(emp),
		NearExpiryDays: view.threshold,
		Equipment:      view.equipmentList(equipment),
		NearExpiry:     []dto.EquipmentDTO{},
	}
	for i, eq := range equipment {
		if view.isNear(eq) {
			out.NearExpiry = append(out.NearExpiry, out.Equipment[i])
		}
	}
	return out, nil
}
