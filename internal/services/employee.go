package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"safety-tracker/internal/dto"
	"safety-tracker/internal/entities"
	"safety-tracker/internal/repositories"
	apperrors "safety-tracker/pkg/errors"
)

const (
	employeeNotFoundMessage  = "Employee not found."
	employeeCodeTakenMessage = "Employee ID already exists. Choose another."
)

type EmployeeServiceInterface interface {
	GetEmployees(ctx context.Context) ([]dto.EmployeeDTO, error)
	FindEmployee(ctx context.Context, id uint64) (*dto.EmployeeDetailDTO, error)
	CreateEmployee(ctx context.Context, payload dto.CreateEmployeeDTO) (*dto.EmployeeDTO, error)
	// DeleteEmployee снимает с сотрудника оборудование, обнуляет авторство заявок
	// и удаляет запись - всё в одной транзакции.
	DeleteEmployee(ctx context.Context, id uint64) error
}

type EmployeeService struct {
	txManager     repositories.TxManagerInterface
	employeeRepo  repositories.EmployeeRepositoryInterface
	equipmentRepo repositories.EquipmentRepositoryInterface
	issueRepo     repositories.IssueRepositoryInterface
	expiry        expiryView
	clock         Clock
	logger        *zap.Logger
}

func NewEmployeeService(
	txManager repositories.TxManagerInterface,
	employeeRepo repositories.EmployeeRepositoryInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	issueRepo repositories.IssueRepositoryInterface,
	nearExpiryDays int,
	clock Clock,
	logger *zap.Logger,
) EmployeeServiceInterface {
	if clock == nil {
		clock = systemClock
	}
	return &EmployeeService{
		txManager:     txManager,
		employeeRepo:  employeeRepo,
		equipmentRepo: equipmentRepo,
		issueRepo:     issueRepo,
		expiry:        expiryView{threshold: nearExpiryDays},
		clock:         clock,
		logger:        logger,
	}
}

func (s *EmployeeService) GetEmployees(ctx context.Context) ([]dto.EmployeeDTO, error) {
	employees, err := s.employeeRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	names, err := s.equipmentRepo.ActiveNamesByEmployee(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]dto.EmployeeDTO, 0, len(employees))
	for _, e := range employees {
		items := names[e.ID]
		if items == nil {
			items = []string{}
		}
		out = append(out, dto.EmployeeDTO{ID: e.ID, EmployeeCode: e.EmployeeCode, Name: e.Name, ActiveEquipment: items})
	}
	return out, nil
}

func (s *EmployeeService) FindEmployee(ctx context.Context, id uint64) (*dto.EmployeeDetailDTO, error) {
	emp, err := s.employeeRepo.FindByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError(employeeNotFoundMessage)
		}
		return nil, err
	}
	equipment, err := s.equipmentRepo.GetActiveByEmployee(ctx, id)
	if err != nil {
		return nil, err
	}

	view := s.expiry.withToday(s.clock())
	names := make([]string, 0, len(equipment))
	for _, eq := range equipment {
		names = append(names, eq.Name)
	}
	return &dto.EmployeeDetailDTO{
		EmployeeDTO: dto.EmployeeDTO{ID: emp.ID, EmployeeCode: emp.EmployeeCode, Name: emp.Name, ActiveEquipment: names},
		Equipment:   view.equipmentList(equipment),
	}, nil
}

func (s *EmployeeService) CreateEmployee(ctx context.Context, payload dto.CreateEmployeeDTO) (*dto.EmployeeDTO, error) {
	e := entities.Employee{
		EmployeeCode: strings.TrimSpace(payload.EmployeeCode),
		Name:         strings.TrimSpace(payload.Name),
	}
	if e.EmployeeCode == "" || e.Name == "" {
		return nil, apperrors.NewValidationError("Name and Employee ID are required.")
	}

	if _, err := s.employeeRepo.FindByCode(ctx, nil, e.EmployeeCode); err == nil {
		return nil, apperrors.NewConflictError(employeeCodeTakenMessage, nil)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	id, err := s.employeeRepo.Create(ctx, nil, e)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.NewConflictError(employeeCodeTakenMessage, err)
		}
		return nil, err
	}
	s.logger.Info("сотрудник создан", zap.Uint64("employeeID", id), zap.String("code", e.EmployeeCode))
	return &dto.EmployeeDTO{ID: id, EmployeeCode: e.EmployeeCode, Name: e.Name, ActiveEquipment: []string{}}, nil
}

func (s *EmployeeService) DeleteEmployee(ctx context.Context, id uint64) error {
	var unassigned, orphaned int64
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.employeeRepo.FindByID(ctx, tx, id); err != nil {
			return err
		}
		var err error
		if unassigned, err = s.equipmentRepo.UnassignAllForEmployee(ctx, tx, id); err != nil {
			return err
		}
		if orphaned, err = s.issueRepo.ClearRaiser(ctx, tx, id); err != nil {
			return err
		}
		return s.employeeRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewNotFoundError(employeeNotFoundMessage)
		}
		return err
	}

	s.logger.Info("сотрудник удалён",
		zap.Uint64("employeeID", id),
		zap.Int64("unassignedEquipment", unassigned),
		zap.Int64("issuesWithoutRaiser", orphaned),
	)
	return nil
}
