package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"safety-tracker/internal/dto"
	"safety-tracker/internal/entities"
	"safety-tracker/internal/lifecycle"
	"safety-tracker/internal/repositories"
	apperrors "safety-tracker/pkg/errors"
)

const (
	equipmentNotFoundMessage   = "Equipment not found."
	equipmentNotAssignableText = "This equipment is retired and cannot be assigned."
)

type EquipmentServiceInterface interface {
	// GetActiveEquipment - оборудование в эксплуатации, по сроку годности.
	GetActiveEquipment(ctx context.Context) ([]dto.EquipmentDTO, error)
	FindEquipment(ctx context.Context, id uint64) (*dto.EquipmentDetailDTO, error)
	CreateEquipment(ctx context.Context, payload dto.CreateEquipmentDTO) (*dto.EquipmentDTO, error)
	AssignEquipment(ctx context.Context, id uint64, payload dto.AssignEquipmentDTO) (*dto.EquipmentDTO, error)
}

type EquipmentService struct {
	txManager     repositories.TxManagerInterface
	equipmentRepo repositories.EquipmentRepositoryInterface
	employeeRepo  repositories.EmployeeRepositoryInterface
	issueRepo     repositories.IssueRepositoryInterface
	expiry        expiryView
	clock         Clock
	logger        *zap.Logger
}

func NewEquipmentService(
	txManager repositories.TxManagerInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	employeeRepo repositories.EmployeeRepositoryInterface,
	issueRepo repositories.IssueRepositoryInterface,
	nearExpiryDays int,
	clock Clock,
	logger *zap.Logger,
) EquipmentServiceInterface {
	if clock == nil {
		clock = systemClock
	}
	return &EquipmentService{
		txManager:     txManager,
		equipmentRepo: equipmentRepo,
		employeeRepo:  employeeRepo,
		issueRepo:     issueRepo,
		expiry:        expiryView{threshold: nearExpiryDays},
		clock:         clock,
		logger:        logger,
	}
}

func (s *EquipmentService) view() expiryView {
	return s.expiry.withToday(s.clock())
}

func (s *EquipmentService) GetActiveEquipment(ctx context.Context) ([]dto.EquipmentDTO, error) {
	list, err := s.equipmentRepo.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	return s.view().equipmentList(list), nil
}

func (s *EquipmentService) FindEquipment(ctx context.Context, id uint64) (*dto.EquipmentDetailDTO, error) {
	eq, err := s.equipmentRepo.FindByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError(equipmentNotFoundMessage)
		}
		return nil, err
	}
	if eq.EmployeeID != nil {
		if owner, err := s.employeeRepo.FindByID(ctx, nil, *eq.EmployeeID); err == nil {
			eq.Employee = owner
		}
	}
	issues, err := s.issueRepo.GetByEquipment(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.EquipmentDetailDTO{
		EquipmentDTO: s.view().equipment(*eq),
		Issues:       issueList(issues),
	}, nil
}

func (s *EquipmentService) CreateEquipment(ctx context.Context, payload dto.CreateEquipmentDTO) (*dto.EquipmentDTO, error) {
	name := strings.TrimSpace(payload.Name)
	if name == "" || strings.TrimSpace(payload.ExpiryDate) == "" {
		return nil, apperrors.NewValidationError("All fields are required.")
	}
	expiry, err := lifecycle.ParseDate(strings.TrimSpace(payload.ExpiryDate))
	if err != nil {
		return nil, apperrors.NewValidationError("Expiry date must be in YYYY-MM-DD format.")
	}

	eq := entities.Equipment{Name: name, ExpiryDate: expiry}
	id, err := s.equipmentRepo.Create(ctx, nil, eq)
	if err != nil {
		return nil, err
	}
	eq.ID = id
	s.logger.Info("оборудование создано", zap.Uint64("equipmentID", id), zap.String("expiry", payload.ExpiryDate))

	out := s.view().equipment(eq)
	return &out, nil
}

// AssignEquipment закрепляет оборудование за сотрудником, заменяя прежнего владельца.
func (s *EquipmentService) AssignEquipment(ctx context.Context, id uint64, payload dto.AssignEquipmentDTO) (*dto.EquipmentDTO, error) {
	var assigned *entities.Equipment
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		eq, err := s.equipmentRepo.FindByID(ctx, tx, id)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NewNotFoundError(equipmentNotFoundMessage)
			}
			return err
		}
		if eq.IsRetired {
			return apperrors.NewConflictError(equipmentNotAssignableText, apperrors.ErrEquipmentRetired)
		}
		owner, err := s.employeeRepo.FindByID(ctx, tx, payload.EmployeeID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NewNotFoundError(employeeNotFoundMessage)
			}
			return err
		}
		if err := s.equipmentRepo.Assign(ctx, tx, id, owner.ID); err != nil {
			return err
		}
		eq.EmployeeID = &owner.ID
		eq.Employee = owner
		assigned = eq
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("оборудование назначено", zap.Uint64("equipmentID", id), zap.Uint64("employeeID", payload.EmployeeID))
	out := s.view().equipment(*assigned)
	return &out, nil
}
