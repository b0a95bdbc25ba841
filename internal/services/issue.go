package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"safety-tracker/internal/dto"
	"safety-tracker/internal/entities"
	"safety-tracker/internal/events"
	"safety-tracker/internal/lifecycle"
	"safety-tracker/internal/repositories"
	apperrors "safety-tracker/pkg/errors"
	"safety-tracker/pkg/eventbus"
	"safety-tracker/pkg/utils"
)

const (
	issueNotFoundMessage     = "Issue not found."
	issueOnRetiredMessage    = "This equipment is retired. You cannot raise a new issue."
	issueResolvedMessage     = "Issue marked as resolved. Equipment unassigned and retired."
	issueReopenedMessage     = "Issue re-opened. Equipment reactivated."
	issueDescriptionRequired = "Description is required."
	issueDescriptionTooLong  = "Description must be at most 300 characters."
	issueRaisedMessage       = "Issue raised."
	issueDeletedMessage      = "Issue deleted."

	// совпадает с VARCHAR(300) в таблице issue
	issueDescriptionMaxLen = 300
)

type IssueServiceInterface interface {
	// RaiseIssue заводит заявку на оборудование в эксплуатации. Автор - сотрудник,
	// если запрос от сотрудника; для админа и анонима автор не указывается.
	RaiseIssue(ctx context.Context, principal entities.Principal, equipmentID uint64, payload dto.RaiseIssueDTO) (*dto.IssueDTO, string, error)
	GetIssues(ctx context.Context) ([]dto.IssueDTO, error)
	// ToggleResolve: открытая заявка решается и списывает оборудование,
	// решённая переоткрывается и возвращает оборудование в работу.
	ToggleResolve(ctx context.Context, id uint64) (*dto.ResolveIssueResultDTO, string, error)
	// DeleteIssue удаляет заявку; списание оборудования не отменяется.
	DeleteIssue(ctx context.Context, id uint64) (string, error)
}

type IssueService struct {
	txManager     repositories.TxManagerInterface
	issueRepo     repositories.IssueRepositoryInterface
	equipmentRepo repositories.EquipmentRepositoryInterface
	bus           *eventbus.Bus
	expiry        expiryView
	clock         Clock
	logger        *zap.Logger
}

func NewIssueService(
	txManager repositories.TxManagerInterface,
	issueRepo repositories.IssueRepositoryInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	bus *eventbus.Bus,
	nearExpiryDays int,
	clock Clock,
	logger *zap.Logger,
) IssueServiceInterface {
	if clock == nil {
		clock = systemClock
	}
	return &IssueService{
		txManager:     txManager,
		issueRepo:     issueRepo,
		equipmentRepo: equipmentRepo,
		bus:           bus,
		expiry:        expiryView{threshold: nearExpiryDays},
		clock:         clock,
		logger:        logger,
	}
}

func (s *IssueService) RaiseIssue(ctx context.Context, principal entities.Principal, equipmentID uint64, payload dto.RaiseIssueDTO) (*dto.IssueDTO, string, error) {
	issue := entities.Issue{
		EquipmentID: equipmentID,
		Description: strings.TrimSpace(payload.Description),
		RaisedOn:    s.clock().UTC(),
	}
	if id, ok := principal.EmployeeID(); ok {
		issue.RaisedByEmployeeID = utils.ToPtr(id)
	}

	var equipmentName string
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		eq, err := s.equipmentRepo.FindByID(ctx, tx, equipmentID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NewNotFoundError(equipmentNotFoundMessage)
			}
			return err
		}
		if !eq.IsActive() {
			return apperrors.NewConflictError(issueOnRetiredMessage, apperrors.ErrEquipmentRetired)
		}
		// текст проверяется после оборудования: на списанное - 409, на несуществующее - 404
		if err := checkIssueDescription(issue.Description); err != nil {
			return err
		}
		equipmentName = eq.Name
		issue.ID, err = s.issueRepo.Create(ctx, tx, issue)
		return err
	})
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("заявка заведена",
		zap.Uint64("issueID", issue.ID),
		zap.Uint64("equipmentID", equipmentID),
		zap.String("principal", string(principal.Kind())),
	)
	item := entities.IssueListItem{Issue: issue, EquipmentName: equipmentName}
	if issue.RaisedByEmployeeID != nil {
		item.RaisedBy = &entities.Employee{ID: *issue.RaisedByEmployeeID, EmployeeCode: principal.EmployeeCode(), Name: principal.Name()}
	}
	out := issueDTO(item)
	return &out, issueRaisedMessage, nil
}

func checkIssueDescription(description string) error {
	if description == "" {
		return apperrors.NewValidationError(issueDescriptionRequired)
	}
	if utf8.RuneCountInString(description) > issueDescriptionMaxLen {
		return apperrors.NewValidationError(issueDescriptionTooLong)
	}
	return nil
}

func (s *IssueService) GetIssues(ctx context.Context) ([]dto.IssueDTO, error) {
	items, err := s.issueRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return issueList(items), nil
}

func (s *IssueService) ToggleResolve(ctx context.Context, id uint64) (*dto.ResolveIssueResultDTO, string, error) {
	now := s.clock()

	var (
		issue      entities.Issue
		equipment  *entities.Equipment
		transition lifecycle.Transition
		prevOwner  *uint64
	)
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.issueRepo.FindByID(ctx, tx, id)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NewNotFoundError(issueNotFoundMessage)
			}
			return err
		}

		eq, err := s.equipmentRepo.FindByID(ctx, tx, current.EquipmentID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		if eq != nil {
			prevOwner = eq.EmployeeID
		}

		issue, equipment, transition = lifecycle.Toggle(*current, eq, now)

		if err := s.issueRepo.UpdateResolution(ctx, tx, issue); err != nil {
			return err
		}
		if equipment != nil {
			if err := s.equipmentRepo.UpdateLifecycle(ctx, tx, *equipment); err != nil {
				return err
			}
		}
		return s.checkStored(ctx, tx, issue.ID, equipment)
	})
	if err != nil {
		return nil, "", err
	}

	s.publish(ctx, issue, transition, prevOwner, now)

	result := &dto.ResolveIssueResultDTO{
		Transition: string(transition),
		Issue:      issueDTO(entities.IssueListItem{Issue: issue}),
	}
	if equipment != nil {
		result.Issue.EquipmentName = equipment.Name
		eqDTO := s.expiry.withToday(now).equipment(*equipment)
		result.Equipment = &eqDTO
	}

	message := issueReopenedMessage
	if transition == lifecycle.TransitionResolved {
		message = issueResolvedMessage
	}
	return result, message, nil
}

// checkStored перечитывает записанное в той же транзакции; нарушение инварианта откатывает её.
func (s *IssueService) checkStored(ctx context.Context, tx pgx.Tx, issueID uint64, equipment *entities.Equipment) error {
	stored, err := s.issueRepo.FindByID(ctx, tx, issueID)
	if err != nil {
		return err
	}
	if err := lifecycle.CheckIssue(*stored); err != nil {
		s.logger.Error("нарушен инвариант заявки", zap.Error(err))
		return err
	}
	if equipment == nil {
		return nil
	}
	storedEq, err := s.equipmentRepo.FindByID(ctx, tx, equipment.ID)
	if err != nil {
		return err
	}
	if err := lifecycle.CheckEquipment(*storedEq); err != nil {
		s.logger.Error("нарушен инвариант оборудования", zap.Error(err))
		return err
	}
	return nil
}

// publish вызывается только после коммита.
func (s *IssueService) publish(ctx context.Context, issue entities.Issue, transition lifecycle.Transition, prevOwner *uint64, now time.Time) {
	if s.bus == nil {
		return
	}
	switch transition {
	case lifecycle.TransitionResolved:
		s.bus.Publish(ctx, events.IssueResolvedEvent{
			IssueID:            issue.ID,
			EquipmentID:        issue.EquipmentID,
			PreviousEmployeeID: prevOwner,
			ResolvedAt:         now.UTC(),
		})
	case lifecycle.TransitionReopened:
		s.bus.Publish(ctx, events.IssueReopenedEvent{
			IssueID:     issue.ID,
			EquipmentID: issue.EquipmentID,
			ReopenedAt:  now.UTC(),
		})
	}
}

func (s *IssueService) DeleteIssue(ctx context.Context, id uint64) (string, error) {
	if err := s.issueRepo.Delete(ctx, nil, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.NewNotFoundError(issueNotFoundMessage)
		}
		return "", err
	}
	s.logger.Info("заявка удалена", zap.Uint64("issueID", id))
	return issueDeletedMessage, nil
}
