package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"safety-tracker/internal/entities"
	apperrors "safety-tracker/pkg/errors"
)

const (
	issueTable      = "issue"
	issueFields     = "id, equipment_id, description, raised_on, raised_by_employee_id, is_resolved, resolved_on"
	issueListFields = "i.id, i.equipment_id, i.description, i.raised_on, i.raised_by_employee_id, i.is_resolved, i.resolved_on, " +
		"COALESCE(eq.name, ''), emp.employee_code, emp.name"
)

type IssueRepositoryInterface interface {
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Issue, error)
	// GetAll - заявки для администратора, новые сверху.
	GetAll(ctx context.Context) ([]entities.IssueListItem, error)
	GetByEquipment(ctx context.Context, equipmentID uint64) ([]entities.IssueListItem, error)
	CountOpen(ctx context.Context) (int64, error)
	Create(ctx context.Context, tx pgx.Tx, issue entities.Issue) (uint64, error)
	// UpdateResolution пишет is_resolved и resolved_on вместе.
	UpdateResolution(ctx context.Context, tx pgx.Tx, issue entities.Issue) error
	Delete(ctx context.Context, tx pgx.Tx, id uint64) error
	// ClearRaiser обнуляет автора у всех заявок сотрудника (перед его удалением).
	ClearRaiser(ctx context.Context, tx pgx.Tx, employeeID uint64) (int64, error)
}

type issueRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewIssueRepository(storage *pgxpool.Pool, logger *zap.Logger) IssueRepositoryInterface {
	return &issueRepository{storage: storage, logger: logger}
}

func (r *issueRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *issueRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Issue, error) {
	query, args, err := psql.Select(issueFields).From(issueTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для issue: %w", err)
	}

	var i entities.Issue
	err = r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(
		&i.ID, &i.EquipmentID, &i.Description, &i.RaisedOn, &i.RaisedByEmployeeID, &i.IsResolved, &i.ResolvedOn,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования issue: %w", err)
	}
	return &i, nil
}

func (r *issueRepository) selectList() sq.SelectBuilder {
	return psql.Select(issueListFields).
		From("issue i").
		LeftJoin("equipment eq ON eq.id = i.equipment_id").
		LeftJoin("employee emp ON emp.id = i.raised_by_employee_id").
		OrderBy("i.raised_on DESC", "i.id DESC")
}

func (r *issueRepository) GetAll(ctx context.Context) ([]entities.IssueListItem, error) {
	return r.queryList(ctx, r.selectList())
}

func (r *issueRepository) GetByEquipment(ctx context.Context, equipmentID uint64) ([]entities.IssueListItem, error) {
	return r.queryList(ctx, r.selectList().Where(sq.Eq{"i.equipment_id": equipmentID}))
}

func (r *issueRepository) queryList(ctx context.Context, b sq.SelectBuilder) ([]entities.IssueListItem, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса списка заявок: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка заявок: %w", err)
	}
	defer rows.Close()

	list := make([]entities.IssueListItem, 0)
	for rows.Next() {
		var (
			item       entities.IssueListItem
			raiserCode *string
			raiserName *string
		)
		if err := rows.Scan(
			&item.ID, &item.EquipmentID, &item.Description, &item.RaisedOn, &item.RaisedByEmployeeID,
			&item.IsResolved, &item.ResolvedOn, &item.EquipmentName, &raiserCode, &raiserName,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования issue: %w", err)
		}
		if item.RaisedByEmployeeID != nil && raiserCode != nil && raiserName != nil {
			item.RaisedBy = &entities.Employee{ID: *item.RaisedByEmployeeID, EmployeeCode: *raiserCode, Name: *raiserName}
		}
		list = append(list, item)
	}
	return list, rows.Err()
}

func (r *issueRepository) CountOpen(ctx context.Context) (int64, error) {
	query, args, err := psql.Select("COUNT(id)").From(issueTable).Where(sq.Eq{"is_resolved": false}).ToSql()
	if err != nil {
		return 0, err
	}
	var total int64
	if err := r.storage.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта открытых заявок: %w", err)
	}
	return total, nil
}

func (r *issueRepository) Create(ctx context.Context, tx pgx.Tx, issue entities.Issue) (uint64, error) {
	query, args, err := psql.Insert(issueTable).
		Columns("equipment_id", "description", "raised_on", "raised_by_employee_id", "is_resolved", "resolved_on").
		Values(issue.EquipmentID, issue.Description, issue.RaisedOn, issue.RaisedByEmployeeID, issue.IsResolved, issue.ResolvedOn).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса Create issue: %w", err)
	}

	var newID uint64
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&newID); err != nil {
		return 0, fmt.Errorf("ошибка создания issue: %w", err)
	}
	r.logger.Debug("заявка создана", zap.Uint64("issueID", newID), zap.Uint64("equipmentID", issue.EquipmentID))
	return newID, nil
}

func (r *issueRepository) UpdateResolution(ctx context.Context, tx pgx.Tx, issue entities.Issue) error {
	query, args, err := psql.Update(issueTable).
		Set("is_resolved", issue.IsResolved).
		Set("resolved_on", issue.ResolvedOn).
		Where(sq.Eq{"id": issue.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса UpdateResolution: %w", err)
	}

	result, err := r.getQuerier(tx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса issue: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *issueRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	query, args, err := psql.Delete(issueTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса Delete issue: %w", err)
	}

	result, err := r.getQuerier(tx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка удаления issue: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *issueRepository) ClearRaiser(ctx context.Context, tx pgx.Tx, employeeID uint64) (int64, error) {
	query, args, err := psql.Update(issueTable).
		Set("raised_by_employee_id", nil).
		Where(sq.Eq{"raised_by_employee_id": employeeID}).
		ToSql()
	if err != nil {
		return 0, err
	}

	result, err := r.getQuerier(tx).Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("ошибка обнуления автора заявок: %w", err)
	}
	return result.RowsAffected(), nil
}
