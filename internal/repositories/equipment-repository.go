package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"safety-tracker/internal/entities"
	apperrors "safety-tracker/pkg/errors"
)

const (
	equipmentTable       = "equipment"
	equipmentFields      = "id, name, expiry_date, employee_id, is_retired, retired_on"
	equipmentJoinFields  = "eq.id, eq.name, eq.expiry_date, eq.employee_id, eq.is_retired, eq.retired_on, emp.employee_code, emp.name"
	equipmentWithOwner   = "equipment eq"
	equipmentOwnerJoin   = "employee emp ON emp.id = eq.employee_id"
	equipmentActiveOrder = "eq.expiry_date ASC"
)

type EquipmentRepositoryInterface interface {
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error)
	// GetActive - всё оборудование в эксплуатации, по сроку годности (ближайшие сверху).
	GetActive(ctx context.Context) ([]entities.Equipment, error)
	// GetActiveByEmployee - оборудование в эксплуатации, закреплённое за сотрудником.
	GetActiveByEmployee(ctx context.Context, employeeID uint64) ([]entities.Equipment, error)
	ActiveNamesByEmployee(ctx context.Context) (map[uint64][]string, error)
	CountAll(ctx context.Context) (int64, error)
	Create(ctx context.Context, tx pgx.Tx, eq entities.Equipment) (uint64, error)
	Assign(ctx context.Context, tx pgx.Tx, id uint64, employeeID uint64) error
	UnassignAllForEmployee(ctx context.Context, tx pgx.Tx, employeeID uint64) (int64, error)
	// UpdateLifecycle пишет employee_id, is_retired и retired_on одним UPDATE.
	UpdateLifecycle(ctx context.Context, tx pgx.Tx, eq entities.Equipment) error
}

type equipmentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewEquipmentRepository(storage *pgxpool.Pool, logger *zap.Logger) EquipmentRepositoryInterface {
	return &equipmentRepository{storage: storage, logger: logger}
}

func (r *equipmentRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *equipmentRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error) {
	query, args, err := psql.Select(equipmentFields).From(equipmentTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для equipment: %w", err)
	}

	var eq entities.Equipment
	err = r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(
		&eq.ID, &eq.Name, &eq.ExpiryDate, &eq.EmployeeID, &eq.IsRetired, &eq.RetiredOn,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования equipment: %w", err)
	}
	return &eq, nil
}

func (r *equipmentRepository) selectActive() sq.SelectBuilder {
	return psql.Select(equipmentJoinFields).
		From(equipmentWithOwner).
		LeftJoin(equipmentOwnerJoin).
		Where(sq.Eq{"eq.is_retired": false}).
		OrderBy(equipmentActiveOrder, "eq.id ASC")
}

func (r *equipmentRepository) GetActive(ctx context.Context) ([]entities.Equipment, error) {
	return r.queryWithOwner(ctx, r.selectActive())
}

func (r *equipmentRepository) GetActiveByEmployee(ctx context.Context, employeeID uint64) ([]entities.Equipment, error) {
	return r.queryWithOwner(ctx, r.selectActive().Where(sq.Eq{"eq.employee_id": employeeID}))
}

func (r *equipmentRepository) queryWithOwner(ctx context.Context, b sq.SelectBuilder) ([]entities.Equipment, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса списка оборудования: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка оборудования: %w", err)
	}
	defer rows.Close()

	list := make([]entities.Equipment, 0)
	for rows.Next() {
		var (
			eq        entities.Equipment
			ownerCode *string
			ownerName *string
		)
		if err := rows.Scan(
			&eq.ID, &eq.Name, &eq.ExpiryDate, &eq.EmployeeID, &eq.IsRetired, &eq.RetiredOn,
			&ownerCode, &ownerName,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования equipment: %w", err)
		}
		if eq.EmployeeID != nil && ownerCode != nil && ownerName != nil {
			eq.Employee = &entities.Employee{ID: *eq.EmployeeID, EmployeeCode: *ownerCode, Name: *ownerName}
		}
		list = append(list, eq)
	}
	return list, rows.Err()
}

func (r *equipmentRepository) ActiveNamesByEmployee(ctx context.Context) (map[uint64][]string, error) {
	query, args, err := psql.Select("employee_id", "name").
		From(equipmentTable).
		Where(sq.Eq{"is_retired": false}).
		Where(sq.NotEq{"employee_id": nil}).
		OrderBy("expiry_date ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения оборудования сотрудников: %w", err)
	}
	defer rows.Close()

	names := make(map[uint64][]string)
	for rows.Next() {
		var (
			employeeID uint64
			name       string
		)
		if err := rows.Scan(&employeeID, &name); err != nil {
			return nil, err
		}
		names[employeeID] = append(names[employeeID], name)
	}
	return names, rows.Err()
}

func (r *equipmentRepository) CountAll(ctx context.Context) (int64, error) {
	query, args, err := psql.Select("COUNT(id)").From(equipmentTable).ToSql()
	if err != nil {
		return 0, err
	}
	var total int64
	if err := r.storage.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта оборудования: %w", err)
	}
	return total, nil
}

func (r *equipmentRepository) Create(ctx context.Context, tx pgx.Tx, eq entities.Equipment) (uint64, error) {
	query, args, err := psql.Insert(equipmentTable).
		Columns("name", "expiry_date", "employee_id", "is_retired", "retired_on").
		Values(eq.Name, eq.ExpiryDate, eq.EmployeeID, eq.IsRetired, eq.RetiredOn).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса Create equipment: %w", err)
	}

	var newID uint64
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&newID); err != nil {
		return 0, fmt.Errorf("ошибка создания equipment: %w", err)
	}
	return newID, nil
}

// Assign закрепляет оборудование за сотрудником. Списанное оборудование не обновляется.
func (r *equipmentRepository) Assign(ctx context.Context, tx pgx.Tx, id uint64, employeeID uint64) error {
	query, args, err := psql.Update(equipmentTable).
		Set("employee_id", employeeID).
		Where(sq.Eq{"id": id, "is_retired": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса Assign: %w", err)
	}

	result, err := r.getQuerier(tx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка назначения equipment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *equipmentRepository) UnassignAllForEmployee(ctx context.Context, tx pgx.Tx, employeeID uint64) (int64, error) {
	query, args, err := psql.Update(equipmentTable).
		Set("employee_id", nil).
		Where(sq.Eq{"employee_id": employeeID}).
		ToSql()
	if err != nil {
		return 0, err
	}

	result, err := r.getQuerier(tx).Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("ошибка снятия оборудования с сотрудника: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *equipmentRepository) UpdateLifecycle(ctx context.Context, tx pgx.Tx, eq entities.Equipment) error {
	var retiredOn *time.Time
	if eq.IsRetired {
		retiredOn = eq.RetiredOn
	}
	query, args, err := psql.Update(equipmentTable).
		Set("employee_id", eq.EmployeeID).
		Set("is_retired", eq.IsRetired).
		Set("retired_on", retiredOn).
		Where(sq.Eq{"id": eq.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса UpdateLifecycle: %w", err)
	}

	result, err := r.getQuerier(tx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления состояния equipment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
