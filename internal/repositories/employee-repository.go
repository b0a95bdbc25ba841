package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"safety-tracker/internal/entities"
	apperrors "safety-tracker/pkg/errors"
)

const (
	employeeTable  = "employee"
	employeeFields = "id, employee_code, name"

	pgUniqueViolation = "23505"
)

type EmployeeRepositoryInterface interface {
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Employee, error)
	FindByCode(ctx context.Context, tx pgx.Tx, code string) (*entities.Employee, error)
	GetAll(ctx context.Context) ([]entities.Employee, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, tx pgx.Tx, e entities.Employee) (uint64, error)
	Delete(ctx context.Context, tx pgx.Tx, id uint64) error
}

type employeeRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewEmployeeRepository(storage *pgxpool.Pool, logger *zap.Logger) EmployeeRepositoryInterface {
	return &employeeRepository{storage: storage, logger: logger}
}

func (r *employeeRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *employeeRepository) scanRow(row pgx.Row) (*entities.Employee, error) {
	var e entities.Employee
	if err := row.Scan(&e.ID, &e.EmployeeCode, &e.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования employee: %w", err)
	}
	return &e, nil
}

func (r *employeeRepository) findOne(ctx context.Context, q Querier, where sq.Eq) (*entities.Employee, error) {
	query, args, err := psql.Select(employeeFields).From(employeeTable).Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для employee: %w", err)
	}
	return r.scanRow(q.QueryRow(ctx, query, args...))
}

func (r *employeeRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Employee, error) {
	return r.findOne(ctx, r.getQuerier(tx), sq.Eq{"id": id})
}

func (r *employeeRepository) FindByCode(ctx context.Context, tx pgx.Tx, code string) (*entities.Employee, error) {
	return r.findOne(ctx, r.getQuerier(tx), sq.Eq{"employee_code": code})
}

// GetAll - сотрудники по имени (A-Z), при равных именах по id.
func (r *employeeRepository) GetAll(ctx context.Context) ([]entities.Employee, error) {
	query, args, err := psql.Select(employeeFields).From(employeeTable).OrderBy("name ASC", "id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса GetAll employee: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка сотрудников: %w", err)
	}
	defer rows.Close()

	employees := make([]entities.Employee, 0)
	for rows.Next() {
		var e entities.Employee
		if err := rows.Scan(&e.ID, &e.EmployeeCode, &e.Name); err != nil {
			return nil, fmt.Errorf("ошибка сканирования employee: %w", err)
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (r *employeeRepository) Count(ctx context.Context) (int64, error) {
	query, args, err := psql.Select("COUNT(id)").From(employeeTable).ToSql()
	if err != nil {
		return 0, err
	}
	var total int64
	if err := r.storage.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта сотрудников: %w", err)
	}
	return total, nil
}

func (r *employeeRepository) Create(ctx context.Context, tx pgx.Tx, e entities.Employee) (uint64, error) {
	query, args, err := psql.Insert(employeeTable).
		Columns("employee_code", "name").
		Values(e.EmployeeCode, e.Name).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса Create employee: %w", err)
	}

	var newID uint64
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&newID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return 0, fmt.Errorf("сотрудник с кодом %s уже существует: %w", e.EmployeeCode, apperrors.ErrConflict)
		}
		return 0, fmt.Errorf("ошибка создания employee: %w", err)
	}
	return newID, nil
}

func (r *employeeRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	query, args, err := psql.Delete(employeeTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса Delete employee: %w", err)
	}

	result, err := r.getQuerier(tx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка удаления employee: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
