package seeders

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"safety-tracker/internal/entities"
	"safety-tracker/internal/lifecycle"
	"safety-tracker/internal/repositories"
)

// SeedIfEmpty наполняет демо-данными пустое хранилище. Если есть хотя бы
// один сотрудник или единица оборудования, ничего не делает и возвращает false.
func SeedIfEmpty(
	ctx context.Context,
	txManager repositories.TxManagerInterface,
	employeeRepo repositories.EmployeeRepositoryInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	today time.Time,
	logger *zap.Logger,
) (bool, error) {
	employees, err := employeeRepo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("не удалось посчитать сотрудников: %w", err)
	}
	equipment, err := equipmentRepo.CountAll(ctx)
	if err != nil {
		return false, fmt.Errorf("не удалось посчитать оборудование: %w", err)
	}
	if employees > 0 || equipment > 0 {
		logger.Info("Хранилище не пустое, сидер пропущен",
			zap.Int64("employees", employees),
			zap.Int64("equipment", equipment),
		)
		return false, nil
	}

	base := lifecycle.DateOnly(today)
	err = txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		for _, e := range employeesData {
			if _, err := employeeRepo.Create(ctx, tx, entities.Employee{EmployeeCode: e.Code, Name: e.Name}); err != nil {
				return fmt.Errorf("сотрудник %s: %w", e.Code, err)
			}
		}
		for _, eq := range equipmentData {
			item := entities.Equipment{Name: eq.Name, ExpiryDate: base.AddDate(0, 0, eq.ExpiresInDays)}
			if _, err := equipmentRepo.Create(ctx, tx, item); err != nil {
				return fmt.Errorf("оборудование %q: %w", eq.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	logger.Info("✅ Демо-данные загружены",
		zap.Int("employees", len(employeesData)),
		zap.Int("equipment", len(equipmentData)),
	)
	return true, nil
}
