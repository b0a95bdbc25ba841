package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"safety-tracker/internal/listeners"
	"safety-tracker/internal/routes"
	"safety-tracker/pkg/config"
	"safety-tracker/pkg/customvalidator"
	apperrors "safety-tracker/pkg/errors"
	"safety-tracker/pkg/eventbus"
	"safety-tracker/pkg/middleware"
	"safety-tracker/pkg/service"
	"safety-tracker/pkg/utils"
	"safety-tracker/seeders"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Применить миграции Postgres и выйти",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Storage.Driver != config.StorageDriverPostgres {
				return fmt.Errorf("миграции нужны только для STORAGE_DRIVER=postgres, сейчас %q", a.cfg.Storage.Driver)
			}
			st, err := openStorage(cmd.Context(), a.cfg, a.logger, true)
			if err != nil {
				return err
			}
			defer st.close()
			a.logger.Info("Миграции применены")
			return nil
		},
	}
}

func newSeedCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Загрузить демо-данные в пустое хранилище",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStorage(cmd.Context(), a.cfg, a.logger, a.cfg.Storage.RunMigrations)
			if err != nil {
				return err
			}
			defer st.close()
			_, err = seeders.SeedIfEmpty(cmd.Context(), st.txManager, st.employees, st.equipment, time.Now(), a.logger)
			return err
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := a.logger

	st, err := openStorage(ctx, a.cfg, logger, a.cfg.Storage.RunMigrations)
	if err != nil {
		return err
	}
	defer st.close()

	if a.cfg.Storage.RunSeed || a.cfg.Storage.Driver == config.StorageDriverMemory {
		if _, err := seeders.SeedIfEmpty(ctx, st.txManager, st.employees, st.equipment, time.Now(), logger); err != nil {
			return fmt.Errorf("не удалось загрузить демо-данные: %w", err)
		}
	}

	cacheRepo, closeCache, err := openCache(ctx, a.cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	bus := eventbus.New(logger.Named("events"))
	listeners.NewLifecycleListener(logger.Named("lifecycle")).Register(bus)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("!!! ОБНАРУЖЕНА ПАНИКА (PANIC) !!!",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				httpErr := apperrors.NewHttpError(http.StatusInternalServerError, "Internal server error", err, nil)
				_ = utils.ErrorResponse(c, httpErr, logger)
			}
			return err
		},
	}))
	e.Use(middleware.RequestLogger(logger.Named("http")))

	v := validator.New()
	if err := customvalidator.RegisterCustomValidations(v); err != nil {
		return fmt.Errorf("ошибка регистрации кастомных правил валидации: %w", err)
	}
	e.Validator = utils.NewValidator(v)

	deps := routes.Dependencies{
		TxManager:     st.txManager,
		EmployeeRepo:  st.employees,
		EquipmentRepo: st.equipment,
		IssueRepo:     st.issues,
		CacheRepo:     cacheRepo,
		Storage:       st.pinger,
		Sessions:      service.NewSessionService(a.cfg.Auth.SessionSecret, a.cfg.Auth.SessionTTL, logger.Named("session")),
		Bus:           bus,
	}
	loggers := &routes.Loggers{
		Main:      logger,
		Auth:      logger.Named("auth"),
		Equipment: logger.Named("equipment"),
		Issue:     logger.Named("issue"),
	}
	if err := routes.InitRouter(e, deps, loggers, a.cfg); err != nil {
		return err
	}

	addr := ":" + a.cfg.Server.Port
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("🚀 Сервер запущен", zap.String("addr", addr), zap.String("storage", a.cfg.Storage.Driver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("ошибка запуска сервера: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Получен сигнал остановки, завершаем работу")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Сервер остановлен с ошибкой", zap.Error(err))
	}
	bus.Wait()
	logger.Info("Сервер остановлен")
	return nil
}
