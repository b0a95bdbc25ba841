package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"safety-tracker/internal/entities"
	"safety-tracker/internal/repositories/memory"
	apperrors "safety-tracker/pkg/errors"
	"safety-tracker/pkg/eventbus"
)

const testNearExpiryDays = 30

var testNow = time.Date(2026, time.April, 1, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type fixture struct {
	store     *memory.Store
	employees *memory.EmployeeRepository
	equipment *memory.EquipmentRepository
	issues    *memory.IssueRepository
	bus       *eventbus.Bus

	employeeSvc  EmployeeServiceInterface
	equipmentSvc EquipmentServiceInterface
	issueSvc     IssueServiceInterface
	dashboardSvc DashboardServiceInterface
	exportSvc    ExportServiceInterface
}

func newFixture(t *testing.T, logger *zap.Logger) *fixture {
	t.Helper()
	if logger == nil {
		logger = zap.NewNop()
	}
	store := memory.NewStore()
	f := &fixture{
		store:     store,
		employees: memory.NewEmployeeRepository(store),
		equipment: memory.NewEquipmentRepository(store),
		issues:    memory.NewIssueRepository(store),
		bus:       eventbus.New(logger),
	}
	t.Cleanup(f.bus.Wait)

	f.employeeSvc = NewEmployeeService(store, f.employees, f.equipment, f.issues, testNearExpiryDays, fixedClock, logger)
	f.equipmentSvc = NewEquipmentService(store, f.equipment, f.employees, f.issues, testNearExpiryDays, fixedClock, logger)
	f.issueSvc = NewIssueService(store, f.issues, f.equipment, f.bus, testNearExpiryDays, fixedClock, logger)
	f.dashboardSvc = NewDashboardService(f.employees, f.equipment, f.issues, testNearExpiryDays, fixedClock, logger)
	f.exportSvc = NewExportService(f.equipment, testNearExpiryDays, fixedClock, logger)
	return f
}

func (f *fixture) addEmployee(t *testing.T, code, name string) entities.Employee {
	t.Helper()
	e := entities.Employee{EmployeeCode: code, Name: name}
	id, err := f.employees.Create(context.Background(), nil, e)
	require.NoError(t, err)
	e.ID = id
	return e
}

// addEquipment заводит оборудование со сроком годности через daysFromNow дней.
func (f *fixture) addEquipment(t *testing.T, name string, daysFromNow int, owner *entities.Employee) entities.Equipment {
	t.Helper()
	eq := entities.Equipment{Name: name, ExpiryDate: testDay(daysFromNow)}
	if owner != nil {
		eq.EmployeeID = &owner.ID
	}
	id, err := f.equipment.Create(context.Background(), nil, eq)
	require.NoError(t, err)
	eq.ID = id
	return eq
}

func (f *fixture) mustEquipment(t *testing.T, id uint64) *entities.Equipment {
	t.Helper()
	eq, err := f.equipment.FindByID(context.Background(), nil, id)
	require.NoError(t, err)
	return eq
}

func testDay(offset int) time.Time {
	return time.Date(testNow.Year(), testNow.Month(), testNow.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func requireHTTPError(t *testing.T, err error, code int) *apperrors.HttpError {
	t.Helper()
	require.Error(t, err)
	var httpErr *apperrors.HttpError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, code, httpErr.Code, http.StatusText(code))
	return httpErr
}
