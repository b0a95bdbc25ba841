package services

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"safety-tracker/internal/dto"
	"safety-tracker/internal/entities"
	"safety-tracker/internal/lifecycle"
	"safety-tracker/internal/listeners"
	"safety-tracker/internal/repositories/memory"
)

func TestIssueService_RaiseAsEmployeeRecordsRaiser(t *testing.T) {
	f := newFixture(t, nil)
	emp := f.addEmployee(t, "E1001", "Chinmoy Das")
	helmet := f.addEquipment(t, "Safety Helmet", 10, &emp)

	principal := entities.EmployeePrincipal(emp.ID, emp.EmployeeCode, emp.Name)
	issue, msg, err := f.issueSvc.RaiseIssue(context.Background(), principal, helmet.ID, dto.RaiseIssueDTO{Description: "  strap broken "})
	require.NoError(t, err)

	assert.Equal(t, "Issue raised.", msg)
	assert.Equal(t, "strap broken", issue.Description)
	assert.Equal(t, "Safety Helmet", issue.EquipmentName)
	assert.False(t, issue.IsResolved)
	assert.False(t, issue.ResolvedOn.Valid)
	require.NotNil(t, issue.RaisedBy)
	assert.Equal(t, emp.ID, issue.RaisedBy.ID)
	assert.Equal(t, "E1001", issue.RaisedBy.EmployeeCode)

	list, err := f.issueSvc.GetIssues(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].RaisedBy)
	assert.Equal(t, "Chinmoy Das", list[0].RaisedBy.Name)
}

func TestIssueService_RaiseWithoutEmployeeHasNoRaiser(t *testing.T) {
	f := newFixture(t, nil)
	helmet := f.addEquipment(t, "Safety Helmet", 10, nil)

	for _, p := range []entities.Principal{entities.AnonymousPrincipal(), entities.AdminPrincipal()} {
		issue, _, err := f.issueSvc.RaiseIssue(context.Background(), p, helmet.ID, dto.RaiseIssueDTO{Description: "cracked"})
		require.NoError(t, err)
		assert.Nil(t, issue.RaisedBy, p.Kind())
	}
}

func TestIssueService_RaiseValidation(t *testing.T) {
	f := newFixture(t, nil)
	helmet := f.addEquipment(t, "Safety Helmet", 10, nil)
	ctx := context.Background()

	_, _, err := f.issueSvc.RaiseIssue(ctx, entities.AnonymousPrincipal(), helmet.ID, dto.RaiseIssueDTO{Description: "   "})
	httpErr := requireHTTPError(t, err, http.StatusBadRequest)
	assert.Equal(t, "Description is required.", httpErr.Message)

	_, _, err = f.issueSvc.RaiseIssue(ctx, entities.AnonymousPrincipal(), helmet.ID, dto.RaiseIssueDTO{Description: strings.Repeat("ж", 301)})
	httpErr = requireHTTPError(t, err, http.StatusBadRequest)
	assert.Equal(t, "Description must be at most 300 characters.", httpErr.Message)

	_, _, err = f.issueSvc.RaiseIssue(ctx, entities.AnonymousPrincipal(), helmet.ID, dto.RaiseIssueDTO{Description: strings.Repeat("ж", 300)})
	require.NoError(t, err)

	_, _, err = f.issueSvc.RaiseIssue(ctx, entities.AnonymousPrincipal(), 999, dto.RaiseIssueDTO{Description: "lost"})
	requireHTTPError(t, err, http.StatusNotFound)
}

func TestIssueService_RaiseChecksEquipmentBeforeDescription(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	helmet := f.addEquipment(t, "Safety Helmet", 10, nil)

	_, _, err := f.issueSvc.RaiseIssue(ctx, entities.AnonymousPrincipal(), 999, dto.RaiseIssueDTO{Description: ""})
	requireHTTPError(t, err, http.StatusNotFound)

	issue, _, err := f.issueSvc.RaiseIssue(ctx, entities.AdminPrincipal(), helmet.ID, dto.RaiseIssueDTO{Description: "strap broken"})
	require.NoError(t, err)
	_, _, err = f.issueSvc.ToggleResolve(ctx, issue.ID)
	require.NoError(t, err)

	_, _, err = f.issueSvc.RaiseIssue(ctx, entities.AnonymousPrincipal(), helmet.ID, dto.RaiseIssueDTO{Description: "  "})
	httpErr := requireHTTPError(t, err, http.StatusConflict)
	assert.Equal(t, "This equipment is retired. You cannot raise a new issue.", httpErr.Message)

	all, err := f.issueSvc.GetIssues(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestIssueService_ResolveRetiresAndUnassigns(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	f := newFixture(t, logger)
	listeners.NewLifecycleListener(logger).Register(f.bus)

	emp := f.addEmployee(t, "E1001", "Chinmoy Das")
	helmet := f.addEquipment(t, "Safety Helmet", 10, &emp)
	issue, _, err := f.issueSvc.RaiseIssue(context.Background(), entities.AdminPrincipal(), helmet.ID, dto.RaiseIssueDTO{Description: "strap broken"})
	require.NoError(t, err)

	result, msg, err := f.issueSvc.ToggleResolve(context.Background(), issue.ID)
	require.NoError(t, err)
	assert.Equal(t, "Issue marked as resolved. Equipment unassigned and retired.", msg)
	assert.Equal(t, string(lifecycle.TransitionResolved), result.Transition)
	assert.True(t, result.Issue.IsResolved)
	require.True(t, result.Issue.ResolvedOn.Valid)
	assert.Equal(t, testNow, result.Issue.ResolvedOn.Time)
	require.NotNil(t, result.Equipment)
	assert.True(t, result.Equipment.IsRetired)
	assert.Nil(t, result.Equipment.AssignedTo)

	stored := f.mustEquipment(t, helmet.ID)
	assert.True(t, stored.IsRetired)
	assert.Nil(t, stored.EmployeeID)
	require.NotNil(t, stored.RetiredOn)
	assert.NoError(t, lifecycle.CheckEquipment(*stored))

	active, err := f.equipmentSvc.GetActiveEquipment(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)

	f.bus.Wait()
	assert.Equal(t, 1, logs.FilterMessage("заявка решена, оборудование списано").Len())
	assert.Equal(t, 1, logs.FilterField(zap.Uint64("unassignedFrom", emp.ID)).Len())
}

func TestIssueService_ReopenReactivatesWithoutReassigning(t *testing.T) {
	f := newFixture(t, nil)
	emp := f.addEmployee(t, "E1001", "Chinmoy Das")
	helmet := f.addEquipment(t, "Safety Helmet", 10, &emp)
	issue, _, err := f.issueSvc.RaiseIssue(context.Background(), entities.AdminPrincipal(), helmet.ID, dto.RaiseIssueDTO{Description: "strap broken"})
	require.NoError(t, err)

	_, _, err = f.issueSvc.ToggleResolve(context.Background(), issue.ID)
	require.NoError(t, err)
	result, msg, err := f.issueSvc.ToggleResolve(context.Background(), issue.ID)
	require.NoError(t, err)

	assert.Equal(t, "Issue re-opened. Equipment reactivated.", msg)
	assert.Equal(t, string(lifecycle.TransitionReopened), result.Transition)
	assert.False(t, result.Issue.IsResolved)
	assert.False(t, result.Issue.ResolvedOn.Valid)

	stored := f.mustEquipment(t, helmet.ID)
	assert.False(t, stored.IsRetired)
	assert.Nil(t, stored.RetiredOn)
	assert.Nil(t, stored.EmployeeID)
}

func TestIssueService_MultipleIssuesOnOneItem(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	helmet := f.addEquipment(t, "Safety Helmet", 10, nil)

	first, _, err := f.issueSvc.RaiseIssue(ctx, entities.AdminPrincipal(), helmet.ID, dto.RaiseIssueDTO{Description: "strap broken"})
	require.NoError(t, err)
	second, _, err := f.issueSvc.RaiseIssue(ctx, entities.AdminPrincipal(), helmet.ID, dto.RaiseIssueDTO{Description: "visor scratched"})
	require.NoError(t, err)

	_, _, err = f.issueSvc.ToggleResolve(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, f.mustEquipment(t, helmet.ID).IsRetired)

	// на списанное оборудование новую заявку завести нельзя
	_, _, err = f.issueSvc.RaiseIssue(ctx, entities.AdminPrincipal(), helmet.ID, dto.RaiseIssueDTO{Description: "another"})
	httpErr := requireHTTPError(t, err, http.StatusConflict)
	assert.Equal(t, "This equipment is retired. You cannot raise a new issue.", httpErr.Message)

	// вторая заявка остаётся открытой
	open, err := f.issues.CountOpen(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, open)

	// переоткрытие первой возвращает оборудование в работу, несмотря на открытую вторую
	_, _, err = f.issueSvc.ToggleResolve(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, f.mustEquipment(t, helmet.ID).IsRetired)

	_, _, err = f.issueSvc.ToggleResolve(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, f.mustEquipment(t, helmet.ID).IsRetired)
}

func TestIssueService_DeleteKeepsRetirement(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	helmet := f.addEquipment(t, "Safety Helmet", 10, nil)
	issue, _, err := f.issueSvc.RaiseIssue(ctx, entities.AdminPrincipal(), helmet.ID, dto.RaiseIssueDTO{Description: "strap broken"})
	require.NoError(t, err)
	_, _, err = f.issueSvc.ToggleResolve(ctx, issue.ID)
	require.NoError(t, err)

	msg, err := f.issueSvc.DeleteIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, "Issue deleted.", msg)
	assert.True(t, f.mustEquipment(t, helmet.ID).IsRetired)

	_, err = f.issueSvc.DeleteIssue(ctx, issue.ID)
	requireHTTPError(t, err, http.StatusNotFound)

	_, _, err = f.issueSvc.ToggleResolve(ctx, issue.ID)
	requireHTTPError(t, err, http.StatusNotFound)
}

// lossyEquipmentRepository теряет retired_on при записи.
type lossyEquipmentRepository struct {
	*memory.EquipmentRepository
}

func (r lossyEquipmentRepository) UpdateLifecycle(ctx context.Context, tx pgx.Tx, eq entities.Equipment) error {
	eq.RetiredOn = nil
	return r.EquipmentRepository.UpdateLifecycle(ctx, tx, eq)
}

func TestIssueService_ToggleRollsBackBrokenInvariant(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := f.addEmployee(t, "E1001", "Chinmoy Das")
	helmet := f.addEquipment(t, "Safety Helmet", 10, &owner)

	issue, _, err := f.issueSvc.RaiseIssue(ctx, entities.AdminPrincipal(), helmet.ID, dto.RaiseIssueDTO{Description: "strap broken"})
	require.NoError(t, err)

	svc := NewIssueService(f.store, f.issues, lossyEquipmentRepository{f.equipment}, f.bus, testNearExpiryDays, fixedClock, zap.NewNop())
	_, _, err = svc.ToggleResolve(ctx, issue.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is_retired=true")

	stored, err := f.issues.FindByID(ctx, nil, issue.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsResolved)
	assert.Nil(t, stored.ResolvedOn)

	eq := f.mustEquipment(t, helmet.ID)
	assert.False(t, eq.IsRetired)
	require.NotNil(t, eq.EmployeeID)
	assert.Equal(t, owner.ID, *eq.EmployeeID)
}
