package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safety-tracker/internal/dto"
	"safety-tracker/internal/entities"
)

func TestEmployeeService_CreateTrimsAndRejectsDuplicates(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	created, err := f.employeeSvc.CreateEmployee(ctx, dto.CreateEmployeeDTO{EmployeeCode: " E1001 ", Name: " Chinmoy Das"})
	require.NoError(t, err)
	assert.Equal(t, "E1001", created.EmployeeCode)
	assert.Equal(t, "Chinmoy Das", created.Name)
	assert.Empty(t, created.ActiveEquipment)

	_, err = f.employeeSvc.CreateEmployee(ctx, dto.CreateEmployeeDTO{EmployeeCode: "E1001", Name: "Someone Else"})
	httpErr := requireHTTPError(t, err, http.StatusConflict)
	assert.Equal(t, "Employee ID already exists. Choose another.", httpErr.Message)

	_, err = f.employeeSvc.CreateEmployee(ctx, dto.CreateEmployeeDTO{EmployeeCode: "  ", Name: "Nobody"})
	requireHTTPError(t, err, http.StatusBadRequest)
}

func TestEmployeeService_ListWithActiveEquipment(t *testing.T) {
	f := newFixture(t, nil)
	harsha := f.addEmployee(t, "E1002", "Harsha Das")
	chinmoy := f.addEmployee(t, "E1001", "Chinmoy Das")
	f.addEquipment(t, "Safety Harness", 90, &chinmoy)
	f.addEquipment(t, "Safety Helmet", 10, &chinmoy)
	retired := f.addEquipment(t, "Old Gloves", 5, nil)
	retired.IsRetired = true
	retired.RetiredOn = &testNow
	require.NoError(t, f.equipment.UpdateLifecycle(context.Background(), nil, retired))

	list, err := f.employeeSvc.GetEmployees(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, chinmoy.ID, list[0].ID)
	assert.Equal(t, []string{"Safety Helmet", "Safety Harness"}, list[0].ActiveEquipment)
	assert.Equal(t, harsha.ID, list[1].ID)
	assert.Equal(t, []string{}, list[1].ActiveEquipment)
}

func TestEmployeeService_FindEmployee(t *testing.T) {
	f := newFixture(t, nil)
	emp := f.addEmployee(t, "E1001", "Chinmoy Das")
	f.addEquipment(t, "Fire Extinguisher", 3, &emp)

	detail, err := f.employeeSvc.FindEmployee(context.Background(), emp.ID)
	require.NoError(t, err)
	require.Len(t, detail.Equipment, 1)
	assert.Equal(t, 3, detail.Equipment[0].DaysLeft)
	assert.Equal(t, "near_expiry", detail.Equipment[0].Status)

	_, err = f.employeeSvc.FindEmployee(context.Background(), 404)
	httpErr := requireHTTPError(t, err, http.StatusNotFound)
	assert.Equal(t, "Employee not found.", httpErr.Message)
}

func TestEmployeeService_DeleteUnassignsAndClearsRaiser(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	emp := f.addEmployee(t, "E1001", "Chinmoy Das")
	helmet := f.addEquipment(t, "Safety Helmet", 10, &emp)
	principal := entities.EmployeePrincipal(emp.ID, emp.EmployeeCode, emp.Name)
	_, _, err := f.issueSvc.RaiseIssue(ctx, principal, helmet.ID, dto.RaiseIssueDTO{Description: "strap broken"})
	require.NoError(t, err)

	require.NoError(t, f.employeeSvc.DeleteEmployee(ctx, emp.ID))

	stored := f.mustEquipment(t, helmet.ID)
	assert.Nil(t, stored.EmployeeID)
	assert.False(t, stored.IsRetired)

	issues, err := f.issueSvc.GetIssues(ctx)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Nil(t, issues[0].RaisedBy)

	err = f.employeeSvc.DeleteEmployee(ctx, emp.ID)
	requireHTTPError(t, err, http.StatusNotFound)
}
