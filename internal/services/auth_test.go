package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"safety-tracker/internal/dto"
	"safety-tracker/internal/entities"
	"safety-tracker/internal/repositories/memory"
	"safety-tracker/pkg/config"
	"safety-tracker/pkg/service"
)

type authFixture struct {
	*fixture
	auth  *AuthService
	now   time.Time
	cache *memory.Cache
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	af := &authFixture{fixture: newFixture(t, nil), now: testNow}
	af.cache = memory.NewCache().WithClock(func() time.Time { return af.now })

	sessions := service.NewSessionService("test-secret", time.Hour, zap.NewNop())
	auth, err := NewAuthService(af.employees, af.cache, sessions, config.AuthConfig{
		AdminPIN:         "4321",
		MaxLoginAttempts: 3,
		LockoutDuration:  15 * time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)
	af.auth = auth
	return af
}

func TestAuthService_EmployeeLogin(t *testing.T) {
	af := newAuthFixture(t)
	af.addEmployee(t, "E1001", "Chinmoy Das")

	resp, msg, err := af.auth.EmployeeLogin(context.Background(), "10.0.0.1", dto.EmployeeLoginDTO{EmployeeCode: " E1001 "})
	require.NoError(t, err)
	assert.Equal(t, "Welcome, Chinmoy Das!", msg)
	assert.Equal(t, "employee", resp.Principal.Kind)
	assert.Equal(t, "E1001", resp.Principal.EmployeeCode.String)
	assert.NotEmpty(t, resp.Token)

	_, _, err = af.auth.EmployeeLogin(context.Background(), "10.0.0.1", dto.EmployeeLoginDTO{EmployeeCode: "e1001"})
	httpErr := requireHTTPError(t, err, http.StatusUnauthorized)
	assert.Equal(t, "Invalid Employee ID.", httpErr.Message)
}

func TestAuthService_AdminLogin(t *testing.T) {
	af := newAuthFixture(t)

	resp, msg, err := af.auth.AdminLogin(context.Background(), "10.0.0.1", dto.AdminLoginDTO{PIN: "4321"})
	require.NoError(t, err)
	assert.Equal(t, "Admin login successful.", msg)
	assert.Equal(t, "admin", resp.Principal.Kind)
	assert.False(t, resp.Principal.EmployeeID.Valid)

	_, _, err = af.auth.AdminLogin(context.Background(), "10.0.0.1", dto.AdminLoginDTO{PIN: "1234"})
	httpErr := requireHTTPError(t, err, http.StatusUnauthorized)
	assert.Equal(t, "Invalid PIN.", httpErr.Message)

	_, _, err = af.auth.AdminLogin(context.Background(), "10.0.0.1", dto.AdminLoginDTO{PIN: " 4321\n"})
	require.NoError(t, err, "surrounding whitespace is ignored")

	_, _, err = af.auth.AdminLogin(context.Background(), "10.0.0.1", dto.AdminLoginDTO{PIN: "   "})
	requireHTTPError(t, err, http.StatusUnauthorized)
}

func TestAuthService_LockoutAfterRepeatedFailures(t *testing.T) {
	af := newAuthFixture(t)
	ctx := context.Background()
	af.addEmployee(t, "E1001", "Chinmoy Das")
	const ip = "10.0.0.7"

	for i := 0; i < 3; i++ {
		_, _, err := af.auth.EmployeeLogin(ctx, ip, dto.EmployeeLoginDTO{EmployeeCode: "E9999"})
		requireHTTPError(t, err, http.StatusUnauthorized)
	}

	_, _, err := af.auth.EmployeeLogin(ctx, ip, dto.EmployeeLoginDTO{EmployeeCode: "E1001"})
	httpErr := requireHTTPError(t, err, http.StatusTooManyRequests)
	assert.Equal(t, "Too many failed attempts. Try again in 15 minutes.", httpErr.Message)

	// другой адрес и вход администратора не заблокированы
	_, _, err = af.auth.EmployeeLogin(ctx, "10.0.0.8", dto.EmployeeLoginDTO{EmployeeCode: "E1001"})
	require.NoError(t, err)
	_, _, err = af.auth.AdminLogin(ctx, ip, dto.AdminLoginDTO{PIN: "4321"})
	require.NoError(t, err)

	af.now = af.now.Add(16 * time.Minute)
	_, _, err = af.auth.EmployeeLogin(ctx, ip, dto.EmployeeLoginDTO{EmployeeCode: "E1001"})
	require.NoError(t, err)
}

func TestAuthService_SuccessResetsFailures(t *testing.T) {
	af := newAuthFixture(t)
	ctx := context.Background()
	const ip = "10.0.0.9"

	for i := 0; i < 2; i++ {
		_, _, err := af.auth.AdminLogin(ctx, ip, dto.AdminLoginDTO{PIN: "0000"})
		requireHTTPError(t, err, http.StatusUnauthorized)
	}
	_, _, err := af.auth.AdminLogin(ctx, ip, dto.AdminLoginDTO{PIN: "4321"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, _, err := af.auth.AdminLogin(ctx, ip, dto.AdminLoginDTO{PIN: "0000"})
		requireHTTPError(t, err, http.StatusUnauthorized)
	}
}

func TestAuthService_VerifyDropsDeletedEmployee(t *testing.T) {
	af := newAuthFixture(t)
	emp := af.addEmployee(t, "E1001", "Chinmoy Das")
	principal := entities.EmployeePrincipal(emp.ID, emp.EmployeeCode, "stale name")

	verified := af.auth.Verify(context.Background(), principal)
	assert.Equal(t, entities.PrincipalEmployee, verified.Kind())
	assert.Equal(t, "Chinmoy Das", verified.Name())

	require.NoError(t, af.employees.Delete(context.Background(), nil, emp.ID))
	assert.Equal(t, entities.PrincipalAnonymous, af.auth.Verify(context.Background(), principal).Kind())

	assert.True(t, af.auth.Verify(context.Background(), entities.AdminPrincipal()).IsAdmin())
}
