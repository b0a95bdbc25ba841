package seeders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"safety-tracker/internal/repositories/memory"
)

func TestSeedIfEmpty(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	employees := memory.NewEmployeeRepository(store)
	equipment := memory.NewEquipmentRepository(store)
	today := time.Date(2026, time.April, 1, 15, 0, 0, 0, time.UTC)

	seeded, err := SeedIfEmpty(ctx, store, employees, equipment, today, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, seeded)

	emp, err := employees.FindByCode(ctx, nil, "E1003")
	require.NoError(t, err)
	assert.Equal(t, "Koustav Patowary", emp.Name)

	active, err := equipment.GetActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, "Fire Extinguisher CO₂", active[0].Name)
	assert.Equal(t, "2026-04-04", active[0].ExpiryDate.Format("2006-01-02"))
	for _, eq := range active {
		assert.Nil(t, eq.EmployeeID)
	}

	seeded, err = SeedIfEmpty(ctx, store, employees, equipment, today, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, seeded)
	total, _ := employees.Count(ctx)
	assert.EqualValues(t, 3, total)
}
