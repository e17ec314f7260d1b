package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/ordersync/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvanceTypeRepo_CreateAndLookup(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteAdvanceTypeRepo(db)
	ctx := context.Background()

	units := testutil.NewTestAdvanceType("units")
	units.Percentage = false
	require.NoError(t, repo.Create(ctx, units))
	require.NoError(t, repo.Create(ctx, testutil.NewTestAdvanceType("percent")))

	byID, err := repo.GetByID(ctx, units.ID)
	require.NoError(t, err)
	assert.Equal(t, units, byID)

	byName, err := repo.GetByUnitName(ctx, "units")
	require.NoError(t, err)
	assert.Equal(t, units.ID, byName.ID)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "percent", list[0].UnitName)

	_, err = repo.GetByUnitName(ctx, "hours")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdvanceTypeRepo_UnitNameUnique(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteAdvanceTypeRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.NewTestAdvanceType("units")))
	assert.Error(t, repo.Create(ctx, testutil.NewTestAdvanceType("units")))
}
