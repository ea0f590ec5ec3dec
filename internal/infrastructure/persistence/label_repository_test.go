package persistence_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmawms/backend/internal/domain/inventory"
	"github.com/pharmawms/backend/internal/domain/shared"
	"github.com/pharmawms/backend/internal/infrastructure/persistence"
	"github.com/pharmawms/backend/internal/testutil"
)

func TestLabelRepository_SaveKeepsFirstBinding(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixture(t, db)
	repo := persistence.NewGormLabelRepository(db)
	p := fx.Product("SKU-L", 1)

	first, err := inventory.NewLabelAssociation(fx.TenantID, " UNIT-01 ", inventory.NewLotKey(p.ID, "L1"), nil, 0)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	second, err := inventory.NewLabelAssociation(fx.TenantID, "UNIT-01", inventory.NewLotKey(p.ID, "L2"), nil, 0)
	require.NoError(t, err)
	err = repo.Save(ctx, second)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrConflict)

	stored, err := repo.FindByCode(ctx, "UNIT-01")
	require.NoError(t, err)
	assert.Equal(t, "L1", stored.Lot)
}
