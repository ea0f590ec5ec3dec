package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmawms/backend/internal/infrastructure/persistence"
	"github.com/pharmawms/backend/internal/testutil"
)

func TestGormSequenceGenerator_Next(t *testing.T) {
	ctx := context.Background()
	gen := persistence.NewGormSequenceGenerator(testutil.NewTestDB(t))
	tenant := uuid.New()
	day := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	for want := int64(1); want <= 3; want++ {
		got, err := gen.Next(ctx, tenant, "wave", day)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// Counters are kept per tenant, scope and day.
	got, err := gen.Next(ctx, tenant, "wave", day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	got, err = gen.Next(ctx, tenant, "document", day)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	got, err = gen.Next(ctx, uuid.New(), "wave", day)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}
