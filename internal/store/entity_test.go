package store

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()

	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

// newTestStore creates an in-memory Store with migrations applied.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(":memory:", testLogger(t))
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})

	return s
}

func makeCategory(id int64, name string) *Category {
	return &Category{
		Audit:      Audit{UpdatedBy: "system"},
		ExternalID: id,
		Name:       name,
		Kind:       "personal",
	}
}

func TestEntityStoreUpsert(t *testing.T) {
	s := newTestStore(t)
	cats := NewCategoryStore(s.DB(), testLogger(t))
	ctx := context.Background()

	t.Run("get missing returns nil", func(t *testing.T) {
		got, err := cats.Get(ctx, 999)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("first sighting creates active record", func(t *testing.T) {
		created, err := cats.Upsert(ctx, makeCategory(1, "Weapons"))
		require.NoError(t, err)
		assert.True(t, created)

		got, err := cats.Get(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Weapons", got.Name)
		assert.Equal(t, StatusActive, got.Status)
		assert.Equal(t, "system", got.UpdatedBy)
		assert.NotZero(t, got.CreatedAt)
		assert.Equal(t, got.CreatedAt, got.UpdatedAt)
	})

	t.Run("second sighting updates fields, keeps created_at", func(t *testing.T) {
		before, err := cats.Get(ctx, 1)
		require.NoError(t, err)

		created, err := cats.Upsert(ctx, makeCategory(1, "Personal Weapons"))
		require.NoError(t, err)
		assert.False(t, created)

		got, err := cats.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Personal Weapons", got.Name)
		assert.Equal(t, before.CreatedAt, got.CreatedAt)
		assert.GreaterOrEqual(t, got.UpdatedAt, before.UpdatedAt)
	})
}

func TestEntityStoreRetireMissing(t *testing.T) {
	s := newTestStore(t)
	cats := NewCategoryStore(s.DB(), testLogger(t))
	ctx := context.Background()

	for id, name := range map[int64]string{1: "Weapons", 2: "Armor", 3: "Components"} {
		_, err := cats.Upsert(ctx, makeCategory(id, name))
		require.NoError(t, err)
	}

	t.Run("retires records absent from seen set", func(t *testing.T) {
		n, err := cats.RetireMissing(ctx, []int64{1, 2}, "system")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		got, err := cats.Get(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, StatusRetired, got.Status)

		ids, err := cats.ActiveExternalIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, ids)
	})

	t.Run("empty seen set retires nothing", func(t *testing.T) {
		n, err := cats.RetireMissing(ctx, nil, "system")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("idempotent", func(t *testing.T) {
		n, err := cats.RetireMissing(ctx, []int64{1, 2}, "system")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("upsert resurrects a retired record", func(t *testing.T) {
		created, err := cats.Upsert(ctx, makeCategory(3, "Components"))
		require.NoError(t, err)
		assert.False(t, created)

		got, err := cats.Get(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, StatusActive, got.Status)
	})
}

func TestEntityStoreUpsertBatch(t *testing.T) {
	s := newTestStore(t)
	items := NewItemStore(s.DB(), testLogger(t))
	ctx := context.Background()

	_, err := items.Upsert(ctx, &Item{
		Audit: Audit{UpdatedBy: "system"}, ExternalID: 1, Name: "old", CategoryExternalID: 10,
	})
	require.NoError(t, err)

	batch := []*Item{
		{Audit: Audit{UpdatedBy: "system"}, ExternalID: 1, Name: "P4-AR", CategoryExternalID: 10},
		{Audit: Audit{UpdatedBy: "system"}, ExternalID: 2, Name: "Arclight", CategoryExternalID: 10},
		{Audit: Audit{UpdatedBy: "system"}, ExternalID: 3, Name: "Demeco", CategoryExternalID: 10},
	}

	created, updated, err := items.UpsertBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Equal(t, 1, updated)

	got, err := items.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "P4-AR", got.Name)
}

func TestLocationParentReferences(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	logger := testLogger(t)

	systems := NewStarSystemStore(s.DB(), logger)
	planets := NewPlanetStore(s.DB(), logger)

	_, err := systems.Upsert(ctx, &StarSystem{
		Audit: Audit{UpdatedBy: "system"}, ExternalID: 1, Name: "Stanton", Code: "ST", Available: true,
	})
	require.NoError(t, err)

	_, err = planets.Upsert(ctx, &Planet{
		Audit: Audit{UpdatedBy: "system"}, ExternalID: 4, Name: "microTech", Code: "MT",
		StarSystemExternalID: 1, Available: true,
	})
	require.NoError(t, err)

	got, err := planets.Get(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.StarSystemExternalID)
	assert.True(t, got.Available)
}
