package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uddhav/creative-thinking/internal/domain"
	"github.com/uddhav/creative-thinking/internal/engine"
	"github.com/uddhav/creative-thinking/internal/memory"
)

func TestFilter_WithMethods(t *testing.T) {
	f := DefaultFilter()
	assert.Equal(t, 100, f.Limit)

	f2 := f.WithLimit(50).WithOffset(10).WithOrder("created_at", false)
	assert.Equal(t, 50, f2.Limit)
	assert.Equal(t, 10, f2.Offset)
	assert.Equal(t, "created_at", f2.OrderBy)
	assert.False(t, f2.OrderDesc)

	// original is unchanged
	assert.Equal(t, 100, f.Limit)
	assert.True(t, f.OrderDesc)
}

func TestErrors(t *testing.T) {
	err := NewNotFoundError("session", "abc")
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "session not found: abc", err.Error())
	assert.False(t, IsNotFound(ErrClosed))
}

func openStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func snapshot(t *testing.T, id, problem string, decisions int, at time.Time) engine.Snapshot {
	t.Helper()
	m := memory.NewManager(nil)
	for i := 0; i < decisions; i++ {
		_, _, err := m.RecordEvent("scamper", i+1, "narrow", domain.DecisionImpact{
			OptionsClosed:     []string{"alt"},
			ReversibilityCost: 0.5,
			CommitmentLevel:   0.5,
		})
		require.NoError(t, err)
	}
	return engine.Snapshot{
		SessionID: id,
		CreatedAt: at,
		UpdatedAt: at,
		Context:   domain.SessionContext{SessionID: id, Problem: problem},
		Memory:    m.Memory(),
	}
}

func TestSQLite_CreateGet(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.Ping(ctx))

	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	snap := snapshot(t, "s1", "pricing", 2, at)
	require.NoError(t, s.Create(ctx, snap))

	err := s.Create(ctx, snap)
	require.ErrorIs(t, err, ErrAlreadyExists)

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "pricing", got.Context.Problem)
	require.NotNil(t, got.Memory)
	assert.Len(t, got.Memory.History, 2)
	assert.InDelta(t, snap.Memory.Score(), got.Memory.Score(), 1e-12)
	assert.True(t, at.Equal(got.CreatedAt))
}

func TestSQLite_GetMissing(t *testing.T) {
	s := openStore(t)
	_, err := s.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "nope", nf.ID)
}

func TestSQLite_SaveUpserts(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(ctx, snapshot(t, "s1", "first", 0, at)))

	later := snapshot(t, "s1", "second", 3, at.Add(time.Hour))
	later.CreatedAt = at.Add(time.Hour)
	require.NoError(t, s.Save(ctx, later))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := s.List(ctx, DefaultFilter())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "second", list[0].Problem)
	assert.Equal(t, 3, list[0].Events)
	assert.True(t, at.Equal(list[0].CreatedAt), "created_at survives an upsert")
	assert.True(t, at.Add(time.Hour).Equal(list[0].UpdatedAt))
}

func TestSQLite_ListOrdering(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Create(ctx, snapshot(t, id, "", i, base.Add(time.Duration(i)*time.Minute))))
	}

	list, err := s.List(ctx, DefaultFilter())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "b", "a"}, ids(list))

	list, err = s.List(ctx, DefaultFilter().WithOrder("created_at", false).WithLimit(2).WithOffset(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, ids(list))

	_, err = s.List(ctx, DefaultFilter().WithOrder("problem; DROP TABLE sessions", false))
	require.Error(t, err)
}

func TestSQLite_Delete(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.Create(ctx, snapshot(t, "s1", "", 0, time.Now())))

	require.NoError(t, s.Delete(ctx, "s1"))
	require.ErrorIs(t, s.Delete(ctx, "s1"), ErrNotFound)
}

func TestSQLite_InvalidAndClosed(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	require.ErrorIs(t, s.Save(ctx, engine.Snapshot{}), ErrInvalidID)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	_, err := s.Get(ctx, "s1")
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, s.Ping(ctx), ErrClosed)
}

func ids(list []Summary) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.ID
	}
	return out
}
