package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/tokendeck/pkg/errors"
	"github.com/matzehuels/tokendeck/pkg/history"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRun(id string, at time.Time) history.Run {
	return history.Run{
		ID:        id,
		CreatedAt: at,
		Model:     "gemini-2.5-flash",
		Images:    []string{"fig1.png", "fig2.png"},
		Groups:    2,
		Tokens:    7,
		Output:    "out/deck.pptx",
		Status:    history.StatusSuccess,
	}
}

func TestOpenMigrates(t *testing.T) {
	s := openTestStore(t)
	v, err := s.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, testRun("a", time.Now())))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	run, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", run.ID)
}

func TestRecordAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 9, 30, 0, 123456789, time.FixedZone("JST", 9*3600))

	want := testRun("run-1", at)
	require.NoError(t, s.Record(ctx, want))

	got, err := s.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.Equal(at), "created_at %v != %v", got.CreatedAt, at)
	got.CreatedAt = want.CreatedAt
	assert.Equal(t, want, *got)
}

func TestRecordFailedRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := history.NewRun(time.Now())
	run.Fail(errors.New(errors.ErrCodeNetwork, "upstream down"))
	require.NoError(t, s.Record(ctx, run))

	got, err := s.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, history.StatusFailed, got.Status)
	assert.Equal(t, "upstream down", got.Error)
	assert.Empty(t, got.Images)
}

func TestRecordRejects(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, testRun("dup", time.Now())))
	assert.Error(t, s.Record(ctx, testRun("dup", time.Now())), "duplicate id")

	bad := testRun("x", time.Now())
	bad.Status = "pending"
	assert.True(t, errors.Is(s.Record(ctx, bad), errors.ErrCodeInvalidInput))
}

func TestGetNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, history.ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	// fractional and whole seconds mixed to exercise text ordering
	require.NoError(t, s.Record(ctx, testRun("old", base)))
	require.NoError(t, s.Record(ctx, testRun("mid", base.Add(500*time.Millisecond))))
	require.NoError(t, s.Record(ctx, testRun("new", base.Add(time.Second))))

	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"new", "mid", "old"}, ids)

	runs, err = s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestListEmpty(t *testing.T) {
	runs, err := openTestStore(t).List(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}
