package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/tokendeck/pkg/errors"
)

func TestNewRun(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.FixedZone("JST", 9*3600))
	a, b := NewRun(now), NewRun(now)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, time.UTC, a.CreatedAt.Location())
	assert.True(t, a.CreatedAt.Equal(now))
	assert.NotNil(t, a.Images)
}

func TestRunFail(t *testing.T) {
	run := NewRun(time.Now())
	run.Fail(errors.Wrap(errors.ErrCodeNetwork, assert.AnError, "upload fig1.png"))
	assert.Equal(t, StatusFailed, run.Status)
	assert.Contains(t, run.Error, "upload fig1.png")
}

func TestRunValidate(t *testing.T) {
	ok := NewRun(time.Now())
	ok.Status = StatusSuccess
	require.NoError(t, ok.Validate())

	noID := ok
	noID.ID = ""
	assert.Error(t, noID.Validate())

	noTime := ok
	noTime.CreatedAt = time.Time{}
	assert.Error(t, noTime.Validate())

	badStatus := ok
	badStatus.Status = ""
	assert.True(t, errors.Is(badStatus.Validate(), errors.ErrCodeInvalidInput))
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Now()

	for i, id := range []string{"a", "b", "c"} {
		run := Run{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Minute), Status: StatusSuccess}
		require.NoError(t, m.Record(ctx, run))
	}
	assert.Error(t, m.Record(ctx, Run{ID: "a", CreatedAt: base, Status: StatusSuccess}))

	runs, err := m.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)

	got, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)

	_, err = m.Get(ctx, "zzz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var s Store = Nop{}
	require.NoError(t, s.Record(ctx, Run{}))
	runs, err := s.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
	_, err = s.Get(ctx, "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLimit(t *testing.T) {
	assert.Equal(t, DefaultListLimit, Limit(0))
	assert.Equal(t, DefaultListLimit, Limit(-3))
	assert.Equal(t, 5, Limit(5))
}
