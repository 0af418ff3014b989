package history

import (
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/tokendeck/pkg/errors"
)

// Nop is a Store that records nothing.
type Nop struct{}

func (Nop) Record(context.Context, Run) error         { return nil }
func (Nop) List(context.Context, int) ([]Run, error)  { return []Run{}, nil }
func (Nop) Get(context.Context, string) (*Run, error) { return nil, ErrNotFound }
func (Nop) Close() error                              { return nil }

// Memory is an in-process Store, safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	runs []Run
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Record(_ context.Context, run Run) error {
	if err := run.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runs {
		if r.ID == run.ID {
			return errors.New(errors.ErrCodeInvalidInput, "run %s already recorded", run.ID)
		}
	}
	run.Images = slices.Clone(run.Images)
	m.runs = append(m.runs, run)
	return nil
}

func (m *Memory) List(_ context.Context, limit int) ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := slices.Clone(m.runs)
	slices.SortStableFunc(out, func(a, b Run) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if n := Limit(limit); len(out) > n {
		out = out[:n]
	}
	if out == nil {
		out = []Run{}
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, id string) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.runs {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) Close() error { return nil }

var (
	_ Store = Nop{}
	_ Store = (*Memory)(nil)
)
