// Package history records pipeline runs.
//
// A [Store] keeps one [Run] per pipeline execution, successful or not.
// Implementations live in subpackages:
//   - sqlite: local file database for the CLI (default)
//   - mongo: shared store for server deployments
//
// [Nop] discards everything and [Memory] keeps runs in process.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/tokendeck/pkg/errors"
)

// DefaultListLimit is used when List is called with a non-positive limit.
const DefaultListLimit = 20

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New(errors.ErrCodeNotFound, "run not found")

// Status is the outcome of a run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Run describes one pipeline execution.
type Run struct {
	ID        string    `json:"id" bson:"_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	Model     string    `json:"model,omitempty" bson:"model,omitempty"`
	Images    []string  `json:"images" bson:"images"`
	Groups    int       `json:"groups" bson:"groups"`
	Tokens    int       `json:"tokens" bson:"tokens"`
	Output    string    `json:"output,omitempty" bson:"output,omitempty"`
	Status    Status    `json:"status" bson:"status"`
	Error     string    `json:"error,omitempty" bson:"error,omitempty"`
}

// NewRun returns a run with a fresh ID created at now.
func NewRun(now time.Time) Run {
	return Run{ID: uuid.NewString(), CreatedAt: now.UTC(), Images: []string{}}
}

// Fail marks the run failed with err.
func (r *Run) Fail(err error) {
	r.Status = StatusFailed
	r.Error = errors.UserMessage(err)
}

// Store persists runs.
type Store interface {
	// Record inserts run. Recording the same ID twice is an error.
	Record(ctx context.Context, run Run) error

	// List returns up to limit runs, newest first.
	List(ctx context.Context, limit int) ([]Run, error)

	// Get returns the run with the given ID or [ErrNotFound].
	Get(ctx context.Context, id string) (*Run, error)

	Close() error
}

// Validate checks the fields every store requires.
func (r Run) Validate() error {
	if r.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "run has no ID")
	}
	if r.CreatedAt.IsZero() {
		return errors.New(errors.ErrCodeInvalidInput, "run %s has no creation time", r.ID)
	}
	switch r.Status {
	case StatusSuccess, StatusFailed:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "run %s has unknown status %q", r.ID, r.Status)
	}
	return nil
}

// Limit normalizes a List limit.
func Limit(n int) int {
	if n <= 0 {
		return DefaultListLimit
	}
	return n
}
