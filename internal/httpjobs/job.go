// Package httpjobs wraps environment.Manager lifecycle calls as
// background jobs with a polled status, for the optional control-plane
// HTTP surface long-running keep_running sessions expose: a
// Job/Manager split with a worker-pool-plus-cleanup-loop shape,
// generalized from "start/stop the whole container list" to "run one
// named Start/Stop/Reset call against the environment graph".
package httpjobs

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type identifies which Manager method a Job invokes.
type Type string

const (
	TypeStart Type = "start"
	TypeStop  Type = "stop"
	TypeReset Type = "reset"
)

// Status is a Job's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Job represents one asynchronous environment operation and its result.
type Job struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Status    Status    `json:"status"`
	Target    string    `json:"target,omitempty"` // component name; empty for a whole-environment reset
	Force     bool      `json:"force,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	StartedAt time.Time `json:"started_at,omitempty"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
	Error     string    `json:"error,omitempty"`

	mu sync.RWMutex
}

// NewJob creates a pending Job with a generated id.
func NewJob(typ Type, target string, force bool) *Job {
	return &Job{
		ID:        uuid.New().String(),
		Type:      typ,
		Status:    StatusPending,
		Target:    target,
		Force:     force,
		CreatedAt: time.Now(),
	}
}

// GetStatus returns the current status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// SetStatus transitions the job, stamping Started/EndedAt as appropriate.
func (j *Job) SetStatus(status Status) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.Status = status
	now := time.Now()

	switch status {
	case StatusRunning:
		if j.StartedAt.IsZero() {
			j.StartedAt = now
		}
	case StatusCompleted, StatusFailed:
		if j.EndedAt.IsZero() {
			j.EndedAt = now
		}
	}
}

// SetError marks the job Failed with err's message.
func (j *Job) SetError(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.Error = err.Error()
	j.Status = StatusFailed
	if j.EndedAt.IsZero() {
		j.EndedAt = time.Now()
	}
}

// Clone returns a snapshot safe to hand to a caller outside the lock.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return &Job{
		ID:        j.ID,
		Type:      j.Type,
		Status:    j.Status,
		Target:    j.Target,
		Force:     j.Force,
		CreatedAt: j.CreatedAt,
		StartedAt: j.StartedAt,
		EndedAt:   j.EndedAt,
		Error:     j.Error,
	}
}

// Age reports how long ago the job was created.
func (j *Job) Age() time.Duration {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return time.Since(j.CreatedAt)
}
