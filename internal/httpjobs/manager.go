package httpjobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/saltyorg/sam/internal/environment"
	"github.com/saltyorg/sam/pkg/logger"
)

const (
	// DefaultWorkerCount is the default background worker pool size.
	DefaultWorkerCount = 3

	// MinJobRetention and MaxJobCount bound the in-memory job table.
	MinJobRetention = 1 * time.Hour
	MaxJobCount     = 1000
	CleanupInterval = 5 * time.Minute
)

// Manager queues and executes environment lifecycle operations
// submitted through internal/httpapi, keeping a pollable Job record for
// each: a buffered-channel worker pool with an age/count-based cleanup
// loop, calling into environment.Manager.
type Manager struct {
	env    *environment.Manager
	logger *logger.Logger

	jobs      map[string]*Job
	jobsMu    sync.RWMutex
	queue     chan *Job
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	cleanupWg sync.WaitGroup
}

// NewManager starts workers workers (DefaultWorkerCount if <= 0) over env.
func NewManager(env *environment.Manager, log *logger.Logger, workers int) *Manager {
	if workers <= 0 {
		workers = DefaultWorkerCount
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		env:    env,
		logger: log,
		jobs:   make(map[string]*Job),
		queue:  make(chan *Job, 100),
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}

	m.cleanupWg.Add(1)
	go m.cleanupLoop()

	m.logger.Info("job manager started", "workers", workers)
	return m
}

// Shutdown stops accepting new jobs and waits up to timeout for
// in-flight ones to finish.
func (m *Manager) Shutdown(timeout time.Duration) error {
	close(m.queue)
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		m.logger.Warn("job manager shutdown timeout exceeded")
	}

	m.cleanupWg.Wait()
	return nil
}

// Submit enqueues job for execution.
func (m *Manager) Submit(job *Job) error {
	select {
	case <-m.ctx.Done():
		return fmt.Errorf("job manager is shutting down")
	default:
	}

	m.jobsMu.Lock()
	m.jobs[job.ID] = job
	m.jobsMu.Unlock()

	m.logger.Info("job submitted", "job_id", job.ID, "type", string(job.Type), "target", job.Target)

	select {
	case m.queue <- job:
		return nil
	case <-m.ctx.Done():
		return fmt.Errorf("job manager is shutting down")
	}
}

// Get retrieves a job snapshot by id.
func (m *Manager) Get(id string) (*Job, error) {
	m.jobsMu.RLock()
	defer m.jobsMu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job not found: %s", id)
	}
	return job.Clone(), nil
}

func (m *Manager) worker(id int) {
	defer m.wg.Done()
	for job := range m.queue {
		m.run(job)
	}
}

func (m *Manager) run(job *Job) {
	job.SetStatus(StatusRunning)
	m.logger.Info("job running", "job_id", job.ID, "type", string(job.Type))

	ctx := context.Background()
	var err error

	switch job.Type {
	case TypeStart:
		err = m.env.Start(ctx, job.Target)
	case TypeStop:
		err = m.env.Stop(ctx, job.Target)
	case TypeReset:
		err = m.env.ResetEnvironment(ctx, job.Force)
	default:
		err = fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err != nil {
		job.SetError(err)
		m.logger.Error("job failed", "job_id", job.ID, "error", err)
		return
	}
	job.SetStatus(StatusCompleted)
	m.logger.Info("job completed", "job_id", job.ID)
}

func (m *Manager) cleanupLoop() {
	defer m.cleanupWg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

// cleanup evicts completed/failed jobs older than MinJobRetention, and
// additionally the oldest eligible jobs once the table exceeds
// MaxJobCount.
func (m *Manager) cleanup() {
	m.jobsMu.Lock()
	defer m.jobsMu.Unlock()

	total := len(m.jobs)
	if total == 0 {
		return
	}

	type aged struct {
		id  string
		age time.Duration
	}
	var eligible []aged
	for id, job := range m.jobs {
		status := job.GetStatus()
		if status == StatusCompleted || status == StatusFailed {
			if age := job.Age(); age > MinJobRetention {
				eligible = append(eligible, aged{id: id, age: age})
			}
		}
	}

	if len(eligible) == 0 && total <= MaxJobCount {
		return
	}

	for i := range eligible {
		for j := i + 1; j < len(eligible); j++ {
			if eligible[j].age > eligible[i].age {
				eligible[i], eligible[j] = eligible[j], eligible[i]
			}
		}
	}

	toRemove := len(eligible)
	if total > MaxJobCount {
		toRemove = total - MaxJobCount
		if toRemove > len(eligible) {
			toRemove = len(eligible)
		}
	}

	for i := 0; i < toRemove; i++ {
		delete(m.jobs, eligible[i].id)
	}
	m.logger.Info("cleaned up jobs", "removed", toRemove, "remaining", len(m.jobs))
}
