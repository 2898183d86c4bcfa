// Package httpapi is the optional control-plane HTTP server exposing
// environment status and job submission for long-running keep_running
// sessions: a chi router, a Recovery/Logging middleware stack, and
// job-response/error-response JSON shapes — generalized from
// "start/stop a fixed container list" to "start/stop/reset one named
// component or the whole environment".
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/saltyorg/sam/internal/environment"
	"github.com/saltyorg/sam/internal/httpjobs"
	"github.com/saltyorg/sam/pkg/logger"
)

// Server is the control-plane HTTP server bound to one environment.Manager.
type Server struct {
	env    *environment.Manager
	jobs   *httpjobs.Manager
	logger *logger.Logger

	blockMutex    sync.RWMutex
	blocked       bool
	unblockCancel func()
}

// NewServer creates a Server over an already-running environment.Manager
// and job manager.
func NewServer(env *environment.Manager, jobs *httpjobs.Manager, log *logger.Logger) *Server {
	return &Server{env: env, jobs: jobs, logger: log}
}

// Router builds the HTTP route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.RecoveryMiddleware)
	r.Use(s.LoggingMiddleware)

	r.Get("/ping", s.HandlePing)
	r.Get("/status", s.HandleStatusAll)
	r.Get("/status/{name}", s.HandleStatus)

	r.Post("/components/{name}/start", s.HandleStartComponent)
	r.Post("/components/{name}/stop", s.HandleStopComponent)
	r.Post("/environment/reset", s.HandleResetEnvironment)

	r.Get("/jobs/{job_id}", s.HandleGetJob)

	r.Post("/block/{duration}", s.HandleBlock)
	r.Post("/unblock", s.HandleUnblock)

	return r
}

// JobResponse is returned by every job-submitting endpoint.
type JobResponse struct {
	JobID string `json:"job_id"`
}

// ErrorResponse is returned on any handler error.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) isBlocked() bool {
	s.blockMutex.RLock()
	defer s.blockMutex.RUnlock()
	return s.blocked
}

// HandlePing answers a liveness probe.
func (s *Server) HandlePing(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// HandleStatusAll reports every component's current state.
func (s *Server) HandleStatusAll(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.env.AllStatus())
}

// HandleStatus reports one component's current state.
func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	status, err := s.env.Status(name)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

// HandleStartComponent submits a background Start job for one component.
func (s *Server) HandleStartComponent(w http.ResponseWriter, r *http.Request) {
	if s.isBlocked() {
		s.writeError(w, http.StatusServiceUnavailable, "operations are blocked")
		return
	}
	name := chi.URLParam(r, "name")
	job := httpjobs.NewJob(httpjobs.TypeStart, name, false)
	s.submit(w, job)
}

// HandleStopComponent submits a background Stop job for one component.
func (s *Server) HandleStopComponent(w http.ResponseWriter, r *http.Request) {
	if s.isBlocked() {
		s.writeError(w, http.StatusServiceUnavailable, "operations are blocked")
		return
	}
	name := chi.URLParam(r, "name")
	job := httpjobs.NewJob(httpjobs.TypeStop, name, false)
	s.submit(w, job)
}

// HandleResetEnvironment submits a background environment reset job.
// ?force=true stops and restarts every default-start component before
// running the global reset commands.
func (s *Server) HandleResetEnvironment(w http.ResponseWriter, r *http.Request) {
	if s.isBlocked() {
		s.writeError(w, http.StatusServiceUnavailable, "operations are blocked")
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	job := httpjobs.NewJob(httpjobs.TypeReset, "", force)
	s.submit(w, job)
}

func (s *Server) submit(w http.ResponseWriter, job *httpjobs.Job) {
	if err := s.jobs.Submit(job); err != nil {
		s.logger.Error("failed to submit job", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to submit job")
		return
	}
	s.writeJSON(w, http.StatusOK, JobResponse{JobID: job.ID})
}

// HandleGetJob reports a submitted job's current status.
func (s *Server) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	job, err := s.jobs.Get(jobID)
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"status": "not_found"})
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

// HandleBlock suspends new start/stop/reset submissions for duration
// minutes, auto-unblocking when it elapses — a maintenance-window
// block/unblock pair generalized from "container operations" to
// "environment lifecycle operations".
func (s *Server) HandleBlock(w http.ResponseWriter, r *http.Request) {
	minutes := 10
	if v, err := strconv.Atoi(chi.URLParam(r, "duration")); err == nil {
		minutes = v
	}

	s.blockMutex.Lock()
	if s.unblockCancel != nil {
		s.unblockCancel()
	}
	s.blocked = true
	stop := make(chan struct{})
	s.unblockCancel = sync.OnceFunc(func() { close(stop) })
	s.blockMutex.Unlock()

	go func() {
		timer := time.NewTimer(time.Duration(minutes) * time.Minute)
		defer timer.Stop()
		select {
		case <-timer.C:
			s.blockMutex.Lock()
			s.blocked = false
			s.unblockCancel = nil
			s.blockMutex.Unlock()
			s.logger.Info("auto unblock complete")
		case <-stop:
		}
	}()

	s.logger.Info("operations blocked", "duration_minutes", minutes)
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "operations blocked"})
}

// HandleUnblock lifts a block immediately.
func (s *Server) HandleUnblock(w http.ResponseWriter, r *http.Request) {
	s.blockMutex.Lock()
	defer s.blockMutex.Unlock()

	if s.unblockCancel != nil {
		s.unblockCancel()
		s.unblockCancel = nil
	}
	s.blocked = false

	s.logger.Info("operations unblocked")
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "operations unblocked"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
