package httpjobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saltyorg/sam/internal/config"
	"github.com/saltyorg/sam/internal/environment"
	"github.com/saltyorg/sam/pkg/logger"
)

func newTestManager(t *testing.T) (*Manager, *environment.Manager) {
	t.Helper()
	log, err := logger.New(false)
	require.NoError(t, err)

	specs, err := environment.SpecsFromConfig([]config.ComponentSpec{
		{Name: "svc", Type: "raw", StartByDefault: false, Argv: []string{"true"}},
	})
	require.NoError(t, err)

	b := environment.NewBuilder("", log)
	g, err := b.Build(specs)
	require.NoError(t, err)

	env := environment.New(g, nil, log)
	jm := NewManager(env, log, 2)
	t.Cleanup(func() { jm.Shutdown(time.Second) })
	return jm, env
}

func TestManager_SubmitStartJob_RunsAndCompletes(t *testing.T) {
	jm, _ := newTestManager(t)

	job := NewJob(TypeStart, "svc", false)
	require.NoError(t, jm.Submit(job))

	require.Eventually(t, func() bool {
		got, err := jm.Get(job.ID)
		return err == nil && got.GetStatus() != StatusPending && got.GetStatus() != StatusRunning
	}, time.Second, 5*time.Millisecond)

	got, err := jm.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
}

func TestManager_Get_UnknownJobErrors(t *testing.T) {
	jm, _ := newTestManager(t)
	_, err := jm.Get("does-not-exist")
	assert.Error(t, err)
}
