package environment

import (
	"context"
	"testing"
	"time"

	"github.com/saltyorg/sam/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, map[string]*fakeDriver) {
	t.Helper()
	g, drivers := chainGraph(t)
	log, err := logger.New(true)
	require.NoError(t, err)
	return New(g, nil, log), drivers
}

func TestStart_IdempotentWhenRunning(t *testing.T) {
	m, drivers := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Start(ctx, "db"))
	assert.Equal(t, 1, drivers["db"].startCall)

	// Starting again must be a no-op: no extra driver call.
	require.NoError(t, m.Start(ctx, "db"))
	assert.Equal(t, 1, drivers["db"].startCall)
}

func TestStart_DependencyOrder(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Start(ctx, "web"))

	st, err := m.Status("db")
	require.NoError(t, err)
	assert.Equal(t, StateRunning, st.State)

	st, err = m.Status("app")
	require.NoError(t, err)
	assert.Equal(t, StateRunning, st.State)
}

func TestStop_RejectsWhenDependentsRunning(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Start(ctx, "app")) // starts db, app

	err := m.Stop(ctx, "db")
	var depErr *Dependents
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, "db", depErr.Name)
	assert.Contains(t, depErr.List, "app")
}

func TestStartEnvironment_StopEnvironment_LeavesEverythingStopped(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.StartEnvironment(ctx))
	for _, st := range m.AllStatus() {
		assert.Equal(t, StateRunning, st.State)
	}

	require.NoError(t, m.StopEnvironment(ctx, time.Second))
	for _, st := range m.AllStatus() {
		assert.Equal(t, StateStopped, st.State)
	}
}

func TestStartEnvironment_UnwindsOnFailure(t *testing.T) {
	g, drivers := chainGraph(t)
	drivers["app"].startErr = assertErr{}

	log, _ := logger.New(true)
	m := New(g, nil, log)

	err := m.StartEnvironment(context.Background())
	require.Error(t, err)

	st, _ := m.Status("db")
	assert.Equal(t, StateStopped, st.State, "db should be unwound after app's start failure")
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
