package environment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDriver is a test double implementing driver.Driver without
// touching any real backend.
type fakeDriver struct {
	running   bool
	startErr  error
	stopErr   error
	startCall int
}

func (f *fakeDriver) Start(ctx context.Context) error {
	f.startCall++
	if f.startErr != nil {
		return f.startErr
	}
	f.running = true
	return nil
}

func (f *fakeDriver) Stop(ctx context.Context, maxKill time.Duration) error {
	if f.stopErr != nil {
		return f.stopErr
	}
	f.running = false
	return nil
}

func (f *fakeDriver) IsRunning(ctx context.Context) (bool, error) { return f.running, nil }
func (f *fakeDriver) Reset(ctx context.Context) error             { return nil }

func chainGraph(t *testing.T) (*Graph, map[string]*fakeDriver) {
	t.Helper()
	drivers := map[string]*fakeDriver{
		"db":  {},
		"app": {},
		"web": {},
	}

	g := NewGraph()
	g.Nodes["db"] = NewNode(Spec{Name: "db", StartByDefault: true}, drivers["db"])
	g.Nodes["app"] = NewNode(Spec{Name: "app", StartByDefault: true, DependsOn: []string{"db"}}, drivers["app"])
	g.Nodes["web"] = NewNode(Spec{Name: "web", StartByDefault: true, DependsOn: []string{"app"}}, drivers["web"])

	g.Nodes["app"].AddParent(g.Nodes["db"])
	g.Nodes["web"].AddParent(g.Nodes["app"])

	require.NoError(t, g.Validate())
	return g, drivers
}

func TestTopologicalSort_Order(t *testing.T) {
	g, _ := chainGraph(t)

	sorted, err := g.TopologicalSort()
	require.NoError(t, err)
	require.Len(t, sorted.StartupOrder, 3)

	names := func(nodes []*Node) []string {
		out := make([]string, len(nodes))
		for i, n := range nodes {
			out[i] = n.Name()
		}
		return out
	}

	assert.Equal(t, []string{"db", "app", "web"}, names(sorted.StartupOrder))
	assert.Equal(t, []string{"web", "app", "db"}, names(sorted.ShutdownOrder))
}

func TestHasCycles(t *testing.T) {
	g := NewGraph()
	g.Nodes["a"] = NewNode(Spec{Name: "a", DependsOn: []string{"b"}}, &fakeDriver{})
	g.Nodes["b"] = NewNode(Spec{Name: "b", DependsOn: []string{"a"}}, &fakeDriver{})
	g.Nodes["a"].AddParent(g.Nodes["b"])
	g.Nodes["b"].AddParent(g.Nodes["a"])

	has, cycle := g.HasCycles()
	assert.True(t, has)
	assert.NotEmpty(t, cycle)
}

