package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoad_RoundTripsComponentsAndGlobal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sam.yaml")
	content := `
name: demo
components:
  - name: db
    type: raw
    start_by_default: true
    argv: ["true"]
  - name: web
    type: container
    depends_on: ["db"]
    image: nginx
reset:
  - "echo reset"
global:
  scripts: ["scripts/main.js"]
  module_dirs: ["modules"]
  delay: "500ms"
  repeat: 3
  filter: "web/.*"
  reset_once: true
`
	require.NoError(t, writeFile(path, content))

	f, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "demo", f.Name)
	require.Len(t, f.Components, 2)
	assert.Equal(t, "db", f.Components[0].Name)
	assert.Equal(t, []string{"db"}, f.Components[1].DependsOn)
	assert.Equal(t, 3, f.Global.RepeatCount())
	assert.Equal(t, 500*time.Millisecond, f.Global.DelayDuration())
	assert.True(t, f.Global.ResetOnce)
}

func TestLoad_UnknownComponentTypeIsRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sam.yaml")
	require.NoError(t, writeFile(path, `
components:
  - name: x
    type: bogus
`))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_DuplicateComponentNameIsRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sam.yaml")
	require.NoError(t, writeFile(path, `
components:
  - name: x
    type: raw
    argv: ["true"]
  - name: x
    type: raw
    argv: ["true"]
`))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestGlobalConfig_DefaultsRepeatToOneAndDelayToZero(t *testing.T) {
	var g GlobalConfig
	assert.Equal(t, 1, g.RepeatCount())
	assert.Equal(t, time.Duration(0), g.DelayDuration())
}

func TestDurationValue_AcceptsIntegerMillis(t *testing.T) {
	var d DurationValue
	var node yaml.Node
	require.NoError(t, node.Encode(1500))
	require.NoError(t, d.UnmarshalYAML(&node))
	assert.Equal(t, 1500*time.Millisecond, d.Duration)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
