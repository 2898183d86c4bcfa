// Package config loads and validates the sam.yaml environment file,
// decoded with yaml.v3.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the top-level shape of sam.yaml.
type File struct {
	Name       string          `yaml:"name"`
	Components []ComponentSpec `yaml:"components"`
	Reset      []string        `yaml:"reset"`
	Global     GlobalConfig    `yaml:"global"`
}

// GlobalConfig holds the `global` block of sam.yaml.
type GlobalConfig struct {
	Scripts     []string       `yaml:"scripts"`
	ModuleDirs  []string       `yaml:"module_dirs"`
	Delay       *DurationValue `yaml:"delay"`
	Repeat      *int           `yaml:"repeat"`
	Filter      string         `yaml:"filter"`
	Skip        string         `yaml:"skip"`
	ResetOnce   bool           `yaml:"reset_once"`
	Force       bool           `yaml:"force"`
	KeepRunning bool           `yaml:"keep_running"`
}

// ContainerSpec is the `container`-kind component body, also used for
// each entry of a `pod`-kind component's `containers` list.
type ContainerSpec struct {
	Name    string            `yaml:"name"`
	Image   string            `yaml:"image"`
	Command []string          `yaml:"command"`
	Ports   map[string]string `yaml:"ports"`
	Volumes map[string]string `yaml:"volumes"`
	Env     map[string]string `yaml:"env"`
}

// ComponentSpec is one entry of the top-level `components` list. Only
// the fields relevant to Type are populated; unused fields decode to
// their zero value and are ignored by the environment builder.
type ComponentSpec struct {
	Name           string          `yaml:"name"`
	Type           string          `yaml:"type"` // container | pod | raw
	StartByDefault bool            `yaml:"start_by_default"`
	DependsOn      []string        `yaml:"depends_on"`
	Reset          []string        `yaml:"reset"`

	// container
	Image   string            `yaml:"image"`
	Command []string          `yaml:"command"`
	Ports   map[string]string `yaml:"ports"`
	Volumes map[string]string `yaml:"volumes"`
	Env     map[string]string `yaml:"env"`

	// pod
	Containers []ContainerSpec `yaml:"containers"`

	// raw
	Argv []string `yaml:"argv"`
	Cwd  string   `yaml:"cwd"`
}

// DurationValue accepts either a human-readable string ("1s500ms",
// "2m") or an integer number of milliseconds when decoded from YAML.
type DurationValue struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler for DurationValue.
func (d *DurationValue) UnmarshalYAML(value *yaml.Node) error {
	var asMillis int64
	if err := value.Decode(&asMillis); err == nil {
		d.Duration = time.Duration(asMillis) * time.Millisecond
		return nil
	}

	var asString string
	if err := value.Decode(&asString); err != nil {
		return fmt.Errorf("duration must be a string or integer milliseconds")
	}
	parsed, err := time.ParseDuration(asString)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", asString, err)
	}
	d.Duration = parsed
	return nil
}

// Default returns the configuration scaffolded by `sam init`.
func Default() File {
	return File{
		Name: "sam",
		Global: GlobalConfig{
			Scripts:    []string{"scripts/main.js"},
			ModuleDirs: []string{"modules"},
		},
	}
}

// Load reads, decodes and validates path into a File. An absent repeat
// stays nil here; RepeatCount supplies the default of 1.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read config %q: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parse config %q: %w", path, err)
	}

	if err := f.Validate(); err != nil {
		return File{}, err
	}

	return f, nil
}

// Validate checks structural invariants the YAML schema alone can't
// express: unique component names and known component kinds.
func (f *File) Validate() error {
	seen := make(map[string]bool, len(f.Components))
	for _, c := range f.Components {
		if c.Name == "" {
			return fmt.Errorf("component with empty name")
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate component name %q", c.Name)
		}
		seen[c.Name] = true

		switch c.Type {
		case "container", "pod", "raw":
		default:
			return fmt.Errorf("component %q: unknown type %q", c.Name, c.Type)
		}
	}
	return nil
}

// RepeatCount returns the configured repeat count, defaulting to 1.
func (g GlobalConfig) RepeatCount() int {
	if g.Repeat == nil {
		return 1
	}
	return *g.Repeat
}

// DelayDuration returns the configured inter-repeat delay, defaulting to 0.
func (g GlobalConfig) DelayDuration() time.Duration {
	if g.Delay == nil {
		return 0
	}
	return g.Delay.Duration
}
