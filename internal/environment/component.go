package environment

import (
	"github.com/saltyorg/sam/internal/driver/container"
	"github.com/saltyorg/sam/internal/driver/raw"
)

// Kind identifies a component's backend.
type Kind string

const (
	KindContainer Kind = "container"
	KindPod       Kind = "pod"
	KindRaw       Kind = "raw"
)

// Spec is the declarative description of one Component loaded from
// config. Exactly one of Container/Pod/Raw is populated, selected by
// Kind.
type Spec struct {
	Name           string
	Kind           Kind
	StartByDefault bool
	DependsOn      []string
	Reset          []string

	Container *container.Spec
	Pod       []container.Spec
	Raw       *raw.Spec
}

// State is one of the five states of the component lifecycle state
// machine.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status is the externally-observable state of a component, returned by
// Manager.Status/AllStatus.
type Status struct {
	Name   string
	State  State
	Reason string // populated when State == StateFailed
}
