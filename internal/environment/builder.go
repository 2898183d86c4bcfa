package environment

import (
	"fmt"

	"github.com/saltyorg/sam/internal/driver"
	"github.com/saltyorg/sam/internal/driver/container"
	"github.com/saltyorg/sam/internal/driver/pod"
	"github.com/saltyorg/sam/internal/driver/raw"
	"github.com/saltyorg/sam/pkg/logger"
)

// Builder constructs a Graph (and the Driver for each Component) from a
// list of Specs — generalized from "inspect discovered docker
// containers" to "instantiate a driver per declared component".
type Builder struct {
	dockerHost string
	logger     *logger.Logger
}

// NewBuilder creates a graph builder. dockerHost configures the
// container driver's Docker Engine API address (empty = default).
func NewBuilder(dockerHost string, log *logger.Logger) *Builder {
	return &Builder{dockerHost: dockerHost, logger: log}
}

// Build validates uniqueness of names, instantiates a driver per spec,
// wires depends_on edges, and checks for cycles.
func (b *Builder) Build(specs []Spec) (*Graph, error) {
	g := NewGraph()

	for _, spec := range specs {
		if _, exists := g.Nodes[spec.Name]; exists {
			return nil, fmt.Errorf("duplicate component name %q", spec.Name)
		}

		d, err := b.newDriver(spec)
		if err != nil {
			return nil, fmt.Errorf("component %q: %w", spec.Name, err)
		}

		g.Nodes[spec.Name] = NewNode(spec, d)
	}

	for _, spec := range specs {
		node := g.Nodes[spec.Name]
		for _, depName := range spec.DependsOn {
			parent, exists := g.Nodes[depName]
			if !exists {
				return nil, fmt.Errorf("component %q depends on unknown component %q", spec.Name, depName)
			}
			node.AddParent(parent)
		}
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}

	return g, nil
}

func (b *Builder) newDriver(spec Spec) (driver.Driver, error) {
	switch spec.Kind {
	case KindContainer:
		if spec.Container == nil {
			return nil, fmt.Errorf("container component missing container spec")
		}
		spec.Container.Name = spec.Name
		spec.Container.Reset = spec.Reset
		return container.New(b.dockerHost, *spec.Container, b.logger)

	case KindPod:
		if len(spec.Pod) == 0 {
			return nil, fmt.Errorf("pod component has no children")
		}
		var childDrivers []driver.Driver
		for _, childSpec := range spec.Pod {
			childSpec.Reset = spec.Reset
			cd, err := container.New(b.dockerHost, childSpec, b.logger)
			if err != nil {
				return nil, err
			}
			childDrivers = append(childDrivers, cd)
		}
		return pod.New(spec.Name, childDrivers, b.logger), nil

	case KindRaw:
		if spec.Raw == nil {
			return nil, fmt.Errorf("raw component missing raw spec")
		}
		spec.Raw.Name = spec.Name
		spec.Raw.Reset = spec.Reset
		return raw.New(*spec.Raw, b.logger), nil

	default:
		return nil, fmt.Errorf("unknown component kind %q", spec.Kind)
	}
}
