package environment

import (
	"fmt"

	dcontainer "github.com/saltyorg/sam/internal/driver/container"
	"github.com/saltyorg/sam/internal/driver/raw"

	"github.com/saltyorg/sam/internal/config"
)

// SpecsFromConfig converts the YAML-decoded component list into the
// Specs the Builder consumes, translating each component's flat
// container/pod/raw fields into the matching driver spec.
func SpecsFromConfig(components []config.ComponentSpec) ([]Spec, error) {
	specs := make([]Spec, 0, len(components))

	for _, c := range components {
		spec := Spec{
			Name:           c.Name,
			StartByDefault: c.StartByDefault,
			DependsOn:      c.DependsOn,
			Reset:          c.Reset,
		}

		switch c.Type {
		case "container":
			spec.Kind = KindContainer
			spec.Container = &dcontainer.Spec{
				Name:    c.Name,
				Image:   c.Image,
				Command: c.Command,
				Ports:   c.Ports,
				Volumes: c.Volumes,
				Env:     c.Env,
			}

		case "pod":
			spec.Kind = KindPod
			for _, child := range c.Containers {
				spec.Pod = append(spec.Pod, dcontainer.Spec{
					Name:    child.Name,
					Image:   child.Image,
					Command: child.Command,
					Ports:   child.Ports,
					Volumes: child.Volumes,
					Env:     child.Env,
				})
			}

		case "raw":
			spec.Kind = KindRaw
			spec.Raw = &raw.Spec{
				Name: c.Name,
				Argv: c.Argv,
				Env:  c.Env,
				Dir:  c.Cwd,
			}

		default:
			return nil, fmt.Errorf("component %q: unknown type %q", c.Name, c.Type)
		}

		specs = append(specs, spec)
	}

	return specs, nil
}
