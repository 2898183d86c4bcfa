// Package container implements driver.Driver over the Docker Engine
// API: a moby/client wrapper generalized from "scan for labeled
// containers" to "manage one named container described by a
// Component spec".
package container

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	apicontainer "github.com/moby/moby/api/types/container"
	"github.com/moby/moby/client"
	"github.com/saltyorg/sam/internal/driver"
	"github.com/saltyorg/sam/pkg/logger"
)

// Spec describes a container component: image, argv, ports, volumes,
// env, plus an optional per-component reset command list.
type Spec struct {
	Name    string
	Image   string
	Command []string
	Ports   map[string]string // hostPort -> containerPort
	Volumes map[string]string // hostPath -> containerPath
	Env     map[string]string
	Reset   []string
}

// Driver manages the lifecycle of a single container backed by the
// Docker Engine API.
type Driver struct {
	cli    *client.Client
	spec   Spec
	logger *logger.Logger

	id string // recorded container id once created
}

// New creates a container driver. host is the Docker daemon address; an
// empty string uses the client library's default (DOCKER_HOST or the
// local socket).
func New(host string, spec Spec, log *logger.Logger) (*Driver, error) {
	var opts []client.Opt
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	opts = append(opts, client.WithAPIVersionNegotiation())

	cli, err := client.New(opts...)
	if err != nil {
		return nil, &driver.BackendUnavailable{Reason: err.Error()}
	}

	return &Driver{cli: cli, spec: spec, logger: log}, nil
}

// Start creates (if necessary) and starts the container.
func (d *Driver) Start(ctx context.Context) error {
	running, err := d.IsRunning(ctx)
	if err != nil {
		return err
	}
	if running {
		return &driver.AlreadyRunning{Name: d.spec.Name}
	}

	id, err := d.ensureContainer(ctx)
	if err != nil {
		return err
	}
	d.id = id

	if _, err := d.cli.ContainerStart(ctx, d.id, client.ContainerStartOptions{}); err != nil {
		return &driver.StartFailed{Stderr: err.Error()}
	}

	d.logger.Debug("container started", "container", d.spec.Name, "id", d.id)
	return nil
}

// ensureContainer finds an existing container by name, creating it from
// the spec if none exists yet.
func (d *Driver) ensureContainer(ctx context.Context) (string, error) {
	if d.id != "" {
		return d.id, nil
	}

	filters := make(client.Filters).Add("name", d.spec.Name)
	list, err := d.cli.ContainerList(ctx, client.ContainerListOptions{All: true, Filters: filters})
	if err != nil {
		return "", fmt.Errorf("list containers: %w", err)
	}
	for _, c := range list.Items {
		for _, n := range c.Names {
			if n == "/"+d.spec.Name {
				return c.ID, nil
			}
		}
	}

	portBindings := apicontainer.PortMap{}
	exposed := apicontainer.PortSet{}
	for hostPort, containerPort := range d.spec.Ports {
		p := apicontainer.PortRangeProto(containerPort + "/tcp")
		exposed[p] = struct{}{}
		portBindings[p] = []apicontainer.PortBinding{{HostPort: hostPort}}
	}

	var binds []string
	for hostPath, containerPath := range d.spec.Volumes {
		binds = append(binds, hostPath+":"+containerPath)
	}

	var env []string
	for k, v := range d.spec.Env {
		env = append(env, k+"="+v)
	}

	resp, err := d.cli.ContainerCreate(ctx, client.ContainerCreateOptions{
		Name: d.spec.Name,
		Config: &apicontainer.Config{
			Image:        d.spec.Image,
			Cmd:          d.spec.Command,
			Env:          env,
			ExposedPorts: exposed,
		},
		HostConfig: &apicontainer.HostConfig{
			PortBindings: portBindings,
			Binds:        binds,
		},
	})
	if err != nil {
		return "", &driver.StartFailed{Stderr: err.Error()}
	}

	return resp.ID, nil
}

// Stop sends SIGTERM then escalates to SIGKILL after maxKill.
func (d *Driver) Stop(ctx context.Context, maxKill time.Duration) error {
	running, err := d.IsRunning(ctx)
	if err != nil {
		return err
	}
	if !running {
		return &driver.NotRunning{Name: d.spec.Name}
	}

	seconds := int(maxKill.Round(time.Second).Seconds())
	if _, err := d.cli.ContainerStop(ctx, d.id, client.ContainerStopOptions{Timeout: &seconds}); err != nil {
		return &driver.StopTimedOut{Name: d.spec.Name}
	}

	d.logger.Debug("container stopped", "container", d.spec.Name)
	return nil
}

// IsRunning queries the Docker daemon for the recorded container id (or
// the container's name, if no id has been recorded yet).
func (d *Driver) IsRunning(ctx context.Context) (bool, error) {
	ref := d.id
	if ref == "" {
		ref = d.spec.Name
	}

	info, err := d.cli.ContainerInspect(ctx, ref, client.ContainerInspectOptions{})
	if err != nil {
		if client.IsErrNotFound(err) {
			return false, nil
		}
		return false, &driver.BackendUnavailable{Reason: err.Error()}
	}

	if d.id == "" {
		d.id = info.Container.ID
	}
	return info.Container.State.Running, nil
}

// Reset runs the component's configured reset commands sequentially via
// the host shell (not inside the container); a container with no reset
// commands configured is a no-op.
func (d *Driver) Reset(ctx context.Context) error {
	for _, cmdline := range d.spec.Reset {
		cmd := exec.CommandContext(ctx, "sh", "-c", cmdline)
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("reset command %q: %w: %s", cmdline, err, out)
		}
	}
	return nil
}

// ID returns the recorded container id, empty until Start has run.
func (d *Driver) ID() string { return d.id }
