package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/saltyorg/sam/internal/config"
	"github.com/saltyorg/sam/internal/environment"
	"github.com/saltyorg/sam/internal/httpapi"
	"github.com/saltyorg/sam/internal/httpjobs"
	"github.com/saltyorg/sam/internal/registry"
	"github.com/saltyorg/sam/internal/report"
	"github.com/saltyorg/sam/internal/runner"
	"github.com/saltyorg/sam/internal/script"
	"github.com/saltyorg/sam/pkg/logger"
	"net/http"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load sam.yaml, bring up the environment, and run its test scripts",
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// runRun implements both `sam run` and the legacy `sam -c <path>` alias
// (rootCmd.RunE points here directly).
func runRun(cmd *cobra.Command, args []string) error {
	log, err := logger.New(false)
	if err != nil {
		return &exitErr{code: 2, err: fmt.Errorf("init logger: %w", err)}
	}
	defer log.Sync()

	file, err := config.Load(configPath)
	if err != nil {
		return &exitErr{code: 2, err: err}
	}

	specs, err := environment.SpecsFromConfig(file.Components)
	if err != nil {
		return &exitErr{code: 2, err: err}
	}

	builder := environment.NewBuilder(os.Getenv("DOCKER_HOST"), log)
	graph, err := builder.Build(specs)
	if err != nil {
		return &exitErr{code: 2, err: err}
	}

	manager := environment.New(graph, file.Reset, log)
	rep := report.New(os.Stdout)
	run := runner.New(manager, rep, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("interrupt received, cancelling run")
		run.Cancel()
		cancel()
	}()

	log.Info("starting environment", "name", file.Name, "components", len(file.Components))
	if err := manager.StartEnvironment(ctx); err != nil {
		return &exitErr{code: 1, err: fmt.Errorf("start_environment: %w", err)}
	}

	var controlPlane *http.Server
	if file.Global.KeepRunning {
		controlPlane = startControlPlane(manager, log)
		defer controlPlane.Shutdown(context.Background())
	}

	opts := runner.Options{
		Repeat:    file.Global.RepeatCount(),
		Delay:     file.Global.DelayDuration(),
		ResetOnce: file.Global.ResetOnce,
		Force:     file.Global.Force,
	}

	for _, scriptPath := range file.Global.Scripts {
		if err := runScript(ctx, run, manager, scriptPath, file.Global.ModuleDirs, file.Global.Filter, file.Global.Skip, opts, log, rep); err != nil {
			log.Error("script failed to load", "script", scriptPath, "error", err)
		}
	}

	if file.Global.KeepRunning {
		log.Info("keep_running set, leaving environment up")
	} else if stopErr := manager.StopEnvironment(context.Background(), 10*time.Second); stopErr != nil {
		log.Error("stop_environment failed", "error", stopErr)
	}
	run.Shutdown(30 * time.Second)

	code := rep.Finish()
	if code != 0 {
		return &exitErr{code: 1, err: fmt.Errorf("run completed with failures")}
	}
	return nil
}

// runScript loads one script file's collection phase, selects the
// filter/skip subset, and runs it to completion.
func runScript(ctx context.Context, run *runner.Runner, manager *environment.Manager, path string, moduleDirs []string, filter, skip string, opts runner.Options, log *logger.Logger, rep *report.Reporter) error {
	bridge := script.New(path, manager, run.Pool(), moduleDirs, log)
	if err := bridge.Load(); err != nil {
		return err
	}

	bridge.SetLogSink(func(message, location string) {
		rep.Handle(report.Event{Kind: report.LogEvent, Message: message, Location: location})
	})

	selected, err := registry.Select(bridge.Root(), filter, skip)
	if err != nil {
		return fmt.Errorf("select: %w", err)
	}

	return run.Run(ctx, selected, opts)
}

// startControlPlane launches the optional control-plane HTTP server for
// a keep_running session.
func startControlPlane(manager *environment.Manager, log *logger.Logger) *http.Server {
	jobs := httpjobs.NewManager(manager, log, httpjobs.DefaultWorkerCount)
	srv := httpapi.NewServer(manager, jobs, log)

	httpSrv := &http.Server{
		Addr:         "127.0.0.1:3377",
		Handler:      srv.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		log.Info("control plane listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("control plane stopped", "error", err)
		}
	}()
	return httpSrv
}
