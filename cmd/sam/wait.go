package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/saltyorg/sam/internal/httpapi"
	"github.com/saltyorg/sam/pkg/logger"
)

var waitConfig struct {
	URL          string
	Component    string
	Action       string
	PollInterval time.Duration
	ReadyTimeout time.Duration
}

// waitCmd drives the control-plane server of a running `sam run`
// session (one whose sam.yaml sets global.keep_running) from an
// external process — e.g. a CI step that starts one
// component and waits for its job to finish before continuing. An
// explicit start/stop action against one named component, rather
// than an implicit "the whole container list".
var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Drive a running sam control-plane server from an external process",
	RunE:  runWait,
}

func init() {
	waitCmd.Flags().StringVar(&waitConfig.URL, "url", "http://127.0.0.1:3377", "control-plane base URL")
	waitCmd.Flags().StringVar(&waitConfig.Component, "component", "", "component to start or stop")
	waitCmd.Flags().StringVar(&waitConfig.Action, "action", "start", "start or stop")
	waitCmd.Flags().DurationVar(&waitConfig.PollInterval, "poll-interval", 2*time.Second, "job status polling interval")
	waitCmd.Flags().DurationVar(&waitConfig.ReadyTimeout, "ready-timeout", 60*time.Second, "time to wait for the control plane to become ready")
	rootCmd.AddCommand(waitCmd)
}

func runWait(cmd *cobra.Command, args []string) error {
	if waitConfig.Component == "" {
		return fmt.Errorf("--component is required")
	}

	log, err := logger.New(false)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx := context.Background()
	client := httpapi.NewClient(waitConfig.URL, log)

	log.Info("waiting for control plane", "url", waitConfig.URL)
	if err := client.WaitForServerReady(ctx, waitConfig.ReadyTimeout); err != nil {
		return fmt.Errorf("control plane not ready: %w", err)
	}

	var jobID string
	switch waitConfig.Action {
	case "start":
		jobID, err = client.StartComponent(ctx, waitConfig.Component)
	case "stop":
		jobID, err = client.StopComponent(ctx, waitConfig.Component)
	default:
		return fmt.Errorf("unknown action %q (want start or stop)", waitConfig.Action)
	}
	if err != nil {
		return fmt.Errorf("submit job: %w", err)
	}

	log.Info("job submitted, waiting for completion", "job_id", jobID)
	job, err := client.WaitForJob(ctx, jobID, waitConfig.PollInterval)
	if err != nil {
		return fmt.Errorf("wait for job: %w", err)
	}

	if job.Status == "failed" {
		return fmt.Errorf("job %s failed: %s", job.ID, job.Error)
	}
	fmt.Printf("job %s completed\n", job.ID)
	return nil
}
