package projects

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/newronai/newron-go/pkg/logging"
	"github.com/newronai/newron-go/pkg/tracking"
)

// SubmittedRun is the result of executing a project entry point.
type SubmittedRun struct {
	RunID   string
	Status  tracking.RunStatus
	Command string
}

// RunOptions configures a project execution.
type RunOptions struct {
	// EntryPoint names the entry point; empty means "main".
	EntryPoint string
	// Parameters are substituted into the entry point command.
	Parameters map[string]string
	// ExperimentID selects the experiment for the tracking run; empty uses
	// the default experiment.
	ExperimentID string
	// Stdout and Stderr receive the command's output; nil inherits the
	// process streams.
	Stdout, Stderr *os.File
}

// Run executes a project entry point under a new tracking run. Parameters
// are logged as run params, the project name and entry point as tags, and
// the run finishes FINISHED or FAILED with the command's exit status. The
// command inherits NEWRON_RUN_ID, NEWRON_TRACKING_URI and
// NEWRON_EXPERIMENT_ID so nested tracking calls land in the same run.
func Run(ctx context.Context, client *tracking.Client, trackingURI string, project *Project, opts RunOptions) (*SubmittedRun, error) {
	ep, err := project.EntryPoint(opts.EntryPoint)
	if err != nil {
		return nil, err
	}

	command, err := ep.BuildCommand(opts.Parameters)
	if err != nil {
		return nil, err
	}

	experimentID := opts.ExperimentID
	if experimentID == "" {
		experimentID = tracking.DefaultExperimentID
	}

	entryName := opts.EntryPoint
	if entryName == "" {
		entryName = "main"
	}

	run, err := client.CreateRun(ctx, experimentID, "",
		tracking.RunTag{Key: tracking.TagProjectName, Value: project.Name},
		tracking.RunTag{Key: tracking.TagProjectEntry, Value: entryName},
		tracking.RunTag{Key: tracking.TagSourceName, Value: project.Dir()},
	)
	if err != nil {
		return nil, err
	}
	runID := run.Info.RunID

	for key, value := range opts.Parameters {
		if err := client.LogParam(ctx, runID, key, value); err != nil {
			return nil, err
		}
	}

	log := logging.For("projects")
	log.Info("running entry point", "project", project.Name, "entry_point", entryName, "run_id", runID)

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	cmd.Dir = project.Dir()
	cmd.Env = append(os.Environ(),
		"NEWRON_RUN_ID="+runID,
		"NEWRON_TRACKING_URI="+trackingURI,
		"NEWRON_EXPERIMENT_ID="+experimentID,
	)
	if opts.Stdout != nil {
		cmd.Stdout = opts.Stdout
	} else {
		cmd.Stdout = os.Stdout
	}
	if opts.Stderr != nil {
		cmd.Stderr = opts.Stderr
	} else {
		cmd.Stderr = os.Stderr
	}

	status := tracking.StatusFinished
	runErr := cmd.Run()
	if runErr != nil {
		status = tracking.StatusFailed
	}

	if err := client.SetTerminated(ctx, runID, status); err != nil {
		return nil, err
	}

	submitted := &SubmittedRun{RunID: runID, Status: status, Command: command}
	if runErr != nil {
		return submitted, fmt.Errorf("projects: entry point %q failed: %w", entryName, runErr)
	}

	log.Info("entry point finished", "run_id", runID, "status", string(status))

	return submitted, nil
}
