package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/newronai/newron-go/pkg/projects"
	"github.com/newronai/newron-go/pkg/tracking"
)

func runProject(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	var cf commonFlags
	cf.register(fs)
	entryPoint := fs.String("entry-point", "main", "entry point to execute")
	experimentID := fs.String("experiment", "", "experiment ID for the tracking run")
	params := paramFlags{}
	fs.Var(params, "P", "entry point parameter as key=value (repeatable)")
	_ = fs.Parse(args)

	dir := "."
	if fs.NArg() > 0 {
		dir = fs.Arg(0)
	}

	client, cfg, err := cf.setup()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	project, err := projects.Load(dir)
	if err != nil {
		return err
	}

	trackingURI := cf.trackingURI
	if trackingURI == "" {
		trackingURI = cfg.TrackingURI
	}
	if trackingURI == "" {
		trackingURI = tracking.DefaultTrackingDir
	}

	submitted, err := projects.Run(ctx, client, trackingURI, project, projects.RunOptions{
		EntryPoint:   *entryPoint,
		Parameters:   params,
		ExperimentID: *experimentID,
	})
	if submitted != nil {
		fmt.Printf("run %s %s\n", shortID(submitted.RunID), styleStatus(submitted.Status))
	}

	return err
}
