package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/newronai/newron-go/pkg/tracking"
)

func runExperiments(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("experiments", flag.ExitOnError)
	var cf commonFlags
	cf.register(fs)
	_ = fs.Parse(args)

	client, _, err := cf.setup()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	experiments, err := client.ListExperiments(ctx)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(experiments))
	for _, exp := range experiments {
		rows = append(rows, []string{
			exp.ExperimentID,
			exp.Name,
			exp.ArtifactLocation,
			formatMillis(exp.CreationTime),
		})
	}

	fmt.Print(renderTable([]string{"ID", "NAME", "ARTIFACT LOCATION", "CREATED"}, rows))

	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	var cf commonFlags
	cf.register(fs)
	experimentID := fs.String("experiment", tracking.DefaultExperimentID, "experiment ID to list")
	status := fs.String("status", "", "filter by status (RUNNING, FINISHED, FAILED, KILLED)")
	deleted := fs.Bool("deleted", false, "show soft-deleted runs instead of active ones")
	limit := fs.Int("limit", 0, "maximum number of runs (0 = all)")
	_ = fs.Parse(args)

	client, _, err := cf.setup()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	view := tracking.ActiveOnly
	if *deleted {
		view = tracking.DeletedOnly
	}

	runs, err := client.SearchRuns(ctx, []string{*experimentID}, tracking.SearchFilter{
		Status:     tracking.RunStatus(*status),
		View:       view,
		MaxResults: *limit,
	})
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.Info.RunID),
			run.Info.RunName,
			styleStatus(run.Info.Status),
			formatMillis(run.Info.StartTime),
			strconv.Itoa(len(run.Data.Metrics)),
			strconv.Itoa(len(run.Data.Params)),
		})
	}

	fmt.Print(renderTable([]string{"RUN", "NAME", "STATUS", "STARTED", "METRICS", "PARAMS"}, rows))
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, dimStyle.Render("no runs"))
	}

	return nil
}
