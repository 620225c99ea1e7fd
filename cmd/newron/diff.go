package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/newronai/newron-go/pkg/tracking"
	"github.com/pmezard/go-difflib/difflib"
)

func runDiff(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	var cf commonFlags
	cf.register(fs)
	_ = fs.Parse(args)

	if fs.NArg() != 2 {
		return fmt.Errorf("usage: newron diff <run-id> <run-id>")
	}

	client, _, err := cf.setup()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	left, err := client.GetRun(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	right, err := client.GetRun(ctx, fs.Arg(1))
	if err != nil {
		return err
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(runSummary(left)),
		B:        difflib.SplitLines(runSummary(right)),
		FromFile: shortID(left.Info.RunID),
		ToFile:   shortID(right.Info.RunID),
		Context:  3,
	})
	if err != nil {
		return fmt.Errorf("diff runs: %w", err)
	}

	if diff == "" {
		fmt.Println(dimStyle.Render("runs are identical"))
		return nil
	}
	fmt.Print(diff)

	return nil
}

// runSummary flattens a run's params, latest metrics and tags into sorted
// lines so two runs diff cleanly.
func runSummary(run *tracking.Run) string {
	var b strings.Builder

	fmt.Fprintf(&b, "status: %s\n", run.Info.Status)
	for _, p := range run.Data.Params {
		fmt.Fprintf(&b, "param %s = %s\n", p.Key, p.Value)
	}
	for _, m := range run.Data.Metrics {
		fmt.Fprintf(&b, "metric %s = %g (step %d)\n", m.Key, m.Value, m.Step)
	}
	for _, t := range run.Data.Tags {
		fmt.Fprintf(&b, "tag %s = %s\n", t.Key, t.Value)
	}

	return b.String()
}
