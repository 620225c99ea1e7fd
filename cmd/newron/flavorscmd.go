package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/newronai/newron-go/pkg/flavors"
)

func runFlavors(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("flavors", flag.ExitOnError)
	envFile := fs.String("env", ".env", "path to .env file (ignored if missing)")
	_ = fs.Parse(args)

	if err := loadDotEnv(*envFile); err != nil {
		return err
	}

	registry := flavors.Default()
	supported := map[string]bool{}
	for _, name := range registry.Supported(ctx) {
		supported[name] = true
	}
	faults := registry.DetectErrors(ctx)

	for _, entry := range flavors.Catalog() {
		switch {
		case supported[entry.Name]:
			fmt.Printf("%s %s\n", doneStyle.Render("✓"), entry.Name)
		case faults[entry.Name] != nil:
			fmt.Printf("%s %s  %s\n", failedStyle.Render("!"), entry.Name, dimStyle.Render(faults[entry.Name].Error()))
		default:
			fmt.Printf("%s %s\n", dimStyle.Render("✗"), dimStyle.Render(entry.Name))
		}
	}

	return nil
}
