package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/newronai/newron-go/pkg/config"
)

const defaultConfigPath = ".newron/config.yaml"

func runInit(args []string) error {
	initCmd := flag.NewFlagSet("init", flag.ExitOnError)
	initCmd.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: newron init [flags]\n\nCreate a .newron directory with a config file.\n\nFlags:\n")
		initCmd.PrintDefaults()
	}
	path := initCmd.String("config", defaultConfigPath, "where to write the config file")
	_ = initCmd.Parse(args)

	if _, err := os.Stat(*path); err == nil {
		return fmt.Errorf("%s already exists; edit it directly or remove it first", *path)
	}

	cfg, err := runWizard()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(*path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := config.Save(*path, cfg); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", *path)

	return nil
}

// runWizard walks through backend selection and experiment defaults.
func runWizard() (config.Config, error) {
	var cfg config.Config

	var backend string
	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Where should runs be tracked?").
			Options(
				huh.NewOption("Local directory", "file"),
				huh.NewOption("SQLite database", "sqlite"),
				huh.NewOption("Remote tracking server", "remote"),
			).
			Value(&backend),
	)).Run(); err != nil {
		return config.Config{}, err
	}

	switch backend {
	case "file":
		uri := "./newronruns"
		if err := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Runs directory").Value(&uri),
		)).Run(); err != nil {
			return config.Config{}, err
		}
		cfg.TrackingURI = uri
	case "sqlite":
		path := "newron.db"
		if err := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Database path").Value(&path),
		)).Run(); err != nil {
			return config.Config{}, err
		}
		cfg.TrackingURI = "sqlite://" + path
	case "remote":
		uri := "https://"
		token := "${NEWRON_TRACKING_TOKEN}"
		if err := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Server URL").Value(&uri).Validate(validateServerURL),
			huh.NewInput().Title("Access token (env var reference is fine)").Value(&token),
		)).Run(); err != nil {
			return config.Config{}, err
		}
		cfg.TrackingURI = uri
		cfg.TrackingToken = token
	}

	var setRegistry bool
	if err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title("Use a separate model registry backend?").Value(&setRegistry),
	)).Run(); err != nil {
		return config.Config{}, err
	}
	if setRegistry {
		if err := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Registry URI").Value(&cfg.RegistryURI),
		)).Run(); err != nil {
			return config.Config{}, err
		}
	}

	if err := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Default experiment name (empty for the default experiment)").Value(&cfg.ExperimentName),
		huh.NewSelect[string]().
			Title("Log level").
			Options(
				huh.NewOption("info", "info"),
				huh.NewOption("debug", "debug"),
				huh.NewOption("warn", "warn"),
				huh.NewOption("error", "error"),
			).
			Value(&cfg.LogLevel),
	)).Run(); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

func validateServerURL(s string) error {
	if s == "" || s == "https://" || s == "http://" {
		return fmt.Errorf("server URL is required")
	}

	return nil
}
