package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/newronai/newron-go/pkg/flavors"
	"github.com/newronai/newron-go/pkg/mcp"
	"github.com/newronai/newron-go/pkg/modelregistry"
	"github.com/newronai/newron-go/pkg/tracking"
)

// version is stamped at build time.
var version = "dev"

func runMCP(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	var cf commonFlags
	cf.register(fs)
	_ = fs.Parse(args)

	client, cfg, err := cf.setup()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	registryURI := cfg.RegistryURI
	if registryURI == "" {
		registryURI = cfg.TrackingURI
	}
	if registryURI == "" {
		registryURI = tracking.DefaultTrackingDir
	}
	registry, err := modelregistry.OpenStore(registryURI, tracking.StoreOptions{Token: cfg.TrackingToken})
	if err != nil {
		return err
	}
	defer func() { _ = registry.Close() }()

	server := mcp.NewServer("newron", version)
	server.Register(mcp.TrackingTools(client, registry, flavors.Default())...)

	err = server.Serve(ctx, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}
