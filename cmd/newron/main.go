// Command newron is the command line companion to the newron library: it
// initializes local configuration, browses experiments and runs, compares
// runs, executes projects, and serves tracking operations over MCP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/newronai/newron-go/pkg/config"
	"github.com/newronai/newron-go/pkg/logging"
	"github.com/newronai/newron-go/pkg/tracking"

	// Tracking and registry backends self-register by URI scheme.
	_ "github.com/newronai/newron-go/pkg/tracking/filestore"
	_ "github.com/newronai/newron-go/pkg/tracking/reststore"
	_ "github.com/newronai/newron-go/pkg/tracking/sqlitestore"
)

const usageText = `Usage: newron <command> [flags]

Commands:
  init         Create a .newron directory with a config file
  experiments  List experiments
  runs         List runs of an experiment
  ui           Browse experiments and runs interactively
  diff         Compare the params and metrics of two runs
  run          Execute a project entry point under a tracking run
  flavors      Show which ML framework integrations are usable
  mcp          Serve tracking operations over MCP on stdio
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := dispatch(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "init":
		return runInit(args)
	case "experiments":
		return runExperiments(ctx, args)
	case "runs":
		return runRuns(ctx, args)
	case "ui":
		return runUI(ctx, args)
	case "diff":
		return runDiff(ctx, args)
	case "run":
		return runProject(ctx, args)
	case "flavors":
		return runFlavors(ctx, args)
	case "mcp":
		return runMCP(ctx, args)
	case "help", "-h", "--help":
		fmt.Print(usageText)
		return nil
	default:
		fmt.Fprint(os.Stderr, usageText)
		return fmt.Errorf("unknown command %q", command)
	}
}

// commonFlags registers the flags every tracking-backed subcommand shares.
type commonFlags struct {
	trackingURI string
	configPath  string
	envFile     string
}

func (cf *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&cf.trackingURI, "tracking-uri", "", "tracking backend URI (overrides config and env)")
	fs.StringVar(&cf.configPath, "config", "", "path to config file (default: .newron/config.yaml)")
	fs.StringVar(&cf.envFile, "env", ".env", "path to .env file (ignored if missing)")
}

// setup loads the .env file and configuration, configures logging, and opens
// a tracking client.
func (cf *commonFlags) setup() (*tracking.Client, config.Config, error) {
	if err := loadDotEnv(cf.envFile); err != nil {
		return nil, config.Config{}, err
	}

	path := cf.configPath
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, config.Config{}, err
	}

	logging.Configure(os.Stderr, cfg.LogLevel)

	uri := cf.trackingURI
	if uri == "" {
		uri = cfg.TrackingURI
	}
	if uri == "" {
		uri = tracking.DefaultTrackingDir
	}

	client, err := tracking.NewClient(uri, tracking.StoreOptions{Token: cfg.TrackingToken})
	if err != nil {
		return nil, config.Config{}, err
	}

	return client, cfg, nil
}

// loadDotEnv loads environment variables from the given file. A missing file
// is not an error; any other read failure is.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}

	err := godotenv.Load(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load env file %s: %w", path, err)
	}

	return nil
}

// parseParams parses repeated -P key=value flags.
type paramFlags map[string]string

func (p paramFlags) String() string {
	pairs := make([]string, 0, len(p))
	for k, v := range p {
		pairs = append(pairs, k+"="+v)
	}

	return strings.Join(pairs, ",")
}

func (p paramFlags) Set(value string) error {
	key, val, ok := strings.Cut(value, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	p[key] = val

	return nil
}
