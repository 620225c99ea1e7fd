package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/newronai/newron-go/pkg/flavor"
	"github.com/newronai/newron-go/pkg/modelregistry"
	"github.com/newronai/newron-go/pkg/tracking"
)

// TrackingTools builds the tool set for a tracking client. The registry
// store and flavor registry are optional; their tools are omitted when nil.
func TrackingTools(client *tracking.Client, registry modelregistry.Store, flavors *flavor.Registry) []Tool {
	tools := []Tool{
		{
			Name:        "list_experiments",
			Description: "List all active experiments.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
			Handler: func(ctx context.Context, _ json.RawMessage) (string, error) {
				experiments, err := client.ListExperiments(ctx)
				if err != nil {
					return "", err
				}
				return marshal(experiments)
			},
		},
		{
			Name:        "create_experiment",
			Description: "Create a new experiment and return its ID.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`),
			Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
				var args struct {
					Name string `json:"name"`
				}
				if err := json.Unmarshal(input, &args); err != nil {
					return "", fmt.Errorf("mcp: parse input: %w", err)
				}
				id, err := client.CreateExperiment(ctx, args.Name)
				if err != nil {
					return "", err
				}
				return id, nil
			},
		},
		{
			Name:        "get_run",
			Description: "Fetch a run's metadata, latest metrics, params and tags.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"run_id":{"type":"string"}},"required":["run_id"]}`),
			Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
				var args struct {
					RunID string `json:"run_id"`
				}
				if err := json.Unmarshal(input, &args); err != nil {
					return "", fmt.Errorf("mcp: parse input: %w", err)
				}
				run, err := client.GetRun(ctx, args.RunID)
				if err != nil {
					return "", err
				}
				return marshal(run)
			},
		},
		{
			Name:        "search_runs",
			Description: "Search runs, newest first, optionally filtered by experiment and status.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"experiment_ids":{"type":"array","items":{"type":"string"}},"status":{"type":"string"},"max_results":{"type":"integer"}}}`),
			Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
				var args struct {
					ExperimentIDs []string `json:"experiment_ids"`
					Status        string   `json:"status"`
					MaxResults    int      `json:"max_results"`
				}
				if err := json.Unmarshal(input, &args); err != nil {
					return "", fmt.Errorf("mcp: parse input: %w", err)
				}
				runs, err := client.SearchRuns(ctx, args.ExperimentIDs, tracking.SearchFilter{
					Status:     tracking.RunStatus(args.Status),
					MaxResults: args.MaxResults,
				})
				if err != nil {
					return "", err
				}
				return marshal(runs)
			},
		},
		{
			Name:        "log_metric",
			Description: "Append a metric point to a run.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"run_id":{"type":"string"},"key":{"type":"string"},"value":{"type":"number"},"step":{"type":"integer"}},"required":["run_id","key","value"]}`),
			Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
				var args struct {
					RunID string  `json:"run_id"`
					Key   string  `json:"key"`
					Value float64 `json:"value"`
					Step  int64   `json:"step"`
				}
				if err := json.Unmarshal(input, &args); err != nil {
					return "", fmt.Errorf("mcp: parse input: %w", err)
				}
				if err := client.LogMetric(ctx, args.RunID, args.Key, args.Value, args.Step); err != nil {
					return "", err
				}
				return "ok", nil
			},
		},
		{
			Name:        "log_param",
			Description: "Record a write-once param on a run.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"run_id":{"type":"string"},"key":{"type":"string"},"value":{"type":"string"}},"required":["run_id","key","value"]}`),
			Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
				var args struct {
					RunID string `json:"run_id"`
					Key   string `json:"key"`
					Value string `json:"value"`
				}
				if err := json.Unmarshal(input, &args); err != nil {
					return "", fmt.Errorf("mcp: parse input: %w", err)
				}
				if err := client.LogParam(ctx, args.RunID, args.Key, args.Value); err != nil {
					return "", err
				}
				return "ok", nil
			},
		},
		{
			Name:        "set_tag",
			Description: "Set a tag on a run, replacing any existing value.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"run_id":{"type":"string"},"key":{"type":"string"},"value":{"type":"string"}},"required":["run_id","key","value"]}`),
			Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
				var args struct {
					RunID string `json:"run_id"`
					Key   string `json:"key"`
					Value string `json:"value"`
				}
				if err := json.Unmarshal(input, &args); err != nil {
					return "", fmt.Errorf("mcp: parse input: %w", err)
				}
				if err := client.SetTag(ctx, args.RunID, args.Key, args.Value); err != nil {
					return "", err
				}
				return "ok", nil
			},
		},
		{
			Name:        "get_metric_history",
			Description: "Return every logged point for one metric of a run.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"run_id":{"type":"string"},"key":{"type":"string"}},"required":["run_id","key"]}`),
			Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
				var args struct {
					RunID string `json:"run_id"`
					Key   string `json:"key"`
				}
				if err := json.Unmarshal(input, &args); err != nil {
					return "", fmt.Errorf("mcp: parse input: %w", err)
				}
				history, err := client.GetMetricHistory(ctx, args.RunID, args.Key)
				if err != nil {
					return "", err
				}
				return marshal(history)
			},
		},
	}

	if registry != nil {
		tools = append(tools, Tool{
			Name:        "list_registered_models",
			Description: "List registered models with their versions.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
			Handler: func(ctx context.Context, _ json.RawMessage) (string, error) {
				models, err := registry.ListRegisteredModels(ctx)
				if err != nil {
					return "", err
				}
				return marshal(models)
			},
		})
	}

	if flavors != nil {
		tools = append(tools, Tool{
			Name:        "supported_flavors",
			Description: "List which optional ML framework integrations are usable.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
			Handler: func(ctx context.Context, _ json.RawMessage) (string, error) {
				return marshal(flavors.Supported(ctx))
			},
		})
	}

	return tools
}

func marshal(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("mcp: marshal result: %w", err)
	}

	return string(data), nil
}
