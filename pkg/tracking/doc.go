// Package tracking records experiment runs, parameters, and metrics.
//
// Two surfaces are exposed. The fluent functions (StartRun, LogParam,
// LogMetric, EndRun) keep a process-wide active-run stack for the
// notebook-style workflow:
//
//	run, _ := tracking.StartRun(ctx)
//	_ = tracking.LogParam(ctx, "lr", "0.01")
//	_ = tracking.LogMetric(ctx, "score", 100, 0)
//	_ = tracking.EndRun(ctx)
//
// The fluent surface is not safe for concurrent use; concurrent callers must
// serialize externally. For a lower-level, concurrency-safe API, use Client.
//
// Storage backends register themselves by URI scheme the way database/sql
// drivers do; import the backend package for the schemes you use:
//
//	import (
//		_ "github.com/newronai/newron-go/pkg/tracking/filestore"
//		_ "github.com/newronai/newron-go/pkg/tracking/sqlitestore"
//	)
package tracking
