package reststore

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/newronai/newron-go/pkg/tracking"
)

// RunUpdate is one event on a followed run's stream.
type RunUpdate struct {
	Run     *tracking.Run     `json:"run,omitempty"`
	Metrics []tracking.Metric `json:"metrics,omitempty"`
}

// FollowRun subscribes to live updates for a run over a WebSocket. Updates
// arrive on the returned channel until the server closes the stream or ctx is
// cancelled; the channel is closed either way. Errors other than a normal
// close surface on the error channel before it closes.
func (s *Store) FollowRun(ctx context.Context, runID string) (<-chan RunUpdate, <-chan error, error) {
	path := apiPrefix + "/runs/follow?" + url.Values{"run_id": {runID}}.Encode()

	conn, _, err := s.api.dialWS(ctx, path)
	if err != nil {
		return nil, nil, err
	}

	updates := make(chan RunUpdate)
	errc := make(chan error, 1)

	go func() {
		defer close(updates)
		defer close(errc)
		defer func() { _ = conn.Close(websocket.StatusNormalClosure, "done") }()

		for {
			var update RunUpdate
			if err := wsjson.Read(ctx, conn, &update); err != nil {
				if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
					return
				}
				errc <- fmt.Errorf("reststore: follow run %s: %w", runID, err)
				return
			}

			select {
			case updates <- update:
			case <-ctx.Done():
				return
			}
		}
	}()

	return updates, errc, nil
}
