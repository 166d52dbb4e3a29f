package httpapi

import (
	"context"
	"net/http"

	"dcabot/internal/app/runner"
)

// RunnerAdapter — тонкий адаптер: маппит httpapi.RunFacade на runner.Runner.
type RunnerAdapter struct {
	R *runner.Runner
}

func (a *RunnerAdapter) Run(ctx context.Context, trigger any) (int, map[string]any) {
	if a == nil || a.R == nil {
		return http.StatusInternalServerError, map[string]any{"error": "runner is not initialized"}
	}
	resp := a.R.Handle(ctx, trigger)
	return resp.StatusCode, resp.Body
}
