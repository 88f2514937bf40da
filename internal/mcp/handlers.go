package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	gh "github.com/google/go-github/v68/github"

	"github.com/schnicklfritz/lite-remote-builder/internal/github"
)

// Upstream performs one authenticated request against the configured repository.
// *github.Client satisfies it; tests substitute stubs.
type Upstream interface {
	Request(ctx context.Context, method, path string, body any) (*github.Outcome, error)
}

// Handlers implements the catalog operations.
type Handlers struct {
	upstream Upstream
	workflow string
}

// NewHandlers creates the operation handlers. workflow is the workflow file
// dispatched by trigger_kernel_build.
func NewHandlers(upstream Upstream, workflow string) *Handlers {
	return &Handlers{upstream: upstream, workflow: workflow}
}

// TriggerKernelBuild dispatches the kernel build workflow on args["ref"].
func (h *Handlers) TriggerKernelBuild(ctx context.Context, args Arguments) (string, error) {
	ref := args.String("ref")
	optLevel := args.String("opt_level")

	event := gh.CreateWorkflowDispatchEventRequest{
		Ref: ref,
		Inputs: map[string]interface{}{
			"opt_level": optLevel,
		},
	}
	path := fmt.Sprintf("/actions/workflows/%s/dispatches", url.PathEscape(h.workflow))
	if _, err := h.upstream.Request(ctx, http.MethodPost, path, event); err != nil {
		return "", err
	}

	return formatDispatched(ref, optLevel), nil
}

// CheckBuildStatus lists the most recent workflow runs in upstream order.
func (h *Handlers) CheckBuildStatus(ctx context.Context, args Arguments) (string, error) {
	limit := args.Int("limit")

	outcome, err := h.upstream.Request(ctx, http.MethodGet, fmt.Sprintf("/actions/runs?per_page=%d", limit), nil)
	if err != nil {
		return "", err
	}
	if outcome == nil || outcome.Empty() {
		return "", fmt.Errorf("%w: empty body for workflow runs", github.ErrMalformedResponse)
	}

	var runs gh.WorkflowRuns
	if err := json.Unmarshal(outcome.Payload, &runs); err != nil {
		return "", fmt.Errorf("%w: %v", github.ErrMalformedResponse, err)
	}
	if runs.WorkflowRuns == nil {
		return "", fmt.Errorf("%w: workflow_runs missing", github.ErrMalformedResponse)
	}

	return formatRuns(runs.WorkflowRuns), nil
}
