package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Me resolves the identity, locale and feature context of the bound pair.
func (c *Client) Me(ctx context.Context) (*Identity, error) {
	data, err := c.do(ctx, request{
		endpoint: "me",
		method:   http.MethodGet,
		path:     "/me",
		action:   "Failed to fetch identity",
	})
	if err != nil {
		return nil, err
	}
	return DecodeIdentity(data)
}

func (c *Client) UXConfig(ctx context.Context, module string) (*UXConfigResponse, error) {
	seg, err := moduleSegment(module)
	if err != nil {
		return nil, err
	}
	data, err := c.do(ctx, request{
		endpoint: "ux_config",
		method:   http.MethodGet,
		path:     "/ux/" + seg,
		action:   "Failed to fetch UX config",
	})
	if err != nil {
		return nil, err
	}
	return DecodeUXConfig(strings.TrimSpace(module), data)
}

// UXVersions lists the stored config versions of a module. A 403 yields
// ErrForbidden and no versions.
func (c *Client) UXVersions(ctx context.Context, module string) ([]UXConfigVersionItem, error) {
	seg, err := moduleSegment(module)
	if err != nil {
		return nil, err
	}
	data, err := c.do(ctx, request{
		endpoint: "ux_versions",
		method:   http.MethodGet,
		path:     "/ux/" + seg + "/versions",
		action:   "Failed to fetch versions",
		statusErrors: map[int]*Error{
			http.StatusForbidden: ErrForbidden,
		},
	})
	if err != nil {
		return nil, err
	}
	return decodeVersions(data)
}

type rollbackRequest struct {
	Version int `json:"version"`
}

// RollbackUX restores a module config to version. 403 and 404 map to
// ErrForbidden and a "Version not found" not-found error.
func (c *Client) RollbackUX(ctx context.Context, module string, version int) (*UXConfigResponse, error) {
	seg, err := moduleSegment(module)
	if err != nil {
		return nil, err
	}
	if version < 1 {
		return nil, validationError("version must be >= 1", nil)
	}
	data, err := c.do(ctx, request{
		endpoint: "ux_rollback",
		method:   http.MethodPost,
		path:     "/ux/" + seg + "/rollback",
		body:     rollbackRequest{Version: version},
		action:   "Failed to rollback",
		statusErrors: map[int]*Error{
			http.StatusForbidden: ErrForbidden,
			http.StatusNotFound:  {Kind: KindNotFound, Message: "Version not found"},
		},
	})
	if err != nil {
		return nil, err
	}
	return DecodeUXConfig(strings.TrimSpace(module), data)
}

func (c *Client) Policy(ctx context.Context) (*PolicyConfig, error) {
	data, err := c.do(ctx, request{
		endpoint: "policy",
		method:   http.MethodGet,
		path:     "/governance/policy",
		action:   "Failed to fetch policy",
	})
	if err != nil {
		return nil, err
	}
	return decodePolicy(data)
}

func (c *Client) Workflows(ctx context.Context) ([]WorkflowListItem, error) {
	data, err := c.do(ctx, request{
		endpoint: "workflows",
		method:   http.MethodGet,
		path:     "/workflows",
		action:   "Failed to fetch workflows",
	})
	if err != nil {
		return nil, err
	}
	return decodeWorkflows(data)
}

func (c *Client) StageAging(ctx context.Context, params StageAgingParams) ([]StageAgingItem, error) {
	q := url.Values{}
	if id := strings.TrimSpace(params.WorkflowID); id != "" {
		q.Set("workflow_id", id)
	}
	if params.Limit != nil {
		q.Set("limit", strconv.Itoa(*params.Limit))
	}
	if params.Offset != nil {
		q.Set("offset", strconv.Itoa(*params.Offset))
	}
	data, err := c.do(ctx, request{
		endpoint: "stage_aging",
		method:   http.MethodGet,
		path:     "/reporting/stage-aging",
		query:    q,
		action:   "Failed to fetch stage aging",
	})
	if err != nil {
		return nil, err
	}
	return decodeStageAging(data)
}

func (c *Client) TimeToClose(ctx context.Context, params TimeToCloseParams) (*TimeToCloseStats, error) {
	q := url.Values{}
	if id := strings.TrimSpace(params.WorkflowID); id != "" {
		q.Set("workflow_id", id)
	}
	if params.Result != "" {
		q.Set("result", string(params.Result))
	}
	data, err := c.do(ctx, request{
		endpoint: "time_to_close",
		method:   http.MethodGet,
		path:     "/reporting/time-to-close",
		query:    q,
		action:   "Failed to fetch time to close",
	})
	if err != nil {
		return nil, err
	}
	return decodeTimeToClose(data)
}

func requireWorkflowID(workflowID string) (string, error) {
	id := strings.TrimSpace(workflowID)
	if id == "" {
		return "", validationError("workflowId is required", nil)
	}
	return id, nil
}

func (c *Client) StageDurationSummary(ctx context.Context, workflowID string) ([]StageDurationSummaryItem, error) {
	id, err := requireWorkflowID(workflowID)
	if err != nil {
		return nil, err
	}
	data, err := c.do(ctx, request{
		endpoint: "stage_duration_summary",
		method:   http.MethodGet,
		path:     "/reporting/stage-duration-summary",
		query:    url.Values{"workflow_id": {id}},
		action:   "Failed to fetch stage duration summary",
	})
	if err != nil {
		return nil, err
	}
	return decodeStageDurationSummary(data)
}

func (c *Client) StageDurationBreakdown(ctx context.Context, workflowID string, window Window) ([]StageDurationBreakdownItem, error) {
	id, err := requireWorkflowID(workflowID)
	if err != nil {
		return nil, err
	}
	q := url.Values{"workflow_id": {id}}
	if !window.From.IsZero() {
		q.Set("from", window.From.UTC().Format(time.RFC3339))
	}
	if !window.To.IsZero() {
		q.Set("to", window.To.UTC().Format(time.RFC3339))
	}
	data, err := c.do(ctx, request{
		endpoint: "stage_duration_breakdown",
		method:   http.MethodGet,
		path:     "/reporting/stage-duration-breakdown",
		query:    q,
		action:   "Failed to fetch stage duration breakdown",
	})
	if err != nil {
		return nil, err
	}
	return decodeBreakdown(data)
}
