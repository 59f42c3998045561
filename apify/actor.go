package apify

import (
	"context"
	"net/http"
	"time"

	"github.com/kbukum/apifykit/errors"
	"github.com/kbukum/apifykit/httpclient"
	"github.com/kbukum/apifykit/resilience"
	"github.com/kbukum/apifykit/validation"
)

const (
	opRunActor   = "run_actor"
	opLastRun    = "get_last_run"
	opWaitForRun = "wait_for_run"
)

// RunActorInput starts an actor run. Optional limits are sent only when set.
type RunActorInput struct {
	ActorID string `json:"actor_id" yaml:"actor_id" validate:"required,apify_id"`
	// Input is sent as the JSON body. Nil sends no body.
	Input map[string]any `json:"input,omitempty" yaml:"input,omitempty"`
	// Timeout is the run timeout in seconds.
	Timeout *float64 `json:"timeout,omitempty" yaml:"timeout,omitempty" validate:"omitempty,gte=0"`
	// Memory is the run memory in megabytes.
	Memory *int `json:"memory,omitempty" yaml:"memory,omitempty" validate:"omitempty,gte=128"`
	// MaxItems caps the items charged for pay-per-result actors.
	MaxItems *int `json:"max_items,omitempty" yaml:"max_items,omitempty" validate:"omitempty,gte=0"`
	// MaxTotalChargeUsd caps the cost of pay-per-event actors.
	MaxTotalChargeUsd *float64 `json:"max_total_charge_usd,omitempty" yaml:"max_total_charge_usd,omitempty" validate:"omitempty,gte=0"`
	// Build is the tag or number of the build to run.
	Build string `json:"build,omitempty" yaml:"build,omitempty"`
	// WaitForFinish makes the API hold the response up to this many seconds.
	WaitForFinish *float64 `json:"wait_for_finish,omitempty" yaml:"wait_for_finish,omitempty" validate:"omitempty,gte=0,lte=60"`
	// Webhooks is a base64-encoded JSON array of ad-hoc webhooks.
	Webhooks string `json:"webhooks,omitempty" yaml:"webhooks,omitempty"`
}

// Validate checks the input.
func (in RunActorInput) Validate() error {
	return validation.Validate(in)
}

// Params returns the run query parameters. Unset fields are omitted.
func (in RunActorInput) Params() httpclient.QueryParams {
	return httpclient.QueryParams{
		"timeout":           in.Timeout,
		"memory":            in.Memory,
		"maxItems":          in.MaxItems,
		"maxTotalChargeUsd": in.MaxTotalChargeUsd,
		"waitForFinish":     in.WaitForFinish,
	}.
		SetIf(in.Build != "", "build", in.Build).
		SetIf(in.Webhooks != "", "webhooks", in.Webhooks)
}

// LastRunInput selects the most recent run of an actor.
type LastRunInput struct {
	ActorID string `json:"actor_id" yaml:"actor_id" validate:"required,apify_id"`
	// Status restricts the lookup to runs in this state.
	Status RunStatus `json:"status,omitempty" yaml:"status,omitempty" validate:"omitempty,oneof=READY RUNNING SUCCEEDED FAILED TIMING-OUT TIMED-OUT ABORTING ABORTED"`
}

// WaitForRunInput waits for a run to reach a terminal status.
type WaitForRunInput struct {
	RunID string `json:"run_id" yaml:"run_id" validate:"required,apify_id"`
	// Timeout overrides the polling deadline for this call.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" validate:"gte=0"`
}

type runEnvelope struct {
	Data *ActorRun `json:"data"`
}

// RunActor starts a run of the actor and returns it as reported by the API.
// The run is usually still in progress; see WaitForRun.
func (c *Connection) RunActor(ctx context.Context, in RunActorInput) (*ActorRun, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var body any
	if in.Input != nil {
		body = in.Input
	}

	var run *ActorRun
	err := c.track(ctx, opRunActor, in.ActorID, func(ctx context.Context) error {
		req, err := c.client.Builder().Post(ctx, "/acts/"+resourcePath(in.ActorID)+"/runs", body,
			httpclient.WithQuery(in.Params()))
		if err != nil {
			return err
		}
		run, err = c.invokeRun(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// GetLastActorRun returns the most recent run of an actor, optionally only
// among runs with the given status.
func (c *Connection) GetLastActorRun(ctx context.Context, in LastRunInput) (*ActorRun, error) {
	if err := validation.Validate(in); err != nil {
		return nil, err
	}

	var run *ActorRun
	err := c.track(ctx, opLastRun, in.ActorID, func(ctx context.Context) error {
		req, err := c.client.Builder().Get(ctx, "/acts/"+resourcePath(in.ActorID)+"/runs/last",
			httpclient.WithQuery(httpclient.QueryParams{}.SetIf(in.Status != "", "status", string(in.Status))))
		if err != nil {
			return err
		}
		run, err = c.invokeRun(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// WaitForRun polls the run until its status is terminal. A run that ends
// in FAILED, TIMED-OUT or ABORTED is returned without error; callers
// inspect Status.
func (c *Connection) WaitForRun(ctx context.Context, in WaitForRunInput) (*ActorRun, error) {
	if err := validation.Validate(in); err != nil {
		return nil, err
	}

	var run *ActorRun
	err := c.track(ctx, opWaitForRun, in.RunID, func(ctx context.Context) error {
		pc := c.pollConfig(ctx, opWaitForRun, in.Timeout, RunTimeoutMessage)
		pc.OnNotReady = c.logNotReady(ctx, msgRunInProgress, in.RunID)

		var err error
		run, err = resilience.Poll(ctx, pc, func(ctx context.Context) (*ActorRun, error) {
			req, err := c.client.Builder().Get(ctx, "/actor-runs/"+in.RunID)
			if err != nil {
				return nil, err
			}
			return c.invokeRun(ctx, req)
		}, RunInProgress)
		return err
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// RunInProgress is the readiness predicate of WaitForRun.
func RunInProgress(run *ActorRun) bool {
	return run == nil || !run.Status.IsTerminal()
}

func (c *Connection) invokeRun(ctx context.Context, req *http.Request) (*ActorRun, error) {
	env, err := httpclient.Invoke[runEnvelope](ctx, c.client, req)
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, errors.ExternalServiceError(apiName, nil).
			WithDetail("reason", "response has no data object")
	}
	return env.Data, nil
}
