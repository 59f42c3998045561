package apify

import (
	"context"

	"github.com/kbukum/apifykit/httpclient"
	"github.com/kbukum/apifykit/observability"
)

const opHealth = "health"

type userEnvelope struct {
	Data struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"data"`
}

// CheckHealth verifies that the API is reachable and accepts the token by
// fetching the current user. It implements observability.HealthChecker.
func (c *Connection) CheckHealth(ctx context.Context) observability.Health {
	h := observability.Health{Name: serviceName, Status: observability.HealthStatusUp}
	start := c.clock.Now()

	var user userEnvelope
	err := c.track(ctx, opHealth, "", func(ctx context.Context) error {
		req, err := c.client.Builder().Get(ctx, "/users/me")
		if err != nil {
			return err
		}
		user, err = httpclient.Invoke[userEnvelope](ctx, c.client, req)
		return err
	})
	h.Latency = c.clock.Now().Sub(start)

	switch {
	case err == nil:
		h.Details = map[string]string{"base_url": c.BaseURL(), "username": user.Data.Username}
	case httpclient.IsCredential(err), httpclient.IsAuth(err):
		h.Status = observability.HealthStatusDown
		h.Message = AsAppError(err).Message
	case httpclient.IsRetryable(err):
		h.Status = observability.HealthStatusDegraded
		h.Message = err.Error()
	default:
		h.Status = observability.HealthStatusDown
		h.Message = err.Error()
	}
	return h
}
