package apify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kbukum/apifykit/apify/apifytest"
	"github.com/kbukum/apifykit/observability"
)

func TestCheckHealth_Up(t *testing.T) {
	env := newTestEnv(t, nil)

	h := env.conn.CheckHealth(context.Background())
	assert.Equal(t, observability.HealthStatusUp, h.Status)
	assert.Equal(t, "tester", h.Details["username"])
	assert.Equal(t, env.srv.URL(), h.Details["base_url"])
	assert.Equal(t, "/users/me", env.srv.LastRequest().Path)
}

func TestCheckHealth_RejectedToken(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.Token = "wrong" })

	h := env.conn.CheckHealth(context.Background())
	assert.Equal(t, observability.HealthStatusDown, h.Status)
	assert.Equal(t, "Authentication token is not valid.", h.Message)
}

func TestCheckHealth_ServerErrorIsDegraded(t *testing.T) {
	env := newTestEnv(t, nil)
	env.srv.Fail("GET", "/users/me", apifytest.Failure{Status: 502, Type: "bad-gateway", Message: "upstream"})

	sh := observability.CheckAll(context.Background(), "apifykit", "dev", env.conn)
	assert.Equal(t, observability.HealthStatusDegraded, sh.Status)
	assert.False(t, sh.IsUp())
}
