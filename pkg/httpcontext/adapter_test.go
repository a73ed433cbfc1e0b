package httpcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/tasktracker/pkg/logger"
)

func TestAttach_PropagatesRequestMetadata(t *testing.T) {
	var rc fasthttp.RequestCtx
	rc.Request.Header.Set("X-Request-ID", "req-1")
	rc.Request.Header.SetUserAgent("tests")
	rc.SetUserValue(ActorUserValue, "user-7")

	ctx, cancel := NewAdapter(time.Second).Attach(&rc)
	defer cancel()

	assert.Equal(t, "req-1", appLogger.RequestIDFromContext(ctx))
	assert.Equal(t, "req-1", string(rc.Response.Header.Peek("X-Request-ID")))
	assert.Equal(t, "tests", ctx.Value(KeyUserAgent))
	assert.Equal(t, "user-7", Actor(ctx))

	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 200*time.Millisecond)
}

func TestAttach_GeneratesStableRequestID(t *testing.T) {
	var rc fasthttp.RequestCtx

	ctx, cancel := NewAdapter(0).Attach(&rc)
	defer cancel()

	generated := appLogger.RequestIDFromContext(ctx)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, RequestID(&rc))
	assert.Empty(t, Actor(ctx))
}

func TestActor_Missing(t *testing.T) {
	assert.Empty(t, Actor(context.Background()))
}
