package middleware

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	httpctx "eventpulse/internal/http/ctx"
	"eventpulse/internal/keys"
)

type resolverFunc func(ctx context.Context, plaintext string) (uint, error)

func (f resolverFunc) Resolve(ctx context.Context, plaintext string) (uint, error) {
	return f(ctx, plaintext)
}

func runAPIKeyAuth(resolver Resolver, apiKey string) (*fasthttp.RequestCtx, bool) {
	var called bool
	handler := APIKeyAuth(resolver)(func(ctx *fasthttp.RequestCtx) {
		called = true
		ctx.SetStatusCode(fasthttp.StatusCreated)
	})

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(fasthttp.MethodPost)
	ctx.Request.SetRequestURI("/api/analytics/collect")
	if apiKey != "" {
		ctx.Request.Header.Set("x-api-key", apiKey)
	}
	handler(&ctx)
	return &ctx, called
}

func TestAPIKeyAuth_MissingHeader(t *testing.T) {
	resolver := resolverFunc(func(context.Context, string) (uint, error) {
		t.Fatal("resolver must not be called without a key")
		return 0, nil
	})

	ctx, called := runAPIKeyAuth(resolver, "")
	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "No API Key provided")
}

func TestAPIKeyAuth_InvalidKey(t *testing.T) {
	resolver := resolverFunc(func(_ context.Context, plaintext string) (uint, error) {
		return 0, fmt.Errorf("invalid key: %w", keys.ErrUnauthenticated)
	})

	ctx, called := runAPIKeyAuth(resolver, "key_live_bogus")
	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "Invalid API Key")
}

func TestAPIKeyAuth_StoreError(t *testing.T) {
	resolver := resolverFunc(func(context.Context, string) (uint, error) {
		return 0, errors.New("connection refused")
	})

	ctx, called := runAPIKeyAuth(resolver, "key_live_x")
	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusInternalServerError, ctx.Response.StatusCode())
}

func TestAPIKeyAuth_ValidKeySetsAppID(t *testing.T) {
	resolver := resolverFunc(func(_ context.Context, plaintext string) (uint, error) {
		assert.Equal(t, "key_live_good", plaintext)
		return 42, nil
	})

	ctx, called := runAPIKeyAuth(resolver, "key_live_good")
	assert.True(t, called)
	assert.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode())

	appID, ok := httpctx.AppIDFromCtx(ctx)
	assert.True(t, ok)
	assert.Equal(t, uint(42), appID)
}
