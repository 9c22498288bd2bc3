package middleware

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/valyala/fasthttp"

	httpctx "eventpulse/internal/http/ctx"
	"eventpulse/internal/keys"
)

// Resolver maps a plaintext API key to an application id.
type Resolver interface {
	Resolve(ctx context.Context, plaintext string) (uint, error)
}

// APIKeyAuth validates the x-api-key header through the resolver and sets
// the application id on the request context.
func APIKeyAuth(resolver Resolver) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			key := string(ctx.Request.Header.Peek("x-api-key"))
			if key == "" {
				jsonError(ctx, fasthttp.StatusUnauthorized, "Access denied. No API Key provided.")
				return
			}

			appID, err := resolver.Resolve(ctx, key)
			if err != nil {
				if errors.Is(err, keys.ErrUnauthenticated) {
					jsonError(ctx, fasthttp.StatusUnauthorized, "Invalid API Key.")
					return
				}
				jsonError(ctx, fasthttp.StatusInternalServerError, "Server error during authentication.")
				return
			}

			httpctx.SetAppID(ctx, appID)
			next(ctx)
		}
	}
}

func jsonError(ctx *fasthttp.RequestCtx, code int, msg string) {
	ctx.SetStatusCode(code)
	ctx.SetContentType("application/json")
	body, _ := json.Marshal(map[string]string{"message": msg})
	ctx.SetBody(body)
}
