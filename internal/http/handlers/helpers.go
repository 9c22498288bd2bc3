package handlers

import (
	"encoding/json"

	"github.com/valyala/fasthttp"

	dbpkg "eventpulse/internal/db"
	httpctx "eventpulse/internal/http/ctx"
)

// MustUser returns the current user from context, or sends 401 and returns
// (nil, false).
func MustUser(ctx *fasthttp.RequestCtx) (*dbpkg.User, bool) {
	user, ok := httpctx.UserFromCtx(ctx)
	if !ok || user == nil {
		errResponse(ctx, fasthttp.StatusUnauthorized, "User not authenticated")
		return nil, false
	}
	return user, true
}

func jsonResponse(ctx *fasthttp.RequestCtx, code int, data any) {
	ctx.SetStatusCode(code)
	ctx.SetContentType("application/json")
	body, _ := json.Marshal(data)
	ctx.SetBody(body)
}

func errResponse(ctx *fasthttp.RequestCtx, code int, msg string) {
	jsonResponse(ctx, code, map[string]string{"message": msg})
}
