package ctx

import (
	"github.com/valyala/fasthttp"

	dbpkg "eventpulse/internal/db"
)

const (
	UserKey  = "user"
	AppIDKey = "appID"
)

// SetUser stores the signed-in owner on the request.
func SetUser(ctx *fasthttp.RequestCtx, user *dbpkg.User) {
	ctx.SetUserValue(UserKey, user)
}

// UserFromCtx returns the signed-in owner, if any.
func UserFromCtx(ctx *fasthttp.RequestCtx) (*dbpkg.User, bool) {
	v := ctx.UserValue(UserKey)
	if v == nil {
		return nil, false
	}
	u, ok := v.(*dbpkg.User)
	return u, ok
}

// SetAppID stores the application id resolved from the request's API key.
func SetAppID(ctx *fasthttp.RequestCtx, appID uint) {
	ctx.SetUserValue(AppIDKey, appID)
}

// AppIDFromCtx returns the resolved application id, if any.
func AppIDFromCtx(ctx *fasthttp.RequestCtx) (uint, bool) {
	v := ctx.UserValue(AppIDKey)
	if v == nil {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
