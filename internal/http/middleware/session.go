package middleware

import (
	"strconv"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"eventpulse/internal/config"
	dbpkg "eventpulse/internal/db"
	httpctx "eventpulse/internal/http/ctx"
)

// SessionAuth loads the signed-in owner from the session cookie and sets
// it on the request context. Requests without a valid session get 401.
func SessionAuth(gdb *gorm.DB, cfg *config.Config) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			cookie := ctx.Request.Header.Cookie(cfg.SessionCookie)
			if len(cookie) == 0 {
				jsonError(ctx, fasthttp.StatusUnauthorized, "User not authenticated")
				return
			}

			id, err := strconv.Atoi(string(cookie))
			if err != nil || id <= 0 {
				jsonError(ctx, fasthttp.StatusUnauthorized, "User not authenticated")
				return
			}

			var user dbpkg.User
			if err := gdb.First(&user, id).Error; err != nil {
				jsonError(ctx, fasthttp.StatusUnauthorized, "User not authenticated")
				return
			}

			httpctx.SetUser(ctx, &user)
			next(ctx)
		}
	}
}
