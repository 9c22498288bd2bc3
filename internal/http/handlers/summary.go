package handlers

import (
	"errors"

	"github.com/valyala/fasthttp"

	"eventpulse/internal/analytics"
)

// EventSummary answers an aggregate reporting request for the signed-in
// owner, honoring the optional event/app_id/date filters.
func EventSummary(engine *analytics.Engine) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}

		spec := analytics.FilterSpec{
			OwnerID:       user.ID,
			ApplicationID: string(ctx.QueryArgs().Peek("app_id")),
			EventName:     string(ctx.QueryArgs().Peek("event")),
			StartDate:     string(ctx.QueryArgs().Peek("startDate")),
			EndDate:       string(ctx.QueryArgs().Peek("endDate")),
		}

		summary, err := engine.Summarize(ctx, spec)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Server error retrieving event summary.")
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, summary)
	}
}

// UserStats reports totals and last-seen details for one of the owner's
// end users.
func UserStats(engine *analytics.Engine) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}

		userID := string(ctx.QueryArgs().Peek("userId"))
		if userID == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "userId query parameter is required.")
			return
		}

		stats, err := engine.UserStats(ctx, user.ID, userID)
		if err != nil {
			if errors.Is(err, analytics.ErrNoData) {
				errResponse(ctx, fasthttp.StatusNotFound, "User not found for this developer.")
				return
			}
			errResponse(ctx, fasthttp.StatusInternalServerError, "Server error retrieving user stats.")
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, stats)
	}
}
