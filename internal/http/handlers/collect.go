package handlers

import (
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	dbpkg "eventpulse/internal/db"
	httpctx "eventpulse/internal/http/ctx"
)

var eventsCollectedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "eventpulse",
		Name:      "events_collected_total",
		Help:      "Total number of collected behavioral events.",
	},
	[]string{"event"},
)

// RegisterMetrics registers the handler counters with the default
// prometheus registry. Call once at startup.
func RegisterMetrics() {
	prometheus.MustRegister(eventsCollectedTotal)
}

type collectRequest struct {
	Event     string         `json:"event"`
	UserID    string         `json:"userId"`
	URL       string         `json:"url"`
	Referrer  string         `json:"referrer"`
	Device    string         `json:"device"`
	IPAddress string         `json:"ipAddress"`
	Metadata  map[string]any `json:"metadata"`
}

// Collect persists one behavioral event for the application resolved from
// the request's API key.
func Collect(gdb *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		appID, ok := httpctx.AppIDFromCtx(ctx)
		if !ok {
			errResponse(ctx, fasthttp.StatusUnauthorized, "Access denied. No API Key provided.")
			return
		}

		var req collectRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "Invalid JSON body.")
			return
		}
		if req.Event == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "Event name is required.")
			return
		}

		rec := dbpkg.Event{
			ApplicationID: appID,
			EventName:     req.Event,
			UserID:        req.UserID,
			URL:           req.URL,
			Referrer:      req.Referrer,
			Device:        req.Device,
			IPAddress:     req.IPAddress,
			Metadata:      datatypes.JSONMap(req.Metadata),
			Timestamp:     time.Now(),
		}

		if err := gdb.WithContext(ctx).Create(&rec).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Server error collecting event.")
			return
		}

		eventsCollectedTotal.WithLabelValues(req.Event).Inc()

		jsonResponse(ctx, fasthttp.StatusCreated, map[string]string{
			"status":  "success",
			"message": "Event collected.",
		})
	}
}
