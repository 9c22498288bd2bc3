package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"eventpulse/internal/cache"
)

// ErrNoData is returned by UserStats when the developer has no events for
// the requested end user.
var ErrNoData = errors.New("no matching events")

var (
	summaryCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "eventpulse",
		Name:      "summary_cache_hits_total",
		Help:      "Summary requests served from the distributed cache.",
	})
	summaryCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "eventpulse",
		Name:      "summary_cache_misses_total",
		Help:      "Summary requests computed against the event store.",
	})
)

// RegisterMetrics registers the engine's counters with the default
// prometheus registry. Call once at startup.
func RegisterMetrics() {
	prometheus.MustRegister(summaryCacheHits, summaryCacheMisses)
}

// Summary is the aggregate payload for a filter.
type Summary struct {
	Event       string           `json:"event"`
	Count       int64            `json:"count"`
	UniqueUsers int64            `json:"uniqueUsers"`
	DeviceData  map[string]int64 `json:"deviceData"`
}

// DeviceDetails is the browser/os pair pulled from the latest event's
// metadata.
type DeviceDetails struct {
	Browser string `json:"browser"`
	OS      string `json:"os"`
}

// UserStats describes a single end user across the developer's
// applications.
type UserStats struct {
	UserID        string        `json:"userId"`
	TotalEvents   int64         `json:"totalEvents"`
	DeviceDetails DeviceDetails `json:"deviceDetails"`
	IPAddress     string        `json:"ipAddress"`
	LastSeen      time.Time     `json:"lastSeen"`
}

// Engine answers reporting requests through the cache-aside summary cache.
type Engine struct {
	db    *gorm.DB
	cache cache.Cache
	ttl   time.Duration
	log   *zap.Logger
}

// NewEngine wires the aggregation engine to the event store and the
// distributed cache.
func NewEngine(gdb *gorm.DB, c cache.Cache, ttl time.Duration, log *zap.Logger) *Engine {
	return &Engine{db: gdb, cache: c, ttl: ttl, log: log}
}

// Summarize computes the aggregate summary for spec, reading through the
// summary cache. An unreachable backend is treated as a miss on the read
// path and ignored on the write path; it never fails the request.
func (e *Engine) Summarize(ctx context.Context, spec FilterSpec) (*Summary, error) {
	key := spec.CacheKey()

	if data, err := e.cache.Get(ctx, key); err == nil {
		var s Summary
		if err := json.Unmarshal(data, &s); err == nil {
			summaryCacheHits.Inc()
			return &s, nil
		}
		e.log.Warn("discarding undecodable summary cache entry", zap.String("key", key))
	} else if !errors.Is(err, cache.ErrCacheMiss) && !errors.Is(err, cache.ErrDisabled) {
		e.log.Warn("summary cache read failed", zap.String("key", key), zap.Error(err))
	}
	summaryCacheMisses.Inc()

	s, err := e.compute(ctx, spec)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(s); err == nil {
		if err := e.cache.Set(ctx, key, data, e.ttl); err != nil && !errors.Is(err, cache.ErrDisabled) {
			e.log.Warn("summary cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return s, nil
}

// compute runs both aggregate queries directly against the event store.
func (e *Engine) compute(ctx context.Context, spec FilterSpec) (*Summary, error) {
	totalsSQL, totalsArgs := spec.TotalsQuery()
	var totals struct {
		Count       int64
		UniqueUsers int64
	}
	if err := e.db.WithContext(ctx).Raw(totalsSQL, totalsArgs...).Scan(&totals).Error; err != nil {
		return nil, err
	}

	deviceSQL, deviceArgs := spec.DeviceQuery()
	var deviceRows []struct {
		Device string
		Count  int64
	}
	if err := e.db.WithContext(ctx).Raw(deviceSQL, deviceArgs...).Scan(&deviceRows).Error; err != nil {
		return nil, err
	}

	event := spec.EventName
	if event == "" {
		event = "all_events"
	}
	s := &Summary{
		Event:       event,
		Count:       totals.Count,
		UniqueUsers: totals.UniqueUsers,
		DeviceData:  make(map[string]int64, len(deviceRows)),
	}
	for _, row := range deviceRows {
		s.DeviceData[row.Device] = row.Count
	}
	return s, nil
}

// UserStats reports totals and last-seen details for one of the
// developer's end users. Both queries are scoped through the ownership
// join. Not cached: the view is low-volume and freshness matters more.
func (e *Engine) UserStats(ctx context.Context, ownerID uint, userID string) (*UserStats, error) {
	var total int64
	err := e.db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM events e
		 JOIN applications a ON e.application_id = a.id
		 WHERE a.user_id = ? AND e.user_id = ?`,
		ownerID, userID,
	).Scan(&total).Error
	if err != nil {
		return nil, err
	}

	var last []struct {
		Metadata  datatypes.JSONMap
		IPAddress string
		Timestamp time.Time
	}
	err = e.db.WithContext(ctx).Raw(
		`SELECT e.metadata AS metadata, e.ip_address AS ip_address, e.timestamp AS timestamp
		 FROM events e
		 JOIN applications a ON e.application_id = a.id
		 WHERE a.user_id = ? AND e.user_id = ?
		 ORDER BY e.timestamp DESC
		 LIMIT 1`,
		ownerID, userID,
	).Scan(&last).Error
	if err != nil {
		return nil, err
	}
	if len(last) == 0 {
		return nil, ErrNoData
	}

	stats := &UserStats{
		UserID:      userID,
		TotalEvents: total,
		IPAddress:   last[0].IPAddress,
		LastSeen:    last[0].Timestamp,
	}
	if v, ok := last[0].Metadata["browser"].(string); ok {
		stats.DeviceDetails.Browser = v
	}
	if v, ok := last[0].Metadata["os"].(string); ok {
		stats.DeviceDetails.OS = v
	}
	return stats, nil
}
