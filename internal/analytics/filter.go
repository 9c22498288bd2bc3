package analytics

import "fmt"

// FilterSpec narrows an aggregate query. OwnerID is mandatory and always
// enforced through the ownership join; every other field is optional and
// imposes no constraint when empty. Values are only ever bound as query
// parameters, never interpolated into SQL text.
type FilterSpec struct {
	OwnerID       uint
	ApplicationID string
	EventName     string
	StartDate     string
	EndDate       string
}

// CacheKey returns the deterministic summary-cache key for the filter.
// Omitted fields collapse to fixed sentinels so semantically equal filters
// always share a key.
func (f FilterSpec) CacheKey() string {
	appID := f.ApplicationID
	if appID == "" {
		appID = "all"
	}
	event := f.EventName
	if event == "" {
		event = "all"
	}
	start := f.StartDate
	if start == "" {
		start = "none"
	}
	end := f.EndDate
	if end == "" {
		end = "none"
	}
	return fmt.Sprintf("summary:%d:%s:%s:%s:%s", f.OwnerID, appID, event, start, end)
}

// predicates returns the WHERE tail shared by both aggregate queries and
// its ordered parameter list. Events are only visible through applications
// owned by OwnerID.
func (f FilterSpec) predicates() (string, []any) {
	sql := ` WHERE a.user_id = ?`
	args := []any{f.OwnerID}

	if f.ApplicationID != "" {
		sql += ` AND a.id = ?`
		args = append(args, f.ApplicationID)
	}
	if f.EventName != "" {
		sql += ` AND e.event_name = ?`
		args = append(args, f.EventName)
	}
	if f.StartDate != "" {
		sql += ` AND e.timestamp >= ?`
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		sql += ` AND e.timestamp <= ?`
		args = append(args, f.EndDate)
	}
	return sql, args
}

// TotalsQuery returns the parameterized query for the total event count
// and distinct end-user count matching the filter.
func (f FilterSpec) TotalsQuery() (string, []any) {
	where, args := f.predicates()
	sql := `SELECT COUNT(*) AS count, COUNT(DISTINCT NULLIF(e.user_id, '')) AS unique_users
		FROM events e
		JOIN applications a ON e.application_id = a.id` + where
	return sql, args
}

// deviceBucket folds absent device values into the "unknown" bucket.
const deviceBucket = `COALESCE(NULLIF(e.device, ''), 'unknown')`

// DeviceQuery returns the parameterized per-device breakdown for the same
// filter.
func (f FilterSpec) DeviceQuery() (string, []any) {
	where, args := f.predicates()
	sql := `SELECT ` + deviceBucket + ` AS device, COUNT(*) AS count
		FROM events e
		JOIN applications a ON e.application_id = a.id` + where +
		` GROUP BY ` + deviceBucket
	return sql, args
}
