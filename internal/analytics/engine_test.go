package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"eventpulse/internal/cache"
	dbpkg "eventpulse/internal/db"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, dbpkg.Migrate(gdb))
	return gdb
}

func newTestEngine(t *testing.T, gdb *gorm.DB) (*Engine, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := cache.New("redis://"+mr.Addr(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return NewEngine(gdb, c, 5*time.Minute, zap.NewNop()), mr
}

func seedOwnerApp(t *testing.T, gdb *gorm.DB, email string) (*dbpkg.User, *dbpkg.Application) {
	t.Helper()
	user := &dbpkg.User{Email: email}
	require.NoError(t, gdb.Create(user).Error)
	app := &dbpkg.Application{UserID: user.ID, Name: "Shop"}
	require.NoError(t, gdb.Create(app).Error)
	return user, app
}

func seedEvent(t *testing.T, gdb *gorm.DB, appID uint, name, userID, device string, ts time.Time) {
	t.Helper()
	require.NoError(t, gdb.Create(&dbpkg.Event{
		ApplicationID: appID,
		EventName:     name,
		UserID:        userID,
		Device:        device,
		Timestamp:     ts,
	}).Error)
}

func TestSummarize_NoFilters(t *testing.T) {
	gdb := newTestDB(t)
	engine, _ := newTestEngine(t, gdb)
	owner, app := seedOwnerApp(t, gdb, "dev@example.com")

	now := time.Now()
	seedEvent(t, gdb, app.ID, "page_view", "u1", "ios", now)
	seedEvent(t, gdb, app.ID, "page_view", "u1", "", now)
	seedEvent(t, gdb, app.ID, "signup", "u2", "android", now)

	s, err := engine.Summarize(context.Background(), FilterSpec{OwnerID: owner.ID})
	require.NoError(t, err)

	assert.Equal(t, "all_events", s.Event)
	assert.Equal(t, int64(3), s.Count)
	assert.Equal(t, int64(2), s.UniqueUsers)
	assert.Equal(t, map[string]int64{"ios": 1, "unknown": 1, "android": 1}, s.DeviceData)
}

func TestSummarize_EventFilter(t *testing.T) {
	gdb := newTestDB(t)
	engine, _ := newTestEngine(t, gdb)
	owner, app := seedOwnerApp(t, gdb, "dev@example.com")

	now := time.Now()
	seedEvent(t, gdb, app.ID, "page_view", "u1", "ios", now)
	seedEvent(t, gdb, app.ID, "signup", "u2", "android", now)

	s, err := engine.Summarize(context.Background(), FilterSpec{OwnerID: owner.ID, EventName: "signup"})
	require.NoError(t, err)

	assert.Equal(t, "signup", s.Event)
	assert.Equal(t, int64(1), s.Count)
	assert.Equal(t, map[string]int64{"android": 1}, s.DeviceData)
}

func TestSummarize_ScopedToOwner(t *testing.T) {
	gdb := newTestDB(t)
	engine, _ := newTestEngine(t, gdb)
	owner, app := seedOwnerApp(t, gdb, "dev@example.com")
	_, foreignApp := seedOwnerApp(t, gdb, "other@example.com")

	now := time.Now()
	seedEvent(t, gdb, app.ID, "page_view", "u1", "", now)
	seedEvent(t, gdb, foreignApp.ID, "page_view", "u9", "", now)

	s, err := engine.Summarize(context.Background(), FilterSpec{OwnerID: owner.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.Count)
}

func TestSummarize_SecondCallServedFromCache(t *testing.T) {
	gdb := newTestDB(t)
	engine, _ := newTestEngine(t, gdb)
	owner, app := seedOwnerApp(t, gdb, "dev@example.com")
	seedEvent(t, gdb, app.ID, "page_view", "u1", "ios", time.Now())

	spec := FilterSpec{OwnerID: owner.ID}
	first, err := engine.Summarize(context.Background(), spec)
	require.NoError(t, err)

	// Wipe the store. The cached payload must still come back, proving
	// the hit path never touches the event table.
	require.NoError(t, gdb.Where("1 = 1").Delete(&dbpkg.Event{}).Error)

	second, err := engine.Summarize(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// A semantically identical spec shares the entry.
	third, err := engine.Summarize(context.Background(), FilterSpec{OwnerID: owner.ID, EventName: ""})
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestSummarize_RecomputesAfterTTL(t *testing.T) {
	gdb := newTestDB(t)
	engine, mr := newTestEngine(t, gdb)
	owner, app := seedOwnerApp(t, gdb, "dev@example.com")
	seedEvent(t, gdb, app.ID, "page_view", "u1", "ios", time.Now())

	spec := FilterSpec{OwnerID: owner.ID}
	_, err := engine.Summarize(context.Background(), spec)
	require.NoError(t, err)

	require.NoError(t, gdb.Where("1 = 1").Delete(&dbpkg.Event{}).Error)
	mr.FastForward(5*time.Minute + time.Second)

	s, err := engine.Summarize(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, int64(0), s.Count)
}

func TestSummarize_UnreachableBackendDegradesToComputation(t *testing.T) {
	gdb := newTestDB(t)
	engine, mr := newTestEngine(t, gdb)
	owner, app := seedOwnerApp(t, gdb, "dev@example.com")
	seedEvent(t, gdb, app.ID, "page_view", "u1", "", time.Now())

	mr.Close()

	// Both the read and the write fail against the dead backend; the
	// request must still succeed.
	s, err := engine.Summarize(context.Background(), FilterSpec{OwnerID: owner.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.Count)
}

func TestSummarize_DisabledCache(t *testing.T) {
	gdb := newTestDB(t)
	c, err := cache.New("", zap.NewNop())
	require.NoError(t, err)
	engine := NewEngine(gdb, c, 5*time.Minute, zap.NewNop())

	owner, app := seedOwnerApp(t, gdb, "dev@example.com")
	seedEvent(t, gdb, app.ID, "page_view", "u1", "", time.Now())

	s, err := engine.Summarize(context.Background(), FilterSpec{OwnerID: owner.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.Count)
}

func TestSummarize_MatchesDirectComputation(t *testing.T) {
	gdb := newTestDB(t)
	engine, _ := newTestEngine(t, gdb)
	owner, app := seedOwnerApp(t, gdb, "dev@example.com")

	now := time.Now()
	seedEvent(t, gdb, app.ID, "page_view", "u1", "ios", now)
	seedEvent(t, gdb, app.ID, "page_view", "u2", "ios", now)

	spec := FilterSpec{OwnerID: owner.ID}
	direct, err := engine.compute(context.Background(), spec)
	require.NoError(t, err)

	cached, err := engine.Summarize(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, direct, cached)
}

func TestUserStats(t *testing.T) {
	gdb := newTestDB(t)
	engine, _ := newTestEngine(t, gdb)
	owner, app := seedOwnerApp(t, gdb, "dev@example.com")

	earlier := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	latest := time.Now().UTC().Truncate(time.Second)

	seedEvent(t, gdb, app.ID, "page_view", "user789", "ios", earlier)
	require.NoError(t, gdb.Create(&dbpkg.Event{
		ApplicationID: app.ID,
		EventName:     "purchase",
		UserID:        "user789",
		IPAddress:     "203.0.113.9",
		Metadata:      datatypes.JSONMap{"browser": "Firefox", "os": "Linux"},
		Timestamp:     latest,
	}).Error)

	stats, err := engine.UserStats(context.Background(), owner.ID, "user789")
	require.NoError(t, err)

	assert.Equal(t, "user789", stats.UserID)
	assert.Equal(t, int64(2), stats.TotalEvents)
	assert.Equal(t, "Firefox", stats.DeviceDetails.Browser)
	assert.Equal(t, "Linux", stats.DeviceDetails.OS)
	assert.Equal(t, "203.0.113.9", stats.IPAddress)
	assert.Equal(t, latest.Unix(), stats.LastSeen.Unix())
}

func TestUserStats_UnknownUser(t *testing.T) {
	gdb := newTestDB(t)
	engine, _ := newTestEngine(t, gdb)
	owner, _ := seedOwnerApp(t, gdb, "dev@example.com")

	_, err := engine.UserStats(context.Background(), owner.ID, "ghost")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestUserStats_ScopedToOwner(t *testing.T) {
	gdb := newTestDB(t)
	engine, _ := newTestEngine(t, gdb)
	_, app := seedOwnerApp(t, gdb, "dev@example.com")
	other, _ := seedOwnerApp(t, gdb, "other@example.com")

	seedEvent(t, gdb, app.ID, "page_view", "user789", "", time.Now())

	// The end user exists, but under someone else's application.
	_, err := engine.UserStats(context.Background(), other.ID, "user789")
	assert.ErrorIs(t, err, ErrNoData)
}
