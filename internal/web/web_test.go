package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pscal/internal/config"
	"pscal/internal/model"
	"pscal/internal/schedule"
)

type staticNext struct {
	ev model.Event
	ok bool
}

func (s staticNext) Next() (model.Event, bool) { return s.ev, s.ok }

func newTestServer(t *testing.T, cal *schedule.Calendar, next NextSource) *Server {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	if cal == nil {
		cal = schedule.Default()
	}

	s := NewServer(cfg, cal, next)
	s.now = func() time.Time { return time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC) }
	return s
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeEvent(t *testing.T, rec *httptest.ResponseRecorder) model.Event {
	t.Helper()

	var ev model.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
	return ev
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec := get(t, newTestServer(t, nil, nil).Handler(), "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())
}

func TestNext(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, nil, nil).Handler()

	rec := get(t, h, "/api/next")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, schedule.NewDate(2026, time.November, 12), decodeEvent(t, rec).Date)

	rec = get(t, h, "/api/next?from=2020-05-01")
	require.Equal(t, http.StatusOK, rec.Code)
	ev := decodeEvent(t, rec)
	require.Equal(t, 172, ev.Number)
	require.Equal(t, "Pub Standards #172", ev.Summary)

	rec = get(t, h, "/api/next?from=yesterday")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNextUsesSource(t *testing.T) {
	t.Parallel()

	cached := model.Event{Number: 999, Date: schedule.NewDate(2026, time.November, 12)}
	h := newTestServer(t, nil, staticNext{ev: cached, ok: true}).Handler()

	rec := get(t, h, "/api/next")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 999, decodeEvent(t, rec).Number)

	stale := model.Event{Number: 1, Date: schedule.Epoch}
	h = newTestServer(t, nil, staticNext{ev: stale, ok: true}).Handler()
	rec = get(t, h, "/api/next")
	require.Equal(t, schedule.NewDate(2026, time.November, 12), decodeEvent(t, rec).Date)
}

func TestNextInOpenHiatus(t *testing.T) {
	t.Parallel()

	cal, err := schedule.NewCalendar(schedule.Epoch, []schedule.Hiatus{{Start: schedule.NewDate(2025, time.March, 1)}})
	require.NoError(t, err)

	rec := get(t, newTestServer(t, cal, nil).Handler(), "/api/next")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "hiatus")
}

func TestOffset(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, nil, nil).Handler()

	rec := get(t, h, "/api/offset?date=2005-12-15")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, decodeEvent(t, rec).Number)

	for _, target := range []string{
		"/api/offset?date=2005-11-17",
		"/api/offset?date=2024-09-13",
		"/api/offset?date=2022-06-16",
		"/api/offset",
	} {
		rec = get(t, h, target)
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestDate(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, nil, nil).Handler()

	rec := get(t, h, "/api/date?n=172")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, schedule.NewDate(2024, time.September, 12), decodeEvent(t, rec).Date)

	require.Equal(t, http.StatusBadRequest, get(t, h, "/api/date?n=0").Code)
	require.Equal(t, http.StatusBadRequest, get(t, h, "/api/date?n=-1").Code)
	require.Equal(t, http.StatusBadRequest, get(t, h, "/api/date?n=x").Code)

	cal, err := schedule.NewCalendar(schedule.Epoch, []schedule.Hiatus{{Start: schedule.NewDate(2006, time.March, 1)}})
	require.NoError(t, err)
	rec = get(t, newTestServer(t, cal, nil).Handler(), "/api/date?n=4")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCount(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, nil, nil).Handler()

	rec := get(t, h, "/api/count?start=2020-02-14&end=2024-08-31&ignore_hiatuses=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp countResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 54, resp.Count)
	require.True(t, resp.IgnoreHiatuses)

	rec = get(t, h, "/api/count?start=2020-02-14&end=2024-08-31")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Zero(t, resp.Count)

	rec = get(t, h, "/api/count?start=2025-01-02&end=2025-01-01")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvents(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, nil, nil).Handler()

	rec := get(t, h, "/api/events?from=2024-08-01&count=3")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp eventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 3)
	require.Equal(t, 172, resp.Events[0].Number)
	require.Equal(t, 174, resp.Events[2].Number)

	rec = get(t, h, "/api/events")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, defaultListCount)
	require.Equal(t, schedule.NewDate(2026, time.November, 12), resp.Events[0].Date)
}

func TestFeed(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil, nil)
	h := s.Handler()

	rec := get(t, h, "/calendar.ics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/calendar"))
	require.Contains(t, rec.Body.String(), "DTSTART;VALUE=DATE:20261112")

	first := rec.Body.String()
	require.Equal(t, first, get(t, h, "/calendar.ics").Body.String())
	require.Equal(t, s.cfg.Feed.Past+s.cfg.Feed.Future, strings.Count(first, "BEGIN:VEVENT"))
}

func TestBasicAuth(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil, nil)
	s.cfg.BasicAuth = &config.BasicAuthConfig{Username: "ps", Password: "secret"}
	h := s.Handler()

	require.Equal(t, http.StatusOK, get(t, h, "/health").Code)
	require.Equal(t, http.StatusUnauthorized, get(t, h, "/api/next").Code)

	req := httptest.NewRequest(http.MethodGet, "/api/next", nil)
	req.SetBasicAuth("ps", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
