package web

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"pscal/internal/config"
	"pscal/internal/ics"
	appLog "pscal/internal/log"
	"pscal/internal/model"
	"pscal/internal/schedule"
)

const (
	defaultListCount = 12
	maxListCount     = 500
	feedCacheTTL     = 5 * time.Minute
)

// NextSource supplies a precomputed next event, e.g. the reminder scheduler.
type NextSource interface {
	Next() (model.Event, bool)
}

// Server exposes the calendar over HTTP.
type Server struct {
	cfg     *config.Config
	cal     *schedule.Calendar
	next    NextSource
	details model.Details
	loc     *time.Location
	mux     *http.ServeMux
	now     func() time.Time

	// Serialized /calendar.ics body, rebuilt once per day or after the TTL.
	feedMu    sync.RWMutex
	feedCache *feedCache
}

type feedCache struct {
	body      []byte
	day       schedule.Date
	updatedAt time.Time
}

// NewServer constructs a Server. next may be nil.
func NewServer(cfg *config.Config, cal *schedule.Calendar, next NextSource) *Server {
	s := &Server{
		cfg:  cfg,
		cal:  cal,
		next: next,
		details: model.Details{
			Name:     cfg.EventName,
			Location: cfg.Location,
			URL:      cfg.URL,
		},
		loc: resolveLocationOrLocal(cfg.Timezone),
		mux: http.NewServeMux(),
		now: time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the root handler, wrapped in basic auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware protects every path except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="pscal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Serve listens on cfg.Listen until ctx is canceled, then shuts down.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/next", s.handleNext)
	s.mux.HandleFunc("GET /api/offset", s.handleOffset)
	s.mux.HandleFunc("GET /api/date", s.handleDate)
	s.mux.HandleFunc("GET /api/count", s.handleCount)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	s.mux.HandleFunc("GET /calendar.ics", s.handleFeed)
}

func (s *Server) today() schedule.Date {
	return schedule.DateOf(s.now().In(s.loc))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleNext returns the first event on or after ?from= (default: today).
func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	from := s.today()
	explicit := r.URL.Query().Get("from") != ""
	if explicit {
		d, err := schedule.ParseDate(r.URL.Query().Get("from"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		from = d
	}

	if !explicit && s.next != nil {
		if ev, ok := s.next.Next(); ok && !ev.Date.Before(from) {
			writeJSON(w, http.StatusOK, ev)
			return
		}
	}

	date, ok := s.cal.NextEventAfter(from)
	if !ok {
		writeError(w, http.StatusNotFound, "no upcoming event: the calendar is in an open-ended hiatus")
		return
	}
	s.writeEvent(w, date)
}

// handleOffset returns the number of the event on ?date=.
func (s *Server) handleOffset(w http.ResponseWriter, r *http.Request) {
	date, err := schedule.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeEvent(w, date)
}

// handleDate returns the date of event number ?n=.
func (s *Server) handleDate(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.URL.Query().Get("n"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "n must be an integer")
		return
	}

	date, ok, err := s.cal.DateFromOffset(n)
	if err != nil {
		s.writeCalendarError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "event "+strconv.Itoa(n)+" has no known date")
		return
	}
	writeJSON(w, http.StatusOK, model.NewEvent(n, date, s.details))
}

type countResponse struct {
	Start          schedule.Date `json:"start"`
	End            schedule.Date `json:"end"`
	IgnoreHiatuses bool          `json:"ignore_hiatuses"`
	Count          int           `json:"count"`
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := schedule.ParseDate(q.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := schedule.ParseDate(q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ignore := parseBool(q.Get("ignore_hiatuses"))

	n, err := s.cal.CountEventsInRange(start, end, ignore)
	if err != nil {
		s.writeCalendarError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Start: start, End: end, IgnoreHiatuses: ignore, Count: n})
}

type eventsResponse struct {
	From   schedule.Date `json:"from"`
	Events []model.Event `json:"events"`
}

// handleEvents lists up to ?count= events starting at ?from= (default today).
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from := s.today()
	if v := q.Get("from"); v != "" {
		d, err := schedule.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		from = d
	}

	count := parseIntDefault(q.Get("count"), defaultListCount)
	if count <= 0 {
		count = defaultListCount
	}
	if count > maxListCount {
		count = maxListCount
	}

	events := model.Window(s.cal, from, 0, count, s.details)
	appLog.Debug("api events request", "from", from, "count", count, "returned", len(events))

	writeJSON(w, http.StatusOK, eventsResponse{From: from, Events: events})
}

// handleFeed serves the iCalendar feed around today.
func (s *Server) handleFeed(w http.ResponseWriter, _ *http.Request) {
	today := s.today()

	s.feedMu.RLock()
	fc := s.feedCache
	s.feedMu.RUnlock()

	if fc == nil || fc.day != today || s.now().Sub(fc.updatedAt) >= feedCacheTTL {
		events := model.Window(s.cal, today, s.cfg.Feed.Past, s.cfg.Feed.Future, s.details)

		var buf bytes.Buffer
		err := ics.WriteFeed(&buf, s.cal, events, ics.FeedOptions{
			Details:   s.details,
			Recurring: s.cfg.Feed.Recurring,
			Now:       s.now(),
		})
		if err != nil {
			appLog.Error("feed build failed", err)
			writeError(w, http.StatusInternalServerError, "failed to build calendar feed")
			return
		}

		fc = &feedCache{body: buf.Bytes(), day: today, updatedAt: s.now()}
		s.feedMu.Lock()
		s.feedCache = fc
		s.feedMu.Unlock()
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(fc.body)
}

// writeEvent numbers date and writes it, or the numbering error.
func (s *Server) writeEvent(w http.ResponseWriter, date schedule.Date) {
	n, err := s.cal.OffsetFromDate(date)
	if err != nil {
		s.writeCalendarError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.NewEvent(n, date, s.details))
}

// writeCalendarError maps argument errors to 400 and anything else to 500.
func (s *Server) writeCalendarError(w http.ResponseWriter, err error) {
	if errors.Is(err, schedule.ErrInvalidArgument) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	appLog.Error("calendar request failed", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
