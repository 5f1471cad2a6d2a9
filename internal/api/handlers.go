// Package api exposes the /api/admin HTTP handlers used by the club dashboard.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/clubadmin/internal/auth"
	"example.com/clubadmin/internal/calendar"
	"example.com/clubadmin/internal/domain"
	"example.com/clubadmin/internal/persistence"
	"example.com/clubadmin/internal/schedule"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	maxFeedSize     = 1000
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
	feed    calendar.Feed
	now     func() time.Time
}

// NewHandler builds a Handler. feed names the iCalendar export.
func NewHandler(service *domain.Service, feed calendar.Feed) *Handler {
	return &Handler{service: service, feed: feed, now: time.Now}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/admin/bulk-template", h.bulkTemplate)
	mux.HandleFunc("/api/admin/bulk-template/generate", h.generateSchedule)
	mux.HandleFunc("/api/admin/activities", h.activities)
	mux.HandleFunc("/api/admin/activities.ics", h.activityFeed)
	mux.HandleFunc("/api/admin/activities/", h.activityByID)
	mux.HandleFunc("/api/admin/events/", h.eventRoutes)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createActivity(w, r)
	case http.MethodGet:
		h.listActivities(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) activityByID(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/admin/activities/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not_found", "unknown activity route")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	h.getActivity(w, r, id)
}

func (h *Handler) createActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, auth.ScopeScheduleWrite)
	if !ok {
		return
	}

	var draft schedule.GeneratedActivity
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	activity, err := h.service.CreateActivity(r.Context(), claims.ClubID, draft)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidActivity) {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toActivityView(*activity))
}

func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := authorize(w, r, auth.ScopeScheduleRead, auth.ScopeScheduleWrite)
	if !ok {
		return
	}

	activity, err := h.service.GetActivity(r.Context(), claims.ClubID, id)
	if err != nil {
		if errors.Is(err, domain.ErrActivityNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "activity not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toActivityView(*activity))
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, auth.ScopeScheduleRead, auth.ScopeScheduleWrite)
	if !ok {
		return
	}

	filter, err := h.parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	limit := defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = min(parsed, maxPageSize)
		}
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	activities, next, err := h.service.ListActivities(r.Context(), claims.ClubID, filter, cursor, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]ActivityView, 0, len(activities))
	for _, a := range activities {
		items = append(items, toActivityView(a))
	}
	writeJSON(w, http.StatusOK, ListActivitiesResponse{
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	})
}

func (h *Handler) activityFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := authorize(w, r, auth.ScopeScheduleRead, auth.ScopeScheduleWrite)
	if !ok {
		return
	}

	filter, err := h.parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	activities, _, err := h.service.ListActivities(r.Context(), claims.ClubID, filter, nil, maxFeedSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="schedule.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.feed.Render(activities, h.now())))
}

// parseFilter reads from/to as RFC 3339 timestamps or YYYY-MM-DD dates in the
// club time zone. A bare "to" date is inclusive of that whole day.
func (h *Handler) parseFilter(r *http.Request) (domain.ActivityFilter, error) {
	var filter domain.ActivityFilter
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, _, err := parseInstant(raw, h.service.Location())
		if err != nil {
			return filter, errors.New("from must be RFC 3339 or YYYY-MM-DD")
		}
		filter.From = t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, dateOnly, err := parseInstant(raw, h.service.Location())
		if err != nil {
			return filter, errors.New("to must be RFC 3339 or YYYY-MM-DD")
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1)
		}
		filter.To = t
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.To.After(filter.From) {
		return filter, errors.New("to must be after from")
	}
	return filter, nil
}

func parseInstant(raw string, loc *time.Location) (time.Time, bool, error) {
	if t, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	return t, false, err
}

// authorize resolves the request claims and requires at least one of scopes.
func authorize(w http.ResponseWriter, r *http.Request, scopes ...string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	for _, scope := range scopes {
		if claims.HasScope(scope) {
			return claims, true
		}
	}
	writeError(w, http.StatusForbidden, "forbidden", "scope "+scopes[0]+" required")
	return nil, false
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
