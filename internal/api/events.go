package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"example.com/clubadmin/internal/attendance"
	"example.com/clubadmin/internal/auth"
	"example.com/clubadmin/internal/domain"
)

// EventView exposes an event with its raw attendance.
type EventView struct {
	EventID      string              `json:"event_id"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	LocationName string              `json:"location_name"`
	StartAt      time.Time           `json:"start_at"`
	EndAt        time.Time           `json:"end_at"`
	Attendance   []attendance.Record `json:"attendance"`
}

// AttendeesByDayResponse is the bucketed attendee view of an event. Fallback
// tells the dashboard to render Attending as a flat list.
type AttendeesByDayResponse struct {
	EventID   string                         `json:"event_id"`
	Days      []string                       `json:"days"`
	FullEvent []attendance.Record            `json:"full_event"`
	ByDay     map[string][]attendance.Record `json:"by_day"`
	Warnings  []attendance.Warning           `json:"warnings"`
	Fallback  bool                           `json:"fallback"`
	Attending []attendance.Record            `json:"attending"`
}

func (h *Handler) eventRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/admin/events/"), "/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusNotFound, "not_found", "unknown event route")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	switch sub {
	case "":
		h.getEvent(w, r, id)
	case "attendees/by-day":
		h.attendeesByDay(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown event route")
	}
}

func (h *Handler) getEvent(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := authorize(w, r, auth.ScopeEventsRead)
	if !ok {
		return
	}

	event, err := h.service.GetEvent(r.Context(), claims.ClubID, id)
	if err != nil {
		writeEventError(w, err)
		return
	}
	records := event.Attendance
	if records == nil {
		records = []attendance.Record{}
	}
	writeJSON(w, http.StatusOK, EventView{
		EventID:      event.ID,
		Title:        event.Title,
		Description:  event.Description,
		LocationName: event.LocationName,
		StartAt:      event.StartAt,
		EndAt:        event.EndAt,
		Attendance:   records,
	})
}

func (h *Handler) attendeesByDay(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := authorize(w, r, auth.ScopeEventsRead)
	if !ok {
		return
	}

	event, grouping, err := h.service.GroupAttendees(r.Context(), claims.ClubID, id)
	if err != nil {
		writeEventError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AttendeesByDayResponse{
		EventID:   event.ID,
		Days:      grouping.Days,
		FullEvent: grouping.FullEvent,
		ByDay:     grouping.ByDay,
		Warnings:  grouping.Warnings,
		Fallback:  grouping.NeedsFallback(),
		Attending: grouping.Attending,
	})
}

func writeEventError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrEventNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "event not found")
		return
	}
	writeError(w, http.StatusInternalServerError, "server_error", err.Error())
}
