package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"example.com/clubadmin/internal/auth"
	"example.com/clubadmin/internal/domain"
	"example.com/clubadmin/internal/schedule"
)

// TemplatePayload carries the stored bulk template rows.
type TemplatePayload struct {
	TemplateData []schedule.TemplateRow `json:"template_data"`
}

// TemplateResponse wraps the template as the dashboard expects it.
type TemplateResponse struct {
	Template TemplatePayload `json:"template"`
}

// GenerateRequest is the payload for POST /api/admin/bulk-template/generate.
type GenerateRequest struct {
	StartDate string `json:"start_date"`
	Weeks     int    `json:"weeks"`
	// TemplateData overrides the stored template when present.
	TemplateData []schedule.TemplateRow `json:"template_data,omitempty"`
}

// GenerateResponse reports the outcome of a generation run.
type GenerateResponse struct {
	RunID       string                `json:"run_id"`
	Outcome     string                `json:"outcome"`
	StartDate   string                `json:"start_date"`
	Weeks       int                   `json:"weeks"`
	Requested   int                   `json:"requested"`
	Created     int                   `json:"created"`
	Failed      int                   `json:"failed"`
	ActivityIDs []string              `json:"activity_ids"`
	Skipped     []schedule.SkippedRow `json:"skipped"`
	Failures    []FailureView         `json:"failures"`
}

// FailureView describes one activity the run could not persist.
type FailureView struct {
	Index   int       `json:"index"`
	Title   string    `json:"title"`
	StartAt time.Time `json:"start_at"`
	Error   string    `json:"error"`
}

// BlankTitlesResponse rejects a generation run whose template has untitled rows.
type BlankTitlesResponse struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
	Count  int    `json:"count"`
	Rows   []int  `json:"rows"`
}

func (h *Handler) bulkTemplate(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getTemplate(w, r)
	case http.MethodPost, http.MethodPut:
		h.saveTemplate(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) getTemplate(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, auth.ScopeScheduleRead, auth.ScopeScheduleWrite)
	if !ok {
		return
	}

	rows, err := h.service.GetTemplate(r.Context(), claims.ClubID, claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, TemplateResponse{Template: TemplatePayload{TemplateData: rows}})
}

func (h *Handler) saveTemplate(w http.ResponseWriter, r *http.Request) {
	claims, ok := authorize(w, r, auth.ScopeScheduleWrite)
	if !ok {
		return
	}

	var req TemplatePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	rows, err := h.service.SaveTemplate(r.Context(), claims.ClubID, claims.Subject, req.TemplateData)
	if err != nil {
		var rowErr *schedule.RowError
		if errors.As(err, &rowErr) {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, TemplateResponse{Template: TemplatePayload{TemplateData: rows}})
}

func (h *Handler) generateSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := authorize(w, r, auth.ScopeScheduleWrite)
	if !ok {
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	start, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(req.StartDate), h.service.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "start_date must be YYYY-MM-DD")
		return
	}

	report, err := h.service.GenerateSchedule(r.Context(), domain.GenerateInput{
		ClubID:    claims.ClubID,
		AdminID:   claims.Subject,
		StartDate: start,
		Weeks:     req.Weeks,
		Rows:      req.TemplateData,
	})
	if err != nil {
		var blank *schedule.BlankTitleError
		switch {
		case errors.As(err, &blank):
			writeJSON(w, http.StatusBadRequest, BlankTitlesResponse{
				Type:   "blank_titles",
				Detail: blank.Error(),
				Count:  blank.Count,
				Rows:   blank.Rows,
			})
		case errors.Is(err, schedule.ErrInvalidWeeks), errors.Is(err, schedule.ErrEmptyTemplate), errors.Is(err, schedule.ErrStartNotMonday):
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		}
		return
	}

	status := http.StatusCreated
	if report.Outcome() != domain.RunComplete {
		status = http.StatusOK
	}
	writeJSON(w, status, toGenerateResponse(report))
}

func toGenerateResponse(report *domain.BulkReport) GenerateResponse {
	resp := GenerateResponse{
		RunID:       report.RunID,
		Outcome:     report.Outcome(),
		StartDate:   report.StartDate.Format(time.DateOnly),
		Weeks:       report.Weeks,
		Requested:   report.Requested,
		Created:     len(report.Created),
		Failed:      len(report.Failures),
		ActivityIDs: make([]string, 0, len(report.Created)),
		Skipped:     report.Skipped,
		Failures:    make([]FailureView, 0, len(report.Failures)),
	}
	if resp.Skipped == nil {
		resp.Skipped = []schedule.SkippedRow{}
	}
	for _, a := range report.Created {
		resp.ActivityIDs = append(resp.ActivityIDs, a.ID)
	}
	for _, f := range report.Failures {
		resp.Failures = append(resp.Failures, FailureView{
			Index:   f.Index,
			Title:   f.Title,
			StartAt: f.StartAt,
			Error:   f.Err.Error(),
		})
	}
	return resp
}
