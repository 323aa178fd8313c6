package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/driveschool/lesson-booking/internal/schedule"
)

const dateLayout = "2006-01-02"

// scheduleHandlers owns the instructor schedule management surface. The
// engine itself only reads these rows; every write here must invalidate
// the instructor's availability cache.
type scheduleHandlers struct {
	repo     schedule.Repository
	resolver *schedule.Resolver
}

func (h *scheduleHandlers) getAvailability(w http.ResponseWriter, r *http.Request) {
	instructorID, ins, ok := h.loadInstructor(w, r)
	if !ok {
		return
	}

	loc, err := time.LoadLocation(ins.Timezone)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", fmt.Sprintf("bad instructor timezone %q", ins.Timezone))
		return
	}

	day, err := time.ParseInLocation(dateLayout, r.URL.Query().Get("date"), loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	spans, err := h.resolver.Resolve(r.Context(), instructorID, day)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	resp := make([]WindowResponse, 0, len(spans))
	for _, s := range spans {
		resp = append(resp, WindowResponse{Start: minToClock(s.Start), End: minToClock(s.End)})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *scheduleHandlers) createRule(w http.ResponseWriter, r *http.Request) {
	instructorID, _, ok := h.loadInstructor(w, r)
	if !ok {
		return
	}

	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	if req.Weekday < 0 || req.Weekday > 6 {
		writeError(w, http.StatusBadRequest, "invalid_weekday", "weekday must be 0 (Sunday) through 6")
		return
	}
	if !validSpan(req.StartMin, req.EndMin) {
		writeError(w, http.StatusBadRequest, "invalid_window", "start_min/end_min must satisfy 0 <= start < end <= 1440")
		return
	}

	rule, err := h.repo.CreateRule(r.Context(), schedule.WeeklyRule{
		InstructorID: instructorID,
		Weekday:      req.Weekday,
		StartMin:     req.StartMin,
		EndMin:       req.EndMin,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	h.resolver.Invalidate(r.Context(), instructorID)
	writeJSON(w, http.StatusCreated, rule)
}

func (h *scheduleHandlers) deleteRule(w http.ResponseWriter, r *http.Request) {
	h.deleteEntity(w, r, "ruleID", h.repo.DeleteRule, schedule.ErrRuleNotFound, "rule_not_found")
}

func (h *scheduleHandlers) createTimeOff(w http.ResponseWriter, r *http.Request) {
	instructorID, _, ok := h.loadInstructor(w, r)
	if !ok {
		return
	}

	var req CreateTimeOffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	if (req.StartMin == nil) != (req.EndMin == nil) {
		writeError(w, http.StatusBadRequest, "invalid_window", "start_min and end_min must be given together or both omitted")
		return
	}
	if req.StartMin != nil && !validSpan(*req.StartMin, *req.EndMin) {
		writeError(w, http.StatusBadRequest, "invalid_window", "start_min/end_min must satisfy 0 <= start < end <= 1440")
		return
	}

	off, err := h.repo.CreateTimeOff(r.Context(), schedule.TimeOff{
		InstructorID: instructorID,
		Date:         date,
		StartMin:     req.StartMin,
		EndMin:       req.EndMin,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	h.resolver.Invalidate(r.Context(), instructorID)
	writeJSON(w, http.StatusCreated, off)
}

func (h *scheduleHandlers) deleteTimeOff(w http.ResponseWriter, r *http.Request) {
	h.deleteEntity(w, r, "timeOffID", h.repo.DeleteTimeOff, schedule.ErrTimeOffNotFound, "time_off_not_found")
}

func (h *scheduleHandlers) createOverride(w http.ResponseWriter, r *http.Request) {
	instructorID, _, ok := h.loadInstructor(w, r)
	if !ok {
		return
	}

	var req CreateOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	polarity := schedule.Polarity(req.Polarity)
	if polarity != schedule.PolarityAdd && polarity != schedule.PolarityRemove {
		writeError(w, http.StatusBadRequest, "invalid_polarity", "polarity must be add or remove")
		return
	}
	if !validSpan(req.StartMin, req.EndMin) {
		writeError(w, http.StatusBadRequest, "invalid_window", "start_min/end_min must satisfy 0 <= start < end <= 1440")
		return
	}

	ov, err := h.repo.CreateOverride(r.Context(), schedule.Override{
		InstructorID: instructorID,
		Date:         date,
		StartMin:     req.StartMin,
		EndMin:       req.EndMin,
		Polarity:     polarity,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	h.resolver.Invalidate(r.Context(), instructorID)
	writeJSON(w, http.StatusCreated, ov)
}

func (h *scheduleHandlers) deleteOverride(w http.ResponseWriter, r *http.Request) {
	h.deleteEntity(w, r, "overrideID", h.repo.DeleteOverride, schedule.ErrOverrideNotFound, "override_not_found")
}

// Shared plumbing

func (h *scheduleHandlers) loadInstructor(w http.ResponseWriter, r *http.Request) (uuid.UUID, *schedule.Instructor, bool) {
	instructorID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_instructor_id", "id must be a valid UUID")
		return uuid.Nil, nil, false
	}

	ins, err := h.repo.GetInstructorByID(r.Context(), instructorID)
	if err != nil {
		if errors.Is(err, schedule.ErrInstructorNotFound) {
			writeError(w, http.StatusNotFound, "instructor_not_found", err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return uuid.Nil, nil, false
	}

	return instructorID, ins, true
}

func (h *scheduleHandlers) deleteEntity(
	w http.ResponseWriter,
	r *http.Request,
	param string,
	del func(ctx context.Context, instructorID, entityID uuid.UUID) error,
	notFound error,
	notFoundCode string,
) {
	instructorID, _, ok := h.loadInstructor(w, r)
	if !ok {
		return
	}

	entityID, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", param+" must be a valid UUID")
		return
	}

	if err := del(r.Context(), instructorID, entityID); err != nil {
		if errors.Is(err, notFound) {
			writeError(w, http.StatusNotFound, notFoundCode, err.Error())
		} else {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return
	}

	h.resolver.Invalidate(r.Context(), instructorID)
	w.WriteHeader(http.StatusNoContent)
}

func validSpan(start, end int) bool {
	return start >= 0 && start < end && end <= 24*60
}

func minToClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
