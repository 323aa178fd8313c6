package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/driveschool/lesson-booking/internal/booking"
	"github.com/driveschool/lesson-booking/internal/schedule"
)

func findSlotsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		instructorID, err := uuid.Parse(q.Get("instructor_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_instructor_id", "instructor_id must be a valid UUID")
			return
		}

		durationMin, err := strconv.Atoi(q.Get("duration_minutes"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_duration", "duration_minutes must be an integer")
			return
		}

		slots, err := svc.FindSlots(r.Context(), instructorID, q.Get("date"), durationMin)
		if err != nil {
			handleSlotsError(w, err)
			return
		}

		// Empty is a valid answer, not an error.
		resp := make([]SlotResponse, 0, len(slots))
		for _, s := range slots {
			resp = append(resp, SlotResponse{Start: s.Start, End: s.End})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func createBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		instructorID, err := uuid.Parse(req.InstructorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_instructor_id", "instructor_id must be a valid UUID")
			return
		}

		studentID, err := uuid.Parse(req.StudentID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_student_id", "student_id must be a valid UUID")
			return
		}

		res, err := svc.Commit(r.Context(), instructorID, studentID, req.Start, req.DurationMinutes)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toReservationResponse(res))
	}
}

func getBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_reservation_id", "id must be a valid UUID")
			return
		}

		res, err := svc.GetReservation(r.Context(), id)
		if err != nil {
			handleTransitionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toReservationResponse(res))
	}
}

// transitionHandler serves confirm, cancel and complete, which differ
// only in the service method they call.
func transitionHandler(fn func(r *http.Request, id uuid.UUID) (*booking.Reservation, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_reservation_id", "id must be a valid UUID")
			return
		}

		res, err := fn(r, id)
		if err != nil {
			handleTransitionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toReservationResponse(res))
	}
}

func toReservationResponse(res *booking.Reservation) ReservationResponse {
	return ReservationResponse{
		ReservationID: res.ID,
		InstructorID:  res.InstructorID,
		StudentID:     res.StudentID,
		Start:         res.StartTime,
		End:           res.EndTime,
		Status:        string(res.Status),
		HoldExpiresAt: res.HoldExpiresAt,
	}
}

func handleSlotsError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, schedule.ErrInstructorNotFound):
		writeError(w, http.StatusNotFound, "instructor_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, schedule.ErrInstructorNotFound):
		writeError(w, http.StatusNotFound, "instructor_not_found", err.Error())
	case errors.Is(err, booking.ErrStudentNotFound):
		writeError(w, http.StatusNotFound, "student_not_found", err.Error())
	case errors.Is(err, booking.ErrSlotConflict):
		writeError(w, http.StatusConflict, "SLOT_ALREADY_BOOKED", "the requested window was booked by someone else, re-query slots")
	case errors.Is(err, booking.ErrTxTimeout):
		writeError(w, http.StatusConflict, "COMMIT_TIMEOUT", "the booking commit timed out, please retry")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrReservationNotFound):
		writeError(w, http.StatusNotFound, "reservation_not_found", err.Error())
	case errors.Is(err, booking.ErrHoldExpired):
		writeError(w, http.StatusConflict, "hold_expired", err.Error())
	case errors.Is(err, booking.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
