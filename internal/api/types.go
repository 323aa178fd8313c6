package api

import (
	"time"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	InstructorID    string    `json:"instructor_id"`
	StudentID       string    `json:"student_id"`
	Start           time.Time `json:"start"`
	DurationMinutes int       `json:"duration_minutes"`
}

type ReservationResponse struct {
	ReservationID uuid.UUID  `json:"reservation_id"`
	InstructorID  uuid.UUID  `json:"instructor_id"`
	StudentID     uuid.UUID  `json:"student_id"`
	Start         time.Time  `json:"start"`
	End           time.Time  `json:"end"`
	Status        string     `json:"status"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
}

type SlotResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type WindowResponse struct {
	Start string `json:"start"` // HH:MM local
	End   string `json:"end"`
}

type CreateRuleRequest struct {
	Weekday  int `json:"weekday"`
	StartMin int `json:"start_min"`
	EndMin   int `json:"end_min"`
}

type CreateTimeOffRequest struct {
	Date     string `json:"date"` // YYYY-MM-DD
	StartMin *int   `json:"start_min,omitempty"`
	EndMin   *int   `json:"end_min,omitempty"`
}

type CreateOverrideRequest struct {
	Date     string `json:"date"`
	StartMin int    `json:"start_min"`
	EndMin   int    `json:"end_min"`
	Polarity string `json:"polarity"` // add, remove
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
