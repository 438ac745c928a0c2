package api

import (
	"github.com/google/uuid"

	"github.com/karmaclinic/clinic-scheduling/internal/scheduling"
)

// Dates cross the API boundary as "YYYY-MM-DD" and times as "HH:mm"; all
// values are local clinic time.

type CreateWindowRequest struct {
	PractitionerID string `json:"practitioner_id"`
	Kind           string `json:"kind"`
	Weekday        int    `json:"weekday,omitempty"`
	Date           string `json:"date,omitempty"`
	Start          string `json:"start"`
	End            string `json:"end"`
}

type WindowResponse struct {
	ID             uuid.UUID `json:"id"`
	PractitionerID uuid.UUID `json:"practitioner_id"`
	Kind           string    `json:"kind"`
	Weekday        int       `json:"weekday,omitempty"`
	Date           string    `json:"date,omitempty"`
	Start          string    `json:"start"`
	End            string    `json:"end"`
}

type BookAppointmentRequest struct {
	PatientID      string  `json:"patient_id"`
	PractitionerID string  `json:"practitioner_id"`
	Date           string  `json:"date"`
	Start          string  `json:"start"`
	End            string  `json:"end"`
	Notes          *string `json:"notes,omitempty"`
}

type RescheduleAppointmentRequest struct {
	Date  string  `json:"date"`
	Start string  `json:"start"`
	End   string  `json:"end"`
	Notes *string `json:"notes,omitempty"`
}

type PersonRef struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

type AppointmentResponse struct {
	ID           uuid.UUID `json:"id"`
	Date         string    `json:"date"`
	Start        string    `json:"start"`
	End          string    `json:"end"`
	Notes        *string   `json:"notes,omitempty"`
	Patient      PersonRef `json:"patient"`
	Practitioner PersonRef `json:"practitioner"`
}

type CheckSlotResponse struct {
	Available bool `json:"available"`
}

type DayScheduleResponse struct {
	Date         string                `json:"date"`
	Availability []WindowResponse      `json:"availability"`
	Appointments []AppointmentResponse `json:"appointments"`
}

type PatientResponse struct {
	ID        uuid.UUID  `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     *string    `json:"email,omitempty"`
	ServiceID *uuid.UUID `json:"service_id,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toWindowResponse(w scheduling.AvailabilityWindow) WindowResponse {
	resp := WindowResponse{
		ID:             w.ID,
		PractitionerID: w.PractitionerID,
		Kind:           string(w.Kind),
		Weekday:        w.Weekday,
		Start:          w.Span.Start.String(),
		End:            w.Span.End.String(),
	}
	if w.Kind == scheduling.WindowSpecific {
		resp.Date = w.Date.String()
	}
	return resp
}

func toAppointmentResponse(d scheduling.AppointmentDetail) AppointmentResponse {
	return AppointmentResponse{
		ID:           d.ID,
		Date:         d.Date.String(),
		Start:        d.Span.Start.String(),
		End:          d.Span.End.String(),
		Notes:        d.Notes,
		Patient:      PersonRef(d.Patient),
		Practitioner: PersonRef(d.Practitioner),
	}
}

func toPatientResponse(p scheduling.Patient) PatientResponse {
	return PatientResponse{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		ServiceID: p.ServiceID,
	}
}
