package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	redisclient "github.com/karmaclinic/clinic-scheduling/internal/redis"
	"github.com/karmaclinic/clinic-scheduling/internal/scheduling"
	"github.com/karmaclinic/clinic-scheduling/internal/timeslot"
)

// Availability windows

func createWindowHandler(s *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateWindowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		practitionerID, err := uuid.Parse(req.PractitionerID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "practitioner_id must be a valid UUID")
			return
		}

		start, err := timeslot.ParseTimeOfDay(req.Start)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start", err.Error())
			return
		}
		end, err := timeslot.ParseTimeOfDay(req.End)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end", err.Error())
			return
		}

		input := scheduling.CreateWindowInput{
			PractitionerID: practitionerID,
			Kind:           scheduling.WindowKind(req.Kind),
			Weekday:        req.Weekday,
			Start:          start,
			End:            end,
		}
		if req.Date != "" {
			date, err := timeslot.ParseCalendarDate(req.Date)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
				return
			}
			input.Date = date
		}

		window, err := s.CreateWindow(r.Context(), input)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toWindowResponse(*window))
	}
}

func deleteWindowHandler(s *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}
		if err := s.DeleteWindow(r.Context(), id); err != nil {
			handleSchedulingError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listWindowsHandler(s *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}
		windows, err := s.ListWindows(r.Context(), id)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}
		resp := make([]WindowResponse, 0, len(windows))
		for _, win := range windows {
			resp = append(resp, toWindowResponse(win))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// checkSlotHandler reports only availability-window coverage; booked
// appointments are not consulted here.
func checkSlotHandler(s *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		practitionerID, err := uuid.Parse(q.Get("practitioner_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "practitioner_id must be a valid UUID")
			return
		}
		date, err := timeslot.ParseCalendarDate(q.Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
			return
		}
		start, err := timeslot.ParseTimeOfDay(q.Get("start"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start", err.Error())
			return
		}
		end, err := timeslot.ParseTimeOfDay(q.Get("end"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end", err.Error())
			return
		}

		available, err := s.CheckSlot(r.Context(), practitionerID, date, start, end)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, CheckSlotResponse{Available: available})
	}
}

// Appointments

func bookAppointmentHandler(s *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}
		practitionerID, err := uuid.Parse(req.PractitionerID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "practitioner_id must be a valid UUID")
			return
		}

		date, start, end, ok := parseSlotFields(w, req.Date, req.Start, req.End)
		if !ok {
			return
		}

		detail, err := s.Book(r.Context(), scheduling.BookingInput{
			PatientID:      patientID,
			PractitionerID: practitionerID,
			Date:           date,
			Start:          start,
			End:            end,
			Notes:          req.Notes,
		})
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(*detail))
	}
}

func getAppointmentHandler(s *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}
		detail, err := s.GetAppointment(r.Context(), id)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(*detail))
	}
}

func rescheduleAppointmentHandler(s *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req RescheduleAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		date, start, end, ok := parseSlotFields(w, req.Date, req.Start, req.End)
		if !ok {
			return
		}

		detail, err := s.Reschedule(r.Context(), id, scheduling.RescheduleInput{
			Date:  date,
			Start: start,
			End:   end,
			Notes: req.Notes,
		})
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(*detail))
	}
}

func cancelAppointmentHandler(s *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}
		if err := s.CancelAppointment(r.Context(), id); err != nil {
			handleSchedulingError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listPractitionerAppointmentsHandler(s *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}
		details, err := s.ListPractitionerAppointments(r.Context(), id)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}
		resp := make([]AppointmentResponse, 0, len(details))
		for _, d := range details {
			resp = append(resp, toAppointmentResponse(d))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// Calendar

func weekScheduleHandler(s *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}
		weekStart, err := timeslot.ParseCalendarDate(r.URL.Query().Get("start"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start", err.Error())
			return
		}

		days, err := s.WeekSchedule(r.Context(), id, weekStart)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		resp := make([]DayScheduleResponse, 0, len(days))
		for _, day := range days {
			dayResp := DayScheduleResponse{
				Date:         day.Date.String(),
				Availability: make([]WindowResponse, 0, len(day.Availability)),
				Appointments: make([]AppointmentResponse, 0, len(day.Appointments)),
			}
			for _, win := range day.Availability {
				dayResp.Availability = append(dayResp.Availability, toWindowResponse(win))
			}
			for _, appt := range day.Appointments {
				dayResp.Appointments = append(dayResp.Appointments, toAppointmentResponse(appt))
			}
			resp = append(resp, dayResp)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// Patients

func listPatientsHandler(s *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patients, err := s.ListPatients(r.Context())
		if err != nil {
			handleSchedulingError(w, err)
			return
		}
		resp := make([]PatientResponse, 0, len(patients))
		for _, p := range patients {
			resp = append(resp, toPatientResponse(p))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getPatientHandler(s *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}
		patient, err := s.GetPatient(r.Context(), id)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(*patient))
	}
}

// Helpers

func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func parseSlotFields(w http.ResponseWriter, dateStr, startStr, endStr string) (timeslot.CalendarDate, timeslot.TimeOfDay, timeslot.TimeOfDay, bool) {
	date, err := timeslot.ParseCalendarDate(dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
		return timeslot.CalendarDate{}, 0, 0, false
	}
	start, err := timeslot.ParseTimeOfDay(startStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_start", err.Error())
		return timeslot.CalendarDate{}, 0, 0, false
	}
	end, err := timeslot.ParseTimeOfDay(endStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_end", err.Error())
		return timeslot.CalendarDate{}, 0, 0, false
	}
	return date, start, end, true
}

func handleSchedulingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, timeslot.ErrInvalidInterval),
		errors.Is(err, timeslot.ErrInvalidTimeOfDay),
		errors.Is(err, timeslot.ErrInvalidDate),
		errors.Is(err, scheduling.ErrInvalidWindowKind),
		errors.Is(err, scheduling.ErrInvalidWeekday),
		errors.Is(err, scheduling.ErrMissingDate):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, scheduling.ErrPractitionerNotFound):
		writeError(w, http.StatusNotFound, "practitioner_not_found", err.Error())
	case errors.Is(err, scheduling.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, scheduling.ErrWindowNotFound):
		writeError(w, http.StatusNotFound, "window_not_found", err.Error())
	case errors.Is(err, scheduling.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, scheduling.ErrNotAvailable):
		writeError(w, http.StatusConflict, "practitioner_unavailable", err.Error())
	case errors.Is(err, scheduling.ErrSlotConflict):
		writeError(w, http.StatusConflict, "slot_already_booked", err.Error())
	case errors.Is(err, scheduling.ErrWindowOverlap):
		writeError(w, http.StatusConflict, "window_overlap", err.Error())
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "schedule_being_booked", "schedule is currently being booked, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
