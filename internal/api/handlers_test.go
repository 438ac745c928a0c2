package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "github.com/karmaclinic/clinic-scheduling/internal/redis"
	"github.com/karmaclinic/clinic-scheduling/internal/scheduling"
)

type testServer struct {
	handler http.Handler
	pract   scheduling.Practitioner
	patient scheduling.Patient
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repo := scheduling.NewMemoryRepository()
	pract := scheduling.Practitioner{ID: uuid.New(), FirstName: "Claire", LastName: "Moreau", Role: "doctor"}
	patient := scheduling.Patient{ID: uuid.New(), FirstName: "Hugo", LastName: "Bernard"}
	repo.AddPractitioner(pract)
	repo.AddPatient(patient)

	sched := scheduling.NewScheduler(repo, redisclient.NewLocalLocker())
	handler := NewRouter(RouterConfig{
		Scheduler: sched,
		Logger:    zerolog.Nop(),
		Env:       "test",
		Version:   "test",
	})

	return &testServer{handler: handler, pract: pract, patient: patient}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func (ts *testServer) addRecurringWindow(t *testing.T, weekday int, start, end string) WindowResponse {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/availabilities", CreateWindowRequest{
		PractitionerID: ts.pract.ID.String(),
		Kind:           "recurring",
		Weekday:        weekday,
		Start:          start,
		End:            end,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[WindowResponse](t, rec)
}

func (ts *testServer) book(t *testing.T, date, start, end string) (AppointmentResponse, *httptest.ResponseRecorder) {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/appointments", BookAppointmentRequest{
		PatientID:      ts.patient.ID.String(),
		PractitionerID: ts.pract.ID.String(),
		Date:           date,
		Start:          start,
		End:            end,
	})
	if rec.Code != http.StatusCreated {
		return AppointmentResponse{}, rec
	}
	return decodeBody[AppointmentResponse](t, rec), rec
}

func TestCreateWindowEndpoint(t *testing.T) {
	ts := newTestServer(t)

	win := ts.addRecurringWindow(t, 1, "09:00", "12:00")
	assert.Equal(t, ts.pract.ID, win.PractitionerID)
	assert.Equal(t, "recurring", win.Kind)
	assert.Equal(t, 1, win.Weekday)
	assert.Empty(t, win.Date)
	assert.Equal(t, "09:00", win.Start)
	assert.Equal(t, "12:00", win.End)

	listed := ts.do(t, http.MethodGet, "/practitioners/"+ts.pract.ID.String()+"/availabilities", nil)
	require.Equal(t, http.StatusOK, listed.Code)
	windows := decodeBody[[]WindowResponse](t, listed)
	require.Len(t, windows, 1)
	assert.Equal(t, win.ID, windows[0].ID)
}

func TestCreateWindowEndpointRejectsBadInput(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		name string
		req  CreateWindowRequest
		code int
	}{
		{"bad practitioner id", CreateWindowRequest{PractitionerID: "nope", Kind: "recurring", Weekday: 1, Start: "09:00", End: "12:00"}, http.StatusBadRequest},
		{"bad start", CreateWindowRequest{PractitionerID: ts.pract.ID.String(), Kind: "recurring", Weekday: 1, Start: "9am", End: "12:00"}, http.StatusBadRequest},
		{"inverted interval", CreateWindowRequest{PractitionerID: ts.pract.ID.String(), Kind: "recurring", Weekday: 1, Start: "12:00", End: "09:00"}, http.StatusBadRequest},
		{"bad kind", CreateWindowRequest{PractitionerID: ts.pract.ID.String(), Kind: "monthly", Weekday: 1, Start: "09:00", End: "12:00"}, http.StatusBadRequest},
		{"weekday out of range", CreateWindowRequest{PractitionerID: ts.pract.ID.String(), Kind: "recurring", Weekday: 8, Start: "09:00", End: "12:00"}, http.StatusBadRequest},
		{"specific without date", CreateWindowRequest{PractitionerID: ts.pract.ID.String(), Kind: "specific", Start: "09:00", End: "12:00"}, http.StatusBadRequest},
		{"unknown practitioner", CreateWindowRequest{PractitionerID: uuid.NewString(), Kind: "recurring", Weekday: 1, Start: "09:00", End: "12:00"}, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/availabilities", tc.req)
			assert.Equal(t, tc.code, rec.Code, rec.Body.String())
		})
	}
}

func TestCreateWindowEndpointOverlapConflict(t *testing.T) {
	ts := newTestServer(t)

	ts.addRecurringWindow(t, 1, "09:00", "12:00")

	rec := ts.do(t, http.MethodPost, "/availabilities", CreateWindowRequest{
		PractitionerID: ts.pract.ID.String(),
		Kind:           "recurring",
		Weekday:        1,
		Start:          "11:00",
		End:            "13:00",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "window_overlap", decodeBody[ErrorResponse](t, rec).Error)
}

func TestDeleteWindowEndpoint(t *testing.T) {
	ts := newTestServer(t)

	win := ts.addRecurringWindow(t, 1, "09:00", "12:00")

	rec := ts.do(t, http.MethodDelete, "/availabilities/"+win.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/availabilities/"+win.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckSlotEndpoint(t *testing.T) {
	ts := newTestServer(t)

	ts.addRecurringWindow(t, 1, "09:00", "12:00")

	url := fmt.Sprintf("/availabilities/check?practitioner_id=%s&date=2024-06-03&start=09:00&end=09:30", ts.pract.ID)
	rec := ts.do(t, http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[CheckSlotResponse](t, rec).Available)

	url = fmt.Sprintf("/availabilities/check?practitioner_id=%s&date=2024-06-04&start=09:00&end=09:30", ts.pract.ID)
	rec = ts.do(t, http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[CheckSlotResponse](t, rec).Available)

	// The check stays true even once the slot is booked.
	_, booked := ts.book(t, "2024-06-03", "09:00", "09:30")
	require.Equal(t, http.StatusCreated, booked.Code)

	url = fmt.Sprintf("/availabilities/check?practitioner_id=%s&date=2024-06-03&start=09:00&end=09:30", ts.pract.ID)
	rec = ts.do(t, http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[CheckSlotResponse](t, rec).Available)
}

func TestBookAppointmentEndpoint(t *testing.T) {
	ts := newTestServer(t)

	ts.addRecurringWindow(t, 1, "09:00", "12:00")

	appt, rec := ts.book(t, "2024-06-03", "09:00", "09:30")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "2024-06-03", appt.Date)
	assert.Equal(t, "09:00", appt.Start)
	assert.Equal(t, "09:30", appt.End)
	assert.Equal(t, ts.patient.ID, appt.Patient.ID)
	assert.Equal(t, "Bernard", appt.Patient.LastName)
	assert.Equal(t, ts.pract.ID, appt.Practitioner.ID)

	fetched := ts.do(t, http.MethodGet, "/appointments/"+appt.ID.String(), nil)
	require.Equal(t, http.StatusOK, fetched.Code)
	assert.Equal(t, appt.ID, decodeBody[AppointmentResponse](t, fetched).ID)
}

func TestBookAppointmentEndpointStatusMapping(t *testing.T) {
	ts := newTestServer(t)

	ts.addRecurringWindow(t, 1, "09:00", "12:00")

	_, rec := ts.book(t, "2024-06-03", "09:00", "09:30")
	require.Equal(t, http.StatusCreated, rec.Code)

	// Overlapping slot conflicts.
	_, rec = ts.book(t, "2024-06-03", "09:15", "09:45")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "slot_already_booked", decodeBody[ErrorResponse](t, rec).Error)

	// Outside any window.
	_, rec = ts.book(t, "2024-06-04", "09:00", "09:30")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "practitioner_unavailable", decodeBody[ErrorResponse](t, rec).Error)

	// Unknown practitioner.
	unknown := ts.do(t, http.MethodPost, "/appointments", BookAppointmentRequest{
		PatientID:      ts.patient.ID.String(),
		PractitionerID: uuid.NewString(),
		Date:           "2024-06-03",
		Start:          "10:00",
		End:            "10:30",
	})
	assert.Equal(t, http.StatusNotFound, unknown.Code)
	assert.Equal(t, "practitioner_not_found", decodeBody[ErrorResponse](t, unknown).Error)

	// Malformed date.
	_, rec = ts.book(t, "03/06/2024", "10:00", "10:30")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRescheduleAppointmentEndpoint(t *testing.T) {
	ts := newTestServer(t)

	ts.addRecurringWindow(t, 1, "09:00", "12:00")

	appt, rec := ts.book(t, "2024-06-03", "09:00", "09:30")
	require.Equal(t, http.StatusCreated, rec.Code)

	moved := ts.do(t, http.MethodPut, "/appointments/"+appt.ID.String(), RescheduleAppointmentRequest{
		Date:  "2024-06-03",
		Start: "10:00",
		End:   "10:30",
	})
	require.Equal(t, http.StatusOK, moved.Code, moved.Body.String())
	resp := decodeBody[AppointmentResponse](t, moved)
	assert.Equal(t, "10:00", resp.Start)
	assert.Equal(t, "10:30", resp.End)

	missing := ts.do(t, http.MethodPut, "/appointments/"+uuid.NewString(), RescheduleAppointmentRequest{
		Date:  "2024-06-03",
		Start: "11:00",
		End:   "11:30",
	})
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestCancelAppointmentEndpoint(t *testing.T) {
	ts := newTestServer(t)

	ts.addRecurringWindow(t, 1, "09:00", "12:00")

	appt, rec := ts.book(t, "2024-06-03", "09:00", "09:30")
	require.Equal(t, http.StatusCreated, rec.Code)

	del := ts.do(t, http.MethodDelete, "/appointments/"+appt.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, del.Code)

	del = ts.do(t, http.MethodDelete, "/appointments/"+appt.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, del.Code)

	bad := ts.do(t, http.MethodDelete, "/appointments/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestWeekScheduleEndpoint(t *testing.T) {
	ts := newTestServer(t)

	ts.addRecurringWindow(t, 1, "09:00", "12:00")

	_, rec := ts.book(t, "2024-06-03", "09:00", "09:30")
	require.Equal(t, http.StatusCreated, rec.Code)

	week := ts.do(t, http.MethodGet, "/practitioners/"+ts.pract.ID.String()+"/week?start=2024-06-03", nil)
	require.Equal(t, http.StatusOK, week.Code, week.Body.String())

	days := decodeBody[[]DayScheduleResponse](t, week)
	require.Len(t, days, 5)
	assert.Equal(t, "2024-06-03", days[0].Date)
	require.Len(t, days[0].Availability, 1)
	require.Len(t, days[0].Appointments, 1)
	assert.Equal(t, "09:00", days[0].Appointments[0].Start)
	assert.Equal(t, "2024-06-07", days[4].Date)
	assert.Empty(t, days[1].Appointments)

	missingStart := ts.do(t, http.MethodGet, "/practitioners/"+ts.pract.ID.String()+"/week", nil)
	assert.Equal(t, http.StatusBadRequest, missingStart.Code)
}

func TestPatientEndpoints(t *testing.T) {
	ts := newTestServer(t)

	list := ts.do(t, http.MethodGet, "/patients", nil)
	require.Equal(t, http.StatusOK, list.Code)
	patients := decodeBody[[]PatientResponse](t, list)
	require.Len(t, patients, 1)
	assert.Equal(t, ts.patient.ID, patients[0].ID)

	one := ts.do(t, http.MethodGet, "/patients/"+ts.patient.ID.String(), nil)
	require.Equal(t, http.StatusOK, one.Code)
	assert.Equal(t, "Hugo", decodeBody[PatientResponse](t, one).FirstName)

	missing := ts.do(t, http.MethodGet, "/patients/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}
