package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatepasshq/gatepass-backend/internal/checkin"
	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
)

type stubCheckInService struct {
	result *checkin.CheckInResult
	err    error
	calls  int
	input  checkin.CheckInInput
}

func (s *stubCheckInService) CheckIn(ctx context.Context, input checkin.CheckInInput) (*checkin.CheckInResult, error) {
	s.calls++
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestCheckIn_Admits(t *testing.T) {
	ticketID := uuid.New()
	eventID := uuid.New()
	scannedAt := time.Now().UTC().Truncate(time.Second)
	svc := &stubCheckInService{
		result: &checkin.CheckInResult{
			TicketID:     ticketID,
			AttendeeName: "Alex Attendee",
			TierName:     "General Admission",
			ScannedAt:    scannedAt,
		},
	}
	body, _ := json.Marshal(map[string]string{"ticketId": ticketID.String(), "eventId": eventID.String()})

	rec := httptest.NewRecorder()
	CheckIn(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/checkin", body))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "ext_caller", svc.input.OrganizerExternalID)
	assert.Equal(t, ticketID, svc.input.TicketID)
	assert.Equal(t, eventID, svc.input.EventID)

	var envelope struct {
		Data checkInResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "Alex Attendee", envelope.Data.AttendeeName)
	assert.Equal(t, "General Admission", envelope.Data.TierName)
	assert.True(t, envelope.Data.ScannedAt.Equal(scannedAt))
}

func TestCheckIn_AlreadyScanned(t *testing.T) {
	svc := &stubCheckInService{
		err: pkgerrors.New(pkgerrors.CodeConflict, "ticket already checked in").
			WithDetails(map[string]string{"scannedAt": time.Now().UTC().Format(time.RFC3339)}),
	}
	body, _ := json.Marshal(map[string]string{"ticketId": uuid.NewString(), "eventId": uuid.NewString()})

	rec := httptest.NewRecorder()
	CheckIn(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/checkin", body))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "scannedAt")
}

func TestCheckIn_NonOrganizerForbidden(t *testing.T) {
	svc := &stubCheckInService{err: pkgerrors.New(pkgerrors.CodeForbidden, "caller is not the event organizer")}
	body, _ := json.Marshal(map[string]string{"ticketId": uuid.NewString(), "eventId": uuid.NewString()})

	rec := httptest.NewRecorder()
	CheckIn(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/checkin", body))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCheckIn_MissingIdentity(t *testing.T) {
	svc := &stubCheckInService{}
	body, _ := json.Marshal(map[string]string{"ticketId": uuid.NewString(), "eventId": uuid.NewString()})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkin", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	CheckIn(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, svc.calls)
}

func TestCheckIn_InvalidBody(t *testing.T) {
	svc := &stubCheckInService{}
	body, _ := json.Marshal(map[string]string{"ticketId": uuid.NewString()})

	rec := httptest.NewRecorder()
	CheckIn(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/checkin", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.calls)
}
