package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatepasshq/gatepass-backend/internal/fulfillment"
	"github.com/gatepasshq/gatepass-backend/internal/verification"
	"github.com/gatepasshq/gatepass-backend/pkg/db/models"
	"github.com/gatepasshq/gatepass-backend/pkg/enums"
	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
)

type stubVerificationService struct {
	result    *verification.VerifyResult
	err       error
	calls     int
	sessionID string
	callerID  string
}

func (s *stubVerificationService) Verify(ctx context.Context, sessionID, callerExternalID string) (*verification.VerifyResult, error) {
	s.calls++
	s.sessionID = sessionID
	s.callerID = callerExternalID
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestVerifyPayment_Settles(t *testing.T) {
	ticketID := uuid.New()
	svc := &stubVerificationService{
		result: &verification.VerifyResult{
			Ticket:  &models.Ticket{ID: ticketID, Status: enums.TicketStatusActive},
			Outcome: fulfillment.OutcomeActivated,
		},
	}
	body, _ := json.Marshal(map[string]string{"sessionId": "cs_test_123"})

	rec := httptest.NewRecorder()
	VerifyPayment(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/payments/verify", body))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "cs_test_123", svc.sessionID)
	assert.Equal(t, "ext_caller", svc.callerID)

	var envelope struct {
		Data verifyPaymentResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, ticketID.String(), envelope.Data.TicketID)
	assert.Equal(t, "active", envelope.Data.Status)
	assert.Equal(t, "activated", envelope.Data.Outcome)
}

func TestVerifyPayment_ReplayWithoutTicket(t *testing.T) {
	svc := &stubVerificationService{
		result: &verification.VerifyResult{Outcome: fulfillment.OutcomeReplayed},
	}
	body, _ := json.Marshal(map[string]string{"sessionId": "cs_test_123"})

	rec := httptest.NewRecorder()
	VerifyPayment(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/payments/verify", body))

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data verifyPaymentResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "replayed", envelope.Data.Outcome)
	assert.Empty(t, envelope.Data.TicketID)
}

func TestVerifyPayment_MissingIdentity(t *testing.T) {
	svc := &stubVerificationService{}
	body, _ := json.Marshal(map[string]string{"sessionId": "cs_test_123"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	VerifyPayment(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, svc.calls)
}

func TestVerifyPayment_MissingSessionID(t *testing.T) {
	svc := &stubVerificationService{}
	body, _ := json.Marshal(map[string]string{})

	rec := httptest.NewRecorder()
	VerifyPayment(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/payments/verify", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.calls)
}

func TestVerifyPayment_ForeignSession(t *testing.T) {
	svc := &stubVerificationService{err: pkgerrors.New(pkgerrors.CodeForbidden, "session does not belong to caller")}
	body, _ := json.Marshal(map[string]string{"sessionId": "cs_test_123"})

	rec := httptest.NewRecorder()
	VerifyPayment(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/payments/verify", body))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestVerifyPayment_UnpaidSession(t *testing.T) {
	svc := &stubVerificationService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "payment not completed")}
	body, _ := json.Marshal(map[string]string{"sessionId": "cs_test_123"})

	rec := httptest.NewRecorder()
	VerifyPayment(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/payments/verify", body))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "payment not completed")
}
