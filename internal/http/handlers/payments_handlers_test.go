package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"powerpay/internal/clients"
	"powerpay/internal/payments"
	"powerpay/internal/service"
)

type stubGateway struct {
	resp *clients.STKPushResponse
}

func (s *stubGateway) STKPush(ctx context.Context, contact string, amount float64, reference string) (*clients.STKPushResponse, error) {
	return s.resp, nil
}

func newPaymentsFixture() *PaymentsHandlers {
	svc := service.NewPaymentService(
		&stubGateway{resp: &clients.STKPushResponse{ResponseCode: 0, ResponseDescription: "Success"}},
		payments.NewTracker(),
		nil,
		nil,
		zap.NewNop(),
	)
	return NewPaymentsHandlers(svc, zap.NewNop())
}

const webhookSuccess = `{
  "Body": {
    "stkCallback": {
      "CheckoutRequestID": "ws_CO_1",
      "ResultCode": 0,
      "ResultDesc": "The service request is processed successfully.",
      "CallbackMetadata": {
        "Item": [
          {"Name": "Amount", "Value": 150.00},
          {"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"},
          {"Name": "TransactionDate", "Value": 20240116101530},
          {"Name": "PhoneNumber", "Value": 254708374149}
        ]
      }
    }
  }
}`

func promptRequest(t *testing.T, h *PaymentsHandlers, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/payments/prompt", strings.NewReader(body))
	h.Prompt(rec, req)
	return rec
}

func TestPromptHandlerValidation(t *testing.T) {
	h := newPaymentsFixture()

	rec := promptRequest(t, h, `not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = promptRequest(t, h, `{"contact":"254708374149","amount":0,"ref":"ws_CO_1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = promptRequest(t, h, `{"contact":"254708374149","amount":150,"ref":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPromptCallbackStatusRoundTrip(t *testing.T) {
	h := newPaymentsFixture()

	rec := promptRequest(t, h, `{"contact":"254708374149","amount":150,"ref":"ws_CO_1"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	// Duplicate while pending.
	rec = promptRequest(t, h, `{"contact":"254708374149","amount":150,"ref":"ws_CO_1"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	// Pending poll.
	rec = httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/payments/status?ref=ws_CO_1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), payments.PendingMessage)

	// Webhook resolves it.
	rec = httptest.NewRecorder()
	h.Callback(rec, httptest.NewRequest(http.MethodPost, "/api/payments/callback?ref=ws_CO_1", strings.NewReader(webhookSuccess)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"success"`)

	// Poll reflects the resolution.
	rec = httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/payments/status?ref=ws_CO_1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "NLJ7RT61SV")
}

func TestCallbackUnknownReference(t *testing.T) {
	h := newPaymentsFixture()

	rec := httptest.NewRecorder()
	h.Callback(rec, httptest.NewRequest(http.MethodPost, "/api/payments/callback?ref=nope", strings.NewReader(webhookSuccess)))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCallbackMalformedPayload(t *testing.T) {
	h := newPaymentsFixture()

	rec := promptRequest(t, h, `{"contact":"254708374149","amount":150,"ref":"ws_CO_1"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = httptest.NewRecorder()
	h.Callback(rec, httptest.NewRequest(http.MethodPost, "/api/payments/callback?ref=ws_CO_1", strings.NewReader(`{"Body":{}}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusRequiresReference(t *testing.T) {
	h := newPaymentsFixture()

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/payments/status", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/payments/status?ref=nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
