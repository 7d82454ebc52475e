package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"powerpay/internal/auth"
	"powerpay/internal/clients"
	"powerpay/internal/http/handlers"
	"powerpay/internal/http/middleware"
	"powerpay/internal/payments"
	"powerpay/internal/service"
)

type noopGateway struct{}

func (noopGateway) STKPush(ctx context.Context, contact string, amount float64, reference string) (*clients.STKPushResponse, error) {
	return &clients.STKPushResponse{}, nil
}

func newTestRouter(t *testing.T, tracker *payments.Tracker) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	paymentService := service.NewPaymentService(noopGateway{}, tracker, nil, nil, logger)
	tokens := auth.NewTokenService("router-test-secret", 0)

	return NewRouter(RouterDeps{
		PaymentsHandlers: handlers.NewPaymentsHandlers(paymentService, logger),
		PaymentWSHandler: handlers.NewPaymentWSHandler(paymentService, logger),
		HealthHandler:    handlers.NewHealthHandler(),
	}, middleware.AuthMiddleware(tokens))
}

func TestStatusRouteIsOpen(t *testing.T) {
	tracker := payments.NewTracker()
	_, err := tracker.Initiate("254708374149", 150, "REF-1")
	require.NoError(t, err)

	router := newTestRouter(t, tracker)

	// The waiting page has no token; it still gets the pending snapshot.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/payments/status?ref=REF-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), payments.PendingMessage)
}

func TestCallbackRouteIsOpen(t *testing.T) {
	tracker := payments.NewTracker()
	router := newTestRouter(t, tracker)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/payments/callback?ref=nope", nil)
	router.ServeHTTP(rec, req)
	// Past auth: the handler itself answered, not the middleware.
	require.NotEqual(t, http.StatusUnauthorized, rec.Code)
}

func TestPromptRouteRequiresAuth(t *testing.T) {
	tracker := payments.NewTracker()
	router := newTestRouter(t, tracker)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/payments/prompt", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMethodGuard(t *testing.T) {
	router := newTestRouter(t, payments.NewTracker())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
}
