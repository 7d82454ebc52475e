package httpserver

import (
	"net/http"

	"powerpay/internal/http/handlers"
	"powerpay/internal/http/middleware"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	AuthHandlers         *handlers.AuthHandlers
	DashboardHandlers    *handlers.DashboardHandlers
	DevicesHandlers      *handlers.DevicesHandlers
	TransactionsHandlers *handlers.TransactionsHandlers
	PaygoHandlers        *handlers.PaygoHandlers
	PaymentsHandlers     *handlers.PaymentsHandlers
	PaymentWSHandler     *handlers.PaymentWSHandler
	HealthHandler        http.HandlerFunc
	MetricsHandler       http.Handler
}

// NewRouter wires HTTP routes with middleware.
func NewRouter(deps RouterDeps, authMiddleware func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/health", method(http.MethodGet, deps.HealthHandler))
	if deps.MetricsHandler != nil {
		mux.Handle("/metrics", method(http.MethodGet, deps.MetricsHandler))
	}

	mux.Handle("/api/auth/signup", method(http.MethodPost, http.HandlerFunc(deps.AuthHandlers.Signup)))
	mux.Handle("/api/auth/login", method(http.MethodPost, http.HandlerFunc(deps.AuthHandlers.Login)))

	authenticated := func(handler http.HandlerFunc) http.Handler {
		return middleware.Chain(handler, authMiddleware)
	}

	mux.Handle("/api/dashboard/summary", method(http.MethodGet, authenticated(deps.DashboardHandlers.Summary)))
	mux.Handle("/api/devices/{id}/data", method(http.MethodGet, authenticated(deps.DashboardHandlers.Device)))

	mux.Handle("/api/devices", methods(map[string]http.Handler{
		http.MethodGet:  authenticated(deps.DevicesHandlers.List),
		http.MethodPost: authenticated(deps.DevicesHandlers.Register),
	}))

	mux.Handle("/api/transactions", method(http.MethodGet, authenticated(deps.TransactionsHandlers.List)))
	mux.Handle("/api/transactions/export", method(http.MethodGet, authenticated(deps.TransactionsHandlers.Export)))

	mux.Handle("/api/paygo/sales", method(http.MethodGet, authenticated(deps.PaygoHandlers.Sales)))

	mux.Handle("/api/payments/prompt", method(http.MethodPost, authenticated(deps.PaymentsHandlers.Prompt)))
	mux.Handle("/api/payments/history", method(http.MethodGet, authenticated(deps.PaymentsHandlers.History)))

	// The waiting page polls before the user has any session, and the
	// gateway webhook carries no token at all: status, callback and the
	// websocket stay outside auth.
	mux.Handle("/api/payments/status", method(http.MethodGet, http.HandlerFunc(deps.PaymentsHandlers.Status)))
	mux.Handle("/api/payments/callback", method(http.MethodPost, http.HandlerFunc(deps.PaymentsHandlers.Callback)))
	mux.Handle("/api/payments/ws", method(http.MethodGet, http.HandlerFunc(deps.PaymentWSHandler.Serve)))

	return mux
}

func method(expected string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})
}

func methods(byVerb map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler, ok := byVerb[r.Method]
		if !ok {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
