package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"powerpay/internal/payments"
	"powerpay/internal/service"
)

// PaymentsHandlers serves the STK push flow: prompt, webhook callback
// and status polling.
type PaymentsHandlers struct {
	payments *service.PaymentService
	logger   *zap.Logger
}

// NewPaymentsHandlers returns handler struct.
func NewPaymentsHandlers(payments *service.PaymentService, logger *zap.Logger) *PaymentsHandlers {
	return &PaymentsHandlers{payments: payments, logger: logger}
}

// Prompt handles POST /api/payments/prompt.
func (h *PaymentsHandlers) Prompt(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Contact   string  `json:"contact"`
		Amount    float64 `json:"amount"`
		Reference string  `json:"ref"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Contact == "" || req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "contact and a positive amount are required")
		return
	}

	resp, err := h.payments.Prompt(r.Context(), req.Contact, req.Amount, req.Reference)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrEmptyReference):
			writeError(w, http.StatusBadRequest, "reference is required")
		case errors.Is(err, payments.ErrDuplicateReference):
			writeError(w, http.StatusConflict, "a payment for this reference is already pending")
		default:
			h.logger.Error("payment prompt failed", zap.String("reference", req.Reference), zap.Error(err))
			writeError(w, http.StatusBadGateway, "payment gateway unavailable")
		}
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

// Callback handles POST /api/payments/callback. The reference travels in
// the "ref" query parameter; payloads that carry their own
// CheckoutRequestID may omit it. The gateway retries non-2xx responses,
// so anything past payload validation acks.
func (h *PaymentsHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	req, err := h.payments.Confirm(r.Context(), r.URL.Query().Get("ref"), body)
	if err != nil {
		var malformed *payments.MalformedCallbackError
		switch {
		case errors.As(err, &malformed):
			writeError(w, http.StatusBadRequest, malformed.Error())
			return
		case errors.Is(err, payments.ErrUnknownReference):
			writeError(w, http.StatusNotFound, "unknown payment reference")
			return
		}
		// Conflicting repeats are logged upstream; ack with the stored
		// outcome so the gateway stops retrying.
	}
	writeJSON(w, http.StatusOK, req)
}

// History handles GET /api/payments/history?limit=...
func (h *PaymentsHandlers) History(w http.ResponseWriter, r *http.Request) {
	audits, err := h.payments.History(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		h.logger.Error("payment history failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read payment history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"payments": audits})
}

// Status handles GET /api/payments/status?ref=...
func (h *PaymentsHandlers) Status(w http.ResponseWriter, r *http.Request) {
	reference := r.URL.Query().Get("ref")
	if reference == "" {
		writeError(w, http.StatusBadRequest, "ref is required")
		return
	}

	req, err := h.payments.Status(r.Context(), reference)
	if err != nil {
		if errors.Is(err, payments.ErrUnknownReference) {
			writeError(w, http.StatusNotFound, "unknown payment reference")
			return
		}
		h.logger.Error("payment status failed", zap.String("reference", reference), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read payment status")
		return
	}
	writeJSON(w, http.StatusOK, req)
}
