package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"powerpay/internal/payments"
	"powerpay/internal/service"
)

const wsWriteTimeout = 10 * time.Second

// PaymentWSHandler pushes the payment resolution over a websocket
// instead of making the client poll.
type PaymentWSHandler struct {
	payments *service.PaymentService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewPaymentWSHandler returns handler struct.
func NewPaymentWSHandler(paymentService *service.PaymentService, logger *zap.Logger) *PaymentWSHandler {
	return &PaymentWSHandler{
		payments: paymentService,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Serve handles GET /api/payments/ws?ref=... The connection delivers one
// message, the resolved payment, and closes.
func (h *PaymentWSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	reference := r.URL.Query().Get("ref")
	if reference == "" {
		http.Error(w, "ref is required", http.StatusBadRequest)
		return
	}

	ch, err := h.payments.Watch(reference)
	if err != nil {
		if errors.Is(err, payments.ErrUnknownReference) {
			http.Error(w, "unknown payment reference", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to watch payment", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// Drain client frames so close handshakes and pings are processed.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	select {
	case req, ok := <-ch:
		if !ok {
			// Evicted before resolving.
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(req); err != nil {
			h.logger.Warn("websocket write failed", zap.String("reference", reference), zap.Error(err))
			return
		}
		h.logger.Info("payment resolution pushed",
			zap.String("reference", reference),
			zap.String("status", string(req.Status)),
		)
	case <-r.Context().Done():
	}

	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
