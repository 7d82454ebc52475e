package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"powerpay/internal/service"
)

// PaygoHandlers serves the pay-as-you-go sales table.
type PaygoHandlers struct {
	paygo  *service.PaygoService
	logger *zap.Logger
}

// NewPaygoHandlers returns handler struct.
func NewPaygoHandlers(paygo *service.PaygoService, logger *zap.Logger) *PaygoHandlers {
	return &PaygoHandlers{paygo: paygo, logger: logger}
}

// Sales handles GET /api/paygo/sales. "metered=true" switches to the
// metered product line.
func (h *PaygoHandlers) Sales(w http.ResponseWriter, r *http.Request) {
	input := service.PaygoListInput{
		Metered:   r.URL.Query().Get("metered") == "true",
		SortKey:   r.URL.Query().Get("sort"),
		Direction: r.URL.Query().Get("direction"),
		Page:      queryInt(r, "page", 1),
	}

	listing, err := h.paygo.Sales(r.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedSortKey) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("paygo listing failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "paygo backend unavailable")
		return
	}
	writeJSON(w, http.StatusOK, listing)
}
