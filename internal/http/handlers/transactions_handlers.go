package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"powerpay/internal/service"
)

// TransactionsHandlers serves the mobile-money records table and its
// CSV export.
type TransactionsHandlers struct {
	transactions *service.TransactionsService
	logger       *zap.Logger
}

// NewTransactionsHandlers returns handler struct.
func NewTransactionsHandlers(transactions *service.TransactionsService, logger *zap.Logger) *TransactionsHandlers {
	return &TransactionsHandlers{transactions: transactions, logger: logger}
}

// List handles GET /api/transactions.
func (h *TransactionsHandlers) List(w http.ResponseWriter, r *http.Request) {
	listing, err := h.transactions.List(r.Context(), r.URL.Query().Get("q"), queryInt(r, "page", 1))
	if err != nil {
		h.logger.Error("transaction listing failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "payment backend unavailable")
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// Export handles GET /api/transactions/export.
func (h *TransactionsHandlers) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	if err := h.transactions.ExportCSV(r.Context(), w); err != nil {
		// Headers are already on the wire; log and cut the stream.
		h.logger.Error("transaction export failed", zap.Error(err))
	}
}
