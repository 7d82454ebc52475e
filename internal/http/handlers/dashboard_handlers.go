package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"powerpay/internal/service"
)

// DashboardHandlers serves the landing summary and device drill-down.
type DashboardHandlers struct {
	dashboard *service.DashboardService
	logger    *zap.Logger
}

// NewDashboardHandlers returns handler struct.
func NewDashboardHandlers(dashboard *service.DashboardService, logger *zap.Logger) *DashboardHandlers {
	return &DashboardHandlers{dashboard: dashboard, logger: logger}
}

// Summary handles GET /api/dashboard/summary. An optional "range" query
// parameter narrows the telemetry window in hours.
func (h *DashboardHandlers) Summary(w http.ResponseWriter, r *http.Request) {
	rangeHours := queryInt(r, "range", 0)

	summary, err := h.dashboard.Summary(r.Context(), rangeHours)
	if err != nil {
		h.logger.Error("dashboard summary failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "telemetry backend unavailable")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Device handles GET /api/devices/{id}/data.
func (h *DashboardHandlers) Device(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("id")
	if deviceID == "" {
		writeError(w, http.StatusBadRequest, "device id is required")
		return
	}
	rangeHours := queryInt(r, "range", 0)

	detail, err := h.dashboard.DeviceDetail(r.Context(), deviceID, rangeHours)
	if err != nil {
		h.logger.Error("device detail failed", zap.String("device_id", deviceID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "telemetry backend unavailable")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
