package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"powerpay/internal/service"
)

// DevicesHandlers serves the device table and registration.
type DevicesHandlers struct {
	devices *service.DevicesService
	logger  *zap.Logger
}

// NewDevicesHandlers returns handler struct.
func NewDevicesHandlers(devices *service.DevicesService, logger *zap.Logger) *DevicesHandlers {
	return &DevicesHandlers{devices: devices, logger: logger}
}

// List handles GET /api/devices.
func (h *DevicesHandlers) List(w http.ResponseWriter, r *http.Request) {
	input := service.DeviceListInput{
		Query:     r.URL.Query().Get("q"),
		SortKey:   r.URL.Query().Get("sort"),
		Direction: r.URL.Query().Get("direction"),
		Page:      queryInt(r, "page", 1),
	}

	listing, err := h.devices.List(r.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedSortKey) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("device listing failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "device backend unavailable")
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// Register handles POST /api/devices.
func (h *DevicesHandlers) Register(w http.ResponseWriter, r *http.Request) {
	type request struct {
		DeviceID string `json:"device_id"`
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.DeviceID == "" {
		writeError(w, http.StatusBadRequest, "device_id is required")
		return
	}

	if err := h.devices.Register(r.Context(), req.DeviceID); err != nil {
		h.logger.Error("device registration failed", zap.String("device_id", req.DeviceID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "device backend unavailable")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"device_id": req.DeviceID})
}
