package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"powerpay/internal/models"
)

// Device naming conventions understood by the ordinal sort: plain
// "deviceN", serial-tagged "JD-29EDn", and the baseline fridge which
// always sorts last.
const jdSerialPrefix = "JD-29ED"

// Sort keys accepted by the device listing.
const (
	DeviceSortByID   = "device_id"
	DeviceSortByTime = "time"
)

// DeviceCatalog is the remote API subset the service needs.
type DeviceCatalog interface {
	Devices(ctx context.Context) ([]models.Device, error)
	AddDevice(ctx context.Context, name string) error
}

// DevicesService lists and registers devices.
type DevicesService struct {
	catalog  DeviceCatalog
	sentinel string
	logger   *zap.Logger
}

// NewDevicesService builds the service.
func NewDevicesService(catalog DeviceCatalog, sentinel string, logger *zap.Logger) *DevicesService {
	return &DevicesService{catalog: catalog, sentinel: sentinel, logger: logger}
}

// DeviceListInput are the listing parameters.
type DeviceListInput struct {
	Query     string
	SortKey   string
	Direction string
	Page      int
}

// DeviceListing is one page of devices plus the full ID list for
// navigation widgets.
type DeviceListing struct {
	Devices   []models.Device `json:"devices"`
	DeviceIDs []string        `json:"device_ids"`
	Page      Page            `json:"page"`
}

// List fetches, filters, sorts and paginates the device table.
func (s *DevicesService) List(ctx context.Context, input DeviceListInput) (*DeviceListing, error) {
	if input.SortKey == "" {
		input.SortKey = DeviceSortByID
	}

	less, err := s.deviceComparator(input.SortKey)
	if err != nil {
		return nil, err
	}

	devices, err := s.catalog.Devices(ctx)
	if err != nil {
		return nil, fmt.Errorf("devices: fetch: %w", err)
	}

	if q := strings.ToLower(strings.TrimSpace(input.Query)); q != "" {
		filtered := devices[:0]
		for _, d := range devices {
			if strings.Contains(strings.ToLower(d.DeviceID), q) {
				filtered = append(filtered, d)
			}
		}
		devices = filtered
	}

	sort.SliceStable(devices, func(i, j int) bool {
		if descending(input.Direction) {
			return less(devices[j], devices[i])
		}
		return less(devices[i], devices[j])
	})

	ids := make([]string, len(devices))
	for i, d := range devices {
		ids[i] = d.DeviceID
	}

	start, end, page := pageBounds(len(devices), input.Page)
	return &DeviceListing{
		Devices:   devices[start:end],
		DeviceIDs: ids,
		Page:      page,
	}, nil
}

// Register adds a new device through the remote backend.
func (s *DevicesService) Register(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("devices: name is required")
	}
	if err := s.catalog.AddDevice(ctx, name); err != nil {
		return fmt.Errorf("devices: add: %w", err)
	}
	s.logger.Info("device registered", zap.String("device_id", name))
	return nil
}

func (s *DevicesService) deviceComparator(key string) (func(a, b models.Device) bool, error) {
	switch key {
	case DeviceSortByID:
		return func(a, b models.Device) bool {
			return s.deviceOrdinal(a.DeviceID) < s.deviceOrdinal(b.DeviceID)
		}, nil
	case DeviceSortByTime:
		return func(a, b models.Device) bool {
			return parseDeviceTime(a.Time).Before(parseDeviceTime(b.Time))
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSortKey, key)
	}
}

// deviceOrdinal maps a device ID onto a sortable number: numbered
// devices in natural order, unrecognized names after them, the sentinel
// last of all.
func (s *DevicesService) deviceOrdinal(id string) int64 {
	if id == s.sentinel {
		return math.MaxInt64
	}
	if rest, ok := strings.CutPrefix(id, "device"); ok {
		if n, err := strconv.ParseInt(rest, 10, 64); err == nil {
			return n
		}
	}
	if rest, ok := strings.CutPrefix(id, jdSerialPrefix); ok {
		if n, err := strconv.ParseInt(rest, 10, 64); err == nil {
			return n
		}
	}
	return math.MaxInt64 - 1
}

func parseDeviceTime(value string) time.Time {
	t, err := time.Parse("2006-01-02T15:04:05.000Z", value)
	if err != nil {
		return time.Time{}
	}
	return t
}
