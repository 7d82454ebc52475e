package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"powerpay/internal/clients"
	"powerpay/internal/energy"
	"powerpay/internal/metrics"
	"powerpay/internal/redisstore"
)

const allDeviceDataCacheKey = "allDeviceData"

// TelemetryFetcher is the remote API subset the dashboard needs.
type TelemetryFetcher interface {
	AllDeviceData(ctx context.Context, rangeHours int) (*clients.AllDeviceData, error)
	DeviceData(ctx context.Context, device string, rangeHours int) (*clients.DeviceData, error)
}

// DashboardService assembles the landing-page summary from remote
// telemetry and the local aggregation pass.
type DashboardService struct {
	fetcher      TelemetryFetcher
	cache        *redisstore.TelemetryCache
	agg          *energy.Aggregator
	metrics      *metrics.Metrics
	defaultRange int
	logger       *zap.Logger
}

// NewDashboardService builds the service. cache may be nil.
func NewDashboardService(fetcher TelemetryFetcher, cache *redisstore.TelemetryCache, agg *energy.Aggregator, m *metrics.Metrics, defaultRange int, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		fetcher:      fetcher,
		cache:        cache,
		agg:          agg,
		metrics:      m,
		defaultRange: defaultRange,
		logger:       logger,
	}
}

// DeviceMeals summarizes episode activity for one device.
type DeviceMeals struct {
	Count    int     `json:"count"`
	TotalKWh float64 `json:"total_kwh"`
}

// Summary is the dashboard landing payload.
type Summary struct {
	RangeHours    int                           `json:"range_hours"`
	Fallback      bool                          `json:"fallback"`
	TotalKWh      float64                       `json:"total_kwh"`
	TotalRuntime  float64                       `json:"total_runtime"`
	TotalMeals    int                           `json:"total_meals"`
	TotalEmission float64                       `json:"total_emissions_kg"`
	TotalCost     float64                       `json:"total_energy_cost"`
	Runtime       map[string]float64            `json:"runtime"`
	Meals         map[string]DeviceMeals        `json:"meals"`
	Episodes      map[string][]energy.Episode   `json:"episodes"`
	DailyCounts   energy.DailyCounts            `json:"daily_counts"`
	Buckets       energy.TimeBuckets            `json:"buckets"`
}

// Summary builds the dashboard for rangeHours of history. An empty
// result for a narrowed range falls back to the default range, flagged
// so the UI can tell the user.
func (s *DashboardService) Summary(ctx context.Context, rangeHours int) (*Summary, error) {
	if rangeHours <= 0 {
		rangeHours = s.defaultRange
	}

	data, err := s.fetchAllDeviceData(ctx, rangeHours)
	if err != nil {
		return nil, err
	}

	fallback := false
	if data.Empty() && rangeHours != s.defaultRange {
		s.logger.Info("no telemetry for range, falling back to default",
			zap.Int("range_hours", rangeHours))
		fallback = true
		rangeHours = s.defaultRange
		if data, err = s.fetchAllDeviceData(ctx, rangeHours); err != nil {
			return nil, err
		}
	}

	summary, err := s.buildSummary(data)
	if err != nil {
		return nil, err
	}
	summary.RangeHours = rangeHours
	summary.Fallback = fallback
	return summary, nil
}

func (s *DashboardService) buildSummary(data *clients.AllDeviceData) (*Summary, error) {
	started := time.Now()
	episodes, daily, err := s.agg.Segment(data.RawData)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	buckets, err := energy.BucketByTimeOfDay(data.RawData)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	if s.metrics != nil {
		s.metrics.AggregationTime.Observe(time.Since(started).Seconds())
	}

	meals := make(map[string]DeviceMeals, len(episodes))
	totalMeals := 0
	for device, eps := range episodes {
		var kwh float64
		for _, e := range eps {
			kwh += e.TotalKWh
		}
		meals[device] = DeviceMeals{Count: len(eps), TotalKWh: kwh}
		totalMeals += len(eps)
	}

	var totalKWh float64
	for _, r := range data.RawData {
		totalKWh += r.KWh
	}

	var totalRuntime float64
	for _, hours := range data.Runtime {
		totalRuntime += hours
	}

	return &Summary{
		TotalKWh:      totalKWh,
		TotalRuntime:  totalRuntime,
		TotalMeals:    totalMeals,
		TotalEmission: s.agg.EmissionsFor(totalKWh),
		TotalCost:     s.agg.CostFor(totalKWh),
		Runtime:       data.Runtime,
		Meals:         meals,
		Episodes:      episodes,
		DailyCounts:   daily,
		Buckets:       buckets,
	}, nil
}

// DeviceDetail is the per-device drill-down payload.
type DeviceDetail struct {
	DeviceID      string                      `json:"device_id"`
	RangeHours    int                         `json:"range_hours"`
	Runtime       float64                     `json:"runtime"`
	TotalKWh      float64                     `json:"total_kwh"`
	Emissions     float64                     `json:"emissions_kg"`
	EnergyCost    float64                     `json:"energy_cost"`
	Meals         []clients.MealWithDuration  `json:"meals"`
	MealsPerDay   map[string]int              `json:"meals_per_day"`
}

// DeviceDetail fetches one device's precomputed telemetry summary and
// derives emissions/cost locally.
func (s *DashboardService) DeviceDetail(ctx context.Context, device string, rangeHours int) (*DeviceDetail, error) {
	if device == "" {
		return nil, errors.New("dashboard: device is required")
	}
	if rangeHours <= 0 {
		rangeHours = s.defaultRange
	}

	data, err := s.fetcher.DeviceData(ctx, device, rangeHours)
	if err != nil {
		return nil, fmt.Errorf("dashboard: device data: %w", err)
	}

	return &DeviceDetail{
		DeviceID:    device,
		RangeHours:  rangeHours,
		Runtime:     data.Runtime,
		TotalKWh:    data.SumKWh,
		Emissions:   s.agg.EmissionsFor(data.SumKWh),
		EnergyCost:  s.agg.CostFor(data.SumKWh),
		Meals:       data.MealsWithDurations,
		MealsPerDay: data.TotalMealsPerDay,
	}, nil
}

func (s *DashboardService) fetchAllDeviceData(ctx context.Context, rangeHours int) (*clients.AllDeviceData, error) {
	var cached clients.AllDeviceData
	err := s.cache.Get(ctx, allDeviceDataCacheKey, rangeHours, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, redisstore.ErrCacheMiss) {
		s.logger.Warn("telemetry cache read failed", zap.Error(err))
	}

	data, err := s.fetcher.AllDeviceData(ctx, rangeHours)
	if err != nil {
		return nil, fmt.Errorf("dashboard: fetch telemetry: %w", err)
	}
	if s.metrics != nil {
		s.metrics.GatewayRequests.WithLabelValues(allDeviceDataCacheKey).Inc()
	}

	if err := s.cache.Set(ctx, allDeviceDataCacheKey, rangeHours, data); err != nil {
		s.logger.Warn("telemetry cache write failed", zap.Error(err))
	}
	return data, nil
}
