package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"powerpay/internal/clients"
	"powerpay/internal/energy"
	"powerpay/internal/models"
)

type fakeTelemetry struct {
	byRange map[int]*clients.AllDeviceData
	calls   []int
}

func (f *fakeTelemetry) AllDeviceData(ctx context.Context, rangeHours int) (*clients.AllDeviceData, error) {
	f.calls = append(f.calls, rangeHours)
	if data, ok := f.byRange[rangeHours]; ok {
		return data, nil
	}
	return &clients.AllDeviceData{}, nil
}

func (f *fakeTelemetry) DeviceData(ctx context.Context, device string, rangeHours int) (*clients.DeviceData, error) {
	return &clients.DeviceData{
		Runtime: 3.5,
		SumKWh:  10,
	}, nil
}

func newDashboard(fetcher TelemetryFetcher, defaultRange int) *DashboardService {
	agg := energy.New(energy.Config{})
	return NewDashboardService(fetcher, nil, agg, nil, defaultRange, zap.NewNop())
}

func TestSummaryAggregatesTelemetry(t *testing.T) {
	fetcher := &fakeTelemetry{byRange: map[int]*clients.AllDeviceData{
		24: {
			TotalKWh: 3.5,
			Runtime:  map[string]float64{"device1": 1.25},
			RawData: []models.Reading{
				{DeviceID: "device1", TxTime: "20240116080000", KWh: 1.5},
				{DeviceID: "device1", TxTime: "20240116081500", KWh: 2.0},
			},
		},
	}}
	svc := newDashboard(fetcher, 9999999)

	summary, err := svc.Summary(context.Background(), 24)
	require.NoError(t, err)
	require.False(t, summary.Fallback)
	require.Equal(t, 24, summary.RangeHours)
	require.InDelta(t, 3.5, summary.TotalKWh, 1e-9)
	require.Equal(t, 1, summary.TotalMeals)
	require.Equal(t, DeviceMeals{Count: 1, TotalKWh: 3.5}, summary.Meals["device1"])
	require.InDelta(t, 3.5*energy.DefaultEmissionFactor, summary.TotalEmission, 1e-9)
	require.InDelta(t, 3.5*energy.DefaultTariffRate, summary.TotalCost, 1e-9)
	require.InDelta(t, 3.5, summary.Buckets.Total(), 1e-9)
}

func TestSummaryFallsBackToDefaultRange(t *testing.T) {
	fetcher := &fakeTelemetry{byRange: map[int]*clients.AllDeviceData{
		9999999: {
			TotalKWh: 1.0,
			RawData: []models.Reading{
				{DeviceID: "device1", TxTime: "20240116080000", KWh: 1.0},
			},
		},
	}}
	svc := newDashboard(fetcher, 9999999)

	summary, err := svc.Summary(context.Background(), 24)
	require.NoError(t, err)
	require.True(t, summary.Fallback)
	require.Equal(t, 9999999, summary.RangeHours)
	require.Equal(t, []int{24, 9999999}, fetcher.calls)
}

func TestSummaryParseFailureIsAtomic(t *testing.T) {
	fetcher := &fakeTelemetry{byRange: map[int]*clients.AllDeviceData{
		24: {
			RawData: []models.Reading{
				{DeviceID: "device1", TxTime: "garbage", KWh: 1.0},
			},
		},
	}}
	svc := newDashboard(fetcher, 9999999)

	_, err := svc.Summary(context.Background(), 24)
	var parseErr *energy.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "device1", parseErr.DeviceID)
}

func TestDeviceDetailDerivesCostAndEmissions(t *testing.T) {
	svc := newDashboard(&fakeTelemetry{}, 9999999)

	detail, err := svc.DeviceDetail(context.Background(), "device1", 0)
	require.NoError(t, err)
	require.Equal(t, "device1", detail.DeviceID)
	require.Equal(t, 9999999, detail.RangeHours)
	require.InDelta(t, 10*energy.DefaultEmissionFactor, detail.Emissions, 1e-9)
	require.InDelta(t, 10*energy.DefaultTariffRate, detail.EnergyCost, 1e-9)

	_, err = svc.DeviceDetail(context.Background(), "", 0)
	require.Error(t, err)
}
