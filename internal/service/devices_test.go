package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"powerpay/internal/models"
)

type fakeCatalog struct {
	devices []models.Device
	added   []string
	err     error
}

func (f *fakeCatalog) Devices(ctx context.Context) ([]models.Device, error) {
	return f.devices, f.err
}

func (f *fakeCatalog) AddDevice(ctx context.Context, name string) error {
	f.added = append(f.added, name)
	return f.err
}

func TestDeviceListOrdinalSort(t *testing.T) {
	catalog := &fakeCatalog{devices: []models.Device{
		{DeviceID: "OfficeFridge1"},
		{DeviceID: "device10"},
		{DeviceID: "JD-29ED3"},
		{DeviceID: "device2"},
		{DeviceID: "weird-name"},
	}}
	svc := NewDevicesService(catalog, "OfficeFridge1", zap.NewNop())

	listing, err := svc.List(context.Background(), DeviceListInput{})
	require.NoError(t, err)

	ids := make([]string, 0, len(listing.Devices))
	for _, d := range listing.Devices {
		ids = append(ids, d.DeviceID)
	}
	// Numbered devices in natural order, unknown names after, sentinel last.
	require.Equal(t, []string{"device2", "JD-29ED3", "device10", "weird-name", "OfficeFridge1"}, ids)
}

func TestDeviceListRejectsUnknownSortKey(t *testing.T) {
	svc := NewDevicesService(&fakeCatalog{}, "OfficeFridge1", zap.NewNop())

	_, err := svc.List(context.Background(), DeviceListInput{SortKey: "favourite_color"})
	require.ErrorIs(t, err, ErrUnsupportedSortKey)
}

func TestDeviceListSearchFilter(t *testing.T) {
	catalog := &fakeCatalog{devices: []models.Device{
		{DeviceID: "device1"},
		{DeviceID: "device2"},
		{DeviceID: "JD-29ED7"},
	}}
	svc := NewDevicesService(catalog, "OfficeFridge1", zap.NewNop())

	listing, err := svc.List(context.Background(), DeviceListInput{Query: "jd-"})
	require.NoError(t, err)
	require.Len(t, listing.Devices, 1)
	require.Equal(t, "JD-29ED7", listing.Devices[0].DeviceID)
}

func TestDeviceListPagination(t *testing.T) {
	catalog := &fakeCatalog{}
	for i := 1; i <= 25; i++ {
		catalog.devices = append(catalog.devices, models.Device{DeviceID: deviceName(i)})
	}
	svc := NewDevicesService(catalog, "OfficeFridge1", zap.NewNop())

	listing, err := svc.List(context.Background(), DeviceListInput{Page: 3})
	require.NoError(t, err)
	require.Len(t, listing.Devices, 5)
	require.Equal(t, 3, listing.Page.Number)
	require.Equal(t, 3, listing.Page.TotalPages)
	require.Equal(t, 25, listing.Page.TotalItems)
	require.Len(t, listing.DeviceIDs, 25)

	// Out-of-range pages clamp instead of erroring.
	listing, err = svc.List(context.Background(), DeviceListInput{Page: 99})
	require.NoError(t, err)
	require.Equal(t, 3, listing.Page.Number)
}

func TestDeviceRegister(t *testing.T) {
	catalog := &fakeCatalog{}
	svc := NewDevicesService(catalog, "OfficeFridge1", zap.NewNop())

	require.Error(t, svc.Register(context.Background(), "  "))
	require.NoError(t, svc.Register(context.Background(), "device30"))
	require.Equal(t, []string{"device30"}, catalog.added)
}

func TestDeviceListPropagatesFetchError(t *testing.T) {
	svc := NewDevicesService(&fakeCatalog{err: errors.New("boom")}, "OfficeFridge1", zap.NewNop())
	_, err := svc.List(context.Background(), DeviceListInput{})
	require.Error(t, err)
}

func deviceName(i int) string {
	return fmt.Sprintf("device%02d", i)
}
