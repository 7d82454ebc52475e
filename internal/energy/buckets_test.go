package energy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"powerpay/internal/models"
)

func TestBucketByTimeOfDayBoundaries(t *testing.T) {
	buckets, err := BucketByTimeOfDay([]models.Reading{
		reading("deviceA", "20240510035959", 1.0), // 03:59 night
		reading("deviceA", "20240510040000", 2.0), // 04:00 morning
		reading("deviceA", "20240510105900", 3.0), // 10:59 morning
		reading("deviceA", "20240510110000", 4.0), // 11:00 afternoon
		reading("deviceA", "20240510165900", 5.0), // 16:59 afternoon
		reading("deviceA", "20240510170000", 6.0), // 17:00 night
	})
	require.NoError(t, err)
	require.InDelta(t, 5.0, buckets.MorningKWh, 1e-9)
	require.InDelta(t, 9.0, buckets.AfternoonKWh, 1e-9)
	require.InDelta(t, 7.0, buckets.NightKWh, 1e-9)
}

func TestBucketByTimeOfDayConservesEnergy(t *testing.T) {
	input := []models.Reading{
		reading("deviceA", "20240510063000", 1.2),
		reading("OfficeFridge1", "20240510123000", 0.4), // sentinel counts here
		reading("deviceB", "20240510220000", -0.1),      // noise passes through
	}
	buckets, err := BucketByTimeOfDay(input)
	require.NoError(t, err)

	var sum float64
	for _, r := range input {
		sum += r.KWh
	}
	require.InDelta(t, sum, buckets.Total(), 1e-9)
}

func TestBucketByTimeOfDayFailsOnBadTimestamp(t *testing.T) {
	_, err := BucketByTimeOfDay([]models.Reading{
		reading("deviceA", "20240510", 1.0),
	})
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	require.Equal(t, "deviceA", parseErr.DeviceID)
}
