// Package energy turns raw per-device telemetry readings into discrete
// usage episodes ("meals") and time-of-day energy totals.
//
// An episode is a contiguous run of readings for one device where no two
// consecutive timestamps are more than the configured gap apart. The
// sentinel device represents a continuous baseline load and is excluded
// from episode semantics entirely, but not from raw energy totals.
package energy

import (
	"fmt"
	"sort"
	"time"

	"powerpay/internal/models"
)

// Defaults mirror the production deployment: a 20 minute cooking gap,
// the office fridge as baseline load, KPLC grid emission factor and the
// flat tariff in KES per kWh.
const (
	DefaultGapThreshold   = 20 * time.Minute
	DefaultSentinelDevice = "OfficeFridge1"
	DefaultEmissionFactor = 0.4999 * 0.28
	DefaultTariffRate     = 23.0
)

// DateLayout keys daily episode counts.
const DateLayout = "2006-01-02"

// Config carries the tunables of the aggregation pass. A zero value in
// any field means "unset" and falls back to the default above, so an
// exact zero factor or rate cannot be injected; any other value passes
// through untouched.
type Config struct {
	GapThreshold   time.Duration
	SentinelDevice string
	EmissionFactor float64
	TariffRate     float64
}

func (c Config) withDefaults() Config {
	if c.GapThreshold <= 0 {
		c.GapThreshold = DefaultGapThreshold
	}
	if c.SentinelDevice == "" {
		c.SentinelDevice = DefaultSentinelDevice
	}
	if c.EmissionFactor == 0 {
		c.EmissionFactor = DefaultEmissionFactor
	}
	if c.TariffRate == 0 {
		c.TariffRate = DefaultTariffRate
	}
	return c
}

// Episode is one contiguous usage event. Emissions and cost are derived
// on demand, never stored.
type Episode struct {
	DeviceID  string    `json:"device_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	TotalKWh  float64   `json:"total_kwh"`
}

// Duration is the span between the first and last reading of the episode.
func (e Episode) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// Emissions converts the episode's energy into kg of CO2.
func (e Episode) Emissions(factor float64) float64 {
	return e.TotalKWh * factor
}

// Cost converts the episode's energy into currency units.
func (e Episode) Cost(rate float64) float64 {
	return e.TotalKWh * rate
}

// DailyCounts maps a calendar date (DateLayout) to per-device episode
// counts. A count increments exactly once per new-episode event, on the
// local date of the reading that opened the episode.
type DailyCounts map[string]map[string]int

// Total sums episode counts across devices for one date.
func (d DailyCounts) Total(date string) int {
	var n int
	for _, count := range d[date] {
		n += count
	}
	return n
}

// ParseError reports a reading whose timestamp could not be parsed. The
// aggregation pass that hit it produced no partial results.
type ParseError struct {
	DeviceID string
	TxTime   string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("energy: reading for device %q has malformed txtime %q: %v", e.DeviceID, e.TxTime, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Aggregator runs episode segmentation with a fixed Config.
type Aggregator struct {
	cfg Config
}

// New returns an Aggregator, filling unset Config fields with defaults.
func New(cfg Config) *Aggregator {
	return &Aggregator{cfg: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (a *Aggregator) Config() Config { return a.cfg }

// EmissionsFor converts an energy total into kg of CO2 using the
// configured factor.
func (a *Aggregator) EmissionsFor(kwh float64) float64 {
	return kwh * a.cfg.EmissionFactor
}

// CostFor converts an energy total into currency using the configured
// tariff.
func (a *Aggregator) CostFor(kwh float64) float64 {
	return kwh * a.cfg.TariffRate
}

type parsedReading struct {
	deviceID string
	at       time.Time
	kwh      float64
}

// Segment groups readings into per-device episodes and per-day episode
// counts. Input may be unsorted and may span devices; it is stable-sorted
// by (device, timestamp) first, ties keeping input order. A gap strictly
// greater than the threshold opens a new episode; a gap equal to the
// threshold extends the current one. Any malformed timestamp fails the
// whole call with *ParseError.
//
// Negative energy values are passed through untouched; filtering sensor
// noise is the caller's responsibility.
func (a *Aggregator) Segment(readings []models.Reading) (map[string][]Episode, DailyCounts, error) {
	parsed, err := parseAll(readings)
	if err != nil {
		return nil, nil, err
	}

	sort.SliceStable(parsed, func(i, j int) bool {
		if parsed[i].deviceID != parsed[j].deviceID {
			return parsed[i].deviceID < parsed[j].deviceID
		}
		return parsed[i].at.Before(parsed[j].at)
	})

	episodes := make(map[string][]Episode)
	daily := make(DailyCounts)

	for _, r := range parsed {
		if r.deviceID == a.cfg.SentinelDevice {
			continue
		}
		devEpisodes := episodes[r.deviceID]
		if n := len(devEpisodes); n > 0 && r.at.Sub(devEpisodes[n-1].EndTime) <= a.cfg.GapThreshold {
			devEpisodes[n-1].EndTime = r.at
			devEpisodes[n-1].TotalKWh += r.kwh
		} else {
			devEpisodes = append(devEpisodes, Episode{
				DeviceID:  r.deviceID,
				StartTime: r.at,
				EndTime:   r.at,
				TotalKWh:  r.kwh,
			})
			date := r.at.Format(DateLayout)
			if daily[date] == nil {
				daily[date] = make(map[string]int)
			}
			daily[date][r.deviceID]++
		}
		episodes[r.deviceID] = devEpisodes
	}

	return episodes, daily, nil
}

func parseAll(readings []models.Reading) ([]parsedReading, error) {
	parsed := make([]parsedReading, 0, len(readings))
	for _, r := range readings {
		at, err := models.ParseTxTime(r.TxTime)
		if err != nil {
			return nil, &ParseError{DeviceID: r.DeviceID, TxTime: r.TxTime, Err: err}
		}
		parsed = append(parsed, parsedReading{
			deviceID: r.DeviceID,
			at:       at,
			kwh:      r.KWh,
		})
	}
	return parsed, nil
}
