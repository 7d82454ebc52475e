package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// TxTimeLayout is the wall-clock format used by the telemetry backend
// for reading timestamps (YYYYMMDDHHMMSS, local time).
const TxTimeLayout = "20060102150405"

// Reading is a single telemetry sample as delivered by the remote API.
// TxTime stays a raw string until aggregation; the backend is known to
// send it both as a JSON string and as a bare number.
type Reading struct {
	DeviceID string  `json:"deviceID"`
	TxTime   string  `json:"txtime"`
	KWh      float64 `json:"kwh"`
}

// UnmarshalJSON accepts txtime as either a string or a number.
func (r *Reading) UnmarshalJSON(data []byte) error {
	type alias struct {
		DeviceID string      `json:"deviceID"`
		TxTime   json.Number `json:"txtime"`
		KWh      float64     `json:"kwh"`
	}
	var a alias
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&a); err != nil {
		return err
	}
	r.DeviceID = a.DeviceID
	r.TxTime = a.TxTime.String()
	r.KWh = a.KWh
	return nil
}

// ParseTxTime converts the raw txtime string into a local wall-clock time.
func ParseTxTime(txtime string) (time.Time, error) {
	if len(txtime) != len(TxTimeLayout) {
		return time.Time{}, fmt.Errorf("txtime %q: expected %d digits", txtime, len(TxTimeLayout))
	}
	t, err := time.ParseInLocation(TxTimeLayout, txtime, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("txtime %q: %w", txtime, err)
	}
	return t, nil
}
