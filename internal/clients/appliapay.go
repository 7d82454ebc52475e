// Package clients talks to the AppliaPay backend: device telemetry on
// the read side, STK push payments on the write side. Every request is
// authenticated with HTTP basic auth.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"powerpay/internal/models"
)

// Remote endpoint paths. The naming is the backend's, not ours.
const (
	endpointAllDeviceData = "allDeviceDataDjango"
	endpointDeviceData    = "deviceDataDjangoo"
	endpointDevices       = "command"
	endpointMpesaRecords  = "mpesarecords"
	endpointPaygoMetered  = "paygoScode"
	endpointPaygoUnmeter  = "paygoScodeNonMetered"
	endpointSTKPush       = "stkpush"
	endpointAddDevice     = "addDevice"
)

// HTTPDoer is the http.Client subset the client needs.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// NewDefaultHTTPClient returns *http.Client with timeout.
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// InitiationError wraps an STK push that never got an acknowledgement:
// transport failure, non-2xx status, or an undecodable response.
type InitiationError struct {
	StatusCode int
	Err        error
}

func (e *InitiationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("clients: stk push rejected with status %d", e.StatusCode)
	}
	return fmt.Sprintf("clients: stk push failed: %v", e.Err)
}

func (e *InitiationError) Unwrap() error { return e.Err }

// AppliaPay is the remote API client.
type AppliaPay struct {
	baseURL  string
	username string
	password string
	client   HTTPDoer
}

// NewAppliaPay builds a client for the given base URL and credentials.
func NewAppliaPay(baseURL, username, password string, client HTTPDoer) *AppliaPay {
	return &AppliaPay{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		client:   client,
	}
}

// AllDeviceData is the combined telemetry payload behind the dashboard.
type AllDeviceData struct {
	TotalKWh float64            `json:"totalkwh"`
	Runtime  map[string]float64 `json:"runtime"`
	RawData  []models.Reading   `json:"rawData"`
}

// Empty reports whether the backend returned no data for the range:
// no energy, no readings, and no recorded runtime.
func (d *AllDeviceData) Empty() bool {
	if d.TotalKWh != 0 || len(d.RawData) != 0 {
		return false
	}
	for _, hours := range d.Runtime {
		if hours != 0 {
			return false
		}
	}
	return true
}

// MealWithDuration is a precomputed episode row from the per-device endpoint.
type MealWithDuration struct {
	StartTime    string  `json:"startTime"`
	EndTime      string  `json:"endTime"`
	MealDuration float64 `json:"mealDuration"`
	TotalKWh     float64 `json:"totalKwh"`
}

// DeviceData is the per-device telemetry payload.
type DeviceData struct {
	Runtime            float64            `json:"runtime"`
	SumKWh             float64            `json:"sumKwh"`
	MealsWithDurations []MealWithDuration `json:"mealsWithDurations"`
	TotalMealsPerDay   map[string]int     `json:"totalMealsPerDay"`
}

// STKPushResponse is the gateway's synchronous acknowledgement. The real
// outcome arrives later on the webhook.
type STKPushResponse struct {
	ResponseCode        int    `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
}

// AllDeviceData fetches telemetry for every device within rangeHours.
func (c *AppliaPay) AllDeviceData(ctx context.Context, rangeHours int) (*AllDeviceData, error) {
	query := url.Values{"range": {strconv.Itoa(rangeHours)}}
	var data AllDeviceData
	if err := c.get(ctx, endpointAllDeviceData, query, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// DeviceData fetches telemetry for one device within rangeHours.
func (c *AppliaPay) DeviceData(ctx context.Context, device string, rangeHours int) (*DeviceData, error) {
	query := url.Values{
		"device": {device},
		"range":  {strconv.Itoa(rangeHours)},
	}
	var data DeviceData
	if err := c.get(ctx, endpointDeviceData, query, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Devices lists provisioned devices with their last command state.
func (c *AppliaPay) Devices(ctx context.Context) ([]models.Device, error) {
	var devices []models.Device
	if err := c.get(ctx, endpointDevices, nil, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// MpesaRecords lists settled mobile-money transactions.
func (c *AppliaPay) MpesaRecords(ctx context.Context) ([]models.MpesaTransaction, error) {
	var records []models.MpesaTransaction
	if err := c.get(ctx, endpointMpesaRecords, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// PaygoSales lists pay-as-you-go sales, metered or non-metered.
func (c *AppliaPay) PaygoSales(ctx context.Context, metered bool) ([]models.PaygoSale, error) {
	endpoint := endpointPaygoMetered
	if !metered {
		endpoint = endpointPaygoUnmeter
	}
	var sales []models.PaygoSale
	if err := c.get(ctx, endpoint, nil, &sales); err != nil {
		return nil, err
	}
	return sales, nil
}

// STKPush asks the gateway to push a payment prompt to the contact's
// phone. The returned acknowledgement only says the prompt was sent.
func (c *AppliaPay) STKPush(ctx context.Context, contact string, amount float64, reference string) (*STKPushResponse, error) {
	payload := map[string]interface{}{
		"contact": contact,
		"ref":     reference,
		"amount":  amount,
	}
	status, body, err := c.do(ctx, http.MethodPost, endpointSTKPush, nil, payload)
	if err != nil {
		return nil, &InitiationError{Err: err}
	}
	if status < 200 || status > 299 {
		return nil, &InitiationError{StatusCode: status}
	}
	var resp STKPushResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &InitiationError{Err: fmt.Errorf("decode response: %w", err)}
	}
	return &resp, nil
}

// AddDevice registers a new device name with the backend.
func (c *AppliaPay) AddDevice(ctx context.Context, name string) error {
	payload := map[string]string{"device": name}
	status, _, err := c.do(ctx, http.MethodPost, endpointAddDevice, nil, payload)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("clients: addDevice returned status %d", status)
	}
	return nil
}

func (c *AppliaPay) get(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	status, body, err := c.do(ctx, http.MethodGet, endpoint, query, nil)
	if err != nil {
		return fmt.Errorf("clients: %s: %w", endpoint, err)
	}
	if status < 200 || status > 299 {
		return fmt.Errorf("clients: %s returned status %d", endpoint, status)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("clients: %s: decode response: %w", endpoint, err)
	}
	return nil
}

func (c *AppliaPay) do(ctx context.Context, method, endpoint string, query url.Values, payload interface{}) (int, []byte, error) {
	target := c.baseURL + "/" + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, err
	}
	req.SetBasicAuth(c.username, c.password)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}
