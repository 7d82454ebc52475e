package clients

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"powerpay/internal/models"
)

func TestAllDeviceDataSendsBasicAuthAndRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "admin", user)
		require.Equal(t, "secret", pass)
		require.Equal(t, "/allDeviceDataDjango", r.URL.Path)
		require.Equal(t, "24", r.URL.Query().Get("range"))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"totalkwh": 12.5,
			"runtime":  map[string]float64{"device1": 3.5},
			"rawData": []map[string]interface{}{
				{"deviceID": "device1", "txtime": "20240510080000", "kwh": 1.5},
				{"deviceID": "device2", "txtime": 20240510081500, "kwh": 0.5},
			},
		})
	}))
	defer srv.Close()

	client := NewAppliaPay(srv.URL, "admin", "secret", srv.Client())
	data, err := client.AllDeviceData(context.Background(), 24)
	require.NoError(t, err)
	require.InDelta(t, 12.5, data.TotalKWh, 1e-9)
	require.Len(t, data.RawData, 2)
	// Numeric txtime decodes the same as a string one.
	require.Equal(t, "20240510081500", data.RawData[1].TxTime)
	require.False(t, data.Empty())
}

func TestSTKPushPostsPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/stkpush", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "254712345678", body["contact"])
		require.Equal(t, "REF-1", body["ref"])
		require.InDelta(t, 100.0, body["amount"].(float64), 1e-9)

		_ = json.NewEncoder(w).Encode(STKPushResponse{
			ResponseCode:        0,
			ResponseDescription: "Success. Request accepted for processing",
		})
	}))
	defer srv.Close()

	client := NewAppliaPay(srv.URL, "admin", "secret", srv.Client())
	resp, err := client.STKPush(context.Background(), "254712345678", 100, "REF-1")
	require.NoError(t, err)
	require.Equal(t, 0, resp.ResponseCode)
}

func TestSTKPushNon2xxIsInitiationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewAppliaPay(srv.URL, "admin", "secret", srv.Client())
	_, err := client.STKPush(context.Background(), "254712345678", 100, "REF-1")

	var initErr *InitiationError
	require.True(t, errors.As(err, &initErr))
	require.Equal(t, http.StatusBadGateway, initErr.StatusCode)
}

func TestSTKPushTransportErrorIsInitiationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	client := NewAppliaPay(srv.URL, "admin", "secret", &http.Client{})
	_, err := client.STKPush(context.Background(), "254712345678", 100, "REF-1")

	var initErr *InitiationError
	require.True(t, errors.As(err, &initErr))
	require.Zero(t, initErr.StatusCode)
}

func TestGetNon2xxFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewAppliaPay(srv.URL, "admin", "wrong", srv.Client())
	_, err := client.Devices(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "401")
}

func TestPaygoSalesEndpointSelection(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewAppliaPay(srv.URL, "admin", "secret", srv.Client())

	_, err := client.PaygoSales(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, "/paygoScode", path)

	_, err = client.PaygoSales(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, "/paygoScodeNonMetered", path)
}

func TestAllDeviceDataEmpty(t *testing.T) {
	require.True(t, (&AllDeviceData{}).Empty())
	require.True(t, (&AllDeviceData{Runtime: map[string]float64{"device1": 0}}).Empty())

	require.False(t, (&AllDeviceData{TotalKWh: 1.5}).Empty())
	require.False(t, (&AllDeviceData{
		RawData: []models.Reading{{DeviceID: "device1", TxTime: "20240510080000", KWh: 1}},
	}).Empty())
	// Runtime alone counts as data: a range where devices ran but sent
	// no raw readings must not trigger the default-range fallback.
	require.False(t, (&AllDeviceData{Runtime: map[string]float64{"device1": 2.5}}).Empty())
}
