package models

// Device is a row from the remote command endpoint describing a
// provisioned appliance and its last reported state.
type Device struct {
	DeviceID string `json:"deviceID"`
	Time     string `json:"time"`
	Active   bool   `json:"active"`
}
