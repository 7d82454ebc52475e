package models

// MpesaTransaction is a settled mobile-money record fetched from the
// remote payments backend.
type MpesaTransaction struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Ref       string  `json:"ref"`
	Amount    float64 `json:"amount"`
	TransTime string  `json:"transtime"`
	Time      string  `json:"time,omitempty"`
}
