package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Money is a numeric value the remote API serializes inconsistently,
// sometimes as a number and sometimes as a quoted string. Unparseable
// values decode to zero rather than failing the whole payload.
type Money float64

// UnmarshalJSON implements lenient numeric decoding.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*m = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*m = 0
		return nil
	}
	*m = Money(v)
	return nil
}

// MarshalJSON keeps Money a plain number on the way out.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(m))
}

// PaygoPaymentData is the nested payment summary attached to a paygo sale.
type PaygoPaymentData struct {
	PaymentStatus string `json:"payment_status"`
	TotalPaid     Money  `json:"totalPaid"`
	PaygoBalance  Money  `json:"paygoBalance"`
	Days          Money  `json:"days"`
	Balance       Money  `json:"balance"`
}

// PaygoSale is one pay-as-you-go sale row from the remote API.
type PaygoSale struct {
	ProductSerialNumber string           `json:"product_serial_number"`
	CustomerName        string           `json:"customer_name,omitempty"`
	PaymentData         PaygoPaymentData `json:"paymentData"`
}
