package payments

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// MalformedCallbackError reports an unparseable webhook payload. The
// tracked request stays pending; a garbage callback must never push a
// payment into failed.
type MalformedCallbackError struct {
	Reason string
}

func (e *MalformedCallbackError) Error() string {
	return fmt.Sprintf("payments: malformed callback: %s", e.Reason)
}

// Wire shape of the gateway's STK callback. Metadata values arrive
// untyped: amounts and phone numbers as numbers, receipts as strings.
type stkCallbackEnvelope struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string       `json:"MerchantRequestID"`
			CheckoutRequestID string       `json:"CheckoutRequestID"`
			ResultCode        *int         `json:"ResultCode"`
			ResultDesc        string       `json:"ResultDesc"`
			CallbackMetadata  metadataList `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

type metadataList struct {
	Item []metadataItem `json:"Item"`
}

type metadataItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value"`
}

// ParseCallback extracts the Outcome from a raw webhook body. The
// returned reference is the CheckoutRequestID when present; callers that
// receive the reference out of band (query parameter) take precedence.
func ParseCallback(body []byte) (reference string, out Outcome, err error) {
	var envelope stkCallbackEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", Outcome{}, &MalformedCallbackError{Reason: "invalid JSON"}
	}

	cb := envelope.Body.StkCallback
	if cb.ResultCode == nil {
		return "", Outcome{}, &MalformedCallbackError{Reason: "missing Body.stkCallback.ResultCode"}
	}

	out = Outcome{
		Code:        *cb.ResultCode,
		Description: cb.ResultDesc,
	}
	if out.Code == 0 {
		for _, item := range cb.CallbackMetadata.Item {
			switch item.Name {
			case "Amount":
				out.Amount = toFloat(item.Value)
			case "MpesaReceiptNumber":
				out.ReceiptNumber = toString(item.Value)
			case "TransactionDate":
				out.TransactionDate = toString(item.Value)
			case "PhoneNumber":
				out.PhoneNumber = toString(item.Value)
			}
		}
	} else {
		// Failure messages shown to users stay uniform regardless of
		// the gateway's wording.
		out.Description = ""
	}

	return cb.CheckoutRequestID, out, nil
}

func toFloat(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func toString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
