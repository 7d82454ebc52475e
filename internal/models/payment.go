package models

import "time"

// PaymentAudit is the persisted trail of an STK push attempt. The
// in-memory tracker owns the live handshake; these rows record history.
type PaymentAudit struct {
	ID              int64     `db:"id" json:"id"`
	Reference       string    `db:"reference" json:"reference"`
	Contact         string    `db:"contact" json:"contact"`
	Amount          float64   `db:"amount" json:"amount"`
	Status          string    `db:"status" json:"status"`
	Message         string    `db:"message" json:"message"`
	ReceiptNumber   string    `db:"receipt_number" json:"receipt_number"`
	TransactionDate string    `db:"transaction_date" json:"transaction_date"`
	PhoneNumber     string    `db:"phone_number" json:"phone_number"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
