package repository

import (
	"context"
	"database/sql"

	"powerpay/internal/models"
)

// PaymentRepository persists the audit trail of STK push attempts.
type PaymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository returns a repository instance.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Insert stores a freshly initiated request.
func (r *PaymentRepository) Insert(ctx context.Context, audit *models.PaymentAudit) error {
	const query = `
		INSERT INTO payment_requests (reference, contact, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		audit.Reference,
		audit.Contact,
		audit.Amount,
		audit.Status,
	).Scan(&audit.ID, &audit.CreatedAt, &audit.UpdatedAt)
}

// MarkResolved records the terminal outcome for the newest row of the
// reference.
func (r *PaymentRepository) MarkResolved(ctx context.Context, audit *models.PaymentAudit) error {
	const query = `
		UPDATE payment_requests
		SET status = $2,
			message = $3,
			receipt_number = $4,
			transaction_date = $5,
			phone_number = $6,
			updated_at = NOW()
		WHERE id = (
			SELECT id FROM payment_requests
			WHERE reference = $1
			ORDER BY created_at DESC
			LIMIT 1
		)
	`
	_, err := r.db.ExecContext(ctx, query,
		audit.Reference,
		audit.Status,
		audit.Message,
		audit.ReceiptNumber,
		audit.TransactionDate,
		audit.PhoneNumber,
	)
	return err
}

// ListRecent returns the newest audit rows.
func (r *PaymentRepository) ListRecent(ctx context.Context, limit int) ([]models.PaymentAudit, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT id, reference, contact, amount, status,
			COALESCE(message, ''), COALESCE(receipt_number, ''),
			COALESCE(transaction_date, ''), COALESCE(phone_number, ''),
			created_at, updated_at
		FROM payment_requests
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var audits []models.PaymentAudit
	for rows.Next() {
		var a models.PaymentAudit
		if err := rows.Scan(
			&a.ID, &a.Reference, &a.Contact, &a.Amount, &a.Status,
			&a.Message, &a.ReceiptNumber, &a.TransactionDate, &a.PhoneNumber,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		audits = append(audits, a)
	}
	return audits, rows.Err()
}
