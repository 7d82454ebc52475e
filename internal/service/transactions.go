package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"powerpay/internal/models"
)

// TransactionSource is the remote API subset the service needs.
type TransactionSource interface {
	MpesaRecords(ctx context.Context) ([]models.MpesaTransaction, error)
}

// TransactionsService lists and exports settled mobile-money records.
type TransactionsService struct {
	source TransactionSource
}

// NewTransactionsService builds the service.
func NewTransactionsService(source TransactionSource) *TransactionsService {
	return &TransactionsService{source: source}
}

// TransactionListing is one page of transactions, newest first.
type TransactionListing struct {
	Transactions []models.MpesaTransaction `json:"transactions"`
	Page         Page                      `json:"page"`
}

// List returns transactions sorted by transtime descending, optionally
// filtered by a substring match on id, name or ref.
func (s *TransactionsService) List(ctx context.Context, query string, page int) (*TransactionListing, error) {
	records, err := s.fetchSorted(ctx)
	if err != nil {
		return nil, err
	}

	if q := strings.ToLower(strings.TrimSpace(query)); q != "" {
		filtered := records[:0]
		for _, rec := range records {
			if strings.Contains(strings.ToLower(rec.Name), q) ||
				strings.Contains(strings.ToLower(rec.Ref), q) ||
				strings.Contains(strings.ToLower(rec.ID), q) {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	start, end, meta := pageBounds(len(records), page)
	return &TransactionListing{Transactions: records[start:end], Page: meta}, nil
}

// ExportCSV writes the full transaction history as CSV, newest first.
// The raw "time" column of the remote payload is dropped from exports.
func (s *TransactionsService) ExportCSV(ctx context.Context, w io.Writer) error {
	records, err := s.fetchSorted(ctx)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "name", "ref", "amount", "transtime"}); err != nil {
		return fmt.Errorf("transactions: write csv header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.ID,
			rec.Name,
			rec.Ref,
			strconv.FormatFloat(rec.Amount, 'f', 2, 64),
			rec.TransTime,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("transactions: write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func (s *TransactionsService) fetchSorted(ctx context.Context) ([]models.MpesaTransaction, error) {
	records, err := s.source.MpesaRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("transactions: fetch: %w", err)
	}
	// transtime is zero-padded YYYYMMDDHHMMSS, so string order is
	// chronological order.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].TransTime > records[j].TransTime
	})
	return records, nil
}
