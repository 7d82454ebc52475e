package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"powerpay/internal/models"
)

// Sort keys accepted by the paygo sales listing.
const (
	PaygoSortBySerial  = "product_serial_number"
	PaygoSortByStatus  = "payment_status"
	PaygoSortByPaid    = "totalPaid"
	PaygoSortByBalance = "paygoBalance"
	PaygoSortByDays    = "days"
	PaygoSortByOwed    = "balance"
)

// paymentStatusRank orders overdue before on-time before fully-paid;
// anything else sorts after the known statuses.
var paymentStatusRank = map[string]int{
	"overdue":    0,
	"on-time":    1,
	"fully-paid": 2,
}

var paygoComparators = map[string]func(a, b models.PaygoSale) bool{
	PaygoSortBySerial: func(a, b models.PaygoSale) bool {
		return serialTail(a.ProductSerialNumber) < serialTail(b.ProductSerialNumber)
	},
	PaygoSortByStatus: func(a, b models.PaygoSale) bool {
		return statusRank(a.PaymentData.PaymentStatus) < statusRank(b.PaymentData.PaymentStatus)
	},
	PaygoSortByPaid: func(a, b models.PaygoSale) bool {
		return a.PaymentData.TotalPaid < b.PaymentData.TotalPaid
	},
	PaygoSortByBalance: func(a, b models.PaygoSale) bool {
		return a.PaymentData.PaygoBalance < b.PaymentData.PaygoBalance
	},
	PaygoSortByDays: func(a, b models.PaygoSale) bool {
		return a.PaymentData.Days < b.PaymentData.Days
	},
	PaygoSortByOwed: func(a, b models.PaygoSale) bool {
		return a.PaymentData.Balance < b.PaymentData.Balance
	},
}

// PaygoSource is the remote API subset the service needs.
type PaygoSource interface {
	PaygoSales(ctx context.Context, metered bool) ([]models.PaygoSale, error)
}

// PaygoService lists pay-as-you-go sales.
type PaygoService struct {
	source PaygoSource
}

// NewPaygoService builds the service.
func NewPaygoService(source PaygoSource) *PaygoService {
	return &PaygoService{source: source}
}

// PaygoListInput are the listing parameters.
type PaygoListInput struct {
	Metered   bool
	SortKey   string
	Direction string
	Page      int
}

// PaygoListing is one page of sales.
type PaygoListing struct {
	Sales []models.PaygoSale `json:"sales"`
	Page  Page               `json:"page"`
}

// Sales fetches, sorts and paginates paygo sales. Sort keys outside the
// enumerated set are rejected.
func (s *PaygoService) Sales(ctx context.Context, input PaygoListInput) (*PaygoListing, error) {
	if input.SortKey == "" {
		input.SortKey = PaygoSortBySerial
	}
	less, ok := paygoComparators[input.SortKey]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSortKey, input.SortKey)
	}

	sales, err := s.source.PaygoSales(ctx, input.Metered)
	if err != nil {
		return nil, fmt.Errorf("paygo: fetch: %w", err)
	}

	sort.SliceStable(sales, func(i, j int) bool {
		if descending(input.Direction) {
			return less(sales[j], sales[i])
		}
		return less(sales[i], sales[j])
	})

	start, end, meta := pageBounds(len(sales), input.Page)
	return &PaygoListing{Sales: sales[start:end], Page: meta}, nil
}

// serialTail orders serials by their last four digits; short or
// non-numeric serials sort first.
func serialTail(serial string) int {
	if len(serial) < 4 {
		return 0
	}
	n, err := strconv.Atoi(serial[len(serial)-4:])
	if err != nil {
		return 0
	}
	return n
}

func statusRank(status string) int {
	if rank, ok := paymentStatusRank[status]; ok {
		return rank
	}
	return len(paymentStatusRank)
}
