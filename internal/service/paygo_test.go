package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"powerpay/internal/models"
)

type fakePaygoSource struct {
	sales   []models.PaygoSale
	metered *bool
}

func (f *fakePaygoSource) PaygoSales(ctx context.Context, metered bool) ([]models.PaygoSale, error) {
	f.metered = &metered
	return f.sales, nil
}

func paygoFixture() []models.PaygoSale {
	return []models.PaygoSale{
		{
			ProductSerialNumber: "SN-0042",
			PaymentData: models.PaygoPaymentData{
				PaymentStatus: "fully-paid",
				TotalPaid:     900,
				PaygoBalance:  0,
				Days:          120,
				Balance:       0,
			},
		},
		{
			ProductSerialNumber: "SN-0007",
			PaymentData: models.PaygoPaymentData{
				PaymentStatus: "overdue",
				TotalPaid:     150,
				PaygoBalance:  450,
				Days:          12,
				Balance:       300,
			},
		},
		{
			ProductSerialNumber: "SN-0019",
			PaymentData: models.PaygoPaymentData{
				PaymentStatus: "on-time",
				TotalPaid:     400,
				PaygoBalance:  200,
				Days:          60,
				Balance:       100,
			},
		},
	}
}

func TestPaygoSalesSortBySerialTail(t *testing.T) {
	svc := NewPaygoService(&fakePaygoSource{sales: paygoFixture()})

	listing, err := svc.Sales(context.Background(), PaygoListInput{})
	require.NoError(t, err)

	serials := make([]string, 0, len(listing.Sales))
	for _, sale := range listing.Sales {
		serials = append(serials, sale.ProductSerialNumber)
	}
	require.Equal(t, []string{"SN-0007", "SN-0019", "SN-0042"}, serials)
}

func TestPaygoSalesSortByStatus(t *testing.T) {
	svc := NewPaygoService(&fakePaygoSource{sales: paygoFixture()})

	listing, err := svc.Sales(context.Background(), PaygoListInput{SortKey: PaygoSortByStatus})
	require.NoError(t, err)

	statuses := make([]string, 0, len(listing.Sales))
	for _, sale := range listing.Sales {
		statuses = append(statuses, sale.PaymentData.PaymentStatus)
	}
	require.Equal(t, []string{"overdue", "on-time", "fully-paid"}, statuses)
}

func TestPaygoSalesSortDescending(t *testing.T) {
	svc := NewPaygoService(&fakePaygoSource{sales: paygoFixture()})

	listing, err := svc.Sales(context.Background(), PaygoListInput{SortKey: PaygoSortByPaid, Direction: "desc"})
	require.NoError(t, err)

	require.Equal(t, float64(900), float64(listing.Sales[0].PaymentData.TotalPaid))
	require.Equal(t, float64(150), float64(listing.Sales[2].PaymentData.TotalPaid))
}

func TestPaygoSalesRejectsUnknownSortKey(t *testing.T) {
	svc := NewPaygoService(&fakePaygoSource{})

	_, err := svc.Sales(context.Background(), PaygoListInput{SortKey: "nonsense"})
	require.ErrorIs(t, err, ErrUnsupportedSortKey)
}

func TestPaygoSalesForwardsMeteredFlag(t *testing.T) {
	source := &fakePaygoSource{}
	svc := NewPaygoService(source)

	_, err := svc.Sales(context.Background(), PaygoListInput{Metered: true})
	require.NoError(t, err)
	require.NotNil(t, source.metered)
	require.True(t, *source.metered)
}

func TestSerialTail(t *testing.T) {
	require.Equal(t, 42, serialTail("SN-0042"))
	require.Equal(t, 0, serialTail("abc"))
	require.Equal(t, 0, serialTail("SN-XYZW"))
}
