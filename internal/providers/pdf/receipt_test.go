package pdf

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/NewAcropolis/api-sub000/internal/order/domain"
	"github.com/NewAcropolis/api-sub000/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrder() *domain.Order {
	return &domain.Order{
		TxnID:              "TXN-1",
		BuyerName:          "Marcus Aurelius",
		EmailAddress:       "buyer@example.org",
		PaymentTotal:       money.MustParse("18.50"),
		AddressStreet:      "1 Palatine Hill",
		AddressCity:        "London",
		AddressCountryCode: "GB",
		DeliveryStatus:     "completed",
		CreatedAt:          time.Date(2026, 6, 1, 23, 30, 0, 0, time.UTC),
		Tickets: []domain.Ticket{{
			ID:         "ticket-abc",
			TicketType: domain.TicketTypeFull,
			Price:      money.MustParse("5.00"),
			Event:      &domain.Event{Title: "Philosophy and Life"},
			EventDate:  &domain.EventDate{EventDatetime: time.Date(2026, 6, 2, 18, 30, 0, 0, time.UTC)},
		}},
		Books: []domain.OrderBook{{
			BookID:   "book-1",
			Quantity: 1,
			Book:     &domain.Book{Title: "The Hero", Price: money.MustParse("10.00")},
		}},
		Errors: []domain.OrderError{{Error: "Event not found for item_number: 999"}},
	}
}

func TestReceiptFromOrder(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	data := ReceiptFromOrder(sampleOrder(), london)
	assert.Equal(t, "TXN-1", data.OrderRef)
	assert.Equal(t, "2 June 2026", data.DatePaid)
	assert.Equal(t, "1 Palatine Hill, London", data.BillToAddress)
	require.Len(t, data.Items, 2)
	assert.Equal(t, "Philosophy and Life - 2 Jun 2026 19:30 (Full)", data.Items[0].Description)
	assert.Equal(t, "ticket-abc", data.Items[0].Reference)
	assert.Equal(t, "The Hero", data.Items[1].Description)
	assert.Equal(t, []string{"Event not found for item_number: 999"}, data.Notes)
}

func TestGenerateOrderReceipt(t *testing.T) {
	r, err := New().GenerateOrderReceipt(context.Background(), ReceiptFromOrder(sampleOrder(), time.UTC))
	require.NoError(t, err)

	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(b[:4]))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "receipt-marcus-aurelius-txn-1.pdf", Filename(sampleOrder()))
}
