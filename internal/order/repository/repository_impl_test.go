package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/NewAcropolis/api-sub000/internal/order/domain"
	"github.com/NewAcropolis/api-sub000/internal/order/ordertest"
	pkgdb "github.com/NewAcropolis/api-sub000/pkg/db"
	"github.com/NewAcropolis/api-sub000/pkg/money"
	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newOrder(t *testing.T, node *snowflake.Node, txnID string) *domain.Order {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Order{
		ID:             node.Generate(),
		TxnID:          txnID,
		TxnType:        "cart",
		PaymentStatus:  "Completed",
		PaymentTotal:   money.MustParse("13.50"),
		BuyerName:      "Ada Lovelace",
		EmailAddress:   "ada@example.com",
		DeliveryStatus: "completed",
		Params:         datatypes.JSONMap{"txn_id": txnID},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestCreateOrderWithChildrenAndReadBack(t *testing.T) {
	ctx := context.Background()
	db := ordertest.NewDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	r := Provide()

	start := time.Date(2026, 3, 10, 19, 0, 0, 0, time.UTC)
	event := ordertest.SeedEvent(t, db, "Philosophy for Living", 42, start)
	book := ordertest.SeedBook(t, db, "The Hero", 7, "10.00")

	order := newOrder(t, node, "TXN-1")
	orderID := order.ID
	for i := 1; i <= 2; i++ {
		order.Tickets = append(order.Tickets, domain.Ticket{
			ID:           uuid.NewString(),
			OrderID:      &orderID,
			EventID:      event.ID,
			EventDateID:  event.Dates[0].ID,
			TicketType:   domain.TicketTypeFull,
			Price:        money.MustParse("5.00"),
			TicketNumber: i,
			LineIndex:    1,
			Status:       domain.TicketStatusUnused,
			CreatedAt:    order.CreatedAt,
			LastUpdated:  order.CreatedAt,
		})
	}
	order.Books = []domain.OrderBook{{OrderID: orderID, BookID: book.ID, Quantity: 1}}
	order.Errors = []domain.OrderError{{ID: node.Generate(), OrderID: orderID, Error: "Event not found for item_number: 99", CreatedAt: order.CreatedAt}}

	require.NoError(t, r.CreateOrderWithChildren(ctx, db, order))

	got, err := r.FindOrderByTxnID(ctx, db, "TXN-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, orderID, got.ID)
	assert.Equal(t, money.MustParse("13.50"), got.PaymentTotal)
	assert.Equal(t, "TXN-1", got.Params["txn_id"])

	tickets, err := r.ListTicketsByOrderID(ctx, db, orderID)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, 1, tickets[0].TicketNumber)
	assert.Equal(t, 2, tickets[1].TicketNumber)

	books, err := r.ListOrderBooks(ctx, db, orderID)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, 1, books[0].Quantity)

	errs, err := r.ListOrderErrors(ctx, db, orderID)
	require.NoError(t, err)
	require.Len(t, errs, 1)
}

func TestCreateOrderWithChildrenIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := ordertest.NewDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	r := Provide()

	order := newOrder(t, node, "TXN-ATOMIC")
	orderID := order.ID
	dup := uuid.NewString()
	// Two tickets share a primary key so the second insert fails.
	for i := 1; i <= 2; i++ {
		order.Tickets = append(order.Tickets, domain.Ticket{
			ID: dup, OrderID: &orderID, EventID: "e", EventDateID: "d",
			TicketType: domain.TicketTypeFull, TicketNumber: i, Status: domain.TicketStatusUnused,
			CreatedAt: order.CreatedAt, LastUpdated: order.CreatedAt,
		})
	}

	require.Error(t, r.CreateOrderWithChildren(ctx, db, order))
	assert.Equal(t, int64(0), ordertest.Count(t, db, "orders"))
	assert.Equal(t, int64(0), ordertest.Count(t, db, "tickets"))
}

func TestCreateOrderWithChildrenRejectsDuplicateTxnID(t *testing.T) {
	ctx := context.Background()
	db := ordertest.NewDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	r := Provide()

	require.NoError(t, r.CreateOrderWithChildren(ctx, db, newOrder(t, node, "TXN-DUP")))
	err = r.CreateOrderWithChildren(ctx, db, newOrder(t, node, "TXN-DUP"))
	require.Error(t, err)
	assert.True(t, pkgdb.IsDuplicateKeyErr(err))
	assert.Equal(t, int64(1), ordertest.Count(t, db, "orders"))
}

func TestFindByIDOrLegacyID(t *testing.T) {
	ctx := context.Background()
	db := ordertest.NewDB(t)
	r := Provide()

	later := time.Date(2026, 5, 2, 19, 0, 0, 0, time.UTC)
	earlier := time.Date(2026, 5, 1, 19, 0, 0, 0, time.UTC)
	event := ordertest.SeedEvent(t, db, "Stoicism", 120, later, earlier)
	book := ordertest.SeedBook(t, db, "Theosophy", 3, "7.50")

	byID, err := r.FindEventByIDOrLegacyID(ctx, db, event.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	require.Len(t, byID.Dates, 2)
	assert.True(t, byID.Dates[0].EventDatetime.Equal(earlier))

	byLegacy, err := r.FindEventByIDOrLegacyID(ctx, db, "120")
	require.NoError(t, err)
	require.NotNil(t, byLegacy)
	assert.Equal(t, event.ID, byLegacy.ID)

	missing, err := r.FindEventByIDOrLegacyID(ctx, db, "999")
	require.NoError(t, err)
	assert.Nil(t, missing)

	gotBook, err := r.FindBookByIDOrLegacyID(ctx, db, "3")
	require.NoError(t, err)
	require.NotNil(t, gotBook)
	assert.Equal(t, book.ID, gotBook.ID)
	assert.Equal(t, money.MustParse("7.50"), gotBook.Price)

	none, err := r.FindBookByIDOrLegacyID(ctx, db, "  ")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestFindEventDatesOnCalendarDate(t *testing.T) {
	ctx := context.Background()
	db := ordertest.NewDB(t)
	r := Provide()

	day := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	ordertest.SeedEvent(t, db, "Evening", 0, day.Add(19*time.Hour))
	morning := ordertest.SeedEvent(t, db, "Morning", 0, day.Add(10*time.Hour))
	ordertest.SeedEvent(t, db, "Tomorrow", 0, day.Add(34*time.Hour))

	dates, err := r.FindEventDatesOnCalendarDate(ctx, db, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.Equal(t, morning.ID, dates[0].EventID)
}

func TestUpdateTicketStatusOnlyFromExpectedState(t *testing.T) {
	ctx := context.Background()
	db := ordertest.NewDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	r := Provide()

	order := newOrder(t, node, "TXN-T")
	orderID := order.ID
	legacy := 501
	ticketID := uuid.NewString()
	order.Tickets = []domain.Ticket{{
		ID: ticketID, OldID: &legacy, OrderID: &orderID, EventID: "e", EventDateID: "d",
		TicketType: domain.TicketTypeMember, TicketNumber: 1, Status: domain.TicketStatusUnused,
		CreatedAt: order.CreatedAt, LastUpdated: order.CreatedAt,
	}}
	require.NoError(t, r.CreateOrderWithChildren(ctx, db, order))

	ticket, err := r.FindTicketByIDOrLegacyID(ctx, db, "501")
	require.NoError(t, err)
	require.NotNil(t, ticket)
	assert.Equal(t, ticketID, ticket.ID)

	now := time.Now().UTC()
	ok, err := r.UpdateTicketStatus(ctx, db, ticketID, domain.TicketStatusUnused, domain.TicketStatusUsed, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.UpdateTicketStatus(ctx, db, ticketID, domain.TicketStatusUnused, domain.TicketStatusUsed, now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateDeliveryBalance(t *testing.T) {
	ctx := context.Background()
	db := ordertest.NewDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	r := Provide()

	order := newOrder(t, node, "TXN-D")
	order.DeliveryStatus = "no_delivery_fee"
	order.DeliveryBalance = money.MustParse("-6.50")
	require.NoError(t, r.CreateOrderWithChildren(ctx, db, order))

	now := time.Now().UTC()
	found, err := r.UpdateDeliveryBalance(ctx, db, "TXN-D", money.MustParse("3.00"), "completed", now)
	require.NoError(t, err)
	assert.True(t, found)
	got, err := r.FindOrderByTxnID(ctx, db, "TXN-D")
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("-3.50"), got.DeliveryBalance)
	assert.Equal(t, "no_delivery_fee", got.DeliveryStatus)

	_, err = r.UpdateDeliveryBalance(ctx, db, "TXN-D", money.MustParse("3.50"), "completed", now)
	require.NoError(t, err)
	got, err = r.FindOrderByTxnID(ctx, db, "TXN-D")
	require.NoError(t, err)
	assert.Equal(t, money.Amount(0), got.DeliveryBalance)
	assert.Equal(t, "completed", got.DeliveryStatus)

	found, err = r.UpdateDeliveryBalance(ctx, db, "NOPE", 100, "completed", now)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUpdateDeliveryBalanceDecidesStatusBeforeIncrement(t *testing.T) {
	ctx := context.Background()
	db := ordertest.NewDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	r := Provide()

	var statement string
	require.NoError(t, db.Callback().Raw().After("gorm:raw").Register("test:capture_sql", func(tx *gorm.DB) {
		statement = tx.Statement.SQL.String()
	}))

	order := newOrder(t, node, "TXN-M")
	order.DeliveryStatus = "no_delivery_fee"
	order.DeliveryBalance = money.MustParse("-3.50")
	require.NoError(t, r.CreateOrderWithChildren(ctx, db, order))

	_, err = r.UpdateDeliveryBalance(ctx, db, "TXN-M", money.MustParse("2.00"), "completed", time.Now().UTC())
	require.NoError(t, err)

	status := strings.Index(statement, "delivery_status =")
	balance := strings.Index(statement, "delivery_balance = delivery_balance")
	require.NotEqual(t, -1, status)
	require.NotEqual(t, -1, balance)
	assert.Less(t, status, balance)

	got, err := r.FindOrderByTxnID(ctx, db, "TXN-M")
	require.NoError(t, err)
	assert.Equal(t, money.MustParse("-1.50"), got.DeliveryBalance)
	assert.Equal(t, "no_delivery_fee", got.DeliveryStatus)
}
