package domain

import (
	"context"
	"time"

	"github.com/NewAcropolis/api-sub000/pkg/money"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the storage boundary for orders and the catalog entries they
// reference. Finders return nil, nil when nothing matches.
type Repository interface {
	FindOrderByTxnID(ctx context.Context, db *gorm.DB, txnID string) (*Order, error)
	// CreateOrderWithChildren writes the order, its tickets, book lines and
	// errors in a single transaction.
	CreateOrderWithChildren(ctx context.Context, db *gorm.DB, order *Order) error
	ListTicketsByOrderID(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]Ticket, error)
	ListOrderBooks(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]OrderBook, error)
	ListOrderErrors(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]OrderError, error)
	UpdateDeliveryBalance(ctx context.Context, db *gorm.DB, txnID string, amount money.Amount, completedStatus string, at time.Time) (bool, error)

	FindEventByIDOrLegacyID(ctx context.Context, db *gorm.DB, ref string) (*Event, error)
	FindEventDateByID(ctx context.Context, db *gorm.DB, id string) (*EventDate, error)
	FindEventDatesOnCalendarDate(ctx context.Context, db *gorm.DB, dayStart, dayEnd time.Time) ([]EventDate, error)
	FindBookByIDOrLegacyID(ctx context.Context, db *gorm.DB, ref string) (*Book, error)

	FindTicketByIDOrLegacyID(ctx context.Context, db *gorm.DB, ref string) (*Ticket, error)
	UpdateTicketStatus(ctx context.Context, db *gorm.DB, id string, from, to TicketStatus, at time.Time) (bool, error)
}
