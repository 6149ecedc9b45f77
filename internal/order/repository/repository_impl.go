package repository

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/NewAcropolis/api-sub000/internal/order/domain"
	"github.com/NewAcropolis/api-sub000/pkg/money"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const orderColumns = `id, txn_id, txn_type, payment_status, payment_total, buyer_name, email_address,
	address_street, address_city, address_postal_code, address_state, address_country, address_country_code,
	delivery_zone, delivery_status, delivery_balance, delivery_lines, notes, params, created_at, updated_at`

const ticketColumns = `id, old_id, order_id, event_id, eventdate_id, ticket_type, price, ticket_number,
	line_index, name, status, created_at, last_updated`

func (r *repo) FindOrderByTxnID(ctx context.Context, db *gorm.DB, txnID string) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT `+orderColumns+` FROM orders WHERE txn_id = ? LIMIT 1`,
		txnID,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) CreateOrderWithChildren(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Exec(
			`INSERT INTO orders (`+orderColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			order.ID,
			order.TxnID,
			order.TxnType,
			order.PaymentStatus,
			order.PaymentTotal,
			order.BuyerName,
			order.EmailAddress,
			order.AddressStreet,
			order.AddressCity,
			order.AddressPostalCode,
			order.AddressState,
			order.AddressCountry,
			order.AddressCountryCode,
			order.DeliveryZone,
			order.DeliveryStatus,
			order.DeliveryBalance,
			order.DeliveryLines,
			order.Notes,
			order.Params,
			order.CreatedAt,
			order.UpdatedAt,
		).Error
		if err != nil {
			return err
		}

		for i := range order.Tickets {
			t := &order.Tickets[i]
			err := tx.Exec(
				`INSERT INTO tickets (`+ticketColumns+`)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				t.ID,
				t.OldID,
				t.OrderID,
				t.EventID,
				t.EventDateID,
				t.TicketType,
				t.Price,
				t.TicketNumber,
				t.LineIndex,
				t.Name,
				t.Status,
				t.CreatedAt,
				t.LastUpdated,
			).Error
			if err != nil {
				return err
			}
		}

		for _, b := range order.Books {
			err := tx.Exec(
				`INSERT INTO order_books (order_id, book_id, quantity) VALUES (?, ?, ?)`,
				b.OrderID,
				b.BookID,
				b.Quantity,
			).Error
			if err != nil {
				return err
			}
		}

		for _, e := range order.Errors {
			err := tx.Exec(
				`INSERT INTO order_errors (id, order_id, error, created_at) VALUES (?, ?, ?, ?)`,
				e.ID,
				e.OrderID,
				e.Error,
				e.CreatedAt,
			).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repo) ListTicketsByOrderID(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	err := db.WithContext(ctx).Raw(
		`SELECT `+ticketColumns+` FROM tickets WHERE order_id = ? ORDER BY line_index ASC, ticket_number ASC`,
		orderID,
	).Scan(&tickets).Error
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *repo) ListOrderBooks(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]domain.OrderBook, error) {
	var books []domain.OrderBook
	err := db.WithContext(ctx).Raw(
		`SELECT order_id, book_id, quantity FROM order_books WHERE order_id = ? ORDER BY book_id ASC`,
		orderID,
	).Scan(&books).Error
	if err != nil {
		return nil, err
	}
	return books, nil
}

func (r *repo) ListOrderErrors(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]domain.OrderError, error) {
	var errs []domain.OrderError
	err := db.WithContext(ctx).Raw(
		`SELECT id, order_id, error, created_at FROM order_errors WHERE order_id = ? ORDER BY id ASC`,
		orderID,
	).Scan(&errs).Error
	if err != nil {
		return nil, err
	}
	return errs, nil
}

// UpdateDeliveryBalance adds amount to the order's delivery balance in one
// statement and marks delivery as completedStatus once nothing is owed.
func (r *repo) UpdateDeliveryBalance(ctx context.Context, db *gorm.DB, txnID string, amount money.Amount, completedStatus string, at time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		// MySQL applies SET assignments left to right, so the status must be
		// computed from the balance before it is incremented.
		`UPDATE orders
		 SET delivery_status = CASE WHEN delivery_balance + ? >= 0 THEN ? ELSE delivery_status END,
		     delivery_balance = delivery_balance + ?,
		     updated_at = ?
		 WHERE txn_id = ?`,
		amount,
		completedStatus,
		amount,
		at,
		txnID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindEventByIDOrLegacyID(ctx context.Context, db *gorm.DB, ref string) (*domain.Event, error) {
	where, args, ok := byIDOrLegacyID(ref)
	if !ok {
		return nil, nil
	}

	var event domain.Event
	err := db.WithContext(ctx).Raw(
		`SELECT id, old_id, title, event_type, fee, conc_fee, created_at FROM events WHERE `+where+` LIMIT 1`,
		args...,
	).Scan(&event).Error
	if err != nil {
		return nil, err
	}
	if event.ID == "" {
		return nil, nil
	}

	err = db.WithContext(ctx).Raw(
		`SELECT id, old_id, event_id, event_datetime, created_at
		 FROM event_dates WHERE event_id = ? ORDER BY event_datetime ASC, id ASC`,
		event.ID,
	).Scan(&event.Dates).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repo) FindEventDateByID(ctx context.Context, db *gorm.DB, id string) (*domain.EventDate, error) {
	var date domain.EventDate
	err := db.WithContext(ctx).Raw(
		`SELECT id, old_id, event_id, event_datetime, created_at FROM event_dates WHERE id = ? LIMIT 1`,
		id,
	).Scan(&date).Error
	if err != nil {
		return nil, err
	}
	if date.ID == "" {
		return nil, nil
	}
	return &date, nil
}

// FindEventDatesOnCalendarDate returns dates starting in [dayStart, dayEnd),
// earliest first with ties broken by event id.
func (r *repo) FindEventDatesOnCalendarDate(ctx context.Context, db *gorm.DB, dayStart, dayEnd time.Time) ([]domain.EventDate, error) {
	var dates []domain.EventDate
	err := db.WithContext(ctx).Raw(
		`SELECT id, old_id, event_id, event_datetime, created_at
		 FROM event_dates
		 WHERE event_datetime >= ? AND event_datetime < ?
		 ORDER BY event_datetime ASC, event_id ASC, id ASC`,
		dayStart.UTC(),
		dayEnd.UTC(),
	).Scan(&dates).Error
	if err != nil {
		return nil, err
	}
	return dates, nil
}

func (r *repo) FindBookByIDOrLegacyID(ctx context.Context, db *gorm.DB, ref string) (*domain.Book, error) {
	where, args, ok := byIDOrLegacyID(ref)
	if !ok {
		return nil, nil
	}

	var book domain.Book
	err := db.WithContext(ctx).Raw(
		`SELECT id, old_id, title, author, price, created_at FROM books WHERE `+where+` LIMIT 1`,
		args...,
	).Scan(&book).Error
	if err != nil {
		return nil, err
	}
	if book.ID == "" {
		return nil, nil
	}
	return &book, nil
}

func (r *repo) FindTicketByIDOrLegacyID(ctx context.Context, db *gorm.DB, ref string) (*domain.Ticket, error) {
	where, args, ok := byIDOrLegacyID(ref)
	if !ok {
		return nil, nil
	}

	var ticket domain.Ticket
	err := db.WithContext(ctx).Raw(
		`SELECT `+ticketColumns+` FROM tickets WHERE `+where+` LIMIT 1`,
		args...,
	).Scan(&ticket).Error
	if err != nil {
		return nil, err
	}
	if ticket.ID == "" {
		return nil, nil
	}
	return &ticket, nil
}

// UpdateTicketStatus moves a ticket from one status to another. It reports
// false when the ticket was not in the from status.
func (r *repo) UpdateTicketStatus(ctx context.Context, db *gorm.DB, id string, from, to domain.TicketStatus, at time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE tickets SET status = ?, last_updated = ? WHERE id = ? AND status = ?`,
		to,
		at,
		id,
		from,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// byIDOrLegacyID matches either the current id or, for numeric references,
// the integer id carried over from the previous system.
func byIDOrLegacyID(ref string) (string, []any, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", nil, false
	}
	if legacy, err := strconv.Atoi(ref); err == nil && legacy > 0 {
		return "(id = ? OR old_id = ?)", []any{ref, legacy}, true
	}
	return "id = ?", []any{ref}, true
}
