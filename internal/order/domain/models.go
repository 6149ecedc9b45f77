package domain

import (
	"strings"
	"time"

	"github.com/NewAcropolis/api-sub000/pkg/money"
	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type TicketStatus string

const (
	TicketStatusUnused TicketStatus = "unused"
	TicketStatusUsed   TicketStatus = "used"
)

type TicketType string

const (
	TicketTypeFull        TicketType = "Full"
	TicketTypeConcession  TicketType = "Concession"
	TicketTypeMember      TicketType = "Member"
	TicketTypeAllVariants TicketType = "All"
)

// ParseTicketType maps a button option selection to a ticket type. An empty
// selection is a full price ticket; unknown selections are kept verbatim.
func ParseTicketType(raw string) TicketType {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "", "full":
		return TicketTypeFull
	case "concession", "conc":
		return TicketTypeConcession
	case "member":
		return TicketTypeMember
	case "all", "all-variants", "all variants":
		return TicketTypeAllVariants
	default:
		return TicketType(raw)
	}
}

type Event struct {
	ID        string       `gorm:"primaryKey" json:"id"`
	OldID     *int         `gorm:"column:old_id;uniqueIndex" json:"old_id,omitempty"`
	Title     string       `gorm:"not null" json:"title"`
	EventType string       `gorm:"column:event_type;not null;default:''" json:"event_type"`
	Fee       money.Amount `gorm:"not null;default:0" json:"fee"`
	ConcFee   money.Amount `gorm:"column:conc_fee;not null;default:0" json:"conc_fee"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`

	// Dates are ordered by start time.
	Dates []EventDate `gorm:"-" json:"event_dates,omitempty"`
}

func (Event) TableName() string { return "events" }

type EventDate struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	OldID         *int      `gorm:"column:old_id;uniqueIndex" json:"old_id,omitempty"`
	EventID       string    `gorm:"column:event_id;not null;index" json:"event_id"`
	EventDatetime time.Time `gorm:"column:event_datetime;not null" json:"event_datetime"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
}

func (EventDate) TableName() string { return "event_dates" }

type Book struct {
	ID        string       `gorm:"primaryKey" json:"id"`
	OldID     *int         `gorm:"column:old_id;uniqueIndex" json:"old_id,omitempty"`
	Title     string       `gorm:"not null" json:"title"`
	Author    string       `gorm:"not null;default:''" json:"author"`
	Price     money.Amount `gorm:"not null;default:0" json:"price"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

func (Book) TableName() string { return "books" }

// Order is one reconciled gateway transaction.
type Order struct {
	ID                 snowflake.ID      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	TxnID              string            `gorm:"column:txn_id;not null;uniqueIndex:ux_orders_txn_id" json:"txn_id"`
	TxnType            string            `gorm:"column:txn_type;not null;default:''" json:"txn_type"`
	PaymentStatus      string            `gorm:"column:payment_status;not null;default:''" json:"payment_status"`
	PaymentTotal       money.Amount      `gorm:"column:payment_total;not null;default:0" json:"payment_total"`
	BuyerName          string            `gorm:"column:buyer_name;not null;default:''" json:"buyer_name"`
	EmailAddress       string            `gorm:"column:email_address;not null;default:''" json:"email_address"`
	AddressStreet      string            `gorm:"column:address_street;not null;default:''" json:"address_street"`
	AddressCity        string            `gorm:"column:address_city;not null;default:''" json:"address_city"`
	AddressPostalCode  string            `gorm:"column:address_postal_code;not null;default:''" json:"address_postal_code"`
	AddressState       string            `gorm:"column:address_state;not null;default:''" json:"address_state"`
	AddressCountry     string            `gorm:"column:address_country;not null;default:''" json:"address_country"`
	AddressCountryCode string            `gorm:"column:address_country_code;not null;default:''" json:"address_country_code"`
	DeliveryZone       string            `gorm:"column:delivery_zone;not null;default:''" json:"delivery_zone"`
	DeliveryStatus     string            `gorm:"column:delivery_status;not null;default:''" json:"delivery_status"`
	DeliveryBalance    money.Amount      `gorm:"column:delivery_balance;not null;default:0" json:"delivery_balance"`
	DeliveryLines      int               `gorm:"column:delivery_lines;not null;default:0" json:"delivery_lines"`
	Notes              string            `gorm:"not null;default:''" json:"notes"`
	Params             datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"params,omitempty"`
	CreatedAt          time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"not null" json:"updated_at"`

	Tickets []Ticket     `gorm:"-" json:"tickets"`
	Books   []OrderBook  `gorm:"-" json:"books"`
	Errors  []OrderError `gorm:"-" json:"errors"`
}

func (Order) TableName() string { return "orders" }

type Ticket struct {
	ID           string        `gorm:"primaryKey" json:"id"`
	OldID        *int          `gorm:"column:old_id;uniqueIndex" json:"old_id,omitempty"`
	OrderID      *snowflake.ID `gorm:"column:order_id;index" json:"order_id,omitempty"`
	EventID      string        `gorm:"column:event_id;not null" json:"event_id"`
	EventDateID  string        `gorm:"column:eventdate_id;not null" json:"eventdate_id"`
	TicketType   TicketType    `gorm:"column:ticket_type;not null" json:"ticket_type"`
	Price        money.Amount  `gorm:"not null;default:0" json:"price"`
	TicketNumber int           `gorm:"column:ticket_number;not null" json:"ticket_number"`
	LineIndex    int           `gorm:"column:line_index;not null;default:0" json:"line_index"`
	Name         string        `gorm:"not null;default:''" json:"name,omitempty"`
	Status       TicketStatus  `gorm:"not null;default:'unused'" json:"status"`
	CreatedAt    time.Time     `gorm:"not null" json:"created_at"`
	LastUpdated  time.Time     `gorm:"column:last_updated;not null" json:"last_updated"`

	Event     *Event     `gorm:"-" json:"event,omitempty"`
	EventDate *EventDate `gorm:"-" json:"event_date,omitempty"`
}

func (Ticket) TableName() string { return "tickets" }

type OrderBook struct {
	OrderID  snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"order_id"`
	BookID   string       `gorm:"primaryKey" json:"book_id"`
	Quantity int          `gorm:"not null" json:"quantity"`

	Book *Book `gorm:"-" json:"book,omitempty"`
}

func (OrderBook) TableName() string { return "order_books" }

// OrderError records a line item that could not be fulfilled. The order
// itself is kept so the payment is never lost.
type OrderError struct {
	ID        snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	OrderID   snowflake.ID `gorm:"column:order_id;not null;index" json:"order_id"`
	Error     string       `gorm:"not null" json:"error"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

func (OrderError) TableName() string { return "order_errors" }

// HasAddress reports whether any postal address field was supplied.
func (o *Order) HasAddress() bool {
	for _, v := range []string{
		o.AddressStreet,
		o.AddressCity,
		o.AddressPostalCode,
		o.AddressState,
		o.AddressCountry,
		o.AddressCountryCode,
	} {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
