package lineitem

import (
	"errors"
	"time"

	"github.com/NewAcropolis/api-sub000/pkg/money"
)

// LineItem is one of TicketLine, BookLine, DeliveryLine, PointOfSaleLine or
// Unresolvable.
type LineItem interface {
	lineItem()
}

// TicketLine buys Quantity admissions to the event referenced by EventRef.
type TicketLine struct {
	EventRef string
	Quantity int
	Gross    money.Amount
	// DateIndex is the 1-based event date chosen on the button; 0 when absent.
	DateIndex  int
	TicketType string
	Name       string
}

type BookLine struct {
	BookRef  string
	Quantity int
	Gross    money.Amount
}

type DeliveryLine struct {
	Amount money.Amount
}

// PointOfSaleLine is a card reader payment taken at the door. It carries no
// item number; the event is whichever one runs on the day of PaidAt.
type PointOfSaleLine struct {
	PaidAt     time.Time
	Gross      money.Amount
	TicketType string
}

type Unresolvable struct {
	ItemNumber string
}

func (TicketLine) lineItem()      {}
func (BookLine) lineItem()        {}
func (DeliveryLine) lineItem()    {}
func (PointOfSaleLine) lineItem() {}
func (Unresolvable) lineItem()    {}

// Decoded pairs a line item with the cart index it came from. Err is set only
// for Unresolvable items.
type Decoded struct {
	Index int
	Item  LineItem
	Err   error
}

var (
	ErrMissingItemNumber  = errors.New("missing_item_number")
	ErrMissingBookID      = errors.New("missing_book_id")
	ErrInvalidQuantity    = errors.New("invalid_quantity")
	ErrQuantityTooLarge   = errors.New("quantity_too_large")
	ErrInvalidGross       = errors.New("invalid_gross")
	ErrInvalidDateIndex   = errors.New("invalid_date_index")
	ErrInvalidPaymentDate = errors.New("invalid_payment_date")
)
