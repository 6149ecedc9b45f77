package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/NewAcropolis/api-sub000/internal/order/domain"
	"github.com/NewAcropolis/api-sub000/internal/payment/lineitem"
	"github.com/NewAcropolis/api-sub000/pkg/money"
	"github.com/google/uuid"
)

// assembly accumulates the children of an order while line items are applied.
type assembly struct {
	order      *domain.Order
	bookIndex  map[string]int
	deliveries []money.Amount
	now        time.Time
}

func (a *assembly) addError(genID func() domain.OrderError, format string, args ...any) {
	e := genID()
	e.Error = fmt.Sprintf(format, args...)
	a.order.Errors = append(a.order.Errors, e)
}

func (a *assembly) addTicket(t domain.Ticket) {
	orderID := a.order.ID
	t.ID = uuid.NewString()
	t.OrderID = &orderID
	t.CreatedAt = a.now
	t.LastUpdated = a.now
	a.order.Tickets = append(a.order.Tickets, t)
}

func (s *Service) newOrderError(a *assembly) func() domain.OrderError {
	return func() domain.OrderError {
		return domain.OrderError{ID: s.genID.Generate(), OrderID: a.order.ID, CreatedAt: a.now}
	}
}

// apply folds one decoded line into the assembly. Only storage failures are
// returned; anything that cannot be fulfilled becomes an OrderError.
func (s *Service) apply(ctx context.Context, a *assembly, d lineitem.Decoded) error {
	if d.Err != nil {
		itemNumber := ""
		if u, ok := d.Item.(lineitem.Unresolvable); ok {
			itemNumber = u.ItemNumber
		}
		a.addError(s.newOrderError(a), "Could not read item %d (item_number: %s): %v", d.Index, itemNumber, d.Err)
		return nil
	}

	switch item := d.Item.(type) {
	case lineitem.TicketLine:
		return s.applyTicketLine(ctx, a, d.Index, item)
	case lineitem.BookLine:
		return s.applyBookLine(ctx, a, item)
	case lineitem.DeliveryLine:
		a.deliveries = append(a.deliveries, item.Amount)
		return nil
	case lineitem.PointOfSaleLine:
		return s.applyPointOfSale(ctx, a, d.Index, item)
	default:
		a.addError(s.newOrderError(a), "Could not read item %d", d.Index)
		return nil
	}
}

func (s *Service) applyTicketLine(ctx context.Context, a *assembly, idx int, line lineitem.TicketLine) error {
	event, err := s.repo.FindEventByIDOrLegacyID(ctx, s.db, line.EventRef)
	if err != nil {
		return fmt.Errorf("find event: %w", err)
	}
	if event == nil {
		a.addError(s.newOrderError(a), "Event not found for item_number: %s", line.EventRef)
		return nil
	}

	dateIndex := line.DateIndex
	if dateIndex == 0 {
		dateIndex = 1
	}
	if dateIndex > len(event.Dates) {
		a.addError(s.newOrderError(a), "Event date %d not found for item_number: %s", dateIndex, line.EventRef)
		return nil
	}
	date := event.Dates[dateIndex-1]

	price := line.Gross.Div(line.Quantity)
	ticketType := domain.ParseTicketType(line.TicketType)
	for n := 1; n <= line.Quantity; n++ {
		a.addTicket(domain.Ticket{
			EventID:      event.ID,
			EventDateID:  date.ID,
			TicketType:   ticketType,
			Price:        price,
			TicketNumber: n,
			LineIndex:    idx,
			Name:         line.Name,
			Status:       domain.TicketStatusUnused,
			Event:        event,
			EventDate:    &date,
		})
	}
	return nil
}

func (s *Service) applyBookLine(ctx context.Context, a *assembly, line lineitem.BookLine) error {
	book, err := s.repo.FindBookByIDOrLegacyID(ctx, s.db, line.BookRef)
	if err != nil {
		return fmt.Errorf("find book: %w", err)
	}
	if book == nil {
		a.addError(s.newOrderError(a), "Book not found for item_number: book-%s", line.BookRef)
		return nil
	}

	if i, ok := a.bookIndex[book.ID]; ok {
		a.order.Books[i].Quantity += line.Quantity
		return nil
	}
	a.bookIndex[book.ID] = len(a.order.Books)
	a.order.Books = append(a.order.Books, domain.OrderBook{
		OrderID:  a.order.ID,
		BookID:   book.ID,
		Quantity: line.Quantity,
		Book:     book,
	})
	return nil
}

// applyPointOfSale issues one already redeemed ticket for the event running
// on the local calendar day of the payment.
func (s *Service) applyPointOfSale(ctx context.Context, a *assembly, idx int, line lineitem.PointOfSaleLine) error {
	local := line.PaidAt.In(s.loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	dates, err := s.repo.FindEventDatesOnCalendarDate(ctx, s.db, dayStart, dayEnd)
	if err != nil {
		return fmt.Errorf("find event dates: %w", err)
	}
	if len(dates) == 0 {
		a.addError(s.newOrderError(a), "No event found on %s for point of sale payment", dayStart.Format("2006-01-02"))
		return nil
	}
	date := earliestEventDate(dates)

	event, err := s.repo.FindEventByIDOrLegacyID(ctx, s.db, date.EventID)
	if err != nil {
		return fmt.Errorf("find event: %w", err)
	}
	if event == nil {
		a.addError(s.newOrderError(a), "Event not found for event date: %s", date.ID)
		return nil
	}

	a.addTicket(domain.Ticket{
		EventID:      event.ID,
		EventDateID:  date.ID,
		TicketType:   domain.ParseTicketType(line.TicketType),
		Price:        line.Gross,
		TicketNumber: 1,
		LineIndex:    idx,
		Status:       domain.TicketStatusUsed,
		Event:        event,
		EventDate:    &date,
	})
	return nil
}

// earliestEventDate picks the first date to start, then the smallest event id
// when two events share a start time.
func earliestEventDate(dates []domain.EventDate) domain.EventDate {
	sorted := append([]domain.EventDate(nil), dates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].EventDatetime.Equal(sorted[j].EventDatetime) {
			return sorted[i].EventDatetime.Before(sorted[j].EventDatetime)
		}
		return sorted[i].EventID < sorted[j].EventID
	})
	return sorted[0]
}
