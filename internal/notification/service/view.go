package service

import (
	"net/url"

	orderdomain "github.com/NewAcropolis/api-sub000/internal/order/domain"
)

type ticketView struct {
	ID         string
	EventTitle string
	Date       string
	Type       string
	Name       string
	Price      string
}

type bookView struct {
	Title    string
	Quantity int
	Price    string
}

type orderView struct {
	TxnID          string
	BuyerName      string
	Email          string
	Total          string
	DeliveryStatus string
	DeliveryZone   string
	DeliveryLines  int
	Balance        string
	CompleteURL    string
	Tickets        []ticketView
	Books          []bookView
	Errors         []string
}

func (s *Service) newView(order *orderdomain.Order) orderView {
	v := orderView{
		TxnID:          order.TxnID,
		BuyerName:      order.BuyerName,
		Email:          order.EmailAddress,
		Total:          order.PaymentTotal.String(),
		DeliveryStatus: order.DeliveryStatus,
		DeliveryZone:   order.DeliveryZone,
		DeliveryLines:  order.DeliveryLines,
		Balance:        order.DeliveryBalance.Abs().String(),
		CompleteURL:    s.frontendURL + "/order/complete/" + url.PathEscape(order.TxnID),
	}
	if v.BuyerName == "" {
		v.BuyerName = "friend"
	}

	for _, t := range order.Tickets {
		tv := ticketView{
			ID:         t.ID,
			EventTitle: "Event",
			Type:       string(t.TicketType),
			Name:       t.Name,
			Price:      t.Price.String(),
		}
		if t.Event != nil {
			tv.EventTitle = t.Event.Title
		}
		if t.EventDate != nil {
			tv.Date = t.EventDate.EventDatetime.In(s.loc).Format("Mon 2 Jan 2006 15:04")
		}
		v.Tickets = append(v.Tickets, tv)
	}

	for _, b := range order.Books {
		bv := bookView{Title: b.BookID, Quantity: b.Quantity}
		if b.Book != nil {
			bv.Title = b.Book.Title
			bv.Price = b.Book.Price.String()
		}
		v.Books = append(v.Books, bv)
	}

	for _, e := range order.Errors {
		v.Errors = append(v.Errors, e.Error)
	}
	return v
}
