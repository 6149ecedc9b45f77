package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/NewAcropolis/api-sub000/internal/order/domain"
	"github.com/gosimple/slug"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

const (
	orgName    = "New Acropolis UK"
	orgAddress = "19 Belsize Park, London NW3 4DU"
)

type ReceiptData struct {
	OrderRef string
	DatePaid string

	BillToName    string
	BillToAddress string
	BillToEmail   string

	Items []ReceiptItem
	// Notes lists items that were paid for but could not be matched.
	Notes []string

	DeliveryStatus  string
	DeliveryBalance string
	Total           string
}

type ReceiptItem struct {
	Description string
	Qty         int
	UnitPrice   string
	Reference   string
}

// ReceiptFromOrder flattens an order with its children attached.
func ReceiptFromOrder(order *domain.Order, loc *time.Location) ReceiptData {
	data := ReceiptData{
		OrderRef:        order.TxnID,
		DatePaid:        order.CreatedAt.In(loc).Format("2 January 2006"),
		BillToName:      order.BuyerName,
		BillToEmail:     order.EmailAddress,
		DeliveryStatus:  order.DeliveryStatus,
		DeliveryBalance: order.DeliveryBalance.String(),
		Total:           order.PaymentTotal.String(),
	}
	if order.HasAddress() {
		parts := []string{order.AddressStreet, order.AddressCity, order.AddressPostalCode, order.AddressCountry}
		var lines []string
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				lines = append(lines, p)
			}
		}
		data.BillToAddress = strings.Join(lines, ", ")
	}

	for _, t := range order.Tickets {
		desc := "Ticket"
		if t.Event != nil {
			desc = t.Event.Title
		}
		if t.EventDate != nil {
			desc += " - " + t.EventDate.EventDatetime.In(loc).Format("2 Jan 2006 15:04")
		}
		if t.TicketType != "" {
			desc += " (" + string(t.TicketType) + ")"
		}
		data.Items = append(data.Items, ReceiptItem{
			Description: desc,
			Qty:         1,
			UnitPrice:   t.Price.String(),
			Reference:   t.ID,
		})
	}
	for _, b := range order.Books {
		item := ReceiptItem{Description: "Book " + b.BookID, Qty: b.Quantity}
		if b.Book != nil {
			item.Description = b.Book.Title
			item.UnitPrice = b.Book.Price.String()
		}
		data.Items = append(data.Items, item)
	}
	for _, e := range order.Errors {
		data.Notes = append(data.Notes, e.Error)
	}
	return data
}

// Filename is the attachment name for an order receipt.
func Filename(order *domain.Order) string {
	return slug.Make("receipt "+order.BuyerName+" "+order.TxnID) + ".pdf"
}

func (p *PDFProvider) GenerateOrderReceipt(ctx context.Context, receipt ReceiptData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	header := []core.Col{
		text.NewCol(9, "Receipt", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	}
	if p.logoPath != "" {
		if _, err := os.Stat(p.logoPath); err == nil {
			header = append(header, image.NewFromFileCol(3, p.logoPath, props.Rect{
				Center:  false,
				Percent: 80,
			}))
		}
	}
	m.AddRow(30, header...)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Order reference: "+receipt.OrderRef, props.Text{Top: 0}),
			text.New("Date paid: "+receipt.DatePaid, props.Text{Top: 4}),
		),
		col.New(6),
	)

	m.AddRow(35,
		col.New(6).Add(
			text.New(orgName, props.Text{Style: fontstyle.Bold}),
			text.New(orgAddress, props.Text{Top: 5}),
		),
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(receipt.BillToName, props.Text{Top: 5}),
			text.New(receipt.BillToAddress, props.Text{Top: 9}),
			text.New(receipt.BillToEmail, props.Text{Top: 20}),
		),
	)

	m.AddRow(15,
		text.NewCol(12, "GBP "+receipt.Total+" paid on "+receipt.DatePaid, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)

	m.AddRow(10,
		text.NewCol(5, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(1, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(4, "Reference", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, item := range receipt.Items {
		m.AddRow(10,
			text.NewCol(5, item.Description, props.Text{Size: 9}),
			text.NewCol(1, fmt.Sprintf("%d", item.Qty), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(4, item.Reference, props.Text{Size: 8, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Delivery", props.Text{Size: 9}),
		text.NewCol(2, receipt.DeliveryStatus, props.Text{Size: 9, Align: align.Right}),
	)
	if receipt.DeliveryBalance != "" && receipt.DeliveryBalance != "0.00" {
		m.AddRow(10,
			col.New(8),
			text.NewCol(2, "Delivery balance", props.Text{Size: 9}),
			text.NewCol(2, receipt.DeliveryBalance, props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(2, receipt.Total, props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
	)

	for _, note := range receipt.Notes {
		m.AddRow(8, text.NewCol(12, "Unmatched: "+note, props.Text{Size: 8, Top: 2}))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
