package lineitem

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	paymentdomain "github.com/NewAcropolis/api-sub000/internal/payment/domain"
	"github.com/NewAcropolis/api-sub000/pkg/money"
)

// Option names as configured on the payment buttons.
const (
	OptionDate       = "Date"
	OptionType       = "Type"
	OptionMemberName = "Course Member name"

	bookPrefix = "book-"
	maxOptions = 10

	// MaxQuantity bounds the tickets or books a single line may issue.
	MaxQuantity = 500
	// maxCartItems bounds num_cart_items so a forged count cannot fan out.
	maxCartItems = 100
)

var cartLineKey = regexp.MustCompile(`^(?:item_number|item_name|quantity|mc_gross)_?(\d+)$`)

// singleLineKeys mark a single item button even when item_number is missing.
var singleLineKeys = []string{"item_number", "item_name", "quantity", "mc_gross"}

// PayPal reports payment_date in Pacific time with the zone abbreviation.
var paymentDateLayouts = []string{
	"15:04:05 Jan 2, 2006 MST",
	"15:04:05 Jan 2 2006 MST",
	time.RFC3339,
	"2006-01-02",
}

type Decoder struct {
	deliveryProductID string
	pacific           *time.Location
}

func NewDecoder(deliveryProductID string) *Decoder {
	pacific, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		pacific = time.FixedZone("PST", -8*60*60)
	}
	return &Decoder{
		deliveryProductID: strings.TrimSpace(deliveryProductID),
		pacific:           pacific,
	}
}

// Decode turns a notification into ordered line items. It never fails as a
// whole; a bad line yields an Unresolvable item carrying the reason.
func (d *Decoder) Decode(n paymentdomain.Notification) []Decoded {
	if n.TxnType() == paymentdomain.TxnTypePointOfSale {
		return []Decoded{d.decodePointOfSale(n)}
	}

	indexes := cartIndexes(n)
	if len(indexes) == 0 {
		if !hasSingleLine(n) {
			return nil
		}
		return []Decoded{d.decodeLine(single{n: n})}
	}

	out := make([]Decoded, 0, len(indexes))
	for _, idx := range indexes {
		out = append(out, d.decodeLine(indexed{n: n, idx: idx}))
	}
	return out
}

// fields resolves per-line keys for either a cart or a single item button.
type fields interface {
	index() int
	get(field string) string
	has(field string) bool
	option(kind string, k int) string
}

type indexed struct {
	n   paymentdomain.Notification
	idx int
}

func (f indexed) index() int { return f.idx }

func (f indexed) key(field string) string {
	plain := field + strconv.Itoa(f.idx)
	if f.n.Has(plain) {
		return plain
	}
	return field + "_" + strconv.Itoa(f.idx)
}

func (f indexed) get(field string) string { return f.n.Get(f.key(field)) }
func (f indexed) has(field string) bool   { return f.n.Has(f.key(field)) }

func (f indexed) option(kind string, k int) string {
	return f.n.Get(fmt.Sprintf("option_%s%d_%d", kind, k, f.idx))
}

type single struct {
	n paymentdomain.Notification
}

func (f single) index() int              { return 1 }
func (f single) get(field string) string { return f.n.Get(field) }
func (f single) has(field string) bool   { return f.n.Has(field) }

func (f single) option(kind string, k int) string {
	return f.n.Get(fmt.Sprintf("option_%s%d", kind, k))
}

// options collects the button options of a line keyed by their name.
func options(f fields) map[string]string {
	out := map[string]string{}
	for k := 1; k <= maxOptions; k++ {
		name := f.option("name", k)
		if name == "" {
			continue
		}
		out[strings.ToLower(name)] = f.option("selection", k)
	}
	return out
}

func (d *Decoder) decodeLine(f fields) Decoded {
	itemNumber := f.get("item_number")
	if itemNumber == "" {
		return unresolvable(f.index(), itemNumber, ErrMissingItemNumber)
	}

	quantity := 1
	if raw := f.get("quantity"); raw != "" {
		q, err := strconv.Atoi(raw)
		if err != nil || q <= 0 {
			return unresolvable(f.index(), itemNumber, fmt.Errorf("%w: %q", ErrInvalidQuantity, raw))
		}
		if q > MaxQuantity {
			return unresolvable(f.index(), itemNumber, fmt.Errorf("%w: %d exceeds %d", ErrQuantityTooLarge, q, MaxQuantity))
		}
		quantity = q
	}

	var gross money.Amount
	if raw := f.get("mc_gross"); raw != "" {
		g, err := money.Parse(raw)
		if err != nil {
			return unresolvable(f.index(), itemNumber, fmt.Errorf("%w: %q", ErrInvalidGross, raw))
		}
		gross = g
	}

	switch {
	case d.deliveryProductID != "" && strings.EqualFold(itemNumber, d.deliveryProductID):
		return Decoded{Index: f.index(), Item: DeliveryLine{Amount: gross}}
	case strings.HasPrefix(strings.ToLower(itemNumber), bookPrefix):
		ref := strings.TrimSpace(itemNumber[len(bookPrefix):])
		if ref == "" {
			return unresolvable(f.index(), itemNumber, ErrMissingBookID)
		}
		return Decoded{Index: f.index(), Item: BookLine{BookRef: ref, Quantity: quantity, Gross: gross}}
	}

	opts := options(f)
	line := TicketLine{
		EventRef:   itemNumber,
		Quantity:   quantity,
		Gross:      gross,
		TicketType: opts[strings.ToLower(OptionType)],
		Name:       opts[strings.ToLower(OptionMemberName)],
	}
	if raw, ok := opts[strings.ToLower(OptionDate)]; ok && raw != "" {
		idx, err := strconv.Atoi(raw)
		if err != nil || idx < 1 {
			return unresolvable(f.index(), itemNumber, fmt.Errorf("%w: %q", ErrInvalidDateIndex, raw))
		}
		line.DateIndex = idx
	}
	return Decoded{Index: f.index(), Item: line}
}

func (d *Decoder) decodePointOfSale(n paymentdomain.Notification) Decoded {
	raw := n.PaymentDate()
	paidAt, ok := d.parsePaymentDate(raw)
	if !ok {
		return unresolvable(1, "", fmt.Errorf("%w: %q", ErrInvalidPaymentDate, raw))
	}
	return Decoded{
		Index: 1,
		Item: PointOfSaleLine{
			PaidAt:     paidAt,
			Gross:      n.Gross(),
			TicketType: options(single{n: n})[strings.ToLower(OptionType)],
		},
	}
}

func (d *Decoder) parsePaymentDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range paymentDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, d.pacific); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func unresolvable(idx int, itemNumber string, err error) Decoded {
	return Decoded{Index: idx, Item: Unresolvable{ItemNumber: itemNumber}, Err: err}
}

func hasSingleLine(n paymentdomain.Notification) bool {
	for _, key := range singleLineKeys {
		if strings.TrimSpace(n.Get(key)) != "" {
			return true
		}
	}
	return false
}

// cartIndexes returns the sorted, distinct indexes of every per-line key, so
// a paid line missing its item_number still surfaces as an Unresolvable.
// num_cart_items adds indexes for lines that sent no keys at all.
func cartIndexes(n paymentdomain.Notification) []int {
	seen := map[int]struct{}{}
	for _, key := range n.Keys() {
		m := cartLineKey.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil || idx < 1 {
			continue
		}
		seen[idx] = struct{}{}
	}
	if count, err := strconv.Atoi(strings.TrimSpace(n.Get("num_cart_items"))); err == nil && count > 0 {
		for idx := 1; idx <= min(count, maxCartItems); idx++ {
			seen[idx] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for idx := range seen {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}
