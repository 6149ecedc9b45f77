package domain

import (
	"net/url"
	"sort"
	"strings"

	"github.com/NewAcropolis/api-sub000/pkg/money"
)

const (
	PaymentStatusCompleted = "Completed"
	TxnTypePointOfSale     = "paypal_here"
)

// Notification is a decoded IPN payload. Only the first value of each key is
// significant.
type Notification struct {
	values url.Values
	raw    []byte
}

// ParseNotification decodes a form encoded IPN body and keeps the original
// bytes for verification.
func ParseNotification(raw []byte) (Notification, error) {
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return Notification{}, ErrMalformedNotification
	}
	return Notification{values: values, raw: append([]byte(nil), raw...)}, nil
}

// NewNotification builds a notification from already decoded values.
func NewNotification(values url.Values) Notification {
	return Notification{values: values, raw: []byte(values.Encode())}
}

func (n Notification) Raw() []byte { return n.raw }

func (n Notification) Get(key string) string {
	return strings.TrimSpace(n.values.Get(key))
}

func (n Notification) Has(key string) bool {
	_, ok := n.values[key]
	return ok
}

// Keys returns all keys in sorted order.
func (n Notification) Keys() []string {
	keys := make([]string, 0, len(n.values))
	for k := range n.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (n Notification) TxnID() string         { return n.Get("txn_id") }
func (n Notification) TxnType() string       { return n.Get("txn_type") }
func (n Notification) PaymentStatus() string { return n.Get("payment_status") }
func (n Notification) PayerEmail() string    { return n.Get("payer_email") }
func (n Notification) PaymentDate() string   { return n.Get("payment_date") }

// ReceiverEmail falls back to the business field used by older buttons.
func (n Notification) ReceiverEmail() string {
	if v := n.Get("receiver_email"); v != "" {
		return v
	}
	return n.Get("business")
}

func (n Notification) BuyerName() string {
	return strings.TrimSpace(n.Get("first_name") + " " + n.Get("last_name"))
}

// Gross is the total paid. A missing or malformed value counts as zero.
func (n Notification) Gross() money.Amount {
	amount, err := money.Parse(n.Get("mc_gross"))
	if err != nil {
		return 0
	}
	return amount
}

type Address struct {
	Name        string
	Street      string
	City        string
	State       string
	Zip         string
	Country     string
	CountryCode string
}

func (a Address) IsEmpty() bool {
	return a.Street == "" && a.City == "" && a.State == "" && a.Zip == "" && a.Country == "" && a.CountryCode == ""
}

func (n Notification) Address() Address {
	return Address{
		Name:        n.Get("address_name"),
		Street:      n.Get("address_street"),
		City:        n.Get("address_city"),
		State:       n.Get("address_state"),
		Zip:         n.Get("address_zip"),
		Country:     n.Get("address_country"),
		CountryCode: strings.ToUpper(n.Get("address_country_code")),
	}
}

// Params flattens the payload for storage alongside the order.
func (n Notification) Params() map[string]any {
	out := make(map[string]any, len(n.values))
	for k := range n.values {
		out[k] = n.values.Get(k)
	}
	return out
}
