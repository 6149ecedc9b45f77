package delivery

import "github.com/NewAcropolis/api-sub000/pkg/money"

const (
	StatusCompleted      = "completed"
	StatusMissingAddress = "missing_address"
	StatusNoDeliveryFee  = "no_delivery_fee"
	StatusExtra          = "extra"
	StatusRefund         = "refund"
	statusPostagePrefix  = "postage_"
)

// PostageStatus names an underpayment where the buyer paid the fee for
// paidZone while living in zone, e.g. postage_uk_row.
func PostageStatus(paidZone, zone Zone) string {
	return statusPostagePrefix + paidZone.slug() + "_" + zone.slug()
}

func IsPostageStatus(status string) bool {
	return len(status) > len(statusPostagePrefix) && status[:len(statusPostagePrefix)] == statusPostagePrefix
}

type Input struct {
	// HasAddress is false when the notification carried no postal address fields.
	HasAddress  bool
	CountryCode string
	// Payments holds the gross of every delivery line, in order.
	Payments []money.Amount
	// RequiresDelivery is set when the order contains physical goods.
	RequiresDelivery bool
}

type Result struct {
	Zone     Zone
	Status   string
	Balance  money.Amount
	Expected money.Amount
	Paid     money.Amount
}

// Resolve decides the delivery status and signed balance of an order. A
// negative balance is owed by the buyer; a positive one is owed to them.
func Resolve(m FeeMatrix, in Input) Result {
	var res Result
	if in.HasAddress {
		res.Zone = ZoneForCountry(in.CountryCode)
		res.Expected = m.Expected(res.Zone)
	}
	for _, p := range in.Payments {
		res.Paid += p
	}

	if !in.RequiresDelivery && len(in.Payments) == 0 {
		res.Status = StatusCompleted
		return res
	}

	switch {
	case !in.HasAddress:
		res.Status = StatusMissingAddress
	case len(in.Payments) == 0:
		res.Status = StatusNoDeliveryFee
		res.Balance = -res.Expected
	case len(in.Payments) > 1:
		over := res.Paid - res.Expected
		res.Balance = over
		if over > m.cheapestDelta(res.Zone) {
			res.Status = StatusRefund
		} else {
			res.Status = StatusExtra
		}
	case res.Paid < res.Expected:
		paidZone, ok := m.zoneCharging(res.Paid)
		if !ok {
			paidZone = ZoneUK
		}
		res.Status = PostageStatus(paidZone, res.Zone)
		res.Balance = res.Paid - res.Expected
	case res.Paid > res.Expected:
		if z, ok := m.zoneCharging(res.Paid); ok && z != res.Zone {
			res.Status = StatusExtra
		} else {
			res.Status = StatusRefund
		}
		res.Balance = res.Paid - res.Expected
	default:
		res.Status = StatusCompleted
	}
	return res
}
