package delivery

import (
	"fmt"

	"github.com/NewAcropolis/api-sub000/internal/config"
	"github.com/NewAcropolis/api-sub000/pkg/money"
)

type route struct {
	from Zone
	to   Zone
}

// FeeMatrix holds the delivery fee for every (from, to) zone pair.
type FeeMatrix struct {
	shipFrom Zone
	fees     map[route]money.Amount
}

func NewFeeMatrix(cfg config.DeliveryConfig) (FeeMatrix, error) {
	shipFrom, ok := ParseZone(cfg.ShipFrom)
	if !ok {
		return FeeMatrix{}, fmt.Errorf("unknown ship-from zone %q", cfg.ShipFrom)
	}
	m := FeeMatrix{shipFrom: shipFrom, fees: make(map[route]money.Amount, len(cfg.Fees))}
	for _, fee := range cfg.Fees {
		from, ok := ParseZone(fee.From)
		if !ok {
			return FeeMatrix{}, fmt.Errorf("unknown zone %q", fee.From)
		}
		to, ok := ParseZone(fee.To)
		if !ok {
			return FeeMatrix{}, fmt.Errorf("unknown zone %q", fee.To)
		}
		amount, err := money.Parse(fee.Amount)
		if err != nil {
			return FeeMatrix{}, fmt.Errorf("fee %s->%s: %w", fee.From, fee.To, err)
		}
		m.fees[route{from: from, to: to}] = amount
	}
	for _, z := range Zones {
		if _, ok := m.fees[route{from: z, to: shipFrom}]; !ok {
			return FeeMatrix{}, fmt.Errorf("missing fee %s->%s", z, shipFrom)
		}
	}
	return m, nil
}

// DefaultFeeMatrix is the built-in UK matrix.
func DefaultFeeMatrix() FeeMatrix {
	m, err := NewFeeMatrix(config.DefaultDeliveryConfig())
	if err != nil {
		panic(err)
	}
	return m
}

func (m FeeMatrix) ShipFrom() Zone { return m.shipFrom }

func (m FeeMatrix) Fee(from, to Zone) (money.Amount, bool) {
	fee, ok := m.fees[route{from: from, to: to}]
	return fee, ok
}

// Expected is the fee a buyer in zone owes for goods shipped to them.
func (m FeeMatrix) Expected(zone Zone) money.Amount {
	fee, _ := m.Fee(zone, m.shipFrom)
	return fee
}

// zoneCharging returns the zone whose expected fee equals amount, preferring
// the order of Zones.
func (m FeeMatrix) zoneCharging(amount money.Amount) (Zone, bool) {
	for _, z := range Zones {
		if m.Expected(z) == amount {
			return z, true
		}
	}
	return "", false
}

// cheapestDelta is the smallest positive difference between the fee for zone
// and the fee for any other zone.
func (m FeeMatrix) cheapestDelta(zone Zone) money.Amount {
	expected := m.Expected(zone)
	var best money.Amount
	for _, z := range Zones {
		if z == zone {
			continue
		}
		delta := (m.Expected(z) - expected).Abs()
		if delta == 0 {
			continue
		}
		if best == 0 || delta < best {
			best = delta
		}
	}
	return best
}
