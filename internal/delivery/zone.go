package delivery

import (
	"strings"

	"github.com/NewAcropolis/api-sub000/internal/config"
)

type Zone string

const (
	ZoneUK     Zone = "UK"
	ZoneEurope Zone = "Europe"
	ZoneRoW    Zone = "RoW"
)

var Zones = []Zone{ZoneUK, ZoneEurope, ZoneRoW}

// EU member states.
var europeCountries = map[string]struct{}{
	"AT": {}, "BE": {}, "BG": {}, "HR": {}, "CY": {}, "CZ": {}, "DK": {},
	"EE": {}, "FI": {}, "FR": {}, "DE": {}, "GR": {}, "HU": {}, "IE": {},
	"IT": {}, "LV": {}, "LT": {}, "LU": {}, "MT": {}, "NL": {}, "PL": {},
	"PT": {}, "RO": {}, "SK": {}, "SI": {}, "ES": {}, "SE": {},
}

// ZoneForCountry maps an ISO 3166 alpha-2 code to a delivery zone.
func ZoneForCountry(code string) Zone {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "GB" || code == "UK" {
		return ZoneUK
	}
	if _, ok := europeCountries[code]; ok {
		return ZoneEurope
	}
	return ZoneRoW
}

// ParseZone accepts zone names case-insensitively, including "EU".
func ParseZone(raw string) (Zone, bool) {
	name, ok := config.CanonicalDeliveryZone(raw)
	return Zone(name), ok
}

func (z Zone) slug() string {
	return strings.ToLower(string(z))
}
