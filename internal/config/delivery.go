package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"github.com/NewAcropolis/api-sub000/pkg/money"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// DeliveryFee is one cell of the delivery fee matrix: the fee charged for
// goods travelling from one zone to another.
type DeliveryFee struct {
	From   string `mapstructure:"from"`
	To     string `mapstructure:"to"`
	Amount string `mapstructure:"amount"`
}

// DeliveryZones are the canonical zone names a fee matrix must cover.
var DeliveryZones = []string{"UK", "Europe", "RoW"}

// CanonicalDeliveryZone accepts zone names case-insensitively, including "EU".
func CanonicalDeliveryZone(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "uk":
		return "UK", true
	case "europe", "eu":
		return "Europe", true
	case "row":
		return "RoW", true
	default:
		return "", false
	}
}

type DeliveryConfig struct {
	ShipFrom string        `mapstructure:"shipFrom"`
	Fees     []DeliveryFee `mapstructure:"fees"`
}

func DefaultDeliveryConfig() DeliveryConfig {
	return DeliveryConfig{
		ShipFrom: "UK",
		Fees: []DeliveryFee{
			{From: "UK", To: "UK", Amount: "3.50"},
			{From: "Europe", To: "UK", Amount: "6.50"},
			{From: "RoW", To: "UK", Amount: "9.50"},
			{From: "UK", To: "Europe", Amount: "6.50"},
			{From: "UK", To: "RoW", Amount: "9.50"},
			{From: "Europe", To: "Europe", Amount: "6.50"},
			{From: "Europe", To: "RoW", Amount: "9.50"},
			{From: "RoW", To: "Europe", Amount: "9.50"},
			{From: "RoW", To: "RoW", Amount: "9.50"},
		},
	}
}

type DeliveryConfigHolder struct {
	current atomic.Value // holds DeliveryConfig
}

// NewStaticDeliveryConfigHolder wraps a fixed config without file watching.
func NewStaticDeliveryConfigHolder(cfg DeliveryConfig) *DeliveryConfigHolder {
	holder := &DeliveryConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewDeliveryConfigHolder() (*DeliveryConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("delivery")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/na-api")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("NA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
		defaults := DefaultDeliveryConfig()
		v.SetDefault("delivery.shipFrom", defaults.ShipFrom)
		v.SetDefault("delivery.fees", defaults.Fees)
	}

	var cfg DeliveryConfig
	if err := v.UnmarshalKey("delivery", &cfg); err != nil {
		return nil, err
	}
	if err := ValidateDeliveryConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticDeliveryConfigHolder(cfg)
	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated DeliveryConfig
		if err := v.UnmarshalKey("delivery", &updated); err != nil {
			log.Printf("[delivery-config] reload failed: %v", err)
			return
		}
		if err := holder.Update(updated); err != nil {
			log.Printf("[delivery-config] invalid config ignored: %v", err)
			return
		}
		log.Printf("[delivery-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *DeliveryConfigHolder) Get() DeliveryConfig {
	return h.current.Load().(DeliveryConfig)
}

// Update swaps in cfg after validating it; an invalid cfg leaves the current
// one in place.
func (h *DeliveryConfigHolder) Update(cfg DeliveryConfig) error {
	if err := ValidateDeliveryConfig(cfg); err != nil {
		return err
	}
	h.current.Store(cfg)
	return nil
}

// ValidateDeliveryConfig checks zone names, amounts and that every zone has a
// fee for delivery from shipFrom.
func ValidateDeliveryConfig(cfg DeliveryConfig) error {
	if strings.TrimSpace(cfg.ShipFrom) == "" {
		return errors.New("delivery.shipFrom cannot be empty")
	}
	shipFrom, ok := CanonicalDeliveryZone(cfg.ShipFrom)
	if !ok {
		return fmt.Errorf("delivery.shipFrom: unknown zone %q", cfg.ShipFrom)
	}
	if len(cfg.Fees) == 0 {
		return errors.New("delivery.fees cannot be empty")
	}

	routes := map[[2]string]struct{}{}
	for i, fee := range cfg.Fees {
		if strings.TrimSpace(fee.From) == "" || strings.TrimSpace(fee.To) == "" {
			return fmt.Errorf("delivery.fees[%d]: from and to are required", i)
		}
		from, ok := CanonicalDeliveryZone(fee.From)
		if !ok {
			return fmt.Errorf("delivery.fees[%d]: unknown zone %q", i, fee.From)
		}
		to, ok := CanonicalDeliveryZone(fee.To)
		if !ok {
			return fmt.Errorf("delivery.fees[%d]: unknown zone %q", i, fee.To)
		}
		amount, err := money.Parse(fee.Amount)
		if err != nil || amount < 0 {
			return fmt.Errorf("delivery.fees[%d]: invalid amount %q", i, fee.Amount)
		}
		key := [2]string{from, to}
		if _, dup := routes[key]; dup {
			return fmt.Errorf("delivery.fees[%d]: duplicate fee %s->%s", i, from, to)
		}
		routes[key] = struct{}{}
	}

	for _, zone := range DeliveryZones {
		if _, ok := routes[[2]string{zone, shipFrom}]; !ok {
			return fmt.Errorf("delivery.fees: missing fee %s->%s", zone, shipFrom)
		}
	}
	return nil
}
