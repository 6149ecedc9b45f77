package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDeliveryConfigIsValid(t *testing.T) {
	assert.NoError(t, ValidateDeliveryConfig(DefaultDeliveryConfig()))
}

func TestValidateDeliveryConfigRejectsBadAmount(t *testing.T) {
	cfg := DeliveryConfig{
		ShipFrom: "UK",
		Fees:     []DeliveryFee{{From: "UK", To: "UK", Amount: "three"}},
	}
	assert.Error(t, ValidateDeliveryConfig(cfg))
}

func TestStaticHolderReturnsConfig(t *testing.T) {
	holder := NewStaticDeliveryConfigHolder(DefaultDeliveryConfig())
	assert.Equal(t, "UK", holder.Get().ShipFrom)
}

func TestValidateDeliveryConfigRejectsUnusableMatrix(t *testing.T) {
	tests := []struct {
		name string
		cfg  DeliveryConfig
	}{
		{name: "typo in zone", cfg: DeliveryConfig{ShipFrom: "UK", Fees: []DeliveryFee{
			{From: "UK", To: "UK", Amount: "3.50"},
			{From: "Eurpoe", To: "UK", Amount: "6.50"},
			{From: "RoW", To: "UK", Amount: "9.50"},
		}}},
		{name: "unknown ship from", cfg: DeliveryConfig{ShipFrom: "Mars", Fees: DefaultDeliveryConfig().Fees}},
		{name: "zone without fee into ship from", cfg: DeliveryConfig{ShipFrom: "UK", Fees: []DeliveryFee{
			{From: "UK", To: "UK", Amount: "3.50"},
			{From: "Europe", To: "UK", Amount: "6.50"},
		}}},
		{name: "duplicate route", cfg: DeliveryConfig{ShipFrom: "UK", Fees: []DeliveryFee{
			{From: "UK", To: "UK", Amount: "3.50"},
			{From: "uk", To: "UK", Amount: "4.00"},
			{From: "Europe", To: "UK", Amount: "6.50"},
			{From: "RoW", To: "UK", Amount: "9.50"},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateDeliveryConfig(tt.cfg))
		})
	}
}

func TestHolderUpdateKeepsCurrentOnInvalidConfig(t *testing.T) {
	holder := NewStaticDeliveryConfigHolder(DefaultDeliveryConfig())

	bad := DefaultDeliveryConfig()
	bad.Fees[1].From = "Eurpoe"
	require.Error(t, holder.Update(bad))
	assert.Equal(t, DefaultDeliveryConfig(), holder.Get())

	good := DefaultDeliveryConfig()
	good.Fees[0].Amount = "4.00"
	require.NoError(t, holder.Update(good))
	assert.Equal(t, "4.00", holder.Get().Fees[0].Amount)
}

func TestReceiverIsRequired(t *testing.T) {
	assert.ErrorIs(t, Config{}.Validate(), ErrReceiverRequired)
	assert.NoError(t, Config{PayPal: PayPalConfig{ReceiverEmail: "treasurer@example.org"}}.Validate())
}
