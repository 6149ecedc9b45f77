package payment

import (
	"github.com/NewAcropolis/api-sub000/internal/config"
	"github.com/NewAcropolis/api-sub000/internal/payment/lineitem"
	"github.com/NewAcropolis/api-sub000/internal/payment/verify"
	"github.com/NewAcropolis/api-sub000/internal/payment/webhook"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(func(cfg config.Config) *lineitem.Decoder {
		return lineitem.NewDecoder(cfg.PayPal.DeliveryProductID)
	}),
	fx.Provide(verify.NewGate),
	fx.Provide(webhook.NewService),
)
