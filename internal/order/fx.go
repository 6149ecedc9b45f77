package order

import (
	"github.com/NewAcropolis/api-sub000/internal/order/repository"
	"github.com/NewAcropolis/api-sub000/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
