package notification

import (
	"github.com/NewAcropolis/api-sub000/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(service.NewService),
)
