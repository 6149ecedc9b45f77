package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/NewAcropolis/api-sub000/internal/clock"
	"github.com/NewAcropolis/api-sub000/internal/config"
	"github.com/NewAcropolis/api-sub000/internal/lock"
	"github.com/NewAcropolis/api-sub000/internal/notification"
	"github.com/NewAcropolis/api-sub000/internal/observability"
	obsmiddleware "github.com/NewAcropolis/api-sub000/internal/observability/logger"
	obsmetrics "github.com/NewAcropolis/api-sub000/internal/observability/metrics"
	obstracing "github.com/NewAcropolis/api-sub000/internal/observability/tracing"
	"github.com/NewAcropolis/api-sub000/internal/order"
	orderdomain "github.com/NewAcropolis/api-sub000/internal/order/domain"
	"github.com/NewAcropolis/api-sub000/internal/payment"
	paymentdomain "github.com/NewAcropolis/api-sub000/internal/payment/domain"
	"github.com/NewAcropolis/api-sub000/internal/providers"
	"github.com/NewAcropolis/api-sub000/internal/providers/pdf"
	"github.com/NewAcropolis/api-sub000/internal/ticket"
	ticketdomain "github.com/NewAcropolis/api-sub000/internal/ticket/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	clock.Module,
	lock.Module,
	order.Module,
	ticket.Module,
	notification.Module,
	payment.Module,
	providers.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	log        *zap.Logger
	webhookSvc paymentdomain.WebhookService
	orderSvc   orderdomain.Service
	ticketSvc  ticketdomain.Service
	pdf        pdf.Provider
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Log        *zap.Logger
	WebhookSvc paymentdomain.WebhookService
	OrderSvc   orderdomain.Service
	TicketSvc  ticketdomain.Service
	PDF        pdf.Provider
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		log:        p.Log.Named("http.server"),
		webhookSvc: p.WebhookSvc,
		orderSvc:   p.OrderSvc,
		ticketSvc:  p.TicketSvc,
		pdf:        p.PDF,
	}

	svc.registerOrderRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerOrderRoutes() {
	orders := s.engine.Group("/orders")

	// -------- PayPal --------
	orders.POST("/paypal/ipn", s.HandlePayPalIPN)

	// -------- Door check-in --------
	orders.GET("/ticket/:id", s.CheckInTicket)

	// -------- Order support --------
	orders.GET("/:txn_id", s.GetOrder)
	orders.GET("/:txn_id/receipt.pdf", s.GetOrderReceipt)
	orders.POST("/:txn_id/delivery-correction", s.CompleteDeliveryCorrection)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
