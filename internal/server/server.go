package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/customerdesk/internal/config"
	customerdomain "github.com/smallbiznis/customerdesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/customerdesk/internal/invoice/domain"
	"github.com/smallbiznis/customerdesk/internal/observability"
	obsmiddleware "github.com/smallbiznis/customerdesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/customerdesk/internal/observability/metrics"
	obstracing "github.com/smallbiznis/customerdesk/internal/observability/tracing"
	phonedomain "github.com/smallbiznis/customerdesk/internal/phonenumber/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	setupValidator()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware(obsCfg.TracingMiddlewareConfig(classifyErrorForLog, obsmiddleware.APIKeyResultKey)))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
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
	engine   *gin.Engine
	cfg      config.Config
	security *config.SecurityHolder

	customerSvc    customerdomain.Service
	invoiceSvc     invoicedomain.Service
	phoneNumberSvc phonedomain.Service
}

type ServerParams struct {
	fx.In

	Gin      *gin.Engine
	Cfg      config.Config
	Security *config.SecurityHolder

	CustomerSvc    customerdomain.Service
	InvoiceSvc     invoicedomain.Service
	PhoneNumberSvc phonedomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		security:       p.Security,
		customerSvc:    p.CustomerSvc,
		invoiceSvc:     p.InvoiceSvc,
		phoneNumberSvc: p.PhoneNumberSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	customers := api.Group("/customers")
	{
		customers.GET("", s.ListCustomers)
		customers.POST("", s.CreateCustomer)
		customers.GET("/:id", s.GetCustomerByID)
		customers.PUT("/:id", s.UpdateCustomer)
		customers.DELETE("/:id", s.APIKeyRequired(), s.DeleteCustomer)
		customers.GET("/:id/invoices", s.ListCustomerInvoices)
		customers.GET("/:id/phonenumbers", s.ListCustomerPhoneNumbers)
	}

	invoices := api.Group("/invoices")
	{
		invoices.GET("", s.ListInvoices)
		invoices.POST("", s.CreateInvoice)
		invoices.GET("/customer/:customerId", s.ListInvoicesByCustomer)
		invoices.DELETE("/customer/:customerId", s.APIKeyRequired(), s.DeleteInvoicesByCustomer)
		invoices.GET("/:customerId/:invoiceNumber", s.GetInvoice)
		invoices.GET("/:customerId/:invoiceNumber/pdf", s.GetInvoicePDF)
		invoices.DELETE("/:invoiceNumber", s.APIKeyRequired(), s.DeleteInvoice)
	}

	phoneNumbers := api.Group("/phonenumbers")
	{
		phoneNumbers.GET("", s.ListPhoneNumbers)
		phoneNumbers.POST("", s.CreatePhoneNumber)
		phoneNumbers.GET("/customer/:customerId", s.ListPhoneNumbersByCustomer)
		phoneNumbers.DELETE("/customer/:customerId", s.APIKeyRequired(), s.DeletePhoneNumbersByCustomer)
		phoneNumbers.GET("/:customerId/:id", s.GetPhoneNumber)
		phoneNumbers.DELETE("/:id", s.APIKeyRequired(), s.DeletePhoneNumber)
	}
}
