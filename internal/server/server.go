package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/creditdash/internal/config"
	"github.com/smallbiznis/creditdash/internal/customer"
	customerdomain "github.com/smallbiznis/creditdash/internal/customer/domain"
	"github.com/smallbiznis/creditdash/internal/observability"
	obsmiddleware "github.com/smallbiznis/creditdash/internal/observability/logger"
	obstracing "github.com/smallbiznis/creditdash/internal/observability/tracing"
	"github.com/smallbiznis/creditdash/internal/provider/ycloud"
	"github.com/smallbiznis/creditdash/internal/reference"
	referencedomain "github.com/smallbiznis/creditdash/internal/reference/domain"
	"github.com/smallbiznis/creditdash/internal/selection"
	"github.com/smallbiznis/creditdash/internal/settings"
	settingsdomain "github.com/smallbiznis/creditdash/internal/settings/domain"
	"github.com/smallbiznis/creditdash/internal/usage"
	usagedomain "github.com/smallbiznis/creditdash/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	customer.Module,
	usage.Module,
	ycloud.Module,
	reference.Module,
	settings.Module,
	selection.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, r *gin.Engine) {
	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
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
	engine       *gin.Engine
	cfg          config.Config
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	customerSvc  customerdomain.Service
	usageSvc     usagedomain.Service
	settingsSvc  settingsdomain.Service
	referenceSvc referencedomain.Service
	selections   selection.Store
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	CustomerSvc  customerdomain.Service
	UsageSvc     usagedomain.Service
	SettingsSvc  settingsdomain.Service
	ReferenceSvc referencedomain.Service
	Selections   selection.Store
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		log:          p.Log,
		genID:        p.GenID,
		customerSvc:  p.CustomerSvc,
		usageSvc:     p.UsageSvc,
		settingsSvc:  p.SettingsSvc,
		referenceSvc: p.ReferenceSvc,
		selections:   p.Selections,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.AuthRequired())

	// -------- Customers --------
	api.GET("/customers", s.ListCustomers)
	api.POST("/customers", s.CreateCustomer)
	api.GET("/customers/:id", s.GetCustomerByID)
	api.PUT("/customers/:id", s.UpdateCustomer)
	api.DELETE("/customers/:id", s.DeleteCustomer)

	// -------- Usage --------
	api.POST("/usage/query", s.QueryUsage)
	api.GET("/usage/export", s.ExportUsage)
	api.GET("/usage/selection", s.GetUsageSelection)

	// -------- Reference --------
	api.GET("/plans", s.ListPlans)

	// -------- Settings --------
	api.GET("/settings", s.ListSettings)
	api.PUT("/settings/:category", s.UpsertSettings)
}
