package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/orderpulse/internal/config"
	"github.com/smallbiznis/orderpulse/internal/eventhandler"
	ingestdomain "github.com/smallbiznis/orderpulse/internal/ingest/domain"
	"github.com/smallbiznis/orderpulse/internal/observability"
	obsmiddleware "github.com/smallbiznis/orderpulse/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/orderpulse/internal/observability/metrics"
	obstracing "github.com/smallbiznis/orderpulse/internal/observability/tracing"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// maxBodyBytes bounds every inbound request body.
const maxBodyBytes = 1 << 20

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, pipeline *obsmetrics.Pipeline) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(RequestMetrics(pipeline))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if pipeline != nil {
		r.GET("/metrics", gin.WrapH(pipeline.Handler()))
	}

	return r
}

func registerGin(obsCfg observability.Config, pipeline *obsmetrics.Pipeline) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, pipeline)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", srv.Addr))
			go func() {
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

// Server binds the pipeline components that are present in the process to
// the engine. The processor binary carries only the event handler, the
// ingest binary only the ingestion service, the monolith both.
type Server struct {
	engine    *gin.Engine
	log       *zap.Logger
	events    *eventhandler.Handler
	ingestSvc ingestdomain.Service
}

type ServerParams struct {
	fx.In

	Gin       *gin.Engine
	Log       *zap.Logger
	Events    *eventhandler.Handler `optional:"true"`
	IngestSvc ingestdomain.Service  `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:    p.Gin,
		log:       p.Log.Named("http.server"),
		events:    p.Events,
		ingestSvc: p.IngestSvc,
	}

	if svc.events != nil {
		svc.registerEventRoutes()
	}
	if svc.ingestSvc != nil {
		svc.registerIngestRoutes()
	}
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerEventRoutes() {
	s.engine.POST("/events", s.HandleEvent)
}

func (s *Server) registerIngestRoutes() {
	api := s.engine.Group("/api")

	api.POST("/ai-insights/ingest", s.IngestInsight)
	api.POST("/customer-data", s.LookupCustomer)
	api.PUT("/customer-data", s.UpsertCustomer)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
