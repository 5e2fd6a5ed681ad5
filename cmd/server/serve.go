package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	gommonlog "github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/iliyamo/event-participation/internal/config"
	"github.com/iliyamo/event-participation/internal/database"
	"github.com/iliyamo/event-participation/internal/handler"
	"github.com/iliyamo/event-participation/internal/lifecycle"
	"github.com/iliyamo/event-participation/internal/middleware"
	"github.com/iliyamo/event-participation/internal/queue"
	"github.com/iliyamo/event-participation/internal/repository"
	"github.com/iliyamo/event-participation/internal/router"
	"github.com/iliyamo/event-participation/internal/service"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		order, err := lifecycle.ParseOrdering(cfg.Allocation.Order)
		if err != nil {
			return err
		}

		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if serveMigrate {
			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}
		}

		rdb := config.NewRedisClient()
		if rdb == nil {
			log.Printf("redis unavailable: rate limiting and response cache disabled")
		} else {
			defer rdb.Close()
		}

		e := newEcho(cfg)

		users := repository.NewUserRepo(db)
		tokens := repository.NewTokenRepo(db)
		events := repository.NewEventRepo(db)
		requests := repository.NewRequestRepo(db)
		categories := repository.NewCategoryRepo(db)

		eventSvc := service.NewEventService(events, requests, users, categories, e.Logger, nil)
		requestSvc := service.NewRequestService(events, requests, users, queue.NewPublisher(cfg.AMQPURL), e.Logger,
			service.RequestOptions{Ordering: order, AutoRejectOnFull: cfg.Allocation.AutoRejectOnFull}, nil)
		categorySvc := service.NewCategoryService(categories)

		evH := handler.NewEventHandler(eventSvc)
		reqH := handler.NewRequestHandler(requestSvc)
		catH := handler.NewCategoryHandler(categorySvc)

		limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(nil), rdb)
		cache := middleware.NewRedisCache(config.LoadCacheConfig(nil), rdb)

		router.RegisterRoutes(e)
		router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret, limit)
		router.RegisterPublic(e, evH, catH, limit, cache)
		router.RegisterUser(e, evH, reqH, cfg.JWTSecret, limit)
		router.RegisterAdmin(e, evH, catH, cfg.JWTSecret, limit)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		addr := ":" + cfg.Port
		log.Printf("listening on %s (env=%s, allocation=%s, autoReject=%t)",
			addr, cfg.Env, order, cfg.Allocation.AutoRejectOnFull)
		errc := make(chan error, 1)
		go func() { errc <- e.Start(addr) }()

		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply the schema before serving")
}

func newEcho(cfg config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	if cfg.Env == "development" {
		e.Logger.SetLevel(gommonlog.DEBUG)
	} else {
		e.Logger.SetLevel(gommonlog.INFO)
	}

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				c.Logger().Warnf("%s %s %d %s id=%s err=%v", v.Method, v.URI, v.Status, v.Latency, v.RequestID, v.Error)
				return nil
			}
			c.Logger().Infof("%s %s %d %s id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))
	return e
}
