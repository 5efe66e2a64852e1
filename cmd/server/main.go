package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/snakeoil/internal/config"
	"github.com/Skotchmaster/snakeoil/internal/db"
	"github.com/Skotchmaster/snakeoil/internal/events"
	"github.com/Skotchmaster/snakeoil/internal/httpserver"
	"github.com/Skotchmaster/snakeoil/internal/logging"
	authmw "github.com/Skotchmaster/snakeoil/internal/middleware/auth"
	"github.com/Skotchmaster/snakeoil/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/snakeoil/internal/middleware/logging"
	"github.com/Skotchmaster/snakeoil/internal/repo"
	"github.com/Skotchmaster/snakeoil/internal/search"
	"github.com/Skotchmaster/snakeoil/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DBDriver, cfg.DSN())
	cancel()
	if err != nil {
		logger.Error("db init error", "error", err)
		os.Exit(1)
	}

	store := repo.NewGormRepo(gdb)

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers)
		logger.Info("publishing events to kafka", "brokers", cfg.KafkaBrokers)
	}

	var index search.Index
	if len(cfg.ESURL) > 0 {
		es, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			logger.Error("elasticsearch init error", "error", err)
			os.Exit(1)
		}
		index = search.NewESIndex(es, cfg.ESIndex)
	}

	catalog := &service.CatalogService{Repo: store, Index: index, Events: publisher}
	cart := &service.CartService{
		Carts:    store,
		Products: store,
		Policy:   service.QuantityPolicy(cfg.CartQuantityPolicy),
		Events:   publisher,
	}
	auth := &service.AuthService{
		Users:     store,
		Sessions:  store,
		JWTSecret: []byte(cfg.JWTSecret),
		TTL:       cfg.SessionTTL,
		Events:    publisher,
	}
	pages := &httpserver.Pages{Cart: cart}

	renderer, err := httpserver.NewRenderer()
	if err != nil {
		logger.Error("template error", "error", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer
	e.HTTPErrorHandler = httpserver.ErrorHandler(pages)

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())

	deps := &httpserver.Deps{
		Shop:     &httpserver.ShopHTTP{Catalog: catalog, Pages: pages},
		Cart:     &httpserver.CartHTTP{Svc: cart, Pages: pages},
		Manage:   &httpserver.ManageHTTP{Catalog: catalog, Pages: pages},
		Auth:     &httpserver.AuthHTTP{Svc: auth, Pages: pages, CookieSecure: cfg.CookieSecure},
		Products: &httpserver.ProductAPI{Catalog: catalog},
		Session:  authmw.NewSessionMiddleware(auth, cfg.DenialMode(), cfg.CookieSecure),
		Ready:    func(ctx context.Context) error { return db.Ping(ctx, gdb) },
	}
	if cfg.CSRFEnabled {
		csrfCfg := csrf.DefaultConfig()
		csrfCfg.Secure = cfg.CookieSecure
		csrfCfg.SkipPaths = []string{"/health/live", "/health/ready"}
		deps.CSRF = &csrfCfg
	}
	httpserver.Register(e, deps)

	addr := ":" + strconv.Itoa(cfg.ServerPort)
	go func() {
		logger.Info("starting snakeoil shop", "addr", addr, "db_driver", cfg.DBDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("echo start", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("event publisher close", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db close", "error", err)
	}

	logger.Info("server stopped")
}
