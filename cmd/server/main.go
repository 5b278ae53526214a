package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kmazurek/storefront/internal/cache"
	"github.com/kmazurek/storefront/internal/config"
	"github.com/kmazurek/storefront/internal/events"
	"github.com/kmazurek/storefront/internal/handlers"
	"github.com/kmazurek/storefront/internal/logging"
	"github.com/kmazurek/storefront/internal/mail"
	"github.com/kmazurek/storefront/internal/payment"
	"github.com/kmazurek/storefront/internal/search"
	"github.com/kmazurek/storefront/internal/service/checkout"
	httpserver "github.com/kmazurek/storefront/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	ctx := context.Background()
	db, err := config.InitDB(ctx, configuration)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	rdb, err := config.InitRedis(ctx, configuration)
	if err != nil {
		log.Fatalf("redis init error: %v", err)
	}

	esClient, err := search.NewClient(configuration.ES_URL, configuration.ES_USER, configuration.ES_PASSWORD)
	if err != nil {
		log.Fatalf("elasticsearch init error: %v", err)
	}

	prod := events.NewProducer(configuration.Brokers())

	appSecret := []byte(configuration.APP_SECRET)
	charger := payment.NewClient(configuration.PAYMENT_URL, configuration.PAYMENT_KEY)
	mailer := mail.NewClient(configuration.MAIL_URL)
	itemCache := cache.NewItemCache(rdb)

	checkoutSvc := &checkout.Service{DB: db, Charger: charger}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), logging.RequestLogger(logger))

	deps := httpserver.Deps{
		DB:        db,
		AppSecret: appSecret,
		AuthHandler: &handlers.AuthHandler{
			DB:          db,
			AppSecret:   appSecret,
			Producer:    prod,
			Mailer:      mailer,
			MailFrom:    configuration.MAIL_FROM,
			FrontendURL: configuration.FRONTEND_URL,
		},
		ItemHandler:   &handlers.ItemHandler{DB: db, Producer: prod, Cache: itemCache},
		CartHandler:   &handlers.CartHandler{DB: db, Producer: prod},
		OrderHandler:  &handlers.OrderHandler{DB: db, Checkout: checkoutSvc, Producer: prod},
		SearchHandler: &handlers.SearchHandler{ES: esClient, Index: search.ItemIndex},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + configuration.PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := rdb.Close(); err != nil {
		log.Printf("redis close error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
