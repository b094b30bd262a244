package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/agrolink/backend/internal/config"
	"github.com/agrolink/backend/internal/httpx"
	kafkax "github.com/agrolink/backend/internal/kafka"
	"github.com/agrolink/backend/internal/market"
	"github.com/agrolink/backend/internal/notify"
	"github.com/agrolink/backend/internal/postgres"
	"github.com/agrolink/backend/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN, 8)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prod := kafkax.NewProducer(cfg.KafkaBrokers, notify.TopicNotifyRequested, 1024)
	prod.Start(ctx)

	repo := &market.Repo{DB: db}
	svc := &market.Service{
		Repo:   repo,
		Notify: &notify.KafkaDispatcher{Producer: prod, Service: cfg.ServiceName},
	}

	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{Svc: svc, Repo: repo, Redis: rdb}
	oh.Register(router)
	nh := &httpx.NotificationsHandler{Repo: &notify.Repo{DB: db}, Redis: rdb}
	nh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close() // stop intake, flush what is queued
	cancel()
	prod.WaitClosed()
}
