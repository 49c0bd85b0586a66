package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"order-backend/internal/config"
	httpctrl "order-backend/internal/controllers/http"
	"order-backend/internal/feed"
	mmysql "order-backend/internal/infra/mysql"
	"order-backend/internal/infra/rabbitmq"
	"order-backend/internal/pricing"
	mysqlrepo "order-backend/internal/repository/mysql"
	"order-backend/internal/services"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := mmysql.NewMySQLFromEnv()
	if err != nil {
		log.Fatalf("db: connect: %v", err)
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetMaxIdleConns(20)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(1 * time.Minute)

	repo := mysqlrepo.NewOrderRepository(db)
	stocks := mysqlrepo.NewStockRepository(db)
	resolver := pricing.NewResolver()

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.Exchange)
	if err != nil {
		log.Fatalf("failed to init publisher: %v", err)
	}
	defer publisher.Close()

	s := services.NewOrderService(repo, resolver, publisher)
	s.SetStockRepository(stocks)

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		DB:           0,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	s.SetRedisClient(redisClient)

	bus := feed.NewBroadcaster(cfg.StreamBuffer)
	defer bus.Close()
	poller := feed.NewPoller(repo, resolver, bus, cfg.PollInterval)
	poller.SetPublisher(publisher)

	handler := httpctrl.NewHandler(s, bus)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	handler.RegisterRoutes(r)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Starting %s on port %s", cfg.ServiceName, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := poller.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server run: %v", err)
	}
	log.Println("shut down cleanly")
}
