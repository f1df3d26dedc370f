package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/Rizki-Rahmadani/management-product/configs"
	"github.com/Rizki-Rahmadani/management-product/internal/adapter/cache"
	"github.com/Rizki-Rahmadani/management-product/internal/adapter/http"
	"github.com/Rizki-Rahmadani/management-product/internal/adapter/http/middleware"
	"github.com/Rizki-Rahmadani/management-product/internal/adapter/kafka"
	"github.com/Rizki-Rahmadani/management-product/internal/adapter/queue"
	"github.com/Rizki-Rahmadani/management-product/internal/adapter/repo"
	"github.com/Rizki-Rahmadani/management-product/internal/logging"
	"github.com/Rizki-Rahmadani/management-product/internal/usecase"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Router *gin.Engine
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	logger := logging.Init(cfg.App.Name, cfg.App.LogFile)

	// init database
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, nil, err
	}

	logger.Info("storefront-api: starting up")

	// init redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, nil, err
	}

	// init rabbitmq
	conn, err := amqp091.Dial(cfg.Rabbit.URL)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, err
	}
	producer, err := queue.NewRabbitProducer(ch)
	if err != nil {
		return nil, nil, err
	}

	// infra
	store := repo.NewMySQLStore(db)
	orderRepo := repo.NewMySQLOrderRepo(db)
	productRepo := repo.NewMySQLProductRepo(db)
	outboxRepo := repo.NewMySQLOutboxRepo(db)
	idem := cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)
	catalogCache := cache.NewRedisCatalogCache(rdb, cfg.Catalog.CacheTTL)

	// use cases
	submitUC := usecase.NewSubmitOrder(store, orderRepo, idem)
	listUC := usecase.NewListOrders(orderRepo)
	catalogUC := usecase.NewCatalog(productRepo, catalogCache)

	// background workers
	bg, stopBg := context.WithCancel(context.Background())
	startOutboxDispatcher(bg, cfg, outboxRepo, producer)
	startReplenishmentListener(bg, cfg, catalogUC)

	// handlers + router + middleware
	ph := http.NewProductHandler(catalogUC)
	oh := http.NewOrderHandler(submitUC, listUC)
	th := http.NewTokenHandler(cfg)
	authz := middleware.NewAuthz(cfg)
	router := http.NewRouter(ph, oh, th, authz)

	cleanup := func() {
		stopBg()
		_ = ch.Close()
		_ = conn.Close()
		_ = rdb.Close()
		_ = db.Close()
	}

	return &App{Router: router}, cleanup, nil
}

func startOutboxDispatcher(ctx context.Context, cfg configs.Config, outbox usecase.OutboxRepo, producer *queue.RabbitProducer) {
	d := queue.NewOutboxDispatcher(outbox, producer, logging.New("outbox"),
		queue.WithInterval(cfg.Outbox.Interval),
		queue.WithBatchSize(cfg.Outbox.BatchSize),
	)
	go func() {
		if err := d.Run(ctx); err != nil && ctx.Err() == nil {
			logging.New("outbox").Error("dispatcher stopped", "err", err)
		}
	}()
}

func startReplenishmentListener(ctx context.Context, cfg configs.Config, catalog *usecase.Catalog) {
	grp, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
	if err != nil {
		panic(err)
	}

	log := logging.New("kafka")
	h := kafka.NewStockReplenishedHandler(catalog, log)
	consumer := kafka.NewConsumer(grp, []string{cfg.Kafka.Topic}, h.Handle, log)

	go func() {
		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			log.Error("replenishment consumer stopped", "err", err)
		}
	}()
}
