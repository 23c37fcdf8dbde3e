package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/wicaksono/laundry-pos/internal/config"
	"github.com/wicaksono/laundry-pos/internal/handlers"
	"github.com/wicaksono/laundry-pos/internal/invoice"
	"github.com/wicaksono/laundry-pos/internal/queue"
	"github.com/wicaksono/laundry-pos/internal/repository"
	"github.com/wicaksono/laundry-pos/internal/services"
	xhttp "github.com/wicaksono/laundry-pos/pkg/http"
	"github.com/wicaksono/laundry-pos/pkg/logger"
	"github.com/wicaksono/laundry-pos/pkg/pg"
	"github.com/wicaksono/laundry-pos/pkg/prom"
	"github.com/wicaksono/laundry-pos/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	renderQ, err := queue.NewQueue(redisAdap, queue.QueueConfig{
		Name:              config.Get().RenderQueueName,
		ConsumerGroup:     config.Get().RenderQueueConsumerGroup,
		ConsumerName:      config.Get().RenderQueueConsumerName,
		MaxRetries:        config.Get().RenderQueueMaxRetries,
		VisibilityTimeout: config.Get().RenderQueueVisibilityTimeout,
		PollInterval:      config.Get().RenderQueuePollInterval,
		BatchSize:         config.Get().RenderQueueBatchSize,
		MaxLen:            config.Get().RenderQueueMaxLen,
		EnableDLQ:         config.Get().RenderQueueEnableDLQ,
	})
	if err != nil {
		logger.Error("failed creating render queue", "error", err)
	}

	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)

	sequencer := invoice.NewRedisSequencer(redisAdap, transactionRepo)

	// services
	authService := services.NewAuthService(userRepo, config.Get().JWTSecret, time.Duration(config.Get().JWTExpiryHours)*time.Hour)
	customerService := services.NewCustomerService(customerRepo, transactionRepo)
	catalogService := services.NewCatalogService(serviceRepo)
	transactionService := services.NewTransactionService(transactionRepo, customerRepo, serviceRepo, sequencer, renderQ)
	reportService := services.NewReportService(transactionRepo)
	healthService := services.NewHealthService(
		func() error {
			sqlDB, err := db.Read(context.Background()).DB()
			if err != nil {
				return err
			}
			return sqlDB.Ping()
		},
		func() error {
			return redisAdap.Client().Ping(context.Background()).Err()
		},
	)

	receiptRenderer := invoice.NewPDFRenderer(config.Get().ShopName, config.Get().ShopAddress, config.Get().ShopPhone)

	// transport (tcp for now)
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 5))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Use(handlers.AuthMiddleware(authService))
	s.Router = xhttp.CreateDefaultRouter()

	// v1 handlers
	authHandler := handlers.NewAuthHandler(authService)
	customerHandler := handlers.NewCustomerHandler(customerService, transactionService)
	serviceHandler := handlers.NewServiceHandler(catalogService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, receiptRenderer)
	reportHandler := handlers.NewReportHandler(reportService)
	healthHandler := handlers.NewHealthHandler(healthService)

	g := s.Router.Group("/api/v1")
	handlers.RegisterAuthRoutes(g, authHandler)
	handlers.RegisterCustomerRoutes(g, customerHandler)
	handlers.RegisterServiceRoutes(g, serviceHandler)
	handlers.RegisterTransactionRoutes(g, transactionHandler)
	handlers.RegisterReportRoutes(g, reportHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	err = prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	go func() {
		prom.ListenAndServer(config.Get().MetricsAddr, "/metrics")
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Kill, os.Interrupt, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	select {
	case <-c:
		s.Shutdown()
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
