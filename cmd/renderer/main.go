package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/wicaksono/laundry-pos/internal/config"
	"github.com/wicaksono/laundry-pos/internal/invoice"
	"github.com/wicaksono/laundry-pos/internal/renderer"
	"github.com/wicaksono/laundry-pos/pkg/logger"
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

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Kill, os.Interrupt, syscall.SIGTERM)

	pdfRenderer := invoice.NewPDFRenderer(config.Get().ShopName, config.Get().ShopAddress, config.Get().ShopPhone)

	// Initialize idempotency service
	idempotencyConfig := renderer.DefaultIdempotencyConfig()
	idempotencyService := renderer.NewIdempotencyService(redisAdap, idempotencyConfig)

	service, err := renderer.NewRenderService(redisAdap)
	if err != nil {
		logger.Error("failed to create the render service", "error", err)
		return
	}
	service.RegisterProcessor(renderer.NewInvoiceRenderProcessor(pdfRenderer, config.Get().ArtifactDir, idempotencyService))

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

	go func() {
		err := service.Start()
		if err != nil {
			logger.Error("failed to start renderer", "error", err)
		}
	}()

	select {
	case <-c:
		service.Stop()
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
