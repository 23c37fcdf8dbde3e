package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/wicaksono/laundry-pos/pkg/logger"
)

const ConfigTagName = "env"
const ConfigDefaultTagName = "default"

var config *Config

// Config holds every environment-driven setting of the POS. Only this
// struct may be used to read configuration; no direct env access elsewhere.
type Config struct {
	AppEnv   string `env:"APP_ENV" default:"dev"`
	AppName  string `env:"APP_NAME" default:"laundry_pos"`
	AppDebug bool   `env:"APP_DEBUG" default:"1"`

	HttpListenAddr string `env:"HTTP_LISTEN_ADDR" validation:"mustExists"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX"`

	PromNamespace string `env:"PROM_NAMESPACE"`
	MetricsAddr   string `env:"METRICS_ADDR" default:":9100"`

	LogLevel []string `env:"LOG_LEVEL"`

	JWTSecret      string `env:"JWT_SECRET"`
	JWTExpiryHours int    `env:"JWT_EXPIRY_HOURS" default:"24"`

	RenderQueueName              string        `env:"RENDER_QUEUE_NAME" default:"invoices:render"`
	RenderQueueConsumerGroup     string        `env:"RENDER_QUEUE_CONSUMER_GROUP" default:"renderers"`
	RenderQueueConsumerName      string        `env:"RENDER_QUEUE_CONSUMER_NAME" default:"renderer"`
	RenderQueueMaxRetries        int           `env:"RENDER_QUEUE_MAX_RETRIES" default:"3"`
	RenderQueueVisibilityTimeout time.Duration `env:"RENDER_QUEUE_VISIBILITY_TIMEOUT" default:"30s"`
	RenderQueuePollInterval      time.Duration `env:"RENDER_QUEUE_POLL_INTERVAL" default:"1s"`
	RenderQueueBatchSize         int64         `env:"RENDER_QUEUE_BATCH_SIZE" default:"10"`
	RenderQueueMaxLen            int64         `env:"RENDER_QUEUE_MAX_LEN" default:"10000"`
	RenderQueueEnableDLQ         bool          `env:"RENDER_QUEUE_ENABLE_DLQ" default:"1"`

	ArtifactDir string `env:"ARTIFACT_DIR" default:"./artifacts"`
	ShopName    string `env:"SHOP_NAME" default:"Laundry Express"`
	ShopAddress string `env:"SHOP_ADDRESS"`
	ShopPhone   string `env:"SHOP_PHONE"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.New("failed to load configuration file " + path + " error: " + err.Error())
		}
	}

	_, err = env.UnmarshalFromEnviron(c)

	if err != nil {
		return errors.New("failed to map env variables to Configuration object " + " error: " + err.Error())
	}

	config = c
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}
