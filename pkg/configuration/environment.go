package configuration

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const Production = "production"

const (
	CacheDriverRedis  = "redis"
	CacheDriverMemory = "memory"
)

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		panic(err)
	}
	return c
})

func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existingFiles = append(existingFiles, file)
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"tradecove_catalog"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type RedisOptions struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type CacheOptions struct {
	// Driver is "redis" or "memory". Memory suits single-node deployments
	// and tests; correctness never depends on the cache either way.
	Driver string        `env:"CACHE_DRIVER" envDefault:"redis"`
	TTL    time.Duration `env:"CACHE_TTL" envDefault:"5m"`
}

func (c *CacheOptions) Validate() error {
	if c.Driver != CacheDriverRedis && c.Driver != CacheDriverMemory {
		return fmt.Errorf("cache Driver must be 'redis' or 'memory', got '%s'", c.Driver)
	}
	if c.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %s", c.TTL)
	}
	return nil
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type Configuration struct {
	Database   DatabaseOptions
	Redis      RedisOptions
	Cache      CacheOptions
	Prometheus PrometheusOptions

	MigrationsEnabled bool          `env:"MIGRATIONS_ENABLED" envDefault:"true"`
	ServerPort        int           `env:"PORT" envDefault:"3200"`
	SocketAddress     string        `env:"-"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	// MutationTimeout bounds a structural mutation end to end, advisory lock
	// wait included. Exceeding it surfaces as CATALOG_TIMEOUT.
	MutationTimeout time.Duration `env:"MUTATION_TIMEOUT" envDefault:"10s"`
	GoAppEnvironment string       `env:"GO_APP_ENV" envDefault:"development"`
	LogLevel         string       `env:"LOG_LEVEL" envDefault:"info"`

	logger *logrus.Logger
}

// Use returns the process-wide configuration, loading it on first call.
func Use() *Configuration {
	return singleton()
}

func (c *Configuration) load(envFiles []string) error {
	if _, err := LoadEnv(envFiles); err != nil {
		return err
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	c.Database.Opts = c.Database.ConnectionString()
	c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)

	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if c.GoAppEnvironment == Production {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	c.logger = logger
	return nil
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}
