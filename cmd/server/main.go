package main

import (
	"context"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/tradecove/catalog/internal/database"
	"github.com/tradecove/catalog/internal/server"
	"github.com/tradecove/catalog/modules/catalog/infrastructure/cache"
	catalogpersistence "github.com/tradecove/catalog/modules/catalog/infrastructure/persistence"
	"github.com/tradecove/catalog/modules/catalog/presentation/controllers"
	catalogservices "github.com/tradecove/catalog/modules/catalog/services"
	corepersistence "github.com/tradecove/catalog/modules/core/infrastructure/persistence"
	"github.com/tradecove/catalog/modules/core/seed"
	coreservices "github.com/tradecove/catalog/modules/core/services"
	"github.com/tradecove/catalog/pkg/composables"
	"github.com/tradecove/catalog/pkg/configuration"
	"github.com/tradecove/catalog/pkg/eventbus"
	"github.com/tradecove/catalog/pkg/metrics"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if conf.MigrationsEnabled {
		if err := database.Migrate(ctx, conf.Database.ConnectionString(), logger); err != nil {
			logger.WithError(err).Fatal("migrations failed")
		}
	}

	pool, err := pgxpool.New(ctx, conf.Database.ConnectionString())
	if err != nil {
		logger.WithError(err).Fatal("failed to create database pool")
	}
	defer pool.Close()

	if conf.GoAppEnvironment != configuration.Production {
		if err := seed.CreateDefaultTenant(composables.WithPool(ctx, pool)); err != nil {
			logger.WithError(err).Fatal("failed to seed default tenant")
		}
	}

	var store cache.Store
	switch conf.Cache.Driver {
	case configuration.CacheDriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     conf.Redis.Addr,
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Fatal("failed to connect to redis")
		}
		store = cache.NewRedisStore(client)
	default:
		store = cache.NewMemoryStore()
		logger.Warn("using in-process cache, invalidation will not cross nodes")
	}
	coordinator := cache.NewCoordinator(store, conf.Cache.TTL, logger)

	publisher := eventbus.NewEventPublisher(logger)

	tenantService := coreservices.NewTenantService(corepersistence.NewTenantRepository(), publisher)
	categoryRepository := catalogpersistence.NewCategoryRepository()
	categoryService := catalogservices.NewCategoryService(
		categoryRepository,
		publisher,
		coordinator,
		conf.MutationTimeout,
	)
	productService := catalogservices.NewProductService(
		catalogpersistence.NewProductRepository(),
		categoryRepository,
		coordinator,
		conf.MutationTimeout,
	)
	brandService := catalogservices.NewBrandService(catalogpersistence.NewBrandRepository())

	opts := &server.Options{
		Configuration: conf,
		Logger:        logger,
		Pool:          pool,
		Tenants:       tenantService,
		TenantControllers: []server.Controller{
			controllers.NewCatalogAPIController(categoryService, productService, brandService),
		},
	}
	if conf.Prometheus.Enabled {
		opts.SystemControllers = append(opts.SystemControllers, metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	if err := server.Default(opts).Start(); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}
