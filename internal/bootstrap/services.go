package bootstrap

import (
	"database/sql"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/discfinder/discfinder/config"
	"github.com/discfinder/discfinder/internal/data"
	"github.com/discfinder/discfinder/internal/hunter"
	"github.com/discfinder/discfinder/internal/scrape"
	"github.com/discfinder/discfinder/internal/service"
	"github.com/discfinder/discfinder/internal/worker"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Stores *service.StoreService
	Jobs   *service.JobService
	Stats  *service.StatsService
	Hunter *service.HunterService
	Runner *worker.Runner
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	StoreRepo *data.StoreRepo
	JobRepo   *data.JobRepo
	CacheRepo *data.RedisCacheRepo
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, redisClient redis.UniversalClient) *serviceRepositories {
	return &serviceRepositories{
		StoreRepo: data.NewStoreRepo(db),
		JobRepo:   data.NewJobRepo(db),
		CacheRepo: data.NewRedisCacheRepo(redisClient),
	}
}

// NewServices wires repositories, outbound clients, the worker pool, and the
// domain services into a single container.
func NewServices(deps *ServiceDeps) ServiceContainer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	repos := buildRepositories(deps.DB, deps.RedisClient)

	hunterClient := hunter.NewClient(hunter.Options{
		APIKey:         cfg.Hunter.APIKey,
		BaseURL:        cfg.Hunter.BaseURL,
		Timeout:        cfg.Hunter.Timeout,
		PerMinuteLimit: cfg.Hunter.PerMinuteLimit,
		PerSecondLimit: cfg.Hunter.PerSecondLimit,
	})
	scraper := scrape.New(cfg.Scraper)

	runner := worker.NewRunner(repos.StoreRepo, repos.JobRepo, scraper, hunterClient, worker.Options{
		Concurrency:      cfg.Worker.Concurrency,
		EmailLookupPause: cfg.Worker.EmailLookupPause,
		Logger:           logger,
	})

	storeService := service.NewStoreService(repos.StoreRepo)
	jobService := service.NewJobService(service.JobServiceOptions{
		Jobs:       repos.JobRepo,
		Stores:     repos.StoreRepo,
		Dispatcher: runner,
	})
	hunterService := service.NewHunterService(service.HunterServiceOptions{
		Client:     hunterClient,
		Cache:      repos.CacheRepo,
		AccountTTL: cfg.Cache.AccountTTL,
		Logger:     logger,
	})
	statsService := service.NewStatsService(service.StatsServiceOptions{
		Stores: repos.StoreRepo,
		Jobs:   repos.JobRepo,
		Active: repos.JobRepo,
		Hunter: hunterService,
	})

	return ServiceContainer{
		Stores: storeService,
		Jobs:   jobService,
		Stats:  statsService,
		Hunter: hunterService,
		Runner: runner,
	}
}
