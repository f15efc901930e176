package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/inkpress/inkpress-go/internal/dependencies/clock"
	"github.com/inkpress/inkpress-go/internal/events"
	"github.com/inkpress/inkpress-go/internal/services/auth"
	"github.com/inkpress/inkpress-go/internal/services/pipeline"
	"github.com/inkpress/inkpress-go/internal/storage"
	"github.com/inkpress/inkpress-go/internal/storage/memory"
	redisstorage "github.com/inkpress/inkpress-go/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock

	// Services
	AuthService     *auth.Service
	PipelineService *pipeline.Service
	HubManager      *events.HubManager
	Broadcaster     *events.Broadcaster
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// PipelineConfig holds configuration for the demo pipeline (optional)
	// If zero value, defaults to pipeline.DefaultConfig()
	PipelineConfig pipeline.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	clk := clock.New()

	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	pipelineCfg := cfg.PipelineConfig
	if pipelineCfg.StageDelay == 0 {
		pipelineCfg = pipeline.DefaultConfig()
	}

	return newWithDependencies(store, clk, authCfg, pipelineCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, authCfg auth.Config, pipelineCfg pipeline.Config, logger *slog.Logger) *App {
	authService := auth.NewService(store, clk, authCfg, logger)
	hubManager := events.NewHubManager(logger)
	broadcaster := events.NewBroadcaster(hubManager, clk, logger)
	pipelineService := pipeline.NewService(store, clk, broadcaster, pipelineCfg, logger)

	return &App{
		Storage:         store,
		Clock:           clk,
		AuthService:     authService,
		PipelineService: pipelineService,
		HubManager:      hubManager,
		Broadcaster:     broadcaster,
	}
}
