// Package wire provides dependency injection for railctl.
// It creates singleton services with lazy initialization.
package wire

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log"
	"os"
	"sync"

	cliadapter "github.com/example/railctl/internal/adapters/cli"
	"github.com/example/railctl/internal/adapters/httpapi"
	"github.com/example/railctl/internal/adapters/sqlite"
	"github.com/example/railctl/internal/app"
	"github.com/example/railctl/internal/config"
	"github.com/example/railctl/internal/db"
	"github.com/example/railctl/internal/ports/primary"
)

var (
	configPath = config.DefaultPath

	configStore      *config.Store
	entityStore      *app.EntityStore
	advisoryService  *app.AdvisoryServiceImpl
	ingestionService *app.IngestionServiceImpl
	queryService     *app.QueryServiceImpl
	engine           *app.Engine
	once             sync.Once
)

// SetConfigPath sets the config file the services are built from.
// It has no effect once any service has been requested.
func SetConfigPath(path string) {
	configPath = path
}

// Config returns the singleton config store.
func Config() *config.Store {
	once.Do(initServices)
	return configStore
}

// Engine returns the singleton aggregation engine.
func Engine() *app.Engine {
	once.Do(initServices)
	return engine
}

// IngestionService returns the singleton IngestionService instance.
func IngestionService() primary.IngestionService {
	once.Do(initServices)
	return ingestionService
}

// AdvisoryService returns the singleton AdvisoryService instance.
func AdvisoryService() primary.AdvisoryService {
	once.Do(initServices)
	return advisoryService
}

// QueryService returns the singleton QueryService instance.
func QueryService() primary.QueryService {
	once.Do(initServices)
	return queryService
}

// HTTPServer returns a new HTTP server over the singleton services.
func HTTPServer() *httpapi.Server {
	once.Do(initServices)
	return httpapi.NewServer(ingestionService, advisoryService, queryService, configStore, engine)
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	store, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	configStore = store
	cfg := store.Current()

	// Get database connection
	db.SetPath(cfg.Database.Path)
	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Create repository adapters (secondary ports) - sqlite adapters with injected DB
	recRepo := sqlite.NewRecommendationRepository(database)
	decRepo := sqlite.NewDecisionRepository(database)
	condRepo := sqlite.NewConditionRepository(database)
	auditRepo := sqlite.NewAuditLogRepository(database)
	logWriter := sqlite.NewLogWriterAdapter(auditRepo)

	entityStore = app.NewEntityStore(cfg.Bands())
	for _, spec := range cfg.Topology.Sections {
		if _, err := entityStore.ConfigureSection(context.Background(), spec); err != nil {
			log.Fatalf("failed to configure section %s: %v", spec.ID, err)
		}
	}

	// Create services (primary ports implementation)
	advisoryService = app.NewAdvisoryService(recRepo, decRepo, condRepo, logWriter)
	ingestionService = app.NewIngestionService(entityStore)
	engine = app.NewEngine(entityStore, advisoryService, configStore)
	queryService = app.NewQueryService(engine, entityStore, configStore, recRepo, decRepo, auditRepo)
}

// loadConfig falls back to the defaults when no config file exists, so
// read-only commands work before `railctl config init`.
func loadConfig(path string) (*config.Store, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		log.Printf("[config] %s not found, using defaults", path)
		cfg, err := config.LoadDefaults()
		if err != nil {
			return nil, err
		}
		return config.NewStaticStore(cfg), nil
	}
	return config.NewStore(path)
}

// AdvisoryAdapter returns a new AdvisoryAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func AdvisoryAdapter() *cliadapter.AdvisoryAdapter {
	return AdvisoryAdapterWithOutput(os.Stdout)
}

// AdvisoryAdapterWithOutput returns a new AdvisoryAdapter writing to the given output.
// This variant allows testing or alternate output destinations.
func AdvisoryAdapterWithOutput(out io.Writer) *cliadapter.AdvisoryAdapter {
	once.Do(initServices)
	return cliadapter.NewAdvisoryAdapter(advisoryService, queryService, out)
}
