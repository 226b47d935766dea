package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/gaasapi/internal/adapters/events"
	"github.com/atvirokodosprendimai/gaasapi/internal/adapters/httpapi"
	sqliteadapter "github.com/atvirokodosprendimai/gaasapi/internal/adapters/sqlite"
	"github.com/atvirokodosprendimai/gaasapi/internal/adapters/sqlite/gormsqlite"
	"github.com/atvirokodosprendimai/gaasapi/internal/core/domain"
	"github.com/atvirokodosprendimai/gaasapi/internal/core/ports"
	"github.com/atvirokodosprendimai/gaasapi/internal/core/usecase"
	"github.com/atvirokodosprendimai/gaasapi/migrations"
)

type Config struct {
	Addr             string
	DBPath           string
	BootstrapAPIKey  string
	BootstrapTenant  string
	BootstrapKeyName string
	WebhookURL       string
	WebhookSecret    string
	WebhookTimeout   time.Duration
	DispatchInterval time.Duration
	DispatchBatch    int
}

type resourceCloser struct {
	closers []io.Closer
}

func (r resourceCloser) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func NewServer(ctx context.Context, cfg Config, logger *zap.Logger) (*http.Server, io.Closer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gormsqlite.Open(cfg.DBPath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}

	writeSQLDB, err := db.WriteSQLDB()
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("resolve writer sql db: %w", err)
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := migrations.Up(migrateCtx, writeSQLDB, logger); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	graphStore := sqliteadapter.NewGraphStore(db)
	collaboratorStore := sqliteadapter.NewCollaboratorStore(db)
	apiKeyRepo := sqliteadapter.NewAPIKeyRepository(db)
	outboxRepo := sqliteadapter.NewOutboxRepository(db)

	schemaService, err := usecase.NewSchemaService()
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	graphService := usecase.NewGraphService(graphStore, schemaService)
	collaboratorService := usecase.NewCollaboratorService(graphStore, collaboratorStore)
	authService := usecase.NewAuthService(apiKeyRepo)

	if cfg.BootstrapAPIKey != "" {
		if err := bootstrapAPIKey(ctx, apiKeyRepo, cfg); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.Info("bootstrap api key ready", zap.String("tenant", cfg.BootstrapTenant))
	}

	dispatcher := usecase.NewOutboxDispatcher(outboxRepo, newPublisher(cfg, logger), logger, cfg.DispatchInterval, cfg.DispatchBatch)
	dispatcher.Start(context.Background())

	handler := httpapi.NewHandler(schemaService, graphService, collaboratorService, authService, logger)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return server, resourceCloser{closers: []io.Closer{dispatcher, db}}, nil
}

func newPublisher(cfg Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.WebhookURL == "" {
		return events.NewLogPublisher(logger)
	}
	logger.Info("delivering graph events by webhook", zap.String("url", cfg.WebhookURL))
	return events.NewWebhookPublisher(cfg.WebhookURL, cfg.WebhookSecret, cfg.WebhookTimeout, logger)
}

func bootstrapAPIKey(ctx context.Context, repo ports.APIKeyRepository, cfg Config) error {
	tenant := cfg.BootstrapTenant
	if tenant == "" {
		tenant = "default"
	}
	name := cfg.BootstrapKeyName
	if name == "" {
		name = "bootstrap"
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := repo.Upsert(ctx, domain.APIKey{
		TokenHash: usecase.HashToken(cfg.BootstrapAPIKey),
		TenantID:  tenant,
		Name:      name,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("bootstrap api key: %w", err)
	}
	return nil
}
