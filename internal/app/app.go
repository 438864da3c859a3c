// Package app builds the indexer's collaborators from configuration and runs
// a single crawl pass.
package app

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/lecture-indexer/internal/catalog"
	"github.com/JakeFAU/lecture-indexer/internal/clock/system"
	"github.com/JakeFAU/lecture-indexer/internal/config"
	"github.com/JakeFAU/lecture-indexer/internal/crawler"
	collyfetcher "github.com/JakeFAU/lecture-indexer/internal/fetcher/colly"
	"github.com/JakeFAU/lecture-indexer/internal/id/uuid"
	"github.com/JakeFAU/lecture-indexer/internal/metadata"
	"github.com/JakeFAU/lecture-indexer/internal/metrics"
	"github.com/JakeFAU/lecture-indexer/internal/publisher/pubsub"
	"github.com/JakeFAU/lecture-indexer/internal/storage/gcs"
	"github.com/JakeFAU/lecture-indexer/internal/storage/local"
	"github.com/JakeFAU/lecture-indexer/internal/storage/memory"
	"github.com/JakeFAU/lecture-indexer/internal/storage/postgres"
	"github.com/JakeFAU/lecture-indexer/internal/worker"
)

// App holds the services for one process lifetime.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	blobs   crawler.BlobStore
	worker  *worker.Worker
	closers []closer
}

type closer struct {
	name  string
	close func() error
}

// New wires the blob backend, catalog store, fetchers and optional notifiers.
// Anything opened before a failure is closed again.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger}

	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	blobs, err := a.newBlobStore(ctx)
	if err != nil {
		return err
	}
	a.blobs = blobs

	store, err := catalog.NewStore(blobs, a.cfg.Storage.CatalogObject)
	if err != nil {
		return fmt.Errorf("catalog store: %w", err)
	}

	transport := collyfetcher.New(collyfetcher.Config{
		UserAgent: a.cfg.HTTP.UserAgent,
		Timeout:   a.cfg.HTTPTimeout(),
	})
	sections, err := metadata.New(transport, metadata.Config{
		BaseURL: a.cfg.Source.BaseURL,
		Suffix:  a.cfg.Source.SectionSuffix,
	})
	if err != nil {
		return fmt.Errorf("metadata fetcher: %w", err)
	}

	notifiers, err := a.newNotifiers(ctx)
	if err != nil {
		return err
	}

	a.worker = worker.New(
		transport,
		sections,
		store,
		blobs,
		system.New(),
		uuid.New(),
		notifiers,
		worker.Config{
			IndexURL:    a.cfg.Source.BaseURL,
			HandbookURL: a.cfg.Report.HandbookURL,
			ReportPath:  a.cfg.Storage.ReportObject,
		},
		a.logger.Named("worker"),
	)
	return nil
}

func (a *App) newBlobStore(ctx context.Context) (crawler.BlobStore, error) {
	switch a.cfg.Storage.Backend {
	case config.BackendMemory:
		a.logger.Info("using in-memory storage, nothing will be kept after exit")
		return memory.NewBlobStore(), nil
	case config.BackendGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create gcs client: %w", err)
		}
		a.closers = append(a.closers, closer{name: "gcs", close: client.Close})
		a.logger.Info("using gcs storage", zap.String("bucket", a.cfg.Storage.GCSBucket))
		return gcs.New(client, gcs.Config{Bucket: a.cfg.Storage.GCSBucket, Prefix: a.cfg.Storage.Prefix})
	default:
		a.logger.Info("using local storage", zap.String("base_dir", a.cfg.Storage.BaseDir))
		return local.New(local.Config{BaseDir: a.cfg.Storage.BaseDir})
	}
}

func (a *App) newNotifiers(ctx context.Context) ([]worker.Notifier, error) {
	var notifiers []worker.Notifier
	if a.cfg.DB.DSN != "" {
		recordings, err := postgres.NewRecordingStore(ctx, postgres.RecordingStoreConfig{
			DSN:      a.cfg.DB.DSN,
			Table:    a.cfg.DB.Table,
			MaxConns: int32(a.cfg.DB.MaxConns), //nolint:gosec // validated non-negative, small
		})
		if err != nil {
			return nil, fmt.Errorf("postgres mirror: %w", err)
		}
		a.closers = append(a.closers, closer{name: "postgres", close: func() error {
			recordings.Close()
			return nil
		}})
		a.logger.Info("mirroring recordings to postgres", zap.String("table", a.cfg.DB.Table))
		notifiers = append(notifiers, recordings)
	}
	if a.cfg.PubSub.ProjectID != "" {
		pub, err := pubsub.New(ctx, a.cfg.PubSub.ProjectID, a.cfg.PubSub.TopicName)
		if err != nil {
			return nil, fmt.Errorf("pubsub publisher: %w", err)
		}
		a.closers = append(a.closers, closer{name: "pubsub", close: pub.Close})
		a.logger.Info("announcing recordings on pubsub", zap.String("topic", a.cfg.PubSub.TopicName))
		notifiers = append(notifiers, pub)
	}
	return notifiers, nil
}

// Blobs returns the configured blob backend.
func (a *App) Blobs() crawler.BlobStore {
	return a.blobs
}

// Run performs one crawl pass and pushes metrics when a gateway is configured.
func (a *App) Run(ctx context.Context) (worker.Summary, error) {
	summary, err := a.worker.Run(ctx)

	if url := a.cfg.Metrics.PushgatewayURL; url != "" {
		if pushErr := metrics.Push(context.WithoutCancel(ctx), url, a.cfg.Metrics.JobName); pushErr != nil {
			a.logger.Warn("metrics push failed", zap.String("url", url), zap.Error(pushErr))
		}
	}
	return summary, err
}

// Close releases clients in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(); err != nil {
			a.logger.Warn("close failed", zap.String("service", c.name), zap.Error(err))
		}
	}
	a.closers = nil
}
