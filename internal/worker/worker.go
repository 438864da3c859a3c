// Package worker implements the sequential crawl pipeline: discover new
// section links, fetch each one in turn, persist the catalog and regenerate
// the report.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/lecture-indexer/internal/catalog"
	"github.com/JakeFAU/lecture-indexer/internal/crawler"
	"github.com/JakeFAU/lecture-indexer/internal/discover"
	"github.com/JakeFAU/lecture-indexer/internal/metrics"
	"github.com/JakeFAU/lecture-indexer/internal/report"
)

var tracer = otel.Tracer("github.com/JakeFAU/lecture-indexer/internal/worker")

// CatalogStore loads and persists the catalog.
type CatalogStore interface {
	Load(ctx context.Context) (*catalog.Catalog, error)
	Persist(ctx context.Context, cat *catalog.Catalog) error
}

// SectionFetcher turns a link identifier into a catalog record.
type SectionFetcher interface {
	Fetch(ctx context.Context, linkID string) (catalog.Record, error)
}

// Notifier receives the entries added by a completed run.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, runID string, added []catalog.Entry) error
}

// Config controls Worker behavior.
type Config struct {
	IndexURL    string
	HandbookURL string
	ReportPath  string
}

// Worker runs one discover → fetch → merge → persist → report pass.
type Worker struct {
	index     crawler.Fetcher
	sections  SectionFetcher
	store     CatalogStore
	reports   crawler.BlobStore
	clock     crawler.Clock
	ids       crawler.IDGenerator
	notifiers []Notifier
	cfg       Config
	logger    *zap.Logger
}

// New constructs a Worker.
func New(
	index crawler.Fetcher,
	sections SectionFetcher,
	store CatalogStore,
	reports crawler.BlobStore,
	clock crawler.Clock,
	ids crawler.IDGenerator,
	notifiers []Notifier,
	cfg Config,
	logger *zap.Logger,
) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.HandbookURL == "" {
		cfg.HandbookURL = report.DefaultHandbookURL
	}
	if cfg.ReportPath == "" {
		cfg.ReportPath = "recordings.htm"
	}
	metrics.Init()
	return &Worker{
		index:     index,
		sections:  sections,
		store:     store,
		reports:   reports,
		clock:     clock,
		ids:       ids,
		notifiers: notifiers,
		cfg:       cfg,
		logger:    logger,
	}
}

// run carries the state of one pass. The catalog is owned by the run and
// only mutated from its single control path.
type run struct {
	summary Summary
	catalog *catalog.Catalog
	added   []catalog.Entry
	logger  *zap.Logger
}

func (r *run) transition(s State) {
	r.summary.Trail = append(r.summary.Trail, s)
	r.logger.Debug("state transition", zap.String("state", string(s)))
}

// Run performs a single pass. Per-link failures are logged and skipped; a
// failed index fetch, catalog load, catalog persist or report write is
// returned as an error.
func (w *Worker) Run(ctx context.Context) (Summary, error) {
	start := w.clock.Now()
	runID, err := w.ids.NewID()
	if err != nil {
		return Summary{}, fmt.Errorf("generate run id: %w", err)
	}
	r := &run{
		summary: Summary{RunID: runID},
		logger:  w.logger.With(zap.String("run_id", runID)),
	}
	r.transition(StateIdle)

	ctx, span := tracer.Start(ctx, "indexer.run", trace.WithAttributes(attribute.String("run_id", runID)))
	defer span.End()

	err = w.execute(ctx, r)
	switch {
	case err == nil:
	case errors.Is(err, errInterrupted):
		r.summary.Outcome = OutcomeInterrupted
	default:
		r.summary.Outcome = OutcomeFailed
	}
	span.SetAttributes(
		attribute.String("outcome", string(r.summary.Outcome)),
		attribute.Int("added", r.summary.Added),
		attribute.Int("skipped", r.summary.Skipped),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	metrics.ObserveRun(string(r.summary.Outcome), w.clock.Now().Sub(start))
	return r.summary, err
}

var errInterrupted = errors.New("run interrupted")

func (w *Worker) execute(ctx context.Context, r *run) error {
	cat, err := w.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	r.catalog = cat
	r.logger.Info("catalog loaded", zap.Int("records", cat.Len()))

	r.transition(StateDiscovering)
	links, err := w.discover(ctx, r)
	if err != nil {
		return err
	}
	r.summary.Discovered = len(links)
	metrics.ObserveDiscovered(len(links))
	if len(links) == 0 {
		r.logger.Info("no new recording links found")
		r.summary.Outcome = OutcomeNothingToDo
		r.summary.CatalogSize = cat.Len()
		r.transition(StateIdle)
		return nil
	}

	interrupted := w.crawl(ctx, r, links)

	// Collected records are saved even when the run was interrupted.
	saveCtx := context.WithoutCancel(ctx)
	if err := w.persist(saveCtx, r); err != nil {
		return err
	}
	if err := w.writeReport(saveCtx, r); err != nil {
		return err
	}
	w.notify(saveCtx, r)

	r.summary.CatalogSize = cat.Len()
	metrics.SetCatalogRecords(cat.Len())
	r.transition(StateIdle)
	if interrupted != nil {
		return fmt.Errorf("%w: %w", errInterrupted, interrupted)
	}
	r.summary.Outcome = OutcomeCompleted
	return nil
}

func (w *Worker) discover(ctx context.Context, r *run) ([]string, error) {
	r.logger.Info("fetching index", zap.String("url", w.cfg.IndexURL))
	start := time.Now()
	body, err := w.index.Fetch(ctx, w.cfg.IndexURL)
	metrics.ObserveFetch("index", time.Since(start))
	if err != nil {
		return nil, &crawler.TransportError{URL: w.cfg.IndexURL, Err: err}
	}

	doc, err := discover.ParseIndex(body)
	if err != nil {
		return nil, err
	}
	links := discover.NewLinks(doc, r.catalog)
	r.logger.Info("index processed", zap.Int("new_links", len(links)))
	return links, nil
}

// crawl fetches links strictly one at a time, in order. It returns the
// context error when the run was cancelled before the queue was drained.
func (w *Worker) crawl(ctx context.Context, r *run, links []string) error {
	for i, linkID := range links {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("run interrupted, saving gathered records",
				zap.Int("processed", i),
				zap.Int("total", len(links)),
				zap.Error(err),
			)
			return err
		}
		r.transition(StateFetching)
		r.logger.Info("processing link",
			zap.Int("position", i+1),
			zap.Int("total", len(links)),
			zap.String("link_id", linkID),
		)

		rec, err := w.fetchSection(ctx, linkID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				r.logger.Warn("run interrupted during fetch, saving gathered records",
					zap.String("link_id", linkID),
					zap.Int("processed", i),
					zap.Int("total", len(links)),
					zap.Error(ctxErr),
				)
				return ctxErr
			}
			w.skip(r, linkID, err)
			continue
		}

		r.transition(StateMerging)
		if !r.catalog.Add(linkID, rec) {
			r.summary.Skipped++
			metrics.ObserveSection(metrics.SectionDuplicate)
			r.logger.Warn("link already catalogued", zap.String("link_id", linkID))
			continue
		}
		r.added = append(r.added, catalog.Entry{LinkID: linkID, Record: rec})
		r.summary.Added++
		metrics.ObserveSection(metrics.SectionAdded)
		r.logger.Info("added recording",
			zap.String("link_id", linkID),
			zap.String("course_id", rec.CourseID),
			zap.String("course_name", rec.CourseName),
			zap.String("term", rec.TermName),
		)
	}
	return nil
}

func (w *Worker) fetchSection(ctx context.Context, linkID string) (catalog.Record, error) {
	ctx, span := tracer.Start(ctx, "indexer.section", trace.WithAttributes(attribute.String("link_id", linkID)))
	defer span.End()

	start := time.Now()
	rec, err := w.sections.Fetch(ctx, linkID)
	metrics.ObserveFetch("section", time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return rec, err
}

func (w *Worker) skip(r *run, linkID string, err error) {
	r.summary.Skipped++
	reason := "unknown"
	var (
		terr *crawler.TransportError
		perr *crawler.ParseError
	)
	switch {
	case errors.As(err, &terr):
		reason = metrics.SectionTransportError
	case errors.As(err, &perr):
		reason = metrics.SectionParseError
	}
	metrics.ObserveSection(reason)
	r.logger.Warn("skipping link",
		zap.String("link_id", linkID),
		zap.String("reason", reason),
		zap.Error(err),
	)
}

func (w *Worker) persist(ctx context.Context, r *run) error {
	r.transition(StatePersisting)
	r.logger.Info("saving catalog", zap.Int("records", r.catalog.Len()), zap.Int("added", len(r.added)))
	err := w.store.Persist(ctx, r.catalog)
	if err == nil {
		r.logger.Info("catalog saved")
		return nil
	}
	var perr *catalog.PersistError
	if errors.As(err, &perr) {
		r.logger.Error("catalog write failed, payload follows for manual recovery",
			zap.String("path", perr.Path),
			zap.ByteString("payload", perr.Payload),
			zap.Error(err),
		)
	}
	return fmt.Errorf("persist catalog: %w", err)
}

func (w *Worker) writeReport(ctx context.Context, r *run) error {
	r.transition(StateReporting)
	r.logger.Info("rendering report")
	doc, err := report.Render(report.Build(r.catalog), w.cfg.HandbookURL)
	if err != nil {
		return err
	}
	uri, err := w.reports.PutObject(ctx, w.cfg.ReportPath, report.ContentType, doc)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	r.summary.ReportURI = uri
	r.logger.Info("report written", zap.String("uri", uri))
	return nil
}

func (w *Worker) notify(ctx context.Context, r *run) {
	if len(r.added) == 0 {
		return
	}
	for _, n := range w.notifiers {
		if err := n.Notify(ctx, r.summary.RunID, r.added); err != nil {
			r.logger.Warn("notifier failed", zap.String("notifier", n.Name()), zap.Error(err))
			continue
		}
		r.logger.Debug("notifier done", zap.String("notifier", n.Name()), zap.Int("entries", len(r.added)))
	}
}
