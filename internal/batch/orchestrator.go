// Package batch runs uploaded documents through preprocessing, extraction,
// unit normalization and entity resolution with bounded concurrency.
package batch

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pointake/internal/domain"
	"pointake/internal/normalize"
	"pointake/internal/oracle"
	"pointake/internal/port"
	"pointake/internal/preprocess"
	"pointake/internal/resolver"
)

// DefaultConcurrency is the number of documents processed at once.
const DefaultConcurrency = 2

// Preprocessor converts a document into oracle input.
type Preprocessor interface {
	Preprocess(ctx context.Context, doc domain.Document, mode domain.ExtractionMode) (*preprocess.Input, error)
}

// Extractor turns oracle input into purchase order lines.
type Extractor interface {
	Extract(ctx context.Context, parts []port.ContentPart) (*oracle.ExtractionResult, error)
}

// LineResolver resolves directory fields for one line.
type LineResolver interface {
	Resolve(ctx context.Context, line domain.ExtractedLine, caches *resolver.Caches) domain.Resolution
}

// Config holds orchestrator settings.
type Config struct {
	Concurrency int
}

// Orchestrator drives batch runs.
type Orchestrator struct {
	pre      Preprocessor
	ext      Extractor
	resolver LineResolver
	cfg      Config
	logger   *zap.Logger
}

// New creates an Orchestrator. A non-positive concurrency uses DefaultConcurrency.
func New(pre Preprocessor, ext Extractor, res LineResolver, cfg Config, logger *zap.Logger) *Orchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{pre: pre, ext: ext, resolver: res, cfg: cfg, logger: logger}
}

type runOptions struct {
	id        string
	listeners []func(Update)
}

// Option configures a single run.
type Option func(*runOptions)

// WithListener streams every state change and publication of the run to fn.
// Calls are serialized; fn must not block for long.
func WithListener(fn func(Update)) Option {
	return func(o *runOptions) {
		o.listeners = append(o.listeners, fn)
	}
}

// WithRunID sets the run id instead of a generated one.
func WithRunID(id string) Option {
	return func(o *runOptions) {
		o.id = id
	}
}

// Start begins processing docs in the background and returns immediately.
// The run outlives ctx: only values are taken from it, never cancellation.
func (o *Orchestrator) Start(ctx context.Context, docs []domain.Document, mode domain.ExtractionMode, opts ...Option) *Run {
	ro := runOptions{}
	for _, opt := range opts {
		opt(&ro)
	}
	if ro.id == "" {
		ro.id = uuid.New().String()
	}

	run := newRun(ro.id, mode, docs, ro.listeners, o.logger)
	run.setBatchState(domain.BatchProcessing)
	o.logger.Info("batch.Orchestrator.Start: run started",
		zap.String("run_id", run.id), zap.Int("documents", len(docs)), zap.String("mode", string(mode)))

	go o.execute(context.WithoutCancel(ctx), run, docs, mode)
	return run
}

// Run processes docs and blocks until every document is published or failed.
func (o *Orchestrator) Run(ctx context.Context, docs []domain.Document, mode domain.ExtractionMode, opts ...Option) (Snapshot, error) {
	return o.Start(ctx, docs, mode, opts...).Wait(ctx)
}

func (o *Orchestrator) execute(ctx context.Context, run *Run, docs []domain.Document, mode domain.ExtractionMode) {
	defer run.finish()

	caches := resolver.NewCaches()
	var g errgroup.Group
	g.SetLimit(o.cfg.Concurrency)
	for i := range docs {
		idx, doc := i, docs[i]
		g.Go(func() error {
			o.processDocument(ctx, run, idx, doc, mode, caches)
			return nil
		})
	}
	_ = g.Wait()

	snap := run.Snapshot()
	o.logger.Info("batch.Orchestrator.execute: run complete",
		zap.String("run_id", run.id), zap.Int("lines", len(snap.Lines)),
		zap.Int("failed", len(snap.Errors)), zap.Int64("total_tokens", snap.Usage.TotalTokens))
}

// processDocument takes one document to PUBLISHED or FAILED.
func (o *Orchestrator) processDocument(ctx context.Context, run *Run, idx int, doc domain.Document, mode domain.ExtractionMode, caches *resolver.Caches) {
	log := o.logger.With(zap.String("run_id", run.id), zap.String("document", doc.Name))
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("batch.Orchestrator.processDocument: panic",
				zap.Any("panic", rec), zap.ByteString("stack", debug.Stack()))
			run.fail(idx, fmt.Errorf("internal error: %v", rec))
		}
	}()

	run.setState(idx, domain.DocumentPreprocessing)
	input, err := o.pre.Preprocess(ctx, doc, mode)
	if err != nil {
		log.Warn("batch.Orchestrator.processDocument: preprocessing failed", zap.Error(err))
		run.fail(idx, err)
		return
	}

	var lines []domain.ExtractedLine
	if !input.Empty() {
		run.setState(idx, domain.DocumentExtracting)
		result, err := o.ext.Extract(ctx, input.Parts())
		if err != nil {
			log.Warn("batch.Orchestrator.processDocument: extraction failed", zap.Error(err))
			run.fail(idx, err)
			return
		}
		run.addUsage(result.Usage)
		lines = result.Lines
	}

	run.setState(idx, domain.DocumentResolving)
	lines, err = o.resolveLines(ctx, lines, caches)
	if err != nil {
		log.Error("batch.Orchestrator.processDocument: resolution failed", zap.Error(err))
		run.fail(idx, err)
		return
	}
	for i := range lines {
		lines[i] = lines[i].WithSource(doc.Name, doc.SourceURL)
	}

	run.publish(idx, lines)
	log.Info("batch.Orchestrator.processDocument: published", zap.Int("lines", len(lines)))
}

// resolveLines normalizes and resolves every line concurrently, keeping input order.
func (o *Orchestrator) resolveLines(ctx context.Context, lines []domain.ExtractedLine, caches *resolver.Caches) ([]domain.ExtractedLine, error) {
	out := make([]domain.ExtractedLine, len(lines))
	var g errgroup.Group
	for i := range lines {
		g.Go(func() (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("line %d: internal error: %v", i+1, rec)
				}
			}()
			line := normalize.Units(lines[i])
			out[i] = line.WithResolution(o.resolver.Resolve(ctx, line, caches))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
