package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/austin-311-etl/internal/domain"
	"github.com/couchcryptid/austin-311-etl/internal/observability"
)

// BatchExtractor reads up to batchSize raw records from the source. It returns
// io.EOF, possibly alongside a final partial batch, once the source is drained.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawRecord, error)
}

// Transformer converts a raw record into a keyed document.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawRecord) (domain.OutputDocument, error)
}

// BatchLoader writes multiple documents to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, docs []domain.OutputDocument) error
}

// Stats summarizes a pipeline run.
type Stats struct {
	Extracted int64
	Skipped   int64
	Failed    int64
	Loaded    int64
}

// Pipeline orchestrates the extract-transform-load loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int

	extracted atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64
	loaded    atomic.Int64
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once the pipeline has loaded at least one batch,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not loaded any documents yet")
	}
	return nil
}

// Stats returns the counters accumulated so far.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Extracted: p.extracted.Load(),
		Skipped:   p.skipped.Load(),
		Failed:    p.failed.Load(),
		Loaded:    p.loaded.Load(),
	}
}

// Run executes the batch ETL loop until the source is drained or the context
// is cancelled. Extraction errors other than io.EOF end the run.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		done, err := p.processBatch(ctx)
		if err != nil {
			return err
		}
		if done {
			s := p.Stats()
			p.logger.Info("pipeline finished",
				"extracted", s.Extracted,
				"skipped", s.Skipped,
				"failed", s.Failed,
				"loaded", s.Loaded,
			)
			return nil
		}
	}
}

// processBatch runs one extract-transform-load cycle. Returns true when the
// pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context) (bool, error) {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	drained := errors.Is(err, io.EOF)
	if err != nil && !drained {
		if ctx.Err() != nil {
			return true, nil
		}
		p.logger.Error("extract batch failed", "error", err)
		return true, err
	}

	if len(rawBatch) > 0 {
		p.extracted.Add(int64(len(rawBatch)))
		p.metrics.RecordsExtracted.Add(float64(len(rawBatch)))
		p.metrics.BatchSize.Observe(float64(len(rawBatch)))

		loaded, ok := p.transformAndLoad(ctx, rawBatch)
		if !ok {
			return true, nil
		}
		if loaded > 0 {
			p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
			p.ready.Store(true)
		}
	}

	return drained || ctx.Err() != nil, nil
}

// transformAndLoad skips blank rows, normalizes the rest and loads the
// successes. Returns the number of loaded documents and false if the pipeline
// should stop.
func (p *Pipeline) transformAndLoad(ctx context.Context, rawBatch []domain.RawRecord) (int, bool) {
	outBatch := make([]domain.OutputDocument, 0, len(rawBatch))

	for _, raw := range rawBatch {
		if domain.IsEmptyRecord(raw) {
			p.logger.Debug("skipping blank record", "line", raw.Line)
			p.skipped.Add(1)
			p.metrics.RecordsSkipped.Inc()
			continue
		}

		out, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("transform failed, skipping record", "error", err, "line", raw.Line)
			p.failed.Add(1)
			p.metrics.TransformErrors.Inc()
			continue
		}
		outBatch = append(outBatch, out)
	}

	if len(outBatch) == 0 {
		return 0, true
	}

	if !p.loadWithBackoff(ctx, outBatch) {
		return 0, false
	}

	p.loaded.Add(int64(len(outBatch)))
	p.metrics.DocumentsLoaded.Add(float64(len(outBatch)))
	return len(outBatch), true
}

// loadWithBackoff retries a failed batch load until it succeeds or the
// context is cancelled. Backoff starts at 200ms, doubles, and caps at 5s.
func (p *Pipeline) loadWithBackoff(ctx context.Context, batch []domain.OutputDocument) bool {
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		err := p.loader.LoadBatch(ctx, batch)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}

		p.logger.Error("load batch failed", "error", err, "batch_size", len(batch), "retry_in", backoff)
		p.metrics.LoadErrors.Inc()
		if !sleepWithContext(ctx, backoff) {
			return false
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
