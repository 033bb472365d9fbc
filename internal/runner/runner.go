// internal/runner/runner.go
package runner

import (
	"context"
	"time"

	"rsd-dataset/internal/common/aws"
	"rsd-dataset/internal/common/logger"
	"rsd-dataset/internal/common/metrics"
	"rsd-dataset/internal/common/observability"
	"rsd-dataset/internal/common/validation"
	"rsd-dataset/internal/export"
	"rsd-dataset/internal/pipeline"
	"rsd-dataset/internal/report"
	"rsd-dataset/internal/runs"
	"rsd-dataset/internal/sinks"
	"rsd-dataset/pkg/codebook"
)

// Request describes one generation run.
type Request struct {
	Records    int
	Seed       int64
	OutputPath string
	Delimiter  rune
	// RunID overrides the generated run identifier when set.
	RunID string
}

// Result is returned even when a post-export step fails, so callers can still
// report what was committed.
type Result struct {
	Dataset         *pipeline.Dataset
	Summary         report.Summary
	Digest          string
	OutputPath      string
	Reproducibility runs.Reproducibility
}

// Runner drives generate, audit, export and the optional publication steps.
type Runner struct {
	logger    logger.Logger
	codebook  *codebook.Codebook
	validator *validation.RecordValidator
	sinks     []sinks.Sink
	registry  *runs.Registry
	notifier  *aws.Notifier
	obs       *observability.Observability
}

type Option func(*Runner)

// WithValidator enables the post-generation audit.
func WithValidator(v *validation.RecordValidator) Option {
	return func(r *Runner) { r.validator = v }
}

func WithSinks(s ...sinks.Sink) Option {
	return func(r *Runner) { r.sinks = append(r.sinks, s...) }
}

func WithRegistry(reg *runs.Registry) Option {
	return func(r *Runner) { r.registry = reg }
}

func WithNotifier(n *aws.Notifier) Option {
	return func(r *Runner) { r.notifier = n }
}

func WithObservability(o *observability.Observability) Option {
	return func(r *Runner) { r.obs = o }
}

func New(cb *codebook.Codebook, log logger.Logger, opts ...Option) *Runner {
	if cb == nil {
		cb = codebook.Default()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	r := &Runner{codebook: cb, logger: log}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run generates the table and commits the CSV. Any error before the rename
// leaves no file behind. Sink, registry and notification failures are logged
// and the first one is returned alongside the populated Result.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	var genOpts []pipeline.Option
	if req.RunID != "" {
		genOpts = append(genOpts, pipeline.WithRunID(req.RunID))
	}
	if r.obs != nil {
		genOpts = append(genOpts, pipeline.WithStageRecorder(r.obs))
	}

	gen, err := pipeline.New(pipeline.Config{Records: req.Records, Seed: req.Seed}, r.logger, genOpts...)
	if err != nil {
		r.recordRun(ctx, start, "failed")
		return nil, err
	}

	ds, err := gen.Generate(ctx)
	if err != nil {
		r.recordRun(ctx, start, "failed")
		return nil, err
	}

	if r.validator != nil {
		if err := r.validator.Audit(ds.Records); err != nil {
			r.logger.Error("output audit failed", map[string]interface{}{
				"runId": ds.RunID,
				"error": err.Error(),
			})
			r.recordRun(ctx, start, "failed")
			return nil, err
		}
	}

	digest, err := export.WriteFile(req.OutputPath, ds.Records, export.Options{
		Delimiter: req.Delimiter,
		Codebook:  r.codebook,
	})
	if err != nil {
		r.recordRun(ctx, start, "failed")
		return nil, err
	}

	summary := report.Summarize(ds.RunID, ds.Seed, len(r.codebook.Columns), ds.Records)
	metrics.ObserveRun(summary, ds.Duration)

	r.logger.Info("dataset written", map[string]interface{}{
		"runId":  ds.RunID,
		"path":   req.OutputPath,
		"rows":   ds.Len(),
		"digest": digest,
	})

	res := &Result{
		Dataset:    ds,
		Summary:    summary,
		Digest:     digest,
		OutputPath: req.OutputPath,
	}

	firstErr := r.publish(ctx, res)

	status := "success"
	if firstErr != nil {
		status = "partial"
	}
	r.recordRun(ctx, start, status)
	return res, firstErr
}

func (r *Runner) publish(ctx context.Context, res *Result) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if r.registry != nil {
		keep(r.register(ctx, res))
	}

	if len(r.sinks) > 0 {
		keep(sinks.WriteAll(ctx, r.sinks, res.Dataset, r.logger))
	}

	if r.notifier != nil {
		if err := r.notifier.NotifyAll(ctx, res.Summary); err != nil {
			r.logger.Error("notification failed", map[string]interface{}{
				"runId": res.Dataset.RunID,
				"error": err.Error(),
			})
			keep(err)
		}
	}
	return firstErr
}

func (r *Runner) register(ctx context.Context, res *Result) error {
	ds := res.Dataset
	log := r.logger.WithFields(map[string]interface{}{"runId": ds.RunID})

	rep, err := r.registry.CheckReproducible(ctx, ds.Seed, ds.Len(), res.Digest)
	if err != nil {
		log.Error("reproducibility check failed", map[string]interface{}{"error": err.Error()})
		return err
	}
	res.Reproducibility = rep
	if rep.Checked && !rep.Match {
		log.Warn("output differs from previous run with same parameters", map[string]interface{}{
			"previousRunId":  rep.PreviousRunID,
			"previousDigest": rep.PreviousHash,
			"digest":         res.Digest,
		})
	}

	err = r.registry.Save(ctx, runs.Run{
		RunID:       ds.RunID,
		Seed:        ds.Seed,
		Records:     ds.Len(),
		Digest:      res.Digest,
		OutputPath:  res.OutputPath,
		GeneratedAt: ds.GeneratedAt,
		Summary:     res.Summary,
	})
	if err != nil {
		log.Error("run registry save failed", map[string]interface{}{"error": err.Error()})
		return err
	}
	return nil
}

func (r *Runner) recordRun(ctx context.Context, start time.Time, status string) {
	if r.obs == nil {
		return
	}
	r.obs.RecordRunProcessed(ctx, status)
	r.obs.RecordRunDuration(ctx, time.Since(start), status)
}
