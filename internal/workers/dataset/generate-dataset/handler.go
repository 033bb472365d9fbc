// internal/workers/dataset/generate-dataset/handler.go
package generatedataset

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"rsd-dataset/internal/common/errors"
	"rsd-dataset/internal/common/logger"
	"rsd-dataset/internal/common/metrics"
	"rsd-dataset/internal/runner"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = "generate-rsd-dataset"

type Handler struct {
	config       *Config
	logger       logger.Logger
	runner       *runner.Runner
	errorHandler *errors.ErrorHandler
}

type HandlerOptions struct {
	Config *Config
	Runner *runner.Runner
	Logger logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Runner == nil {
		return nil, fmt.Errorf("runner is required for %s", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       cfg,
		logger:       log,
		runner:       opts.Runner,
		errorHandler: errors.NewErrorHandler(log),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := parseInput(job.GetVariables())
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func parseInput(variables string) (*Input, error) {
	var input Input
	if variables == "" {
		return &input, nil
	}
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewConfigInvalidError(fmt.Sprintf("parse job variables: %v", err))
	}
	return &input, nil
}

func (h *Handler) resolve(input *Input) (int, int64, error) {
	records := h.config.DefaultRecords
	if input.Records != nil {
		records = *input.Records
	}
	seed := h.config.DefaultSeed
	if input.Seed != nil {
		seed = *input.Seed
	}

	if records < 0 {
		return 0, 0, errors.NewConfigInvalidError(fmt.Sprintf("records must be >= 0, got %d", records))
	}
	if records > h.config.MaxRecords {
		return 0, 0, errors.NewConfigInvalidError(
			fmt.Sprintf("records %d exceeds worker limit %d", records, h.config.MaxRecords))
	}
	return records, seed, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	records, seed, err := h.resolve(input)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	path := filepath.Join(h.config.OutputDir, runID+".csv")

	res, err := h.runner.Run(ctx, runner.Request{
		Records:    records,
		Seed:       seed,
		OutputPath: path,
		Delimiter:  h.config.Delimiter,
		RunID:      runID,
	})
	if res == nil {
		return nil, err
	}

	flags := make(map[string]int, len(res.Summary.BiasFlags))
	for _, c := range res.Summary.BiasFlags {
		flags[c.Value] = c.Count
	}

	h.logger.Info("dataset generated", map[string]interface{}{
		"runId":  runID,
		"rows":   res.Summary.Rows,
		"seed":   seed,
		"output": path,
	})

	output := &Output{
		RunID:             runID,
		Rows:              res.Summary.Rows,
		AIApprovalRate:    res.Summary.AIApprovalRate,
		FinalApprovalRate: res.Summary.FinalApprovalRate,
		AppealsFiled:      res.Summary.AppealsFiled,
		BiasFlags:         flags,
		OutputPath:        path,
		Digest:            res.Digest,
	}

	// A retry would regenerate the run under a new id, so publication
	// failures are reported on the completed job instead of failing it.
	if err != nil {
		output.PublishError = err.Error()
		output.PublishErrorCode = string(errors.Normalize(err).Code)
		h.logger.Warn("dataset committed but publication failed", map[string]interface{}{
			"runId":     runID,
			"errorCode": output.PublishErrorCode,
			"error":     err.Error(),
		})
	}

	return output, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
