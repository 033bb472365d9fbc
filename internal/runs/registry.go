// internal/runs/registry.go
package runs

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rsd-dataset/internal/common/errors"
	"rsd-dataset/internal/report"
)

const (
	runKeyPrefix    = "rsd:run:"
	paramsKeyPrefix = "rsd:params:"
)

// ErrRunNotFound is returned when no run is stored under the requested key.
var ErrRunNotFound = stderrors.New("run not found")

// Run is the registry entry for one generation run.
type Run struct {
	RunID       string         `json:"runId"`
	Seed        int64          `json:"seed"`
	Records     int            `json:"records"`
	Digest      string         `json:"digest"`
	OutputPath  string         `json:"outputPath,omitempty"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Summary     report.Summary `json:"summary"`
}

// Reproducibility compares a new digest against the previous run with the
// same parameters.
type Reproducibility struct {
	Checked       bool   `json:"checked"`
	PreviousRunID string `json:"previousRunId,omitempty"`
	PreviousHash  string `json:"previousDigest,omitempty"`
	Match         bool   `json:"match"`
}

type Registry struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRegistry stores entries with the given TTL; zero means no expiry.
func NewRegistry(client redis.Cmdable, ttl time.Duration) *Registry {
	return &Registry{client: client, ttl: ttl}
}

func RunKey(runID string) string {
	return runKeyPrefix + runID
}

func ParamsKey(seed int64, records int) string {
	return fmt.Sprintf("%s%d:%d", paramsKeyPrefix, seed, records)
}

// Save writes the run entry and repoints the parameters key at it.
func (r *Registry) Save(ctx context.Context, run Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return errors.NewRegistryFailedError("save", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, RunKey(run.RunID), data, r.ttl)
		pipe.Set(ctx, ParamsKey(run.Seed, run.Records), run.RunID, r.ttl)
		return nil
	})
	if err != nil {
		return errors.NewRegistryFailedError("save", err)
	}
	return nil
}

func (r *Registry) Get(ctx context.Context, runID string) (*Run, error) {
	data, err := r.client.Get(ctx, RunKey(runID)).Bytes()
	if err == redis.Nil {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, errors.NewRegistryFailedError("get", err)
	}

	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, errors.NewRegistryFailedError("get", fmt.Errorf("decode %s: %w", runID, err))
	}
	return &run, nil
}

// Latest returns the most recent run saved for (seed, records).
func (r *Registry) Latest(ctx context.Context, seed int64, records int) (*Run, error) {
	runID, err := r.client.Get(ctx, ParamsKey(seed, records)).Result()
	if err == redis.Nil {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, errors.NewRegistryFailedError("latest", err)
	}
	return r.Get(ctx, runID)
}

// CheckReproducible looks up the previous run for the same parameters and
// reports whether its digest equals digest. Checked is false when there is
// nothing to compare against.
func (r *Registry) CheckReproducible(ctx context.Context, seed int64, records int, digest string) (Reproducibility, error) {
	prev, err := r.Latest(ctx, seed, records)
	if stderrors.Is(err, ErrRunNotFound) {
		return Reproducibility{}, nil
	}
	if err != nil {
		return Reproducibility{}, err
	}
	return Reproducibility{
		Checked:       true,
		PreviousRunID: prev.RunID,
		PreviousHash:  prev.Digest,
		Match:         prev.Digest == digest,
	}, nil
}
