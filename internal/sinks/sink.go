// internal/sinks/sink.go
package sinks

import (
	"context"

	"rsd-dataset/internal/common/logger"
	"rsd-dataset/internal/pipeline"
)

// Sink receives a finished dataset after the CSV has been committed.
type Sink interface {
	Name() string
	Write(ctx context.Context, ds *pipeline.Dataset) error
}

// WriteAll hands ds to every sink, logging each failure, and returns the
// first error. A failing sink does not stop the others.
func WriteAll(ctx context.Context, sinks []Sink, ds *pipeline.Dataset, log logger.Logger) error {
	var first error
	for _, s := range sinks {
		if err := s.Write(ctx, ds); err != nil {
			log.WithError(err).Error("sink write failed", map[string]interface{}{
				"sink":  s.Name(),
				"runId": ds.RunID,
			})
			if first == nil {
				first = err
			}
			continue
		}
		log.Info("sink write complete", map[string]interface{}{
			"sink":  s.Name(),
			"runId": ds.RunID,
			"rows":  ds.Len(),
		})
	}
	return first
}
