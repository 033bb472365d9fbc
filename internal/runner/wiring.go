// internal/runner/wiring.go
package runner

import (
	"context"
	"fmt"

	"rsd-dataset/internal/common/aws"
	"rsd-dataset/internal/common/config"
	"rsd-dataset/internal/common/database"
	"rsd-dataset/internal/common/logger"
	"rsd-dataset/internal/common/observability"
	"rsd-dataset/internal/common/validation"
	"rsd-dataset/internal/runs"
	"rsd-dataset/internal/sinks"
	"rsd-dataset/pkg/codebook"
)

// ConnectFunc runs op, possibly several times, before giving up. The CLI
// connects once; the job worker passes a backoff loop.
type ConnectFunc func(name string, op func() error) error

func connectOnce(_ string, op func() error) error { return op() }

// Closer releases every client opened by FromConfig.
type Closer func()

// FromConfig opens the clients for every enabled section of cfg and returns
// a Runner wired to them.
func FromConfig(ctx context.Context, cfg *config.Config, cb *codebook.Codebook, log logger.Logger, obs *observability.Observability, connect ConnectFunc) (*Runner, Closer, error) {
	if connect == nil {
		connect = connectOnce
	}
	if cb == nil {
		cb = codebook.Default()
	}

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	opts := []Option{WithObservability(obs)}

	if cfg.Generator.ValidateOutput {
		v, err := validation.NewRecordValidator(cb)
		if err != nil {
			return nil, func() {}, fmt.Errorf("build record validator: %w", err)
		}
		opts = append(opts, WithValidator(v))
	}

	if pgCfg := cfg.Database.Postgres; pgCfg.Enabled {
		var pg *database.PostgresClient
		err := connect("PostgreSQL connection", func() error {
			var err error
			pg, err = database.NewPostgres(pgCfg)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		})
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("postgres: %w", err)
		}
		closers = append(closers, func() { _ = pg.Close() })

		sink := sinks.NewPostgresSink(pg)
		if err := sink.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("postgres schema: %w", err)
		}
		opts = append(opts, WithSinks(sink))
		log.Info("postgres sink enabled", map[string]interface{}{"host": pgCfg.Host})
	}

	if esCfg := cfg.Database.Elasticsearch; esCfg.Enabled {
		var es *database.ElasticsearchClient
		err := connect("Elasticsearch connection", func() error {
			var err error
			es, err = database.NewElasticsearch(esCfg)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		})
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("elasticsearch: %w", err)
		}

		sink := sinks.NewElasticsearchSink(es.Client, es.Index, es.BatchSize)
		if err := sink.EnsureIndex(ctx, cb); err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("elasticsearch index: %w", err)
		}
		opts = append(opts, WithSinks(sink))
		log.Info("elasticsearch sink enabled", map[string]interface{}{"index": es.Index})
	}

	if redisCfg := cfg.Database.Redis; redisCfg.Enabled {
		var rc *database.RedisClient
		err := connect("Redis connection", func() error {
			var err error
			rc, err = database.NewRedis(redisCfg)
			if err != nil {
				return err
			}
			return rc.Ping(ctx)
		})
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("redis: %w", err)
		}
		closers = append(closers, func() { _ = rc.Close() })

		opts = append(opts, WithRegistry(runs.NewRegistry(rc.Client, rc.TTL)))
		log.Info("run registry enabled", map[string]interface{}{"address": redisCfg.Address})
	}

	n := cfg.Notifications
	if n.SNS.Enabled || n.SES.Enabled {
		notifier, err := aws.NewNotifierFromRegion(ctx, n.AWS.Region, aws.NotifierConfig{
			TopicARN:   n.SNS.TopicARN,
			FromEmail:  n.SES.FromEmail,
			Recipients: n.SES.To,
		}, n.SNS.Enabled, n.SES.Enabled)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("notifier: %w", err)
		}
		opts = append(opts, WithNotifier(notifier))
		log.Info("notifications enabled", map[string]interface{}{
			"sns": n.SNS.Enabled,
			"ses": n.SES.Enabled,
		})
	}

	return New(cb, log, opts...), closeAll, nil
}
