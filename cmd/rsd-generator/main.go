// cmd/rsd-generator/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"rsd-dataset/internal/common/config"
	"rsd-dataset/internal/common/errors"
	"rsd-dataset/internal/common/logger"
	"rsd-dataset/internal/common/metrics"
	"rsd-dataset/internal/common/observability"
	"rsd-dataset/internal/runner"
	"rsd-dataset/pkg/codebook"
)

const (
	exitOK = iota
	exitFailed
	exitUsage
	// exitPublishFailed means the CSV was committed but a sink, the run
	// registry or a notification failed.
	exitPublishFailed
)

type options struct {
	configPath string
	records    int
	seed       int64
	out        string
	delimiter  string
	quiet      bool
	set        map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("rsd-generator", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{set: map[string]bool{}}
	fs.StringVar(&opts.configPath, "config", "", "Path to a config YAML file (default: configs/config.yaml if present)")
	fs.IntVar(&opts.records, "records", config.DefaultRecords, "Number of records to generate")
	fs.Int64Var(&opts.seed, "seed", config.DefaultSeed, "Random seed")
	fs.StringVar(&opts.out, "out", config.DefaultOutputPath, "Output CSV path")
	fs.StringVar(&opts.delimiter, "delimiter", ",", "Field delimiter")
	fs.BoolVar(&opts.quiet, "quiet", false, "Do not print the run summary; log warnings and errors only")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

// loadConfig merges explicitly set flags over the loaded configuration and
// validates the result again.
func loadConfig(opts *options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFromFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if opts.set["records"] {
		cfg.Generator.Records = opts.records
	}
	if opts.set["seed"] {
		cfg.Generator.Seed = opts.seed
	}
	if opts.set["out"] {
		cfg.Output.Path = opts.out
	}
	if opts.set["delimiter"] {
		cfg.Output.Delimiter = opts.delimiter
	}
	if opts.quiet {
		cfg.Logging.Level = "warn"
	}
	if cfg.Logging.Output == "" || cfg.Logging.Output == "stdout" {
		cfg.Logging.Output = "stderr"
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailed
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New("rsd-generator")
	defer obs.Shutdown()

	cb := codebook.Default()
	if cfg.Output.CodebookPath != "" {
		if err := codebook.Save(cb, cfg.Output.CodebookPath); err != nil {
			zapLog.Error("codebook write failed", zap.Error(err))
			return exitFailed
		}
	}

	r, closeClients, err := runner.FromConfig(ctx, cfg, cb, log, obs, nil)
	if err != nil {
		zapLog.Error("failed to initialise publication clients", zap.Error(err))
		return exitFailed
	}
	defer closeClients()

	res, err := r.Run(ctx, runner.Request{
		Records:    cfg.Generator.Records,
		Seed:       cfg.Generator.Seed,
		OutputPath: cfg.Output.Path,
		Delimiter:  cfg.Output.DelimiterRune(),
	})
	if res == nil {
		zapLog.Error("generation failed",
			zap.Error(err),
			zap.String("code", string(errors.Normalize(err).Code)),
		)
		return exitFailed
	}

	if !opts.quiet {
		if werr := res.Summary.Render(stdout); werr != nil {
			zapLog.Error("summary write failed", zap.Error(werr))
		}
	}

	if cfg.Metrics.TextfilePath != "" {
		if werr := metrics.WriteTextfile(cfg.Metrics.TextfilePath); werr != nil {
			zapLog.Warn("metrics textfile write failed", zap.Error(werr))
		}
	}

	if err != nil {
		zapLog.Error("publication failed after the dataset was written",
			zap.Error(err),
			zap.String("path", res.OutputPath),
		)
		return exitPublishFailed
	}
	return exitOK
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
