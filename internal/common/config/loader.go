// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "rsd-dataset/internal/common/errors"
)

const (
	DefaultRecords    = 500
	DefaultSeed       = 42
	DefaultOutputPath = "synthetic_RSD_dataset.csv"

	envPrefix = "RSD"
)

// Load reads configs/config.yaml (optional), merges config.<APP_ENVIRONMENT>.yaml
// over it, applies RSD_* environment overrides and validates the result.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key viper must know about so AutomaticEnv can
// override it even when no config file is present.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "rsd-dataset")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")

	v.SetDefault("generator.records", DefaultRecords)
	v.SetDefault("generator.seed", DefaultSeed)
	v.SetDefault("generator.validate_output", true)

	v.SetDefault("output.path", DefaultOutputPath)
	v.SetDefault("output.directory", "data")
	v.SetDefault("output.delimiter", ",")
	v.SetDefault("output.codebook_path", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("database.postgres.enabled", false)
	v.SetDefault("database.postgres.host", "")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.database", "")
	v.SetDefault("database.postgres.user", "")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.elasticsearch.enabled", false)
	v.SetDefault("database.elasticsearch.addresses", []string{})
	v.SetDefault("database.elasticsearch.index", "rsd-records")
	v.SetDefault("database.redis.enabled", false)
	v.SetDefault("database.redis.address", "")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)

	v.SetDefault("notifications.aws.region", "")
	v.SetDefault("notifications.sns.enabled", false)
	v.SetDefault("notifications.sns.topic_arn", "")
	v.SetDefault("notifications.ses.enabled", false)
	v.SetDefault("notifications.ses.from_email", "")

	v.SetDefault("metrics.textfile_path", "")
	v.SetDefault("metrics.listen_address", ":8080")

	v.SetDefault("camunda.broker_address", "")
}

// loadEnvFile loads the first .env found walking up to the project root.
func loadEnvFile() string {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// applyDefaults fills optional fields viper defaults cannot express
// (zero values inside maps and explicitly blanked keys).
func applyDefaults(cfg *Config) {
	if cfg.Output.Path == "" {
		cfg.Output.Path = DefaultOutputPath
	}
	if cfg.Output.Delimiter == "" {
		cfg.Output.Delimiter = ","
	}

	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "rsd-records"
	}
	if cfg.Database.Elasticsearch.BatchSize == 0 {
		cfg.Database.Elasticsearch.BatchSize = 500
	}
	if cfg.Database.Redis.TTLHours == 0 {
		cfg.Database.Redis.TTLHours = 24 * 30
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 1
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 60000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}
	if cfg.Workers == nil {
		cfg.Workers = map[string]WorkerConfig{}
	}
	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 1
		}
		if worker.Timeout == 0 {
			worker.Timeout = 60000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// Validate fails fast on configuration that would make a run meaningless.
// It is exported so CLI flag overrides can be re-checked after merging.
func Validate(cfg *Config) error {
	pg := &cfg.Database.Postgres
	es := &cfg.Database.Elasticsearch
	rd := &cfg.Database.Redis
	n := &cfg.Notifications
	awsEnabled := n.SNS.Enabled || n.SES.Enabled

	sections := []struct {
		name string
		err  error
	}{
		{"generator", validation.ValidateStruct(&cfg.Generator,
			validation.Field(&cfg.Generator.Records, validation.Min(0)),
		)},
		{"output", validation.ValidateStruct(&cfg.Output,
			validation.Field(&cfg.Output.Delimiter, validation.By(delimiterRule)),
		)},
		{"database.postgres", validation.ValidateStruct(pg,
			validation.Field(&pg.Host, validation.When(pg.Enabled, validation.Required)),
			validation.Field(&pg.Database, validation.When(pg.Enabled, validation.Required)),
			validation.Field(&pg.User, validation.When(pg.Enabled, validation.Required)),
		)},
		{"database.elasticsearch", validation.ValidateStruct(es,
			validation.Field(&es.Addresses, validation.When(es.Enabled, validation.Required)),
		)},
		{"database.redis", validation.ValidateStruct(rd,
			validation.Field(&rd.Address, validation.When(rd.Enabled, validation.Required)),
		)},
		{"notifications.aws", validation.ValidateStruct(&n.AWS,
			validation.Field(&n.AWS.Region, validation.When(awsEnabled, validation.Required)),
		)},
		{"notifications.sns", validation.ValidateStruct(&n.SNS,
			validation.Field(&n.SNS.TopicARN, validation.When(n.SNS.Enabled, validation.Required)),
		)},
		{"notifications.ses", validation.ValidateStruct(&n.SES,
			validation.Field(&n.SES.FromEmail, validation.When(n.SES.Enabled, validation.Required), is.EmailFormat),
			validation.Field(&n.SES.To, validation.When(n.SES.Enabled, validation.Required), validation.Each(is.EmailFormat)),
		)},
	}

	for _, s := range sections {
		if s.err != nil {
			return apperrors.NewConfigInvalidError(fmt.Sprintf("%s: %v", s.name, s.err))
		}
	}
	return nil
}

// delimiterRule accepts exactly one rune that encoding/csv can use as a
// field separator.
func delimiterRule(value interface{}) error {
	d, _ := value.(string)
	if utf8.RuneCountInString(d) != 1 {
		return fmt.Errorf("must be a single character, got %q", d)
	}
	switch r, _ := utf8.DecodeRuneInString(d); r {
	case '"', '\r', '\n', utf8.RuneError:
		return fmt.Errorf("%q is not allowed", d)
	}
	return nil
}

// ValidateForWorker adds the checks only the job worker needs.
func ValidateForWorker(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return apperrors.NewConfigInvalidError("camunda.broker_address is required")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 1,
		Timeout:       60000,
		MaxRetries:    3,
	}
}
