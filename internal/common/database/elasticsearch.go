// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"rsd-dataset/internal/common/config"
)

// minServerMajor is the oldest Elasticsearch major the v8 client and the
// record index mapping are used against.
const minServerMajor = 8

// ElasticsearchClient carries the search client and the record index it
// publishes to.
type ElasticsearchClient struct {
	Client    *elasticsearch.Client
	Index     string
	BatchSize int
}

func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("elasticsearch: no addresses configured")
	}

	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
		// Retry bulk rejections and gateway errors.
		RetryOnStatus: []int{http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
		MaxRetries:    3,
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	return &ElasticsearchClient{
		Client:    es,
		Index:     cfg.Index,
		BatchSize: cfg.BatchSize,
	}, nil
}

// Ping checks that the cluster answers and runs a supported major version.
func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	version, err := c.ServerVersion(ctx)
	if err != nil {
		return err
	}

	major, err := strconv.Atoi(strings.SplitN(version, ".", 2)[0])
	if err != nil {
		return fmt.Errorf("elasticsearch: unparseable version %q", version)
	}
	if major < minServerMajor {
		return fmt.Errorf("elasticsearch %s is not supported, need %d.x or later", version, minServerMajor)
	}
	return nil
}

// ServerVersion returns the cluster's version number from the root endpoint.
func (c *ElasticsearchClient) ServerVersion(ctx context.Context) (string, error) {
	res, err := c.Client.Info(c.Client.Info.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return "", fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}

	var info struct {
		Version struct {
			Number string `json:"number"`
		} `json:"version"`
	}
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("elasticsearch: decode cluster info: %w", err)
	}
	if info.Version.Number == "" {
		return "", fmt.Errorf("elasticsearch: cluster info carries no version")
	}
	return info.Version.Number, nil
}
