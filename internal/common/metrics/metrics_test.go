// internal/common/metrics/metrics_test.go
package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsd-dataset/internal/models"
	"rsd-dataset/internal/report"
)

func sampleSummary() report.Summary {
	return report.Summary{
		Rows:              10,
		AIDecisions:       []report.Count{{Value: "approve", Count: 6}, {Value: "deny", Count: 4}},
		FinalDecisions:    []report.Count{{Value: "approve", Count: 5}, {Value: "deny", Count: 5}},
		HumanOverrides:    1,
		AppealsFiled:      3,
		AppealsOverturned: 1,
		BiasFlags:         []report.Count{{Value: "none", Count: 7}, {Value: "severe", Count: 3}},
		ApprovalByCountry: []report.CountryRate{
			{Country: models.CountrySyria, Rate: 0.62},
			{Country: models.CountryIraq, Rate: 0.4},
		},
	}
}

func TestObserveRun(t *testing.T) {
	records := testutil.ToFloat64(RecordsGenerated)
	aiApprove := testutil.ToFloat64(Decisions.WithLabelValues("ai", "approve"))
	finalDeny := testutil.ToFloat64(Decisions.WithLabelValues("final", "deny"))
	overrides := testutil.ToFloat64(Overrides)
	upheld := testutil.ToFloat64(Appeals.WithLabelValues("upheld"))
	severe := testutil.ToFloat64(BiasFlags.WithLabelValues("severe"))

	ObserveRun(sampleSummary(), 120*time.Millisecond)

	assert.Equal(t, records+10, testutil.ToFloat64(RecordsGenerated))
	assert.Equal(t, aiApprove+6, testutil.ToFloat64(Decisions.WithLabelValues("ai", "approve")))
	assert.Equal(t, finalDeny+5, testutil.ToFloat64(Decisions.WithLabelValues("final", "deny")))
	assert.Equal(t, overrides+1, testutil.ToFloat64(Overrides))
	assert.Equal(t, upheld+2, testutil.ToFloat64(Appeals.WithLabelValues("upheld")))
	assert.Equal(t, severe+3, testutil.ToFloat64(BiasFlags.WithLabelValues("severe")))

	assert.Equal(t, 0.62, testutil.ToFloat64(ApprovalRate.WithLabelValues("Syria")))
	assert.Equal(t, 2, testutil.CollectAndCount(ApprovalRate))
}

func TestObserveRun_ResetsApprovalGauge(t *testing.T) {
	ObserveRun(sampleSummary(), time.Millisecond)

	next := sampleSummary()
	next.ApprovalByCountry = []report.CountryRate{{Country: models.CountrySudan, Rate: 0.5}}
	ObserveRun(next, time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(ApprovalRate))
}

func TestWriteTextfileFrom(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "rsd_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Add(3)

	path := filepath.Join(t.TempDir(), "textfile", "rsd.prom")
	require.NoError(t, WriteTextfileFrom(reg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "rsd_test_total 3")
}

func TestWriteTextfile_DefaultRegistry(t *testing.T) {
	ObserveRun(sampleSummary(), time.Millisecond)

	path := filepath.Join(t.TempDir(), "rsd.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "rsd_records_generated_total")
	assert.Contains(t, string(data), `rsd_approval_rate{country="Syria"} 0.62`)
}
