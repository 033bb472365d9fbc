// internal/report/summary.go
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"rsd-dataset/internal/models"
)

// Count is one value of a categorical column and how often it occurs.
type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type CountryRate struct {
	Country models.Country `json:"country"`
	Rate    float64        `json:"rate"`
}

// Summary is the run report printed after generation and shipped with
// notifications and the run registry.
type Summary struct {
	RunID   string `json:"runId"`
	Seed    int64  `json:"seed"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`

	AIDecisions       []Count `json:"aiDecisions"`
	FinalDecisions    []Count `json:"finalDecisions"`
	AIApprovalRate    float64 `json:"aiApprovalRate"`
	FinalApprovalRate float64 `json:"finalApprovalRate"`

	// ApprovalByCountry is the final approval rate per country, rounded to
	// two decimals and sorted by country name.
	ApprovalByCountry []CountryRate `json:"approvalByCountry"`

	HumanReviewed  int `json:"humanReviewed"`
	HumanOverrides int `json:"humanOverrides"`

	AppealsFiled      int `json:"appealsFiled"`
	AppealsOverturned int `json:"appealsOverturned"`

	BiasFlags []Count `json:"biasFlags"`

	TraumaRate           float64 `json:"traumaRate"`
	TraumaLowCredibility int     `json:"traumaLowCredibility"`
}

// Summarize computes the report for a generated table.
func Summarize(runID string, seed int64, columns int, records []models.Record) Summary {
	s := Summary{RunID: runID, Seed: seed, Rows: len(records), Columns: columns}

	ai := map[string]int{}
	final := map[string]int{}
	bias := map[string]int{}
	approvedByCountry := map[models.Country]int{}
	totalByCountry := map[models.Country]int{}
	trauma := 0

	for _, r := range records {
		ai[string(r.AIDecision)]++
		final[string(r.FinalDecision)]++
		bias[string(r.BiasFlag)]++

		totalByCountry[r.CountryOfOrigin]++
		if r.Approved() {
			approvedByCountry[r.CountryOfOrigin]++
		}

		if r.HumanReviewed {
			s.HumanReviewed++
		}
		if r.HumanOverride {
			s.HumanOverrides++
		}
		if r.Appealed {
			s.AppealsFiled++
		}
		if r.AppealOutcome == models.AppealOverturned {
			s.AppealsOverturned++
		}
		if r.ReportedTrauma {
			trauma++
		}
		if r.TraumaWithLowCredibility() {
			s.TraumaLowCredibility++
		}
	}

	s.AIDecisions = sortedCounts(ai)
	s.FinalDecisions = sortedCounts(final)
	s.BiasFlags = sortedCounts(bias)
	s.AIApprovalRate = ratio(ai[string(models.DecisionApprove)], len(records))
	s.FinalApprovalRate = ratio(final[string(models.DecisionApprove)], len(records))
	s.TraumaRate = ratio(trauma, len(records))

	for country, total := range totalByCountry {
		s.ApprovalByCountry = append(s.ApprovalByCountry, CountryRate{
			Country: country,
			Rate:    round2(ratio(approvedByCountry[country], total)),
		})
	}
	sort.Slice(s.ApprovalByCountry, func(i, j int) bool {
		return s.ApprovalByCountry[i].Country < s.ApprovalByCountry[j].Country
	})

	return s
}

// CountOf returns the count for value in counts, or 0.
func CountOf(counts []Count, value string) int {
	for _, c := range counts {
		if c.Value == value {
			return c.Count
		}
	}
	return 0
}

// Render writes the human-readable summary.
func (s Summary) Render(w io.Writer) error {
	var b strings.Builder

	b.WriteString("=== Dataset Summary ===\n")
	if s.RunID != "" {
		fmt.Fprintf(&b, "Run: %s (seed %d)\n", s.RunID, s.Seed)
	}
	fmt.Fprintf(&b, "Shape: (%d, %d)\n", s.Rows, s.Columns)

	b.WriteString("\nAI Decision distribution:\n")
	writeCounts(&b, s.AIDecisions)
	b.WriteString("\nFinal Decision distribution:\n")
	writeCounts(&b, s.FinalDecisions)

	b.WriteString("\nApproval rate by country (final_decision):\n")
	for _, cr := range s.ApprovalByCountry {
		fmt.Fprintf(&b, "  %-12s %.2f\n", cr.Country, cr.Rate)
	}

	fmt.Fprintf(&b, "\nHuman reviewed: %d (overridden: %d)\n", s.HumanReviewed, s.HumanOverrides)
	fmt.Fprintf(&b, "\nAppeals filed: %d\n", s.AppealsFiled)
	fmt.Fprintf(&b, "Appeals overturned: %d\n", s.AppealsOverturned)

	b.WriteString("\nBias flag distribution:\n")
	writeCounts(&b, s.BiasFlags)

	fmt.Fprintf(&b, "\nTrauma rate: %.1f%%\n", s.TraumaRate*100)
	fmt.Fprintf(&b, "\nCases where trauma present but credibility < 0.5: %d\n", s.TraumaLowCredibility)

	_, err := io.WriteString(w, b.String())
	return err
}

// String renders the summary to a string.
func (s Summary) String() string {
	var b strings.Builder
	_ = s.Render(&b)
	return b.String()
}

func writeCounts(b *strings.Builder, counts []Count) {
	for _, c := range counts {
		fmt.Fprintf(b, "  %-12s %d\n", c.Value, c.Count)
	}
}

// sortedCounts orders by count descending, then value.
func sortedCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for v, c := range m {
		out = append(out, Count{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
