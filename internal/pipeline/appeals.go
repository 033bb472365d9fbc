// internal/pipeline/appeals.go
package pipeline

import (
	"math/rand"

	"rsd-dataset/internal/models"
)

const (
	appealRate     = 0.30
	overturnedRate = 0.40
)

// BiasWeights returns the [none, moderate, severe] weights for a record.
// The first matching rule wins.
func BiasWeights(r models.Record) []float64 {
	return biasSamplerFor(r).Weights()
}

func biasSamplerFor(r models.Record) *Categorical[models.BiasFlag] {
	switch {
	case r.TraumaWithLowCredibility():
		return biasVulnerable
	case r.NexusEstablished && r.FinalDecision == models.DecisionDeny:
		return biasDeniedWithNexus
	default:
		return biasBaseline
	}
}

func simulateAppeals(rng *rand.Rand, records []models.Record) {
	for i := range records {
		u := rng.Float64()
		records[i].Appealed = records[i].FinalDecision == models.DecisionDeny && u < appealRate
	}

	for i := range records {
		r := &records[i]
		if !r.Appealed {
			r.AppealOutcome = models.AppealNotApplicable
			continue
		}
		if bernoulli(rng, overturnedRate) {
			r.AppealOutcome = models.AppealOverturned
		} else {
			r.AppealOutcome = models.AppealUpheld
		}
	}

	for i := range records {
		records[i].BiasFlag = biasSamplerFor(records[i]).Draw(rng)
	}
}
