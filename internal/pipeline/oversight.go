// internal/pipeline/oversight.go
package pipeline

import (
	"math/rand"

	"rsd-dataset/internal/models"
)

const (
	reviewPercent = 10
	overrideRate  = 0.50

	minProcessingDays, maxProcessingDays = 30, 120
	minReviewDelay, maxReviewDelay       = 20, 60
)

// ReviewCount is floor(10% of n).
func ReviewCount(n int) int {
	return n * reviewPercent / 100
}

// simulateOversight picks the reviewed subset without replacement, flips half
// of the reviewed decisions and assigns processing time.
func simulateOversight(rng *rand.Rand, records []models.Record) {
	for _, idx := range rng.Perm(len(records))[:ReviewCount(len(records))] {
		records[idx].HumanReviewed = true
	}

	for i := range records {
		flip := bernoulli(rng, overrideRate)
		records[i].HumanOverride = records[i].HumanReviewed && flip
	}
	for i := range records {
		r := &records[i]
		if r.HumanOverride {
			r.FinalDecision = r.AIDecision.Flip()
		} else {
			r.FinalDecision = r.AIDecision
		}
	}

	for i := range records {
		records[i].ProcessingTimeDays = intRange(rng, minProcessingDays, maxProcessingDays)
	}
	for i := range records {
		delay := intRange(rng, minReviewDelay, maxReviewDelay)
		if records[i].HumanReviewed {
			records[i].ProcessingTimeDays += delay
		}
	}
}
