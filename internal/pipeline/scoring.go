// internal/pipeline/scoring.go
package pipeline

import (
	"math"
	"math/rand"

	"rsd-dataset/internal/models"
)

const (
	credibilityMean   = 0.65
	credibilityStdDev = 0.15
	traumaPenalty     = -0.08

	riskNoiseStdDev = 0.05

	integrationPeakAge = 35.0
)

// Credibility applies the language, education and trauma effects to a base
// draw and clips to [0,1].
func Credibility(base float64, lang models.Language, edu models.Education, trauma bool) float64 {
	score := base + languageEffect[lang] + educationEffect[edu]
	if trauma {
		score += traumaPenalty
	}
	return clip(score, 0, 1)
}

// RiskUncapped is the unclipped risk; it can exceed 1 for high-risk profiles.
func RiskUncapped(country models.Country, ptype models.PersecutionType, gender models.Gender, noise float64) float64 {
	return countryBaseRisk[country] + persecutionTypeEffect[ptype] + genderEffect[gender] + noise
}

// IntegrationScore combines credibility, an age term peaking at 35 and a
// uniform draw u in [0,1).
func IntegrationScore(credibility float64, age int, u float64) float64 {
	ageTerm := 1 - math.Abs(float64(age)-integrationPeakAge)/integrationPeakAge
	return clip(0.4*credibility+0.2*ageTerm+0.4*u, 0, 1)
}

func scoreRecords(rng *rand.Rand, records []models.Record) {
	for i := range records {
		r := &records[i]
		base := normal(rng, credibilityMean, credibilityStdDev)
		r.CredibilityScore = Credibility(base, r.LanguageProficiency, r.EducationLevel, r.ReportedTrauma)
	}
	for i := range records {
		r := &records[i]
		noise := normal(rng, 0, riskNoiseStdDev)
		r.RiskScoreUncapped = RiskUncapped(r.CountryOfOrigin, r.PersecutionType, r.Gender, noise)
		r.RiskScore = clip(r.RiskScoreUncapped, 0, 1)
	}
	for i := range records {
		r := &records[i]
		r.IntegrationScore = IntegrationScore(r.CredibilityScore, r.Age, rng.Float64())
	}
}
