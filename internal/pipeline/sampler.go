// internal/pipeline/sampler.go
package pipeline

import (
	"math/rand"

	"rsd-dataset/internal/models"
)

const (
	minAge, maxAge               = 18, 65
	minFamilySize, maxFamilySize = 1, 7
	maxCampYears                 = 10

	nexusRate      = 0.70
	relocationRate = 0.40

	stateProtectionMean   = 0.30
	stateProtectionStdDev = 0.15
	stateProtectionFloor  = 0.05

	baseTraumaRate     = 0.40
	highTraumaRate     = 0.65
	traumaTypeIncrease = 0.15
	maxTraumaRate      = 0.85
)

// TraumaRate is the probability that an applicant reports trauma.
func TraumaRate(country models.Country, ptype models.PersecutionType) float64 {
	rate := baseTraumaRate
	if highTraumaCountries[country] {
		rate = highTraumaRate
	}
	if traumaAmplifyingTypes[ptype] {
		rate += traumaTypeIncrease
		if rate > maxTraumaRate {
			rate = maxTraumaRate
		}
	}
	return rate
}

// sampleApplicants fills identity, demographic, background and claim fields.
// Each attribute is one pass over all rows.
func sampleApplicants(rng *rand.Rand, n int) []models.Record {
	records := make([]models.Record, n)
	for i := range records {
		records[i].ID = i + 1
	}

	for i := range records {
		records[i].CountryOfOrigin = countrySampler.Draw(rng)
	}
	for i := range records {
		records[i].Gender = genderSampler.Draw(rng)
	}
	for i := range records {
		records[i].Age = intRange(rng, minAge, maxAge)
	}
	for i := range records {
		records[i].EducationLevel = educationSampler.Draw(rng)
	}
	for i := range records {
		records[i].LanguageProficiency = languageSampler.Draw(rng)
	}
	for i := range records {
		records[i].FamilySize = intRange(rng, minFamilySize, maxFamilySize)
	}
	for i := range records {
		records[i].PriorCampYears = rng.Intn(maxCampYears)
	}
	for i := range records {
		records[i].PersecutionGround = groundSampler.Draw(rng)
	}
	for i := range records {
		records[i].PersecutionType = typeSampler.Draw(rng)
	}
	for i := range records {
		records[i].NexusEstablished = bernoulli(rng, nexusRate)
	}
	for i := range records {
		sp := normal(rng, stateProtectionMean, stateProtectionStdDev)
		records[i].StateProtectionScore = clip(sp, stateProtectionFloor, 1)
	}
	for i := range records {
		records[i].InternalRelocationPossible = bernoulli(rng, relocationRate)
	}
	for i := range records {
		r := &records[i]
		r.ReportedTrauma = bernoulli(rng, TraumaRate(r.CountryOfOrigin, r.PersecutionType))
	}

	return records
}
