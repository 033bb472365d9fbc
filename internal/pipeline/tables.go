// internal/pipeline/tables.go
package pipeline

import "rsd-dataset/internal/models"

var languageEffect = map[models.Language]float64{
	models.LanguageNone:         -0.20,
	models.LanguageBasic:        -0.10,
	models.LanguageIntermediate: 0,
	models.LanguageAdvanced:     0.05,
	models.LanguageFluent:       0.10,
}

var educationEffect = map[models.Education]float64{
	models.EducationNone:      -0.10,
	models.EducationPrimary:   0,
	models.EducationSecondary: 0.05,
	models.EducationTertiary:  0.10,
}

var countryBaseRisk = map[models.Country]float64{
	models.CountrySyria:       0.85,
	models.CountryAfghanistan: 0.80,
	models.CountrySudan:       0.75,
	models.CountryMyanmar:     0.70,
	models.CountryEritrea:     0.70,
	models.CountryVenezuela:   0.55,
	models.CountryIraq:        0.65,
	models.CountrySomalia:     0.78,
}

var persecutionTypeEffect = map[models.PersecutionType]float64{
	models.TypeViolence:       0.10,
	models.TypeDetention:      0.05,
	models.TypeThreats:        0,
	models.TypeSexualViolence: 0.15,
	models.TypeDiscrimination: -0.05,
}

var genderEffect = map[models.Gender]float64{
	models.GenderMale:      0,
	models.GenderFemale:    0.08,
	models.GenderNonBinary: 0.06,
}

var highTraumaCountries = map[models.Country]bool{
	models.CountrySyria:       true,
	models.CountryAfghanistan: true,
	models.CountryEritrea:     true,
	models.CountrySomalia:     true,
}

var traumaAmplifyingTypes = map[models.PersecutionType]bool{
	models.TypeSexualViolence: true,
	models.TypeDetention:      true,
}

var (
	countrySampler   = mustCategorical[models.Country](NewUniformCategorical("country_of_origin", models.Countries))
	genderSampler    = mustCategorical[models.Gender](NewCategorical("gender", models.Genders, []float64{0.48, 0.48, 0.04}))
	educationSampler = mustCategorical[models.Education](NewCategorical("education_level", models.EducationLevels,
		[]float64{0.10, 0.30, 0.40, 0.20}))
	languageSampler = mustCategorical[models.Language](NewCategorical("language_proficiency", models.LanguageLevels,
		[]float64{0.05, 0.25, 0.40, 0.20, 0.10}))
	groundSampler = mustCategorical[models.PersecutionGround](NewUniformCategorical("persecution_ground", models.PersecutionGrounds))
	typeSampler   = mustCategorical[models.PersecutionType](NewUniformCategorical("persecution_type", models.PersecutionTypes))

	biasVulnerable = mustCategorical[models.BiasFlag](NewCategorical("bias_flag/trauma_low_credibility", models.BiasFlags,
		[]float64{0.40, 0.40, 0.20}))
	biasDeniedWithNexus = mustCategorical[models.BiasFlag](NewCategorical("bias_flag/nexus_denied", models.BiasFlags,
		[]float64{0.50, 0.35, 0.15}))
	biasBaseline = mustCategorical[models.BiasFlag](NewCategorical("bias_flag/baseline", models.BiasFlags,
		[]float64{0.80, 0.15, 0.05}))
)
