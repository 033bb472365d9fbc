// pkg/codebook/default.go
package codebook

import "rsd-dataset/internal/models"

func bound(v float64) *float64 { return &v }

func enum[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// Default returns the built-in codebook for the generated table.
func Default() *Codebook {
	return &Codebook{
		Version: Version,
		Columns: []Column{
			{Name: "id", Type: TypeInteger, Group: "identity", Stage: "sampler",
				Description: "Dense row identifier starting at 1", Minimum: bound(1)},

			{Name: "country_of_origin", Type: TypeString, Group: "demographics", Stage: "sampler",
				Description: "Country the applicant fled", Enum: enum(models.Countries)},
			{Name: "gender", Type: TypeString, Group: "demographics", Stage: "sampler",
				Description: "Self-reported gender", Enum: enum(models.Genders)},
			{Name: "age", Type: TypeInteger, Group: "demographics", Stage: "sampler",
				Description: "Age in years at application", Minimum: bound(18), Maximum: bound(64)},

			{Name: "education_level", Type: TypeString, Group: "background", Stage: "sampler",
				Description: "Highest completed education", Enum: enum(models.EducationLevels)},
			{Name: "language_proficiency", Type: TypeString, Group: "background", Stage: "sampler",
				Description: "Proficiency in the host-country language", Enum: enum(models.LanguageLevels)},
			{Name: "family_size", Type: TypeInteger, Group: "background", Stage: "sampler",
				Description: "Household members including the applicant", Minimum: bound(1), Maximum: bound(6)},
			{Name: "prior_camp_years", Type: TypeInteger, Group: "background", Stage: "sampler",
				Description: "Years spent in refugee camps", Minimum: bound(0), Maximum: bound(9)},

			{Name: "persecution_ground", Type: TypeString, Group: "claim", Stage: "sampler",
				Description: "Convention ground claimed", Enum: enum(models.PersecutionGrounds)},
			{Name: "persecution_type", Type: TypeString, Group: "claim", Stage: "sampler",
				Description: "Form of persecution described", Enum: enum(models.PersecutionTypes)},
			{Name: "nexus_established", Type: TypeBoolean, Group: "claim", Stage: "sampler",
				Description: "Persecution is linked to a convention ground"},
			{Name: "state_protection_score", Type: TypeNumber, Group: "claim", Stage: "sampler",
				Description: "Availability of protection in the home state", Minimum: bound(0.05), Maximum: bound(1)},
			{Name: "internal_relocation_possible", Type: TypeBoolean, Group: "claim", Stage: "sampler",
				Description: "A safe region exists in the home country"},
			{Name: "reported_trauma", Type: TypeBoolean, Group: "claim", Stage: "sampler",
				Description: "Applicant reports trauma; rate depends on country and persecution type"},

			{Name: "credibility_score", Type: TypeNumber, Group: "scores", Stage: "score",
				Description: "Assessed credibility, penalised for weak language, low education and trauma",
				Minimum: bound(0), Maximum: bound(1)},
			{Name: "risk_score", Type: TypeNumber, Group: "scores", Stage: "score",
				Description: "Risk on return, clipped to [0,1]", Minimum: bound(0), Maximum: bound(1)},
			{Name: "risk_score_uncapped", Type: TypeNumber, Group: "scores", Stage: "score",
				Description: "Risk on return before clipping"},
			{Name: "integration_score", Type: TypeNumber, Group: "scores", Stage: "score",
				Description: "Predicted integration prospects", Minimum: bound(0), Maximum: bound(1)},

			{Name: "AI_decision", Type: TypeString, Group: "decision", Stage: "decision",
				Description: "Automated decision", Enum: enum(models.Decisions)},
			{Name: "human_reviewed", Type: TypeBoolean, Group: "decision", Stage: "oversight",
				Description: "Case was sampled for human review"},
			{Name: "human_override", Type: TypeBoolean, Group: "decision", Stage: "oversight",
				Description: "Reviewer reversed the automated decision"},
			{Name: "final_decision", Type: TypeString, Group: "decision", Stage: "oversight",
				Description: "Decision after oversight", Enum: enum(models.Decisions)},
			{Name: "processing_time_days", Type: TypeInteger, Group: "decision", Stage: "oversight",
				Description: "Days from application to final decision", Minimum: bound(30), Maximum: bound(178)},

			{Name: "appealed", Type: TypeBoolean, Group: "post-decision", Stage: "appeals",
				Description: "Denied applicant filed an appeal"},
			{Name: "appeal_outcome", Type: TypeString, Group: "post-decision", Stage: "appeals",
				Description: "Appeal result, N/A when no appeal was filed", Enum: enum(models.AppealOutcomes)},
			{Name: "bias_flag", Type: TypeString, Group: "post-decision", Stage: "appeals",
				Description: "Audit flag for potential bias", Enum: enum(models.BiasFlags)},
		},
	}
}
