// internal/export/parse.go
package export

import (
	"fmt"
	"strconv"

	"rsd-dataset/internal/models"
)

type parser func(r *models.Record, v string) error

func parseInt(v string, dst *int) (err error) {
	*dst, err = strconv.Atoi(v)
	return err
}

func parseFloat(v string, dst *float64) (err error) {
	*dst, err = strconv.ParseFloat(v, 64)
	return err
}

func parseBool(v string, dst *bool) error {
	switch v {
	case "True":
		*dst = true
	case "False":
		*dst = false
	default:
		return fmt.Errorf("invalid boolean %q", v)
	}
	return nil
}

var parsers = map[string]parser{
	"id":                           func(r *models.Record, v string) error { return parseInt(v, &r.ID) },
	"country_of_origin":            func(r *models.Record, v string) error { r.CountryOfOrigin = models.Country(v); return nil },
	"gender":                       func(r *models.Record, v string) error { r.Gender = models.Gender(v); return nil },
	"age":                          func(r *models.Record, v string) error { return parseInt(v, &r.Age) },
	"education_level":              func(r *models.Record, v string) error { r.EducationLevel = models.Education(v); return nil },
	"language_proficiency":         func(r *models.Record, v string) error { r.LanguageProficiency = models.Language(v); return nil },
	"family_size":                  func(r *models.Record, v string) error { return parseInt(v, &r.FamilySize) },
	"prior_camp_years":             func(r *models.Record, v string) error { return parseInt(v, &r.PriorCampYears) },
	"persecution_ground":           func(r *models.Record, v string) error { r.PersecutionGround = models.PersecutionGround(v); return nil },
	"persecution_type":             func(r *models.Record, v string) error { r.PersecutionType = models.PersecutionType(v); return nil },
	"nexus_established":            func(r *models.Record, v string) error { return parseBool(v, &r.NexusEstablished) },
	"state_protection_score":       func(r *models.Record, v string) error { return parseFloat(v, &r.StateProtectionScore) },
	"internal_relocation_possible": func(r *models.Record, v string) error { return parseBool(v, &r.InternalRelocationPossible) },
	"reported_trauma":              func(r *models.Record, v string) error { return parseBool(v, &r.ReportedTrauma) },
	"credibility_score":            func(r *models.Record, v string) error { return parseFloat(v, &r.CredibilityScore) },
	"risk_score":                   func(r *models.Record, v string) error { return parseFloat(v, &r.RiskScore) },
	"risk_score_uncapped":          func(r *models.Record, v string) error { return parseFloat(v, &r.RiskScoreUncapped) },
	"integration_score":            func(r *models.Record, v string) error { return parseFloat(v, &r.IntegrationScore) },
	"AI_decision":                  func(r *models.Record, v string) error { r.AIDecision = models.Decision(v); return nil },
	"human_reviewed":               func(r *models.Record, v string) error { return parseBool(v, &r.HumanReviewed) },
	"human_override":               func(r *models.Record, v string) error { return parseBool(v, &r.HumanOverride) },
	"final_decision":               func(r *models.Record, v string) error { r.FinalDecision = models.Decision(v); return nil },
	"processing_time_days":         func(r *models.Record, v string) error { return parseInt(v, &r.ProcessingTimeDays) },
	"appealed":                     func(r *models.Record, v string) error { return parseBool(v, &r.Appealed) },
	"appeal_outcome":               func(r *models.Record, v string) error { r.AppealOutcome = models.AppealOutcome(v); return nil },
	"bias_flag":                    func(r *models.Record, v string) error { r.BiasFlag = models.BiasFlag(v); return nil },
}

// ParseRecords turns rows read by ReadFile back into records. Columns are
// matched by header name, so any column order is accepted.
func ParseRecords(header []string, rows [][]string) ([]models.Record, error) {
	fns := make([]parser, len(header))
	for i, name := range header {
		fn, ok := parsers[name]
		if !ok {
			return nil, fmt.Errorf("unknown column %q", name)
		}
		fns[i] = fn
	}

	records := make([]models.Record, len(rows))
	for i, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("row %d: %d fields, header has %d", i+1, len(row), len(header))
		}
		for j, fn := range fns {
			if err := fn(&records[i], row[j]); err != nil {
				return nil, fmt.Errorf("row %d, column %s: %w", i+1, header[j], err)
			}
		}
	}
	return records, nil
}
