// internal/common/validation/records.go
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"rsd-dataset/internal/common/errors"
	"rsd-dataset/internal/models"
	"rsd-dataset/pkg/codebook"
)

// Validation error codes.
const (
	CodeSchemaViolation  = "SCHEMA_VIOLATION"
	CodeEncodingFailed   = "ENCODING_FAILED"
	CodeIDSequence       = "ID_SEQUENCE"
	CodeOverrideReview   = "OVERRIDE_WITHOUT_REVIEW"
	CodeFinalDecision    = "FINAL_DECISION_MISMATCH"
	CodeAppealOutcome    = "APPEAL_OUTCOME_MISMATCH"
	CodeAppealOnApproval = "APPEAL_ON_APPROVAL"
	CodeRiskCap          = "RISK_CAP_MISMATCH"
	CodeReviewCount      = "REVIEW_COUNT"
)

// RecordValidator audits generated records against the codebook schema and
// the cross-field rules of the decision trail.
type RecordValidator struct {
	schema *gojsonschema.Schema
}

func NewRecordValidator(cb *codebook.Codebook) (*RecordValidator, error) {
	if err := cb.Validate(); err != nil {
		return nil, fmt.Errorf("invalid codebook: %w", err)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(cb.JSONSchema()))
	if err != nil {
		return nil, fmt.Errorf("failed to compile record schema: %w", err)
	}
	return &RecordValidator{schema: schema}, nil
}

// ValidateRecord checks one record. Field names are the column names.
func (v *RecordValidator) ValidateRecord(r models.Record) *ValidationResult {
	return newResult(v.recordErrors("", r))
}

// ValidateRecords checks every record plus table-level rules. Field names are
// prefixed with records[i].
func (v *RecordValidator) ValidateRecords(records []models.Record) *ValidationResult {
	var errs []ValidationError
	reviewed := 0

	for i, r := range records {
		prefix := fmt.Sprintf("records[%d].", i)
		errs = append(errs, v.recordErrors(prefix, r)...)

		if r.ID != i+1 {
			errs = append(errs, ValidationError{
				Field:   prefix + "id",
				Message: fmt.Sprintf("expected id %d, got %d", i+1, r.ID),
				Code:    CodeIDSequence,
			})
		}
		if r.HumanReviewed {
			reviewed++
		}
	}

	if want := len(records) * 10 / 100; reviewed != want {
		errs = append(errs, ValidationError{
			Field:   "records",
			Message: fmt.Sprintf("expected %d reviewed records, got %d", want, reviewed),
			Code:    CodeReviewCount,
		})
	}

	return newResult(errs)
}

// Audit runs ValidateRecords and converts a failure into an
// OUTPUT_VALIDATION_FAILED error.
func (v *RecordValidator) Audit(records []models.Record) error {
	result := v.ValidateRecords(records)
	if result.Valid {
		return nil
	}
	return errors.NewOutputValidationFailedError(len(result.Errors), result.Errors[0].String())
}

func (v *RecordValidator) recordErrors(prefix string, r models.Record) []ValidationError {
	var errs []ValidationError

	res, err := v.schema.Validate(gojsonschema.NewGoLoader(r))
	if err != nil {
		return []ValidationError{{Field: prefix + "(record)", Message: err.Error(), Code: CodeEncodingFailed}}
	}
	for _, re := range res.Errors() {
		errs = append(errs, ValidationError{
			Field:   prefix + re.Field(),
			Message: re.Description(),
			Code:    CodeSchemaViolation,
		})
	}

	if r.HumanOverride && !r.HumanReviewed {
		errs = append(errs, ValidationError{
			Field: prefix + "human_override", Message: "override without review", Code: CodeOverrideReview,
		})
	}

	want := r.AIDecision
	if r.HumanOverride {
		want = r.AIDecision.Flip()
	}
	if r.FinalDecision != want {
		errs = append(errs, ValidationError{
			Field:   prefix + "final_decision",
			Message: fmt.Sprintf("expected %s given AI_decision=%s and human_override=%t", want, r.AIDecision, r.HumanOverride),
			Code:    CodeFinalDecision,
		})
	}

	if r.Appealed == (r.AppealOutcome == models.AppealNotApplicable) {
		errs = append(errs, ValidationError{
			Field:   prefix + "appeal_outcome",
			Message: fmt.Sprintf("outcome %q inconsistent with appealed=%t", r.AppealOutcome, r.Appealed),
			Code:    CodeAppealOutcome,
		})
	}
	if r.Appealed && r.FinalDecision != models.DecisionDeny {
		errs = append(errs, ValidationError{
			Field: prefix + "appealed", Message: "appeal filed against an approval", Code: CodeAppealOnApproval,
		})
	}

	if capped := clamp01(r.RiskScoreUncapped); r.RiskScore != capped {
		errs = append(errs, ValidationError{
			Field:   prefix + "risk_score",
			Message: fmt.Sprintf("expected clip(%g) = %g, got %g", r.RiskScoreUncapped, capped, r.RiskScore),
			Code:    CodeRiskCap,
		})
	}

	return errs
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
