// internal/models/record.go
package models

// Record is one synthetic applicant and the full decision trail produced for it.
// JSON names match the exported column names.
type Record struct {
	ID int `json:"id"`

	CountryOfOrigin     Country   `json:"country_of_origin"`
	Gender              Gender    `json:"gender"`
	Age                 int       `json:"age"`
	EducationLevel      Education `json:"education_level"`
	LanguageProficiency Language  `json:"language_proficiency"`
	FamilySize          int       `json:"family_size"`
	PriorCampYears      int       `json:"prior_camp_years"`

	PersecutionGround          PersecutionGround `json:"persecution_ground"`
	PersecutionType            PersecutionType   `json:"persecution_type"`
	NexusEstablished           bool              `json:"nexus_established"`
	StateProtectionScore       float64           `json:"state_protection_score"`
	InternalRelocationPossible bool              `json:"internal_relocation_possible"`
	ReportedTrauma             bool              `json:"reported_trauma"`

	CredibilityScore  float64 `json:"credibility_score"`
	RiskScore         float64 `json:"risk_score"`
	RiskScoreUncapped float64 `json:"risk_score_uncapped"`
	IntegrationScore  float64 `json:"integration_score"`

	AIDecision         Decision `json:"AI_decision"`
	HumanReviewed      bool     `json:"human_reviewed"`
	HumanOverride      bool     `json:"human_override"`
	FinalDecision      Decision `json:"final_decision"`
	ProcessingTimeDays int      `json:"processing_time_days"`

	Appealed      bool          `json:"appealed"`
	AppealOutcome AppealOutcome `json:"appeal_outcome"`
	BiasFlag      BiasFlag      `json:"bias_flag"`
}

// Approved reports whether the final (post-oversight) decision is approve.
func (r Record) Approved() bool {
	return r.FinalDecision == DecisionApprove
}

// TraumaWithLowCredibility marks the cases the audit looks at first.
func (r Record) TraumaWithLowCredibility() bool {
	return r.ReportedTrauma && r.CredibilityScore < 0.5
}
