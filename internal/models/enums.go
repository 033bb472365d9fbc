// internal/models/enums.go
package models

type Country string

const (
	CountrySyria       Country = "Syria"
	CountryAfghanistan Country = "Afghanistan"
	CountrySudan       Country = "Sudan"
	CountryMyanmar     Country = "Myanmar"
	CountryEritrea     Country = "Eritrea"
	CountryVenezuela   Country = "Venezuela"
	CountryIraq        Country = "Iraq"
	CountrySomalia     Country = "Somalia"
)

// Countries lists the countries of origin in sampling order.
var Countries = []Country{
	CountrySyria, CountryAfghanistan, CountrySudan, CountryMyanmar,
	CountryEritrea, CountryVenezuela, CountryIraq, CountrySomalia,
}

type Gender string

const (
	GenderMale      Gender = "Male"
	GenderFemale    Gender = "Female"
	GenderNonBinary Gender = "Non-binary"
)

var Genders = []Gender{GenderMale, GenderFemale, GenderNonBinary}

// Education is ordinal; the slice order is the ordering.
type Education string

const (
	EducationNone      Education = "None"
	EducationPrimary   Education = "Primary"
	EducationSecondary Education = "Secondary"
	EducationTertiary  Education = "Tertiary"
)

var EducationLevels = []Education{EducationNone, EducationPrimary, EducationSecondary, EducationTertiary}

// Language is ordinal; the slice order is the ordering.
type Language string

const (
	LanguageNone         Language = "None"
	LanguageBasic        Language = "Basic"
	LanguageIntermediate Language = "Intermediate"
	LanguageAdvanced     Language = "Advanced"
	LanguageFluent       Language = "Fluent"
)

var LanguageLevels = []Language{LanguageNone, LanguageBasic, LanguageIntermediate, LanguageAdvanced, LanguageFluent}

type PersecutionGround string

const (
	GroundRace             PersecutionGround = "race"
	GroundReligion         PersecutionGround = "religion"
	GroundNationality      PersecutionGround = "nationality"
	GroundPoliticalOpinion PersecutionGround = "political_opinion"
	GroundSocialGroup      PersecutionGround = "social_group"
)

var PersecutionGrounds = []PersecutionGround{
	GroundRace, GroundReligion, GroundNationality, GroundPoliticalOpinion, GroundSocialGroup,
}

type PersecutionType string

const (
	TypeViolence       PersecutionType = "violence"
	TypeDetention      PersecutionType = "detention"
	TypeThreats        PersecutionType = "threats"
	TypeSexualViolence PersecutionType = "sexual_violence"
	TypeDiscrimination PersecutionType = "discrimination"
)

var PersecutionTypes = []PersecutionType{
	TypeViolence, TypeDetention, TypeThreats, TypeSexualViolence, TypeDiscrimination,
}

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionDeny    Decision = "deny"
)

var Decisions = []Decision{DecisionApprove, DecisionDeny}

// Flip returns the opposite decision.
func (d Decision) Flip() Decision {
	if d == DecisionApprove {
		return DecisionDeny
	}
	return DecisionApprove
}

type AppealOutcome string

const (
	AppealOverturned    AppealOutcome = "overturned"
	AppealUpheld        AppealOutcome = "upheld"
	AppealNotApplicable AppealOutcome = "N/A"
)

var AppealOutcomes = []AppealOutcome{AppealOverturned, AppealUpheld, AppealNotApplicable}

type BiasFlag string

const (
	BiasNone     BiasFlag = "none"
	BiasModerate BiasFlag = "moderate"
	BiasSevere   BiasFlag = "severe"
)

var BiasFlags = []BiasFlag{BiasNone, BiasModerate, BiasSevere}
