// internal/pipeline/decision.go
package pipeline

import "rsd-dataset/internal/models"

const (
	approveThreshold     = 0.62
	credibilityThreshold = 0.50
)

// ApproveScore is the weighted score the automated decision thresholds on.
func ApproveScore(r models.Record) float64 {
	nexus := 0.0
	if r.NexusEstablished {
		nexus = 1
	}
	return 0.45*r.RiskScore + 0.30*r.CredibilityScore + 0.15*nexus + 0.10*(1-r.StateProtectionScore)
}

// Decide approves only when the score clears the threshold, credibility
// clears its own floor, and a nexus is established.
func Decide(r models.Record) models.Decision {
	if ApproveScore(r) > approveThreshold && r.CredibilityScore > credibilityThreshold && r.NexusEstablished {
		return models.DecisionApprove
	}
	return models.DecisionDeny
}

func decideRecords(records []models.Record) {
	for i := range records {
		records[i].AIDecision = Decide(records[i])
	}
}
