package score

// NameInputs are the identity and provenance signals for a contract.
type NameInputs struct {
	IsVerified     bool    `json:"is_verified"`
	AuditCount     int     `json:"audit_count"`
	AgeDays        int     `json:"age_days"`
	TeamIdentified bool    `json:"team_identified"`
	EcosystemScore float64 `json:"ecosystem_score"` // 0-20
}

// computeName scores identity and provenance.
//
// Scoring (five factors, 20 points each):
//   - source_verified: 20 if the source is verified on an explorer, else 0
//   - audit_history: 6.67 per audit, capped at 20
//   - maturity: age relative to one year, capped at 20; 0 for age <= 0
//   - team_identification: 20 if identified, else 5; anonymous teams are
//     never zero-scored
//   - ecosystem_presence: external ecosystem score, capped at 20
func computeName(in NameInputs) SubScore {
	sourceScore := 0.0
	if in.IsVerified {
		sourceScore = 20
	}

	auditScore := float64(in.AuditCount) * 6.67
	if auditScore > 20 {
		auditScore = 20
	}

	maturityScore := 0.0
	if in.AgeDays > 0 {
		maturityScore = float64(in.AgeDays) / 365 * 20
		if maturityScore > 20 {
			maturityScore = 20
		}
	}

	teamScore := 5.0
	if in.TeamIdentified {
		teamScore = 20
	}

	ecosystem := in.EcosystemScore
	if ecosystem > 20 {
		ecosystem = 20
	}
	if ecosystem < 0 {
		ecosystem = 0
	}

	total := clamp(sourceScore + auditScore + maturityScore + teamScore + ecosystem)
	return SubScore{
		Score: total,
		Details: map[string]float64{
			"source_verified":     sourceScore,
			"audit_history":       auditScore,
			"maturity":            maturityScore,
			"team_identification": teamScore,
			"ecosystem_presence":  ecosystem,
		},
	}
}
