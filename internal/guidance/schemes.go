package guidance

import "strings"

// Scheme describes a government health scheme.
type Scheme struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Summary     string   `json:"summary"`
	Eligibility []string `json:"eligibility"`
	Website     string   `json:"website"`
	Helpline    string   `json:"helpline"`
	Speech      string   `json:"speech"`
}

var schemes = []Scheme{
	{
		ID:      "pmjay",
		Name:    "Ayushman Bharat – PMJAY",
		Summary: "Provides ₹5 lakh health insurance per family per year for cashless treatment.",
		Eligibility: []string{
			"Families listed in SECC database",
			"Economically weaker sections",
			"Rural and urban poor households",
		},
		Website:  "https://pmjay.gov.in",
		Helpline: "14555",
		Speech:   "Ayushman Bharat provides five lakh rupees health insurance to eligible families.",
	},
	{
		ID:      "jsy",
		Name:    "Janani Suraksha Yojana (JSY)",
		Summary: "Encourages safe institutional delivery by providing financial assistance to pregnant women.",
		Eligibility: []string{
			"Pregnant women from BPL families",
			"Rural mothers",
			"Women registered at government health centers",
		},
		Website:  "https://nhm.gov.in",
		Helpline: "102",
		Speech:   "Janani Suraksha Yojana supports pregnant women for safe hospital delivery.",
	},
}

// Income bands accepted by the eligibility check.
const (
	IncomeLow    = "low"
	IncomeMedium = "medium"
	IncomeHigh   = "high"
)

// EligibilityRequest is the eligibility form.
type EligibilityRequest struct {
	Income   string `json:"income"`
	Pregnant bool   `json:"pregnant"`
}

// EligibilityResult is the outcome shown and spoken to the citizen.
type EligibilityResult struct {
	Eligible bool   `json:"eligible"`
	Message  string `json:"message"`
	Speech   string `json:"speech"`
}

// Schemes returns the scheme catalogue in display order.
func Schemes() []Scheme {
	out := make([]Scheme, len(schemes))
	for i, s := range schemes {
		s.Eligibility = append([]string(nil), s.Eligibility...)
		out[i] = s
	}
	return out
}

// SchemeByID finds a scheme, case-insensitively.
func SchemeByID(id string) (Scheme, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, s := range Schemes() {
		if s.ID == id {
			return s, true
		}
	}
	return Scheme{}, false
}

// CheckEligibility applies the indicative rule: low income or a pregnant
// woman in the family.
func CheckEligibility(req EligibilityRequest) EligibilityResult {
	if strings.ToLower(strings.TrimSpace(req.Income)) == IncomeLow || req.Pregnant {
		return EligibilityResult{
			Eligible: true,
			Message:  "You may be eligible for government schemes.",
			Speech:   "You may be eligible for government health schemes.",
		}
	}
	return EligibilityResult{
		Eligible: false,
		Message:  "Eligibility not confirmed. Visit nearest PHC for details.",
		Speech:   "You may not be eligible, but please confirm at your nearest health center.",
	}
}
