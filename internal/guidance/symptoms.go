package guidance

import "strings"

// SymptomRule maps any of its keywords to a response. Rules are evaluated
// in order and the first match wins.
type SymptomRule struct {
	Keywords []string
	Category string
	Advice   Text
	Warning  Text
}

// Assessment is the answer returned for a symptom description.
type Assessment struct {
	Category string `json:"category"`
	Advice   string `json:"advice"`
	Warning  string `json:"warning"`
	Speech   string `json:"speech"`
	Lang     Lang   `json:"lang"`
}

var symptomRules = []SymptomRule{
	{
		Keywords: []string{"fever", "bukhar"},
		Category: "Fever / Infection",
		Advice: Text{
			En: "Drink fluids, take rest, and eat light food.",
			Hi: "पानी पिएं, आराम करें और हल्का भोजन लें।",
		},
		Warning: Text{
			En: "If fever lasts more than 3 days, visit a doctor.",
			Hi: "3 दिन से ज्यादा बुखार रहे तो डॉक्टर से मिलें।",
		},
	},
	{
		Keywords: []string{"cough", "cold"},
		Category: "Cold / Cough",
		Advice: Text{
			En: "Drink warm water and take steam.",
			Hi: "गर्म पानी पिएं और भाप लें।",
		},
		Warning: Text{
			En: "Visit hospital if breathing difficulty occurs.",
			Hi: "सांस लेने में तकलीफ हो तो अस्पताल जाएं।",
		},
	},
	{
		Keywords: []string{"stomach", "diarrhea"},
		Category: "Stomach Issue",
		Advice: Text{
			En: "Drink ORS and eat clean food.",
			Hi: "ORS पिएं और साफ खाना खाएं।",
		},
		Warning: Text{
			En: "See a doctor if blood or severe weakness occurs.",
			Hi: "खून या तेज कमजोरी हो तो डॉक्टर से मिलें।",
		},
	},
}

var generalAdvice = SymptomRule{
	Category: "General Health Advice",
	Advice: Text{
		En: "Please consult your nearest health center.",
		Hi: "कृपया नजदीकी स्वास्थ्य केंद्र से संपर्क करें।",
	},
	Warning: Text{
		En: "Visit a doctor if symptoms worsen.",
		Hi: "लक्षण बढ़ने पर तुरंत डॉक्टर से मिलें।",
	},
}

// MatchRule returns the first rule whose keyword appears in text, or the
// general advice rule. Matching is case-insensitive substring matching.
func MatchRule(text string) SymptomRule {
	t := strings.ToLower(text)
	for _, r := range symptomRules {
		for _, k := range r.Keywords {
			if strings.Contains(t, k) {
				return r
			}
		}
	}
	return generalAdvice
}

// Analyze assesses a free-text symptom description in lang.
func Analyze(text string, lang Lang) Assessment {
	r := MatchRule(text)
	a := Assessment{
		Category: r.Category,
		Advice:   r.Advice.In(lang),
		Warning:  r.Warning.In(lang),
		Lang:     lang,
	}
	a.Speech = a.Category + ". " + a.Advice + ". Warning: " + a.Warning
	return a
}
