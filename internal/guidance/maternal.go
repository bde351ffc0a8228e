package guidance

import "strings"

// PregnancyStage holds month-wise care tips.
type PregnancyStage struct {
	Month   string   `json:"month"`
	Tips    []string `json:"tips"`
	Warning string   `json:"warning"`
	Speech  string   `json:"speech"`
}

// ChildStage holds age-wise child care tips.
type ChildStage struct {
	Age    string   `json:"age"`
	Tips   []string `json:"tips"`
	Speech string   `json:"speech"`
}

// MaternalChildGuide is the full maternal and child health page.
type MaternalChildGuide struct {
	Pregnancy []PregnancyStage `json:"pregnancy"`
	Child     []ChildStage     `json:"child"`
}

var pregnancyCare = []PregnancyStage{
	{
		Month:   "Month 1–3",
		Tips:    []string{"Take folic acid daily", "Avoid heavy work and alcohol", "Register pregnancy at nearest PHC"},
		Warning: "Bleeding, severe pain → visit hospital",
	},
	{
		Month:   "Month 4–6",
		Tips:    []string{"Iron & calcium tablets", "Regular antenatal checkups", "Eat green vegetables & fruits"},
		Warning: "Swelling, headache, blurred vision",
	},
	{
		Month:   "Month 7–9",
		Tips:    []string{"Rest well and sleep on left side", "Prepare for institutional delivery", "Keep emergency contact ready"},
		Warning: "Reduced baby movement, water leakage",
	},
}

var childCare = []ChildStage{
	{Age: "0–6 Months", Tips: []string{"Exclusive breastfeeding", "No water or honey", "Keep baby warm"}},
	{Age: "6–12 Months", Tips: []string{"Start soft foods", "Continue breastfeeding", "Complete vaccinations"}},
	{Age: "1–5 Years", Tips: []string{"Balanced diet", "Regular immunization", "Monitor growth & weight"}},
}

// MaternalChild returns copies of the pregnancy and child care tables with
// the text the frontend reads aloud.
func MaternalChild() MaternalChildGuide {
	g := MaternalChildGuide{
		Pregnancy: make([]PregnancyStage, 0, len(pregnancyCare)),
		Child:     make([]ChildStage, 0, len(childCare)),
	}
	for _, s := range pregnancyCare {
		tips := append([]string(nil), s.Tips...)
		g.Pregnancy = append(g.Pregnancy, PregnancyStage{
			Month:   s.Month,
			Tips:    tips,
			Warning: s.Warning,
			Speech:  s.Month + ". " + strings.Join(tips, ". ") + ". Warning signs: " + s.Warning,
		})
	}
	for _, s := range childCare {
		tips := append([]string(nil), s.Tips...)
		g.Child = append(g.Child, ChildStage{
			Age:    s.Age,
			Tips:   tips,
			Speech: s.Age + ". " + strings.Join(tips, ". "),
		})
	}
	return g
}
