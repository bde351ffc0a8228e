package guidance

import "strings"

type firstAidEntry struct {
	Icon    string
	Title   Text
	Steps   Texts
	Warning Text
}

// FirstAidCard is one rendered first aid instruction set.
type FirstAidCard struct {
	Icon    string   `json:"icon"`
	Title   string   `json:"title"`
	Steps   []string `json:"steps"`
	Warning string   `json:"warning"`
	Speech  string   `json:"speech"`
}

var firstAid = []firstAidEntry{
	{
		Icon:  "🩸",
		Title: Text{En: "Bleeding", Hi: "खून बहना"},
		Steps: Texts{
			En: []string{
				"Press the wound firmly with a clean cloth",
				"Keep the injured part raised above heart level",
				"Do not remove the cloth, add more layers if soaked",
			},
			Hi: []string{
				"साफ कपड़े से घाव को जोर से दबाएं",
				"घायल हिस्से को दिल के स्तर से ऊपर रखें",
				"कपड़ा न हटाएं, भीग जाए तो ऊपर और कपड़ा रखें",
			},
		},
		Warning: Text{
			En: "If bleeding does not stop in 10 minutes, go to hospital.",
			Hi: "10 मिनट में खून न रुके तो अस्पताल जाएं।",
		},
	},
	{
		Icon:  "🔥",
		Title: Text{En: "Burns", Hi: "जलना"},
		Steps: Texts{
			En: []string{
				"Cool the burn under running water for 20 minutes",
				"Remove rings or tight items near the burn",
				"Cover loosely with a clean cloth",
			},
			Hi: []string{
				"जले हिस्से को 20 मिनट तक बहते पानी में ठंडा करें",
				"पास की अंगूठी या तंग चीजें हटा दें",
				"साफ कपड़े से ढीला ढकें",
			},
		},
		Warning: Text{
			En: "Do not apply toothpaste, ice or oil. Large burns need a hospital.",
			Hi: "टूथपेस्ट, बर्फ या तेल न लगाएं। बड़े जलने पर अस्पताल जाएं।",
		},
	},
	{
		Icon:  "🐍",
		Title: Text{En: "Snake Bite", Hi: "सांप का काटना"},
		Steps: Texts{
			En: []string{
				"Keep the person calm and still",
				"Keep the bitten limb below heart level",
				"Remove watches and tight clothing",
			},
			Hi: []string{
				"व्यक्ति को शांत और स्थिर रखें",
				"काटे गए अंग को दिल के स्तर से नीचे रखें",
				"घड़ी और तंग कपड़े हटा दें",
			},
		},
		Warning: Text{
			En: "Do not cut or suck the wound. Call 108 and reach a hospital fast.",
			Hi: "घाव को न काटें न चूसें। 108 पर कॉल करें और जल्दी अस्पताल पहुंचें।",
		},
	},
	{
		Icon:  "☀️",
		Title: Text{En: "Heat Stroke", Hi: "लू लगना"},
		Steps: Texts{
			En: []string{
				"Move the person to a cool, shaded place",
				"Wipe the body with wet cloth",
				"Give ORS or water if conscious",
			},
			Hi: []string{
				"व्यक्ति को ठंडी, छायादार जगह पर ले जाएं",
				"गीले कपड़े से शरीर पोंछें",
				"होश में हो तो ORS या पानी दें",
			},
		},
		Warning: Text{
			En: "Confusion or fainting is an emergency. Call 108.",
			Hi: "बेहोशी या भ्रम आपातकाल है। 108 पर कॉल करें।",
		},
	},
}

// FirstAid returns the first aid cards in authored order.
func FirstAid(lang Lang) []FirstAidCard {
	out := make([]FirstAidCard, 0, len(firstAid))
	for _, e := range firstAid {
		card := FirstAidCard{
			Icon:    e.Icon,
			Title:   e.Title.In(lang),
			Steps:   e.Steps.In(lang),
			Warning: e.Warning.In(lang),
		}
		card.Speech = card.Title + ". " + strings.Join(card.Steps, ". ") + ". Warning. " + card.Warning
		out = append(out, card)
	}
	return out
}
