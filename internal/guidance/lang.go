// Package guidance holds the static health content served by the API:
// symptom rules, first aid cards, maternal and child care tips and the
// government scheme catalogue. Everything here is read-only data plus
// small pure lookups over it.
package guidance

import "strings"

// Lang is a content language.
type Lang string

const (
	English Lang = "en"
	Hindi   Lang = "hi"
)

// ParseLang maps a query or body value to a supported language. Anything
// that is not Hindi is English.
func ParseLang(s string) Lang {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hi", "hi-in", "hindi":
		return Hindi
	default:
		return English
	}
}

// Text is a bilingual string.
type Text struct {
	En string
	Hi string
}

// In returns the text in lang, falling back to English when no
// translation was authored.
func (t Text) In(lang Lang) string {
	if lang == Hindi && t.Hi != "" {
		return t.Hi
	}
	return t.En
}

// Texts is a bilingual list.
type Texts struct {
	En []string
	Hi []string
}

func (t Texts) In(lang Lang) []string {
	src := t.En
	if lang == Hindi && len(t.Hi) > 0 {
		src = t.Hi
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}
