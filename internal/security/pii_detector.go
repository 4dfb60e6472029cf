package security

import (
	"strings"
)

// DefaultPIIKeywords block questions that ask for personal identifiers.
var DefaultPIIKeywords = []string{
	"password", "aadhaar", "aadhar", "pan number", "pan card",
	"ssn", "credit card", "cvv", "otp", "api key",
}

// PIIDetector checks prompts for sensitive PII keywords
type PIIDetector struct {
	keywords []string
}

func NewPIIDetector(keywords []string) *PIIDetector {
	if len(keywords) == 0 {
		keywords = DefaultPIIKeywords
	}
	lower := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lower = append(lower, k)
		}
	}
	return &PIIDetector{keywords: lower}
}

// Detect returns true and the matched keyword if PII is found in text.
// Keywords match on word boundaries so "otp" does not fire on "hotspot".
// A nil detector finds nothing.
func (d *PIIDetector) Detect(text string) (bool, string) {
	if d == nil {
		return false, ""
	}
	lower := " " + strings.Map(wordRune, strings.ToLower(text)) + " "
	for _, kw := range d.keywords {
		if strings.Contains(lower, " "+kw+" ") {
			return true, kw
		}
	}
	return false, ""
}

func wordRune(r rune) rune {
	if r == '_' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
		return r
	}
	if r > 127 {
		return r
	}
	return ' '
}
