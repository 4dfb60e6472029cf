package security

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/querydesk/querydesk/internal/report"
)

// DefaultSensitiveColumns are masked unless configuration says otherwise.
var DefaultSensitiveColumns = []string{"contact", "address", "phone", "email"}

var (
	emailRe      = regexp.MustCompile(`(?i)email`)
	phoneRe      = regexp.MustCompile(`(?i)phone|mobile|contact`)
	panRe        = regexp.MustCompile(`(?i)\bpan\b|pan_number|aadhaar|aadhar`)
	creditCardRe = regexp.MustCompile(`(?i)credit_card|card_number`)
	fullMaskRe   = regexp.MustCompile(`(?i)password|secret|token|api_key|access_key|private_key|address`)
)

// DataMasker masks sensitive column values in query results
type DataMasker struct {
	sensitiveColumns []string
}

func NewDataMasker(sensitiveColumns []string) *DataMasker {
	return &DataMasker{sensitiveColumns: sensitiveColumns}
}

// MaskTable returns a copy of t with sensitive columns masked, and whether
// any column was masked. Null cells stay null. A nil masker returns t
// unchanged.
func (m *DataMasker) MaskTable(t report.Table) (report.Table, bool) {
	if m == nil {
		return t, false
	}
	var cols []int
	for i, c := range t.Columns {
		if m.IsSensitive(c) {
			cols = append(cols, i)
		}
	}
	if len(cols) == 0 {
		return t, false
	}

	out := t.Clone()
	for _, row := range out.Rows {
		for _, i := range cols {
			if i >= len(row) || row[i] == nil {
				continue
			}
			row[i] = m.maskValue(t.Columns[i], report.FormatCell(row[i]))
		}
	}
	return out, true
}

// IsSensitive reports whether values of col must be masked.
func (m *DataMasker) IsSensitive(col string) bool {
	lower := strings.ToLower(col)
	for _, s := range m.sensitiveColumns {
		if strings.Contains(lower, strings.ToLower(s)) {
			return true
		}
	}
	return emailRe.MatchString(col) || phoneRe.MatchString(col) ||
		panRe.MatchString(col) || creditCardRe.MatchString(col) || fullMaskRe.MatchString(col)
}

func (m *DataMasker) maskValue(col, val string) string {
	lower := strings.ToLower(col)
	switch {
	case emailRe.MatchString(lower):
		return maskEmail(val)
	case phoneRe.MatchString(lower):
		return maskPhone(val)
	case creditCardRe.MatchString(lower):
		return maskCreditCard(val)
	default:
		return "***"
	}
}

// maskEmail: "john.doe@example.com" → "jo***@***.com"
func maskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return "***"
	}
	visible := min(2, len(local))
	domainParts := strings.Split(domain, ".")
	ext := domainParts[len(domainParts)-1]
	return fmt.Sprintf("%s***@***.%s", local[:visible], ext)
}

// maskPhone: any phone → "******6789" (show last 4)
func maskPhone(phone string) string {
	digits := onlyDigits(phone)
	if len(digits) < 4 {
		return "**********"
	}
	return "******" + digits[len(digits)-4:]
}

// maskCreditCard: "4111111111111111" → "****-****-****-1111"
func maskCreditCard(cc string) string {
	digits := onlyDigits(cc)
	if len(digits) < 4 {
		return "****-****-****-****"
	}
	return "****-****-****-" + digits[len(digits)-4:]
}

func onlyDigits(s string) string {
	var sb strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}
