package security

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// MaxPromptLength bounds a question in bytes.
const MaxPromptLength = 2000

// promptRule names a family of dangerous input.
type promptRule struct {
	kind string
	re   *regexp.Regexp
}

func rules(kind string, exprs ...string) []promptRule {
	out := make([]promptRule, len(exprs))
	for i, e := range exprs {
		out[i] = promptRule{kind: kind, re: regexp.MustCompile(e)}
	}
	return out
}

// dangerousPrompts catch command execution, file access and prompt injection.
var dangerousPrompts = slices.Concat(
	rules("shell command",
		`(?i)\brm\s+-`,
		`(?i)\brm\s+/`,
		`(?i)\bcp\s+.*\s+/etc`,
		`(?i)\bmv\s+.*\s+/etc`,
		`(?i)\bcurl\s+`,
		`(?i)\bwget\s+`,
		`(?i)\bnc\s+`,
		`(?i)\bbash\s+-`,
		`(?i)\bsh\s+-`,
		`(?i)\bpython\s+.*\.py`,
		`(?i)\bnode\s+.*\.js`,
		`(?i)\bgit\s+`,
		`(?i)\bsudo\s+`,
		`(?i)\bsu\s+`,
	),
	rules("file access",
		`\.\.\/`,
		`/etc/passwd`,
		`/etc/shadow`,
		`/proc/`,
		`/sys/`,
		`\.env\s`,
		`\.env$`,
		`id_rsa`,
		`\.ssh/`,
		`>\s*/`,
		`>>\s*/`,
	),
	rules("code execution",
		`(?i)eval\s*\(`,
		`(?i)exec\s*\(`,
		`(?i)system\s*\(`,
		`(?i)__import__\s*\(`,
		`(?i)subprocess\s*\(`,
		`(?i)os\.system`,
		`(?i)popen`,
	),
	rules("prompt injection",
		`(?i)ignore\s+(all\s+)?previous\s+instructions`,
		`(?i)disregard\s+(all\s+)?previous\s+instructions`,
		`(?i)forget\s+(all\s+)?previous\s+instructions`,
		`(?i)override\s+(all\s+)?previous\s+instructions`,
		`(?i)new\s+context\s*:`,
		`(?i)change\s+context\s*:`,
		`(?i)instead\s+of\s+the\s+above`,
	),
)

var suspiciousIndicators = []string{
	"create file", "eval", "exec",
	"import os", "import sys", "subprocess", "__import__",
}

var dataKeywords = []string{
	"data", "table", "query", "show", "list", "get", "find",
	"report", "count", "sum", "total", "average", "top", "bottom",
	"compare", "trend", "how many", "how much", "which", "what",
	"when", "where", "who", "based on", "per ", "by ",
	// sales domain
	"loan", "amount", "crore", "lakh", "spoc", "target", "achievement",
	"institute", "brand", "borrower", "manager", "region",
	"classification", "category", "disbursal", "disbursed", "approval",
	"login", "utr", "pivot", "breakdown", "month", "week", "year", "today",
}

// PromptValidator validates questions for injection and dangerous content
type PromptValidator struct {
	maxLength int
}

// NewPromptValidator uses MaxPromptLength when maxLength is not positive.
func NewPromptValidator(maxLength int) *PromptValidator {
	if maxLength <= 0 {
		maxLength = MaxPromptLength
	}
	return &PromptValidator{maxLength: maxLength}
}

// ValidationResult contains validation outcome
type ValidationResult struct {
	Valid   bool
	Message string
}

// Validate checks a prompt for dangerous patterns
func (v *PromptValidator) Validate(prompt string) ValidationResult {
	if len(prompt) > v.maxLength {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("prompt too long: %d chars (max %d)", len(prompt), v.maxLength),
		}
	}

	if strings.TrimSpace(prompt) == "" {
		return ValidationResult{Valid: false, Message: "prompt cannot be empty"}
	}

	for _, rule := range dangerousPrompts {
		if rule.re.MatchString(prompt) {
			return ValidationResult{
				Valid:   false,
				Message: fmt.Sprintf("%s pattern detected: %s", rule.kind, rule.re.String()),
			}
		}
	}

	// Check suspicious instruction chaining
	lower := strings.ToLower(prompt)
	for _, indicator := range suspiciousIndicators {
		if strings.Contains(lower, indicator) {
			return ValidationResult{
				Valid:   false,
				Message: fmt.Sprintf("suspicious instruction indicator detected: %q", indicator),
			}
		}
	}

	// Require at least one data-related keyword
	hasDataKW := false
	for _, kw := range dataKeywords {
		if strings.Contains(lower, kw) {
			hasDataKW = true
			break
		}
	}
	if !hasDataKW {
		return ValidationResult{
			Valid:   false,
			Message: "question must mention the data it is about (loans, targets, spoc, totals, ...)",
		}
	}

	return ValidationResult{Valid: true, Message: "ok"}
}
