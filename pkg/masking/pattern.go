package masking

import "regexp"

// CompiledPattern holds a pre-compiled regex pattern with its replacement.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
	Description string
	// Block marks a pattern as a hard-fail signal (spec §4.8 "filtered spans
	// annotated with reason"; privacy_blocked is a no-retry hard fail per
	// §4.8's failure taxonomy) rather than a mask-in-place signal.
	Block bool
}

// patternDef is the built-in pattern table entry before compilation.
type patternDef struct {
	name        string
	pattern     string
	replacement string
	description string
	group       string
	block       bool
}

// builtinPatternDefs is this module's built-in PII/secret pattern library.
// Unlike the teacher, which loads pattern *definitions* from
// config.GetBuiltinConfig().MaskingPatterns (a registry of regexes owned by
// config), this module's config.MaskingConfig only carries *selectors*
// (PatternGroups, Patterns, Custom) — the regex definitions themselves live
// here, next to the masker that applies them.
func builtinPatternDefs() []patternDef {
	return []patternDef{
		{name: "email", pattern: `[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`,
			replacement: "[REDACTED_EMAIL]", description: "email address", group: "pii"},
		{name: "phone", pattern: `\+?\d{1,2}[\s.\-]?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}\b`,
			replacement: "[REDACTED_PHONE]", description: "phone number", group: "pii"},
		{name: "ssn", pattern: `\b\d{3}-\d{2}-\d{4}\b`,
			replacement: "[REDACTED_SSN]", description: "US social security number", group: "pii", block: true},
		{name: "credit_card", pattern: `\b(?:\d[ -]*?){13,16}\b`,
			replacement: "[REDACTED_CARD]", description: "credit card number", group: "pii", block: true},
		{name: "ip_address", pattern: `\b(?:\d{1,3}\.){3}\d{1,3}\b`,
			replacement: "[REDACTED_IP]", description: "IPv4 address", group: "pii"},
		{name: "street_address", pattern: `\b\d{1,5}\s+[A-Za-z0-9.\s]{3,40}\b(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr)\b`,
			replacement: "[REDACTED_ADDRESS]", description: "street address", group: "pii"},
		{name: "api_key", pattern: `\b[A-Za-z0-9_\-]*(?:api|secret)[_\-]?key[_\-]?[:=]\s*['"]?[A-Za-z0-9_\-]{16,}['"]?`,
			replacement: "[REDACTED_API_KEY]", description: "generic API key assignment", group: "secrets", block: true},
		{name: "bearer_token", pattern: `(?i)bearer\s+[A-Za-z0-9\-._~+/]+=*`,
			replacement: "[REDACTED_TOKEN]", description: "bearer token", group: "secrets", block: true},
		{name: "aws_access_key", pattern: `\bAKIA[0-9A-Z]{16}\b`,
			replacement: "[REDACTED_AWS_KEY]", description: "AWS access key id", group: "secrets", block: true},
	}
}

// builtinGroups derives the group → pattern-name index from builtinPatternDefs.
func builtinGroups() map[string][]string {
	groups := make(map[string][]string)
	for _, d := range builtinPatternDefs() {
		groups[d.group] = append(groups[d.group], d.name)
	}
	return groups
}
