package masking

import (
	"encoding/json"
	"regexp"
	"strings"
)

// MaskedFieldValue is the replacement for masked structured-PII field values.
const MaskedFieldValue = "[MASKED_PII]"

// sensitiveFieldNames are JSON object keys treated as carrying PII when found
// inside an embedded structured blob, regardless of their value's shape.
var sensitiveFieldNames = map[string]bool{
	"ssn": true, "social_security_number": true,
	"email": true, "email_address": true,
	"phone": true, "phone_number": true, "mobile": true,
	"address": true, "street_address": true, "home_address": true,
	"credit_card": true, "card_number": true,
	"api_key": true, "apikey": true, "token": true, "password": true,
}

var embeddedJSONObject = regexp.MustCompile(`\{[^{}]*\}`)

// StructuredPIIMasker masks known-sensitive field values inside JSON blobs
// embedded in otherwise-free-text transcripts (e.g. a chapter-marker or
// speaker-info payload a podcast host pastes inline), generalized from the
// teacher's KubernetesSecretMasker — same JSON-decode/walk/mask/re-encode
// shape, applied to PII field names instead of k8s Secret "data"/"stringData".
type StructuredPIIMasker struct{}

func (m *StructuredPIIMasker) Name() string { return "structured_pii" }

// AppliesTo is a cheap pre-check: does the text contain anything
// JSON-object-shaped at all worth parsing.
func (m *StructuredPIIMasker) AppliesTo(data string) bool {
	return embeddedJSONObject.MatchString(data)
}

// Mask finds every embedded JSON object in data that contains no nested
// object (for nested JSON, that is the innermost objects), parses it, masks
// any sensitive field value found, and splices the
// re-serialized object back into the original text. Non-JSON spans are left
// untouched. Defensive: a span that fails to parse is left as-is.
func (m *StructuredPIIMasker) Mask(data string) string {
	return embeddedJSONObject.ReplaceAllStringFunc(data, func(span string) string {
		var obj map[string]any
		if err := json.Unmarshal([]byte(span), &obj); err != nil {
			return span
		}
		if !maskSensitiveFields(obj) {
			return span
		}
		out, err := json.Marshal(obj)
		if err != nil {
			return span
		}
		return string(out)
	})
}

// maskSensitiveFields walks obj recursively, replacing values of known
// sensitive field names in place. Returns true if anything was masked.
func maskSensitiveFields(obj map[string]any) bool {
	masked := false
	for key, val := range obj {
		if sensitiveFieldNames[strings.ToLower(key)] {
			obj[key] = MaskedFieldValue
			masked = true
			continue
		}
		switch v := val.(type) {
		case map[string]any:
			if maskSensitiveFields(v) {
				masked = true
			}
		case []any:
			for _, item := range v {
				if child, ok := item.(map[string]any); ok {
					if maskSensitiveFields(child) {
						masked = true
					}
				}
			}
		}
	}
	return masked
}
