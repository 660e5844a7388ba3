// Package masking implements the privacy filter applied to transcripts
// before any persistence (spec §4.8 stage 5): built-in regex PII/secret
// patterns plus structurally-aware code maskers, grounded on the teacher's
// pattern-group + code-masker split (pkg/masking/service.go, pattern.go,
// kubernetes_secret.go) and generalized from "don't leak k8s Secret data
// into chat transcripts" to "don't leak PII into ingested transcripts".
package masking

// Masker is a code-based masker for structurally-aware redaction beyond
// plain regex matching (e.g. a masker that parses an embedded JSON blob and
// only redacts known-sensitive field values).
type Masker interface {
	// Name is the masker's unique identifier, used in Hit.Pattern.
	Name() string

	// AppliesTo is a cheap pre-check (string contains, not full parsing).
	AppliesTo(data string) bool

	// Mask applies the masker's redaction and returns the result. Must be
	// defensive: return the original data on parse/processing errors.
	Mask(data string) string
}
