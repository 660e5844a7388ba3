package masking

import (
	"strings"
	"testing"

	"github.com/fathomhq/mediacore/pkg/config"
)

func testCfg() config.MaskingConfig {
	return config.MaskingConfig{Enabled: true, PatternGroups: []string{"pii", "secrets"}}
}

func TestApplyMasksEmailWithoutBlocking(t *testing.T) {
	f := NewFilter(testCfg())
	result := f.Apply("reach me at jane@example.com for details")
	if strings.Contains(result.Masked, "jane@example.com") {
		t.Fatalf("expected email to be masked, got %q", result.Masked)
	}
	if result.Blocked {
		t.Fatalf("email is not a block pattern")
	}
}

func TestApplyBlocksSSN(t *testing.T) {
	f := NewFilter(testCfg())
	result := f.Apply("my ssn is 123-45-6789")
	if !result.Blocked {
		t.Fatalf("expected ssn pattern to set Blocked")
	}
	found := false
	for _, h := range result.Hits {
		if h.Pattern == "ssn" && h.Block {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an ssn hit marked Block, got %+v", result.Hits)
	}
}

func TestApplyNoopWhenDisabled(t *testing.T) {
	f := NewFilter(config.MaskingConfig{Enabled: false})
	text := "email jane@example.com"
	result := f.Apply(text)
	if result.Masked != text {
		t.Fatalf("expected disabled filter to pass text through unchanged")
	}
}

func TestStructuredPIIMaskerMasksEmbeddedJSON(t *testing.T) {
	m := &StructuredPIIMasker{}
	data := `speaker notes: {"name":"Jane","email":"jane@example.com"}`
	if !m.AppliesTo(data) {
		t.Fatalf("expected AppliesTo to detect embedded JSON object")
	}
	masked := m.Mask(data)
	if strings.Contains(masked, "jane@example.com") {
		t.Fatalf("expected embedded email field to be masked, got %q", masked)
	}
	if !strings.Contains(masked, "Jane") {
		t.Fatalf("expected non-sensitive field to survive masking, got %q", masked)
	}
}
