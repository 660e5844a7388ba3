package mission

import (
	"regexp"
	"strings"

	"github.com/fathomhq/mediacore/pkg/retrieval"
)

// Score is the quality gate's output (spec §4.9: "a quality assessor
// computes a score from content-substance + evidence-grounding + reasoning
// + UX heuristics"). Each component is normalized to [0, 1]; Total is their
// weighted sum, also normalized to [0, 1].
//
// Grounded on the teacher's ScoringController (pkg/agent/controller/scoring.go):
// the teacher delegates scoring to an LLM judge turn and regex-extracts a
// 0-100 number from the last line. This module has no LLM-judge dependency
// wired for mission stages (only the router's completion calls, which would
// make every quality check itself an LLM call with its own cost/latency/
// failure modes) — so the four heuristics the teacher's judge is prompted to
// weigh (substance, grounding, reasoning, UX) are instead computed directly
// from the stage's text and citation set. See DESIGN.md.
type Score struct {
	Substance float64
	Grounding float64
	Reasoning float64
	UX        float64
	Total     float64
}

const (
	weightSubstance = 0.30
	weightGrounding = 0.30
	weightReasoning = 0.25
	weightUX        = 0.15
)

var reasoningConnectives = []string{
	"because", "therefore", "however", "as a result", "which means",
	"this suggests", "consequently", "in contrast", "given that",
}

var placeholderPattern = regexp.MustCompile(`(?i)\b(TODO|TBD|lorem ipsum|as an ai|i cannot|i don't have access)\b`)

// Assess scores one stage's StageData against the evidence pack the mission
// assembled for it (empty EvidencePack is valid — grounding then scores 0
// for any cited claim and 1 when the stage made no citation claims at all,
// since an uncited stage cannot be faulted for failing to cite).
func Assess(data StageData, evidence retrieval.EvidencePack) Score {
	text := strings.TrimSpace(data.Text)
	if text == "" {
		return Score{}
	}

	s := Score{
		Substance: substanceScore(text),
		Grounding: groundingScore(text, data.Citations, evidence),
		Reasoning: reasoningScore(text),
		UX:        uxScore(text),
	}
	s.Total = weightSubstance*s.Substance + weightGrounding*s.Grounding +
		weightReasoning*s.Reasoning + weightUX*s.UX
	return s
}

// substanceScore rewards length and lexical diversity, capping out past a
// "clearly substantive" length rather than rewarding verbosity without bound.
func substanceScore(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	lengthScore := clamp01(float64(len(words)) / 150.0)

	seen := make(map[string]bool, len(words))
	for _, w := range words {
		seen[strings.ToLower(w)] = true
	}
	diversity := float64(len(seen)) / float64(len(words))

	return clamp01(0.7*lengthScore + 0.3*diversity)
}

// groundingScore delegates to C5's Verify: a factual claim lacking any valid
// citation drags the score down; a clean answer with no missing citations
// and no contradictions scores 1.
func groundingScore(text string, citations []string, evidence retrieval.EvidencePack) float64 {
	if len(evidence.Items) == 0 {
		if len(citations) == 0 {
			return 1 // nothing to ground, nothing claimed — not a grounding failure
		}
		return 0 // claims were cited against evidence that doesn't exist
	}
	result := retrieval.Verify(retrieval.Answer{Text: text, Citations: citations}, evidence)
	if result.OK {
		return 1
	}
	penalty := 0.15*float64(len(result.MissingCitations)) + 0.25*float64(len(result.Contradictions))
	return clamp01(1 - penalty)
}

// reasoningScore rewards explicit causal/contrastive connectives and
// multi-sentence structure over a single flat assertion.
func reasoningScore(text string) float64 {
	lower := strings.ToLower(text)
	hits := 0
	for _, c := range reasoningConnectives {
		if strings.Contains(lower, c) {
			hits++
		}
	}
	connectiveScore := clamp01(float64(hits) / 3.0)

	sentenceCount := strings.Count(text, ".") + strings.Count(text, "!") + strings.Count(text, "?")
	structureScore := clamp01(float64(sentenceCount) / 4.0)

	return clamp01(0.6*connectiveScore + 0.4*structureScore)
}

// uxScore penalizes placeholder/refusal boilerplate and degenerate
// repetition — the two failure modes that make an otherwise "scored well"
// answer unusable to a reader.
func uxScore(text string) float64 {
	score := 1.0
	if placeholderPattern.MatchString(text) {
		score -= 0.6
	}
	if hasDegenerateRepetition(text) {
		score -= 0.4
	}
	return clamp01(score)
}

// hasDegenerateRepetition flags text of at least six lines in which one
// (trimmed) line occurs more than len(lines)/3 times — the line-per-second transcript
// degradation and stalled-generation loops both produce this shape.
func hasDegenerateRepetition(text string) bool {
	lines := strings.Split(text, "\n")
	if len(lines) < 6 {
		return false
	}
	seen := make(map[string]int, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		seen[l]++
	}
	for _, count := range seen {
		if float64(count) > float64(len(lines))/3 {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
