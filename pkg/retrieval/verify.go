package retrieval

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// SentenceKind classifies one sentence of an answer for grounding purposes.
type SentenceKind string

const (
	SentenceFactual SentenceKind = "factual"
	SentenceOpinion SentenceKind = "opinion"
	SentenceMeta    SentenceKind = "meta"
)

// Sentence is one classified unit of an answer, with the citation ids the
// author attached to it.
type Sentence struct {
	Text      string
	Kind      SentenceKind
	Citations []string
}

// Answer is the verifier's input: the generated text plus the full set of
// citation ids the author claims to have used.
type Answer struct {
	Text      string
	Citations []string
}

// VerifyResult is the verify() output from spec §4.5.
type VerifyResult struct {
	OK               bool
	MissingCitations []string // factual sentences lacking any valid citation
	Contradictions   []Contradiction
	UnreferencedCitations []string // warning-only, never fails verification
}

// Contradiction flags two cited items disagreeing on a numeric/entity claim
// within the same sentence.
type Contradiction struct {
	Sentence   string
	CitationA  string
	CitationB  string
	ValueA     string
	ValueB     string
}

// sentenceSplit splits on sentence-ending punctuation followed by
// whitespace, a small state-machine-free regex split rather than a full NLP
// sentence tokenizer — no suitable NLP library exists in the pack, and this
// granularity matches react_parser.go's own preference for regex/line-based
// text processing over external parsing libraries.
var sentenceSplit = regexp.MustCompile(`(?:[.!?])\s+`)

// citationPattern matches bracketed citation references like [c1] or [c2, c3].
var citationPattern = regexp.MustCompile(`\[([a-zA-Z0-9, ]+)\]`)

// opinionMarkers are lexical cues that a sentence is subjective rather than
// a checkable factual claim.
var opinionMarkers = []string{"i think", "i believe", "arguably", "in my opinion", "seems to", "might be", "probably"}

// metaMarkers indicate the sentence talks about the answer process itself
// rather than asserting a fact about the world.
var metaMarkers = []string{"this evidence", "based on the sources", "according to the search", "the retrieved"}

// numericClaimPattern extracts a leading numeric token from a sentence —
// used for the contradiction pass's "numeric claim" comparison.
var numericClaimPattern = regexp.MustCompile(`-?\d+(\.\d+)?`)

// ErrCitationRemoved is returned by CheckMonotonicity when a previously
// persisted citation is missing from the revised citation set without an
// explicit revision event (spec §4.5 "verifier refuses silent removal").
var ErrCitationRemoved = errors.New("retrieval: citation removed without a revision event")

// classifySentence applies lexical heuristics to bucket a sentence as
// factual, opinion, or meta. Defaults to factual — verification should err
// toward requiring citations rather than silently excusing claims.
func classifySentence(text string) SentenceKind {
	lower := strings.ToLower(text)
	for _, m := range opinionMarkers {
		if strings.Contains(lower, m) {
			return SentenceOpinion
		}
	}
	for _, m := range metaMarkers {
		if strings.Contains(lower, m) {
			return SentenceMeta
		}
	}
	return SentenceFactual
}

// splitSentences breaks answer text into Sentence values, extracting any
// bracketed citation ids attached to each.
func splitSentences(text string) []Sentence {
	raw := sentenceSplit.Split(strings.TrimSpace(text), -1)
	sentences := make([]Sentence, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		sentences = append(sentences, Sentence{
			Text:      s,
			Kind:      classifySentence(s),
			Citations: extractCitations(s),
		})
	}
	return sentences
}

func extractCitations(sentence string) []string {
	var ids []string
	for _, m := range citationPattern.FindAllStringSubmatch(sentence, -1) {
		for _, part := range strings.Split(m[1], ",") {
			id := strings.TrimSpace(part)
			if id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// Verify implements spec §4.5's verify(answer, evidence):
//   - every factual sentence must cite at least one id present in evidence
//   - citations never referenced by any sentence are reported as warnings
//   - cited items that disagree on a numeric claim within one sentence are
//     flagged as contradictions
func Verify(answer Answer, evidence EvidencePack) VerifyResult {
	byCitation := evidence.ByCitation()
	sentences := splitSentences(answer.Text)

	result := VerifyResult{OK: true}
	referenced := make(map[string]bool)

	for _, s := range sentences {
		if s.Kind != SentenceFactual {
			continue
		}
		validCitation := false
		for _, cid := range s.Citations {
			if _, ok := byCitation[cid]; ok {
				validCitation = true
				referenced[cid] = true
			}
		}
		if !validCitation {
			result.MissingCitations = append(result.MissingCitations, s.Text)
			result.OK = false
		}
		result.Contradictions = append(result.Contradictions, detectContradictions(s, byCitation)...)
	}
	if len(result.Contradictions) > 0 {
		result.OK = false
	}

	for _, cid := range answer.Citations {
		if !referenced[cid] {
			result.UnreferencedCitations = append(result.UnreferencedCitations, cid)
		}
	}
	return result
}

// detectContradictions compares the leading numeric token across every pair
// of items a sentence cites; a mismatch is reported as a contradiction.
func detectContradictions(s Sentence, byCitation map[string]EvidenceItem) []Contradiction {
	if len(s.Citations) < 2 {
		return nil
	}
	var contradictions []Contradiction
	for i := 0; i < len(s.Citations); i++ {
		for j := i + 1; j < len(s.Citations); j++ {
			itemA, okA := byCitation[s.Citations[i]]
			itemB, okB := byCitation[s.Citations[j]]
			if !okA || !okB {
				continue
			}
			valA := numericClaimPattern.FindString(itemA.Text)
			valB := numericClaimPattern.FindString(itemB.Text)
			if valA == "" || valB == "" {
				continue
			}
			if !numericallyEqual(valA, valB) {
				contradictions = append(contradictions, Contradiction{
					Sentence:  s.Text,
					CitationA: s.Citations[i],
					CitationB: s.Citations[j],
					ValueA:    valA,
					ValueB:    valB,
				})
			}
		}
	}
	return contradictions
}

func numericallyEqual(a, b string) bool {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return a == b
	}
	return fa == fb
}

// CheckMonotonicity enforces citation monotonicity across a revision: every
// citation id present in previous must still be present in current, unless
// an explicit revision event authorized the removal.
func CheckMonotonicity(previous, current []string, revisionAuthorized bool) error {
	if revisionAuthorized {
		return nil
	}
	currentSet := make(map[string]bool, len(current))
	for _, c := range current {
		currentSet[c] = true
	}
	for _, p := range previous {
		if !currentSet[p] {
			return ErrCitationRemoved
		}
	}
	return nil
}
