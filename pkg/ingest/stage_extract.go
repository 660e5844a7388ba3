package ingest

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/fathomhq/mediacore/pkg/queue"
	"github.com/fathomhq/mediacore/pkg/stepresult"
)

var hashtagPattern = regexp.MustCompile(`#[A-Za-z][A-Za-z0-9_]{1,39}`)

// stopwords excludes common function words from the naive keyword pass, so
// keywords skew toward content words (spec §4.8 stage 6's "keyword
// extraction").
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "to": true,
	"of": true, "in": true, "on": true, "for": true, "with": true, "at": true,
	"this": true, "that": true, "it": true, "as": true, "by": true, "from": true,
}

// topicKeywords maps a small fixed set of naive topic categories to the
// keywords that trigger them (spec §4.8 stage 6's "naive topic
// categorization" — a real implementation would use a classifier; this
// module has none in its dependency pack, so it stays a closed keyword
// lookup, documented in DESIGN.md).
var topicKeywords = map[string][]string{
	"technology": {"software", "ai", "computer", "app", "code", "tech"},
	"politics":   {"election", "government", "senate", "policy", "vote"},
	"finance":    {"market", "stock", "inflation", "economy", "investment"},
	"health":     {"health", "medical", "doctor", "disease", "vaccine"},
}

// stageExtraction is stage 6: hashtag/keyword extraction plus naive topic
// categorization, per chunk (spec §4.8 stage 6).
func (p *Pipeline) stageExtraction(ctx context.Context, job queue.Job, st *jobState) stepresult.Result {
	start := time.Now()

	if len(st.chunks) == 0 {
		return finish("topic_claim_extraction", start, stepresult.SkipWith("no chunks to extract from"))
	}

	extracted := make([]ExtractedChunk, 0, len(st.chunks))
	for _, chunk := range st.chunks {
		extracted = append(extracted, ExtractedChunk{
			Chunk:    chunk,
			Hashtags: extractHashtags(chunk.Text),
			Keywords: extractKeywords(chunk.Text),
			Topics:   categorizeTopics(chunk.Text),
		})
	}
	st.extracted = extracted

	return finish("topic_claim_extraction", start, stepresult.OkWithMetrics(nil, stepresult.Metrics{"chunk_count": float64(len(extracted))}))
}

func extractHashtags(text string) []string {
	return dedupeStrings(hashtagPattern.FindAllString(text, -1))
}

// extractKeywords is a naive frequency-based keyword pass: lowercase,
// strip stopwords and short tokens, keep the top candidates by count.
func extractKeywords(text string) []string {
	counts := make(map[string]int)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'()")
		if len(word) < 4 || stopwords[word] {
			continue
		}
		counts[word]++
	}

	var ranked []wordCount
	for w, c := range counts {
		ranked = append(ranked, wordCount{w, c})
	}
	sortByCountDesc(ranked)

	limit := 10
	if len(ranked) < limit {
		limit = len(ranked)
	}
	out := make([]string, 0, limit)
	for _, r := range ranked[:limit] {
		out = append(out, r.word)
	}
	return out
}

type wordCount struct {
	word  string
	count int
}

func sortByCountDesc(ranked []wordCount) {
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].count > ranked[j-1].count; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
}

func categorizeTopics(text string) []string {
	lower := strings.ToLower(text)
	var topics []string
	for topic, keywords := range topicKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				topics = append(topics, topic)
				break
			}
		}
	}
	return topics
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
