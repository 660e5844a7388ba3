package ingest

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fathomhq/mediacore/pkg/config"
	"github.com/fathomhq/mediacore/pkg/queue"
	"github.com/fathomhq/mediacore/pkg/stepresult"
)

// Transcriber turns downloaded media bytes into a transcript. Name
// identifies the engine for logging/degradation reasons ("whisper-large",
// "whisper-fast", ...).
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, media []byte, contentType string) (string, error)
}

// TranscriberChain tries Primary, then each of Fallbacks in order, before
// falling back to a line-per-second plaintext degradation (spec §4.8 stage
// 3: "primary ASR engine; if unavailable/slow, optional faster engine;
// final fallback is a line-per-second plaintext degradation path that emits
// a degraded event rather than failing").
type TranscriberChain struct {
	Primary   Transcriber
	Fallbacks []Transcriber
}

// stageTranscription is stage 3, single-flighted per job id so two workers
// racing on a duplicate-enqueued job never transcribe the same media twice
// concurrently (spec §4.8 "stage 3 is CPU/IO heavy, single-flighted per
// job").
func (p *Pipeline) stageTranscription(ctx context.Context, job queue.Job, st *jobState) stepresult.Result {
	start := time.Now()

	if st.transcriptHint != "" {
		st.transcript = st.transcriptHint
		return finish("transcription", start, stepresult.OkWithMetrics(nil, stepresult.Metrics{"source": 0})) // 0 = cached hint
	}
	if len(st.mediaBytes) == 0 {
		return finish("transcription", start, stepresult.Failf(config.ErrNotFound, fmt.Errorf("ingest: no media bytes and no transcript hint available")))
	}

	v, err, _ := p.inflight.Do(job.JobID, func() (any, error) {
		return p.transcribe(ctx, st)
	})
	if err != nil {
		return finish("transcription", start, stepresult.Failf(config.ErrInternal, err))
	}
	outcome := v.(transcribeOutcome)
	st.transcript = outcome.text
	if outcome.degradedReason != "" {
		st.degradations = append(st.degradations, degradation{Stage: "transcription", Reason: outcome.degradedReason})
		emitDegradation("transcription", outcome.degradedReason)
	}
	return finish("transcription", start, stepresult.OkWithMetrics(nil, stepresult.Metrics{"source": 1, "chars": float64(len(outcome.text))}))
}

type transcribeOutcome struct {
	text           string
	degradedReason string
}

// transcribe never fails: the final line-per-second plaintext fallback
// always produces *something*, per spec §4.8 ("emits a degraded event
// rather than failing").
func (p *Pipeline) transcribe(ctx context.Context, st *jobState) (any, error) {
	chain, ok := p.transcriber.(*TranscriberChain)
	if !ok {
		text, err := p.transcriber.Transcribe(ctx, st.mediaBytes, st.mediaContentType)
		if err != nil {
			return transcribeOutcome{text: degradeToPlaintext(st.mediaBytes), degradedReason: "transcription_failed:" + p.transcriber.Name()}, nil
		}
		return transcribeOutcome{text: text}, nil
	}

	engines := append([]Transcriber{chain.Primary}, chain.Fallbacks...)
	for _, engine := range engines {
		if engine == nil {
			continue
		}
		text, err := engine.Transcribe(ctx, st.mediaBytes, st.mediaContentType)
		if err == nil {
			return transcribeOutcome{text: text}, nil
		}
	}
	return transcribeOutcome{text: degradeToPlaintext(st.mediaBytes), degradedReason: "transcription_failed:all_engines_exhausted"}, nil
}

// degradeToPlaintext treats the raw bytes as line-oriented text and assigns
// one line per second, the last-resort degradation path spec §4.8 names
// explicitly. Lines containing control characters are skipped rather than
// garbling binary data into the transcript, so wholly non-text media
// degrades to an empty transcript.
func degradeToPlaintext(media []byte) string {
	if len(media) == 0 {
		return ""
	}
	scanner := bufio.NewScanner(strings.NewReader(string(media)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	var b strings.Builder
	second := 0
	for scanner.Scan() {
		line := scanner.Text()
		if !isPrintableText(line) {
			continue
		}
		fmt.Fprintf(&b, "[%02d:%02d] %s\n", second/60, second%60, line)
		second++
	}
	return b.String()
}

func isPrintableText(s string) bool {
	for _, r := range s {
		if r < 0x09 || (r > 0x0d && r < 0x20) {
			return false
		}
	}
	return true
}
