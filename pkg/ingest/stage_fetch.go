package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fathomhq/mediacore/pkg/config"
	"github.com/fathomhq/mediacore/pkg/connector"
	"github.com/fathomhq/mediacore/pkg/queue"
	"github.com/fathomhq/mediacore/pkg/stepresult"
)

// stageFetchMetadata is stage 1: fetch metadata & an optional cached
// transcript hint from the job's source connector (spec §4.8 stage 1).
func (p *Pipeline) stageFetchMetadata(ctx context.Context, job queue.Job, st *jobState) stepresult.Result {
	start := time.Now()

	conn, ok := p.connectors.Connector(job.SourceKind)
	if !ok {
		return finish("fetch_metadata", start, stepresult.Failf(config.ErrConfigInvalid,
			fmt.Errorf("ingest: no connector registered for source kind %q", job.SourceKind)))
	}
	item := connector.DiscoveryItem{ExternalID: job.ExternalID, URL: job.URL}

	meta, err := conn.FetchMetadata(ctx, item)
	if err != nil {
		return finish("fetch_metadata", start, classifyConnectorError(err))
	}
	st.metadata = meta

	transcript, err := conn.FetchTranscript(ctx, item)
	if err != nil {
		// A missing cached transcript is not fatal — stage 3 will produce one.
		return finish("fetch_metadata", start, stepresult.OkWithMetrics(meta, stepresult.Metrics{"had_transcript_hint": 0}))
	}
	st.transcriptHint = transcript
	return finish("fetch_metadata", start, stepresult.OkWithMetrics(meta, stepresult.Metrics{"had_transcript_hint": 1}))
}

// stageMediaDownload is stage 2: download the source media (if a transcript
// hint wasn't already available) through the resilient HTTP client, which
// enforces the allowed-host SSRF guard; size cap and content-type are
// enforced here since Stream bypasses Get's body-draining cap.
func (p *Pipeline) stageMediaDownload(ctx context.Context, job queue.Job, st *jobState) stepresult.Result {
	start := time.Now()

	if st.transcriptHint != "" {
		return finish("media_download", start, stepresult.SkipWith("transcript hint already available"))
	}
	if job.URL == "" {
		return finish("media_download", start, stepresult.Failf(config.ErrNotFound, fmt.Errorf("ingest: job has no media URL to download")))
	}

	resp, err := p.http.Stream(ctx, job.URL)
	if err != nil {
		return finish("media_download", start, stepresult.Failf(config.ErrTransientNetwork, fmt.Errorf("ingest: download %s: %w", job.URL, err)))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		kind := config.ErrBackendUnavailable
		if resp.StatusCode == 404 {
			kind = config.ErrNotFound
		} else if resp.StatusCode == 401 || resp.StatusCode == 403 {
			kind = config.ErrAuthExpired
		} else if resp.StatusCode == 429 {
			kind = config.ErrRateLimited
		}
		return finish("media_download", start, stepresult.Failf(kind, fmt.Errorf("ingest: download %s: status %d", job.URL, resp.StatusCode)))
	}

	contentType := resp.Header.Get("Content-Type")
	if !isAllowedMediaContentType(contentType) {
		return finish("media_download", start, stepresult.Failf(config.ErrContentTypeForbid, fmt.Errorf("ingest: content type %q forbidden for %s", contentType, job.URL)))
	}

	maxBytes := p.maxDownloadBytes()
	limited := io.LimitReader(resp.Body, maxBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return finish("media_download", start, stepresult.Failf(config.ErrTransientNetwork, fmt.Errorf("ingest: read download body: %w", err)))
	}
	if int64(len(body)) > maxBytes {
		return finish("media_download", start, stepresult.Failf(config.ErrContentTooLarge, fmt.Errorf("ingest: download %s exceeds %d byte cap", job.URL, maxBytes)))
	}

	st.mediaBytes = body
	st.mediaContentType = contentType
	return finish("media_download", start, stepresult.OkWithMetrics(nil, stepresult.Metrics{"bytes": float64(len(body))}))
}

func (p *Pipeline) maxDownloadBytes() int64 {
	if p.cfg != nil && p.cfg.Ingest.MaxDownloadBytes > 0 {
		return p.cfg.Ingest.MaxDownloadBytes
	}
	return 500 << 20
}

func isAllowedMediaContentType(contentType string) bool {
	if contentType == "" {
		return true // some connectors/CDNs omit it; don't fail closed on absence alone
	}
	for _, prefix := range []string{"audio/", "video/", "application/octet-stream"} {
		if len(contentType) >= len(prefix) && contentType[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// classifyConnectorError maps a connector error into the failure taxonomy
// (spec §4.8): rate limiting is retried by C1's resilience layer upstream of
// the worker, not here, so it surfaces as its own error kind rather than
// being silently absorbed.
func classifyConnectorError(err error) stepresult.Result {
	if errors.Is(err, connector.ErrRateLimited) {
		return stepresult.Failf(config.ErrRateLimited, err)
	}
	return stepresult.Failf(config.ErrBackendUnavailable, err)
}
