// Package enrich produces a short natural-language summary for a
// matched document by fetching its linked content live.
//
// The pipeline is a linear state machine — classify, extract, summarize
// — that always reaches a terminal state. Every external call (page
// fetch, caption track, summarization provider) is untrusted and fails
// independently; a failed stage degrades the output to a fixed-format
// explanatory string instead of aborting the search that triggered it.
package enrich

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/syncmind/syncmind/internal/log"
)

// Fixed-format failure strings attached in place of a genuine summary
// when a stage fails. Downstream consumers rely on the summary field
// always being present, so these are part of the contract.
const (
	failExtractPrefix    = "Failed to extract content: "
	failTranscriptPrefix = "Failed to extract transcript: "
	failSummarizePrefix  = "Failed to summarize: "
)

// Defaults for pipeline configuration.
const (
	DefaultFetchTimeout = 10 * time.Second
	DefaultUserAgent    = "Mozilla/5.0"
	DefaultLang         = "en"
)

// Summarizer produces a concise summary of arbitrary text. Implemented
// by the OpenRouter client; treated as an unreliable remote call.
type Summarizer interface {
	Summarize(ctx context.Context, content string) (string, error)
}

// Config configures the enrichment pipeline.
type Config struct {
	FetchTimeout      time.Duration // page/transcript fetch bound; DefaultFetchTimeout when zero
	UserAgent         string        // DefaultUserAgent when empty
	TranscriptLang    string        // DefaultLang when empty
	TranscriptBaseURL string        // DefaultTranscriptBaseURL when empty
}

// Pipeline runs classify → extract → summarize for one link.
//
// Pipeline is safe for concurrent use by multiple goroutines.
type Pipeline struct {
	summarizer        Summarizer
	client            *http.Client
	userAgent         string
	transcriptLang    string
	transcriptBaseURL string
	markdown          goldmark.Markdown
	logger            log.Logger
}

// New creates an enrichment pipeline.
func New(summarizer Summarizer, cfg Config, logger log.Logger) *Pipeline {
	if logger == nil {
		logger = log.NewNop()
	}

	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	lang := cfg.TranscriptLang
	if lang == "" {
		lang = DefaultLang
	}
	baseURL := cfg.TranscriptBaseURL
	if baseURL == "" {
		baseURL = DefaultTranscriptBaseURL
	}

	return &Pipeline{
		summarizer:        summarizer,
		client:            &http.Client{Timeout: timeout},
		userAgent:         userAgent,
		transcriptLang:    lang,
		transcriptBaseURL: baseURL,
		markdown:          goldmark.New(),
		logger:            logger,
	}
}

// Summary produces a summary of the content behind link. The result is
// always non-empty: extraction or summarization failures degrade to a
// fixed-format explanatory string.
func (p *Pipeline) Summary(ctx context.Context, link string) string {
	var content string

	switch Classify(link) {
	case KindVideo:
		text, err := p.videoTranscript(ctx, link)
		if err != nil {
			p.logger.Warn("transcript extraction failed", "link", link, "error", err)
			content = failTranscriptPrefix + err.Error()
		} else {
			content = text
		}
	default:
		text, err := p.webpageText(ctx, link)
		if err != nil {
			p.logger.Warn("content extraction failed", "link", link, "error", err)
			content = failExtractPrefix + err.Error()
		} else {
			content = text
		}
	}

	return p.summarizeContent(ctx, content)
}

// SummaryFromText summarizes raw text directly, skipping fetch and
// extraction. Used for social-post queries.
func (p *Pipeline) SummaryFromText(ctx context.Context, text string) string {
	return p.summarizeContent(ctx, text)
}

// summarizeContent runs the final stage: provider call, markdown
// rendering, whitespace normalization. Provider failure degrades to the
// fixed failure string; it is never retried.
func (p *Pipeline) summarizeContent(ctx context.Context, content string) string {
	raw, err := p.summarizer.Summarize(ctx, content)
	if err != nil {
		p.logger.Warn("summarization failed", "error", err)
		return failSummarizePrefix + err.Error()
	}
	return normalizeSummary(p.renderHTML(raw))
}

// renderHTML converts the provider's (possibly markdown-formatted)
// output to HTML. Rendering failure falls back to the raw text.
func (p *Pipeline) renderHTML(raw string) string {
	var buf bytes.Buffer
	if err := p.markdown.Convert([]byte(raw), &buf); err != nil {
		p.logger.Warn("rendering summary markdown failed", "error", err)
		return raw
	}
	return buf.String()
}

// normalizeSummary collapses line breaks and repeated spaces so the
// summary reads as a single line.
func normalizeSummary(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
