package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonathan/signal-agent/internal/evidence"
	"github.com/jonathan/signal-agent/internal/llm/llmtest"
	"github.com/jonathan/signal-agent/internal/tools/toolstest"
)

var testNow = time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)

// fetchCalls is a scraper reply requesting each path of domain
func fetchCalls(domain string, paths ...string) string {
	lines := make([]string, 0, len(paths))
	for _, p := range paths {
		lines = append(lines, fmt.Sprintf(`{"tool": "fetch", "args": {"url": "https://%s%s"}}`, domain, p))
	}
	return strings.Join(lines, "\n")
}

const scrapeAnswer = `{"ok": true, "why": [], "pages": {"/": "...", "/news": "..."}, "urls": {}}`

func validatorReply(signal, evidenceURL, snippet, published string) string {
	b, _ := json.Marshal(map[string]any{
		"ok":           true,
		"why":          []string{"page announcement"},
		"signal_type":  signal,
		"evidence_url": evidenceURL,
		"snippet":      snippet,
		"published_at": published,
		"confidence":   0.8,
	})
	return "Answer:\n" + string(b)
}

const draftReply = `{"subject": "Congrats on the news at X", "body": "Hi X, saw the update on your site.\n\nWould a short walkthrough help?"}`

// harness wires scripted models and a fixed site into RunOptions
type harness struct {
	site      *toolstest.Site
	validator *llmtest.Scripted
	outbound  *llmtest.Scripted

	mu     sync.Mutex
	events []ProgressEvent
}

// newsSite serves a home page and a news page carrying text
func newsSite(domain, text, published string) *toolstest.Site {
	news := toolstest.Page("News", fmt.Sprintf(`<time datetime="%s">%s</time><p>%s.</p>`, published, published, text))
	return toolstest.NewSite(map[string]string{
		"https://" + domain + "/":     toolstest.Page("Home", "<p>Welcome.</p>"),
		"https://" + domain + "/news": news,
	})
}

// signalHarness scripts a two-step scrape followed by validatorReplies
func signalHarness(domain, text, published string, validatorReplies ...string) *harness {
	replies := append([]string{fetchCalls(domain, "/", "/news"), scrapeAnswer}, validatorReplies...)
	return &harness{
		site:      newsSite(domain, text, published),
		validator: llmtest.NewScripted(replies...),
		outbound:  llmtest.NewScripted(draftReply),
	}
}

func (h *harness) options() RunOptions {
	opts := DefaultRunOptions()
	opts.Validator = h.validator
	opts.Outbound = h.outbound
	opts.Web = h.site
	opts.CandidatePaths = []string{"/", "/news"}
	opts.Cards = evidence.NewBuilder(evidence.WithClock(func() time.Time { return testNow }))
	opts.OnProgress = func(e ProgressEvent) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.events = append(h.events, e)
	}
	return opts
}

func (h *harness) eventSteps() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.events))
	for _, e := range h.events {
		out = append(out, e.Step)
	}
	return out
}
