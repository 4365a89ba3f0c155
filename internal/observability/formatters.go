// Package observability provides logging setup and formatted terminal output for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jonathan/signal-agent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 64
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

var (
	accent  = lipgloss.Color("#D97706")
	dim     = lipgloss.Color("#6B7280")
	success = lipgloss.Color("#22C55E")
	danger  = lipgloss.Color("#EF4444")
)

// Printer handles formatted output for stage summaries
type Printer struct {
	out      io.Writer
	box      lipgloss.Style
	title    lipgloss.Style
	dimStyle lipgloss.Style
	pass     lipgloss.Style
	fail     lipgloss.Style
}

// NewPrinter creates a new Printer that writes to the given writer.
// Colors are only emitted when out is a terminal.
func NewPrinter(out io.Writer) *Printer {
	r := lipgloss.NewRenderer(out)
	return &Printer{
		out: out,
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1).
			Width(boxWidth),
		title:    r.NewStyle().Bold(true).Foreground(accent),
		dimStyle: r.NewStyle().Foreground(dim),
		pass:     r.NewStyle().Foreground(success),
		fail:     r.NewStyle().Foreground(danger),
	}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = truncate(line, boxWidth-4)
	}
	body := p.title.Render(title) + "\n\n" + strings.Join(lines, "\n")
	fmt.Fprintln(p.out, p.box.Render(body))
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}

func (p *Printer) status(ok bool) string {
	if ok {
		return p.pass.Render("ok")
	}
	return p.fail.Render("not ok")
}

// PrintScrape outputs the collected pages of a scrape result.
func (p *Printer) PrintScrape(res *types.ScrapeResult) {
	if res == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Status: %s\n", p.status(res.OK)))
	if len(res.Why) > 0 {
		sb.WriteString(fmt.Sprintf("Why:    %s\n", strings.Join(res.Why, ", ")))
	}

	paths := res.Paths()
	sb.WriteString(fmt.Sprintf("Pages:  %d\n", len(paths)))
	count := min(len(paths), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s (%d bytes)\n", paths[i], len(res.Pages[paths[i]])))
	}
	if len(paths) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(paths)-maxItemsToShow))
	}

	p.printBox("SCRAPE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintValidate outputs the validator's verdict.
func (p *Printer) PrintValidate(res *types.ValidateResult) {
	if res == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Status:     %s\n", p.status(res.OK)))
	if len(res.Why) > 0 {
		sb.WriteString(fmt.Sprintf("Why:        %s\n", strings.Join(res.Why, "; ")))
	}
	if res.SignalType != "" {
		sb.WriteString(fmt.Sprintf("Signal:     %s\n", res.SignalType))
	}
	if res.EvidenceURL != "" {
		sb.WriteString(fmt.Sprintf("Evidence:   %s\n", res.EvidenceURL))
	}
	if res.PublishedAt != nil {
		sb.WriteString(fmt.Sprintf("Published:  %s\n", res.PublishedAt.Format(time.DateOnly)))
	}
	sb.WriteString(fmt.Sprintf("Confidence: %.2f\n", res.Confidence))
	if res.Snippet != "" {
		sb.WriteString("\n" + res.Snippet)
	}

	p.printBox("VALIDATE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCard outputs an evidence card.
func (p *Printer) PrintCard(card *types.EvidenceCard) {
	if card == nil {
		p.printBox("EVIDENCE CARD", p.dimStyle.Render("no signal found"))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Signal:     %s\n", card.SignalType))
	sb.WriteString(fmt.Sprintf("URL:        %s\n", card.CanonicalURL))
	if card.SourceSite != "" {
		sb.WriteString(fmt.Sprintf("Site:       %s\n", card.SourceSite))
	}
	sb.WriteString(fmt.Sprintf("First seen: %s\n", card.FirstSeen.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Confidence: %.3f\n", card.Confidence))
	sb.WriteString(fmt.Sprintf("Explain:    %s\n", card.Explain))
	if card.ScreenshotPath != "" {
		sb.WriteString(fmt.Sprintf("Screenshot: %s\n", card.ScreenshotPath))
	}
	if card.Snippet != "" {
		sb.WriteString("\n" + card.Snippet)
	}

	p.printBox("EVIDENCE CARD", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintEmail outputs a drafted email, or a note that the gate held it back.
func (p *Printer) PrintEmail(draft *types.EmailDraft) {
	if draft == nil {
		p.printBox("EMAIL", p.dimStyle.Render("not drafted (below confidence threshold)"))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Subject: %s\n\n", draft.Subject))
	sb.WriteString(draft.Body)
	if draft.CallToAction != "" {
		sb.WriteString("\n\n" + draft.CallToAction)
	}

	p.printBox("EMAIL", sb.String())
}

// PrintScore outputs the result of scoring a single snippet.
func (p *Printer) PrintScore(weight, confidence float64, explain string) {
	content := fmt.Sprintf("Freshness:  %.2f\nConfidence: %.3f\nExplain:    %s", weight, confidence, explain)
	p.printBox("SCORE", content)
}

// PrintWarnings outputs advisory findings, such as draft style violations.
func (p *Printer) PrintWarnings(title string, warnings []string) {
	if len(warnings) == 0 {
		return
	}

	var sb strings.Builder
	for i, w := range warnings {
		sb.WriteString(fmt.Sprintf("⚠ %s", w))
		if i < len(warnings)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox(title, sb.String())
}

// RunSummary is the end-of-batch tally shown to the operator
type RunSummary struct {
	RunID   string
	Domains int
	Cards   int
	Emails  int
	Failed  []string
	Output  string
	Elapsed time.Duration
}

// PrintRunSummary outputs the batch tally.
func (p *Printer) PrintRunSummary(s RunSummary) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:      %s\n", s.RunID))
	sb.WriteString(fmt.Sprintf("Domains:  %d\n", s.Domains))
	sb.WriteString(fmt.Sprintf("Cards:    %d\n", s.Cards))
	sb.WriteString(fmt.Sprintf("Emails:   %d\n", s.Emails))
	if s.Elapsed > 0 {
		sb.WriteString(fmt.Sprintf("Elapsed:  %s\n", s.Elapsed.Round(time.Second)))
	}
	if s.Output != "" {
		sb.WriteString(fmt.Sprintf("Output:   %s\n", s.Output))
	}

	if len(s.Failed) > 0 {
		sb.WriteString(fmt.Sprintf("\nFailed (%d):\n", len(s.Failed)))
		count := min(len(s.Failed), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", s.Failed[i]))
		}
		if len(s.Failed) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(s.Failed)-maxItemsToShow))
		}
	}

	p.printBox("RUN SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}
