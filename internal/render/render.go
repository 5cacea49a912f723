// Package render presents result bodies on a terminal.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Mode selects how bodies are printed.
type Mode string

const (
	ModePlain    Mode = "plain"    // body with coloured sentiment and trend
	ModeMarkdown Mode = "markdown" // glamour-rendered Markdown
	ModeNone     Mode = "none"     // body as stored
)

// ParseMode validates a --render value.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModePlain, ModeMarkdown, ModeNone:
		return m, nil
	case "":
		return ModePlain, nil
	default:
		return "", fmt.Errorf("unknown render mode %q (want plain, markdown or none)", s)
	}
}

const (
	sentimentLabel = "Sentiment:"
	trendLabel     = "Trend:"
	wordWrap       = 80
)

var (
	green  = lipgloss.Color("#3FB950")
	red    = lipgloss.Color("#F85149")
	yellow = lipgloss.Color("#D29922")
)

// Painter colours sentiment and trend labels. Colour support is detected
// from the writer it was built for; a non-terminal writer gets plain text.
type Painter struct {
	up, down, flat lipgloss.Style
}

// NewPainter returns a Painter for output written to w.
func NewPainter(w io.Writer) *Painter {
	r := lipgloss.NewRenderer(w)
	return &Painter{
		up:   r.NewStyle().Foreground(green),
		down: r.NewStyle().Foreground(red),
		flat: r.NewStyle().Foreground(yellow),
	}
}

// Sentiment colours a sentiment label: bullish green, bearish red, anything
// else yellow.
func (p *Painter) Sentiment(s string) string {
	l := strings.ToLower(s)
	switch {
	case strings.Contains(l, "bullish"):
		return p.up.Render(s)
	case strings.Contains(l, "bearish"):
		return p.down.Render(s)
	default:
		return p.flat.Render(s)
	}
}

// Trend replaces a trend label with a coloured arrow.
func (p *Painter) Trend(t string) string {
	l := strings.ToLower(t)
	switch {
	case strings.Contains(l, "up"):
		return p.up.Render("↑ Up")
	case strings.Contains(l, "down"):
		return p.down.Render("↓ Down")
	default:
		return p.flat.Render("→ Flat")
	}
}

// Body colours the sentiment and trend values of every line that carries
// them.
func (p *Painter) Body(body string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if idx := strings.LastIndex(line, sentimentLabel); idx >= 0 {
			value := strings.TrimSpace(line[idx+len(sentimentLabel):])
			value = strings.Trim(value, ".")
			if value != "" {
				line = line[:idx] + strings.Replace(line[idx:], value, p.Sentiment(value), 1)
			}
		}
		if idx := strings.Index(line, trendLabel); idx >= 0 {
			rest := line[idx+len(trendLabel):]
			value := strings.TrimSpace(strings.SplitN(rest, "|", 2)[0])
			if value != "" {
				line = line[:idx] + strings.Replace(line[idx:], value, p.Trend(value), 1)
			}
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// Markdown renders body with glamour, picking a style that matches the
// terminal background.
func Markdown(body string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := r.Render(body)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

// Write prints body to w in the given mode.
func Write(w io.Writer, mode Mode, body string) error {
	var out string
	switch mode {
	case ModeNone:
		out = body
	case ModeMarkdown:
		rendered, err := Markdown(body)
		if err != nil {
			return err
		}
		out = rendered
	default:
		out = NewPainter(w).Body(body)
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	_, err := io.WriteString(w, out)
	return err
}
