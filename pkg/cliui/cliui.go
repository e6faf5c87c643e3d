// Package cliui provides reusable terminal UI helpers (spinners, step indicators,
// memory badges, markdown rendering) for infctx CLI commands.
package cliui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	SuccessMark = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	WarnMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render("!")

	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	KeyStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("246"))
	ValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	NameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	DimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	StepStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	scoreHighStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	scoreLowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	spinnerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

// categoryStyles colors memory category badges in listings.
var categoryStyles = map[string]lipgloss.Style{
	"architecture": lipgloss.NewStyle().Foreground(lipgloss.Color("176")),
	"decision":     lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	"error":        lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
	"finding":      lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
	"file_change":  lipgloss.NewStyle().Foreground(lipgloss.Color("111")),
	"note":         lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

// spinnerFrames matches bubbletea's spinner.Dot pattern used in the browse TUI.
var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// Step prints an animated spinner while fn runs, then replaces it with
// a ✓ or ✗ checkmark and elapsed time.
func Step(w io.Writer, msg string, fn func() error) error {
	done := make(chan struct{})
	var mu sync.Mutex

	// Run spinner animation in background
	go func() {
		frame := 0
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			mu.Lock()
			fmt.Fprintf(w, "\r  %s %s",
				spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]),
				msg,
			)
			mu.Unlock()

			select {
			case <-done:
				return
			case <-ticker.C:
				frame++
			}
		}
	}()

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	close(done)

	// Clear the spinner line and print final result
	mu.Lock()
	fmt.Fprintf(w, "\r  %s %s %s\n",
		Mark(err),
		msg,
		StepStyle.Render(fmt.Sprintf("(%s)", FormatDuration(elapsed))),
	)
	mu.Unlock()

	return err
}

// Mark returns a ✓ for nil errors or ✗ for non-nil errors.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// StateMark returns a ✓ for true or a dim ○ for false, for feature toggles
// like per-event hook registration.
func StateMark(on bool) string {
	if on {
		return SuccessMark
	}
	return DimStyle.Render("○")
}

// CategoryBadge renders a fixed-width colored [category] tag for memory listings.
func CategoryBadge(category string) string {
	style, ok := categoryStyles[category]
	if !ok {
		style = DimStyle
	}
	return style.Render(fmt.Sprintf("[%-12s]", category))
}

// FormatScore renders a memory salience score, colored by strength.
func FormatScore(score float64) string {
	text := fmt.Sprintf("%.2f", score)
	switch {
	case score >= 0.7:
		return scoreHighStyle.Render(text)
	case score < 0.3:
		return scoreLowStyle.Render(text)
	default:
		return ValueStyle.Render(text)
	}
}

// FormatDuration formats a duration for display (e.g. "12ms" or "3.2s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// FormatRelativeTime renders how long ago t was, coarsely ("3d ago", "2h ago").
func FormatRelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// ProjectLabel shortens an absolute project path to its last two segments
// so listings stay readable ("…/acme/billing").
func ProjectLabel(project string) string {
	project = strings.TrimRight(project, "/")
	parts := strings.Split(project, "/")
	if len(parts) <= 2 {
		return project
	}
	return "…/" + strings.Join(parts[len(parts)-2:], "/")
}

// RenderMarkdown renders markdown content for terminal display using glamour.
func RenderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}

	return rendered, nil
}
