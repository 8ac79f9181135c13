// internal/tui/view.go
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/hunger/internal/session"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	messageStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230"))
	cardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 2)
	overlayStyle = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("205")).Padding(0, 1)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// sparkBars are the glyphs used for the accuracy chart, lowest first.
var sparkBars = []rune("▁▂▃▄▅▆▇█")

// View renders the current screen.
func (m *model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var builder strings.Builder
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		renderPredictionBadge(m.state),
		renderPredictorBadge(m.status),
		renderRuleBadge(m.opts.Rule),
	)
	builder.WriteString(header + "\n")
	if m.relayMode() {
		builder.WriteString(renderConnectionBanner(m.connected) + "\n")
	}
	builder.WriteString("\n")

	if m.state.ShowResults {
		builder.WriteString(overlayStyle.Render(m.viewport.View()))
		builder.WriteString("\n" + hintStyle.Render(" (esc or r to close, ↑/↓ to scroll, q to quit)"))
		return builder.String()
	}

	switch m.state.View {
	case session.Loading:
		builder.WriteString(m.loadingView())
	case session.Prompt:
		builder.WriteString(m.promptView())
	case session.FollowUp:
		builder.WriteString(m.followUpView())
	default:
		builder.WriteString("Unknown state")
	}

	if m.latest != nil {
		builder.WriteString("\n\n" + m.windowLine())
	}
	builder.WriteString("\n" + hintStyle.Render(" (q to quit)"))
	return builder.String()
}

func (m *model) loadingView() string {
	timer := fmt.Sprintf("%.1f", time.Since(m.loadingSince).Seconds())
	text := fmt.Sprintf("  %s Waiting for a prediction... %ss", m.spinner.View(), timer)
	if m.lastErr != nil {
		text += "\n" + errorStyle.Render(fmt.Sprintf("  Last request failed: %v", m.lastErr))
	}
	return text
}

func (m *model) promptView() string {
	ask := session.NoPredLabel
	if p := m.state.Prediction; p != nil {
		ask = m.opts.Rule.Prompt(*p)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(ask),
		hintStyle.Render(session.PromptHint),
		"",
		"  (y) Yes    (n) No",
	)
}

func (m *model) followUpView() string {
	lines := []string{messageStyle.Render(m.state.Message)}
	if s := m.state.Suggestion; s != nil {
		lines = append(lines, cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(s.String()),
			hintStyle.Render(s.Tip),
		)))
		if !m.state.AnotherShown {
			lines = append(lines, "  (a) Another option")
		}
	}
	lines = append(lines, "", "  (r) Results    (c) Continue")
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *model) windowLine() string {
	if m.summary.Count == 0 {
		return hintStyle.Render(fmt.Sprintf("Latest window: empty @ %s", m.latest.TS))
	}
	return hintStyle.Render(fmt.Sprintf("Latest window: %d samples, mean %.1f bpm (%.0f-%.0f) @ %s",
		m.summary.Count, m.summary.Mean, m.summary.Min, m.summary.Max, m.latest.TS))
}

// resultsContent renders the accuracy overlay body.
func (m *model) resultsContent() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Results") + "\n\n")
	b.WriteString(fmt.Sprintf("Accuracy: %.1f%% (%d of %d)\n", m.state.Accuracy, m.state.Correct, m.state.Total))
	b.WriteString(hintStyle.Render("Rule: "+m.opts.Rule.Describe()) + "\n\n")
	b.WriteString("History  " + sparkline(m.state.Percentages()) + "\n\n")
	for _, rec := range m.state.History {
		b.WriteString(fmt.Sprintf("  #%-3d %6.1f%%\n", rec.Attempt, rec.Percentage))
	}
	return b.String()
}

// sparkline draws percentages in [0, 100] as a row of block glyphs.
func sparkline(values []float64) string {
	if len(values) == 0 {
		return "(no answers yet)"
	}
	var b strings.Builder
	top := len(sparkBars) - 1
	for _, v := range values {
		i := int(math.Round(v / 100 * float64(top)))
		i = min(max(i, 0), top)
		b.WriteRune(sparkBars[i])
	}
	return b.String()
}
