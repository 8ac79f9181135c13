// internal/tui/status.go
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/hunger/internal/predictor"
	"github.com/mwiater/hunger/internal/session"
)

// predictorStatus names the kind of predictor behind the UI.
type predictorStatus string

const (
	predictorStatusRemote predictorStatus = "remote"
	predictorStatusMock   predictorStatus = "mock"
)

// derivePredictorStatus looks through decorators to find the concrete predictor.
func derivePredictorStatus(p predictor.Predictor) predictorStatus {
	if _, ok := unwrapPredictor(p).(*predictor.Mock); ok {
		return predictorStatusMock
	}
	return predictorStatusRemote
}

func unwrapPredictor(p predictor.Predictor) predictor.Predictor {
	for {
		if p == nil {
			return nil
		}
		if wrapper, ok := p.(interface{ Wrapped() predictor.Predictor }); ok {
			next := wrapper.Wrapped()
			if next == p {
				return p
			}
			p = next
			continue
		}
		return p
	}
}

// renderConnectionBanner renders the watch connection line and, when
// disconnected, the hint below it.
func renderConnectionBanner(connected bool) string {
	if connected {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("40")).Bold(true).Render("Connected ✅")
	}
	banner := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true).Render("Not Connected")
	hint := lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Render("Check the connection to your Apple Watch")
	return lipgloss.JoinVertical(lipgloss.Left, banner, hint)
}

// renderPredictionBadge shows the latest model output.
func renderPredictionBadge(s session.State) string {
	badgeStyle := lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1)
	return badgeStyle.Render("Latest model output: " + s.PredictionLabel())
}

// renderPredictorBadge shows which predictor is answering.
func renderPredictorBadge(status predictorStatus) string {
	label := "Predictor: remote"
	if status == predictorStatusMock {
		label = "Predictor: mock"
	}
	badgeStyle := lipgloss.NewStyle().Background(lipgloss.Color("229")).Foreground(lipgloss.Color("0")).Padding(0, 1).MarginLeft(1)
	return badgeStyle.Render(label)
}

// renderRuleBadge shows the active agreement rule.
func renderRuleBadge(rule session.Rule) string {
	badgeStyle := lipgloss.NewStyle().Background(lipgloss.Color("255")).Foreground(lipgloss.Color("0")).Padding(0, 1).MarginLeft(1)
	return badgeStyle.Render("Rule: " + string(rule))
}
