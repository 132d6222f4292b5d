// Package summary displays the end-of-session results.
package summary

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/anand/mathdrill/internal/question"
	"github.com/anand/mathdrill/internal/quiz"
	"github.com/anand/mathdrill/internal/router"
	"github.com/anand/mathdrill/internal/screen"
	"github.com/anand/mathdrill/internal/ui/layout"
	"github.com/anand/mathdrill/internal/ui/theme"
)

// SummaryScreen shows the final score and per-difficulty breakdown.
type SummaryScreen struct {
	sess    *quiz.Session
	restart func() screen.Screen
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a summary screen. restart builds a fresh practice screen
// with the same parameters.
func New(sess *quiz.Session, restart func() screen.Screen) *SummaryScreen {
	return &SummaryScreen{sess: sess, restart: restart}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Summary"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "R", Description: "Play again"},
		{Key: "Enter", Description: "New setup"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "r", "R":
			next := s.restart()
			return s, func() tea.Msg {
				return router.ReplaceScreenMsg{Screen: next}
			}
		case "enter", "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

// tierResult aggregates attempts within one difficulty band.
type tierResult struct {
	attempted int
	correct   int
}

func (s *SummaryScreen) View(width, height int) string {
	sess := s.sess
	if sess == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(theme.Title.Width(width).Render("Session complete!"))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Render(fmt.Sprintf("%s — %s (%s)", sess.Student, sess.Topic, sess.Grade)))
	b.WriteString("\n\n")

	scoreLine := fmt.Sprintf("Score: %d/%d        Accuracy: %.0f%%",
		sess.Score, sess.Total, sess.ScorePercent())
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Accent).
		Bold(true).
		Render(scoreLine))
	b.WriteString("\n\n")

	// Per-difficulty breakdown.
	results := map[question.Tier]*tierResult{}
	for _, att := range sess.History {
		r := results[att.Tier]
		if r == nil {
			r = &tierResult{}
			results[att.Tier] = r
		}
		r.attempted++
		if att.Verdict == quiz.VerdictCorrect {
			r.correct++
		}
	}

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(
		strings.Repeat("─", min(width-8, 50)))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.TextDim).Render("By difficulty")))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
	b.WriteString("\n\n")

	for _, tier := range []question.Tier{question.TierEasy, question.TierMedium, question.TierHard} {
		r := results[tier]
		if r == nil || r.attempted == 0 {
			continue
		}
		line := fmt.Sprintf("  %-8s  %d/%d correct", tier.String(), r.correct, r.attempted)
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if r.correct == r.attempted {
			style = style.Foreground(theme.Success)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")
	}

	return b.String()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
