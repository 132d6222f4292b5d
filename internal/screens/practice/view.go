package practice

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/anand/mathdrill/internal/question"
	"github.com/anand/mathdrill/internal/ui/components"
	"github.com/anand/mathdrill/internal/ui/theme"
)

func (p *PracticeScreen) View(width, height int) string {
	if p.errMsg != "" {
		return renderError(width, p.errMsg)
	}
	if p.sess == nil {
		return renderLoading(width)
	}

	switch p.phase {
	case phaseQuitConfirm:
		return renderQuitConfirm(width)
	case phaseParams:
		return p.renderParams(width)
	case phaseFinished:
		return p.renderFinished(width)
	default:
		return p.renderQuestion(width)
	}
}

func (p *PracticeScreen) renderQuestion(width int) string {
	sess := p.sess
	var b strings.Builder

	// Progress and difficulty line.
	bar := components.NewProgressBar(
		fmt.Sprintf("  Question %d of %d", min(sess.Index, sess.Total), sess.Total),
		float64(sess.Index-1)/float64(sess.Total),
		width-20,
	)
	b.WriteString(bar.View())
	b.WriteString("\n")

	if sess.Current != nil {
		b.WriteString(lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Render(fmt.Sprintf("  Difficulty: %s   Topic: %s (%s)", sess.Current.Tier, sess.Topic, sess.Grade)))
		b.WriteString("\n")
	}
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	if p.phase == phaseLoading || sess.Current == nil {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("Thinking of a good question..."))
		if p.hint != "" {
			b.WriteString("\n\n")
			b.WriteString(theme.Incorrect.Width(width).Align(lipgloss.Center).Render(p.hint))
		}
		return b.String()
	}

	q := sess.Current

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Bold(true).
		Render(q.Text))
	b.WriteString("\n\n")

	if p.phase == phaseGraded {
		b.WriteString(p.renderFeedback(width, q))
	} else {
		answerLine := "Answer: " + p.input.View()
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, answerLine))
		if p.hint != "" {
			b.WriteString("\n\n")
			b.WriteString(theme.Hint.Width(width).Align(lipgloss.Center).Render(p.hint))
		}
	}

	return b.String()
}

func (p *PracticeScreen) renderFeedback(width int, q *question.Question) string {
	sess := p.sess
	var b strings.Builder

	if strings.HasPrefix(sess.Feedback, "Correct") {
		b.WriteString(theme.Correct.Width(width).Align(lipgloss.Center).Render("Correct!"))
	} else {
		b.WriteString(theme.Incorrect.Width(width).Align(lipgloss.Center).Render("Not quite"))
		if q.Gradeable() {
			b.WriteString("\n")
			b.WriteString(lipgloss.NewStyle().
				Width(width).
				Align(lipgloss.Center).
				Foreground(theme.TextDim).
				Render(fmt.Sprintf("Correct answer: %s", q.ReferenceAnswer)))
		} else {
			b.WriteString("\n")
			b.WriteString(lipgloss.NewStyle().
				Width(width).
				Align(lipgloss.Center).
				Foreground(theme.TextDim).
				Render("This one couldn't be graded automatically."))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(theme.Hint.Width(width).Align(lipgloss.Center).
		Render("Enter for the next question"))

	return b.String()
}

func (p *PracticeScreen) renderParams(width int) string {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(theme.Title.Width(width).Render("Change topic or grade"))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Width(width).
		Render("The current question is regenerated; your progress stays."))
	b.WriteString("\n\n")

	gradeLabel := lipgloss.NewStyle().Foreground(theme.Text)
	topicLabel := lipgloss.NewStyle().Foreground(theme.Text)
	if p.paramFocus == 0 {
		gradeLabel = theme.Selected
	} else {
		topicLabel = theme.Selected
	}

	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		gradeLabel.Render("Grade:")+"  "+p.paramGrade.View()))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		topicLabel.Render("Topic:")+"  "+p.paramTopic.View()))

	return b.String()
}

func (p *PracticeScreen) renderFinished(width int) string {
	sess := p.sess
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(theme.Title.Width(width).Render("Session complete!"))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Render(sess.Feedback))
	b.WriteString("\n\n")
	b.WriteString(theme.Hint.Width(width).Align(lipgloss.Center).
		Render("Press any key for the summary"))
	return b.String()
}

func renderQuitConfirm(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Bold(true).
		Render("End session early?"))
	b.WriteString("\n\n")
	b.WriteString(theme.Correct.Width(width).Align(lipgloss.Center).Render("[Y] Yes, end session"))
	b.WriteString("\n")
	b.WriteString(theme.Selected.Width(width).Align(lipgloss.Center).Render("[N] No, keep going"))
	return b.String()
}

func renderLoading(width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("\n\n\n  Starting your session...")
}

func renderError(width int, errMsg string) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Error).
		Render(fmt.Sprintf("\n\n\n  Error: %s\n\n  Press any key to go back.", errMsg))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
