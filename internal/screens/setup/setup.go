// Package setup implements the session parameter entry screen.
package setup

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/anand/mathdrill/internal/router"
	"github.com/anand/mathdrill/internal/screen"
	"github.com/anand/mathdrill/internal/ui/components"
	"github.com/anand/mathdrill/internal/ui/layout"
	"github.com/anand/mathdrill/internal/ui/theme"
)

const (
	fieldName = iota
	fieldGrade
	fieldTopic
	fieldCount
)

var fieldLabels = [fieldCount]string{"Name", "Grade", "Topic"}

// PracticeFactory builds the practice screen once parameters are entered.
type PracticeFactory func(student, grade, topic string) screen.Screen

// SetupScreen collects student name, grade, and topic before a session.
type SetupScreen struct {
	inputs   [fieldCount]components.TextInput
	focused  int
	errMsg   string
	practice PracticeFactory
}

var _ screen.Screen = (*SetupScreen)(nil)
var _ screen.KeyHintProvider = (*SetupScreen)(nil)

// New creates the setup screen with pre-filled defaults.
func New(student, grade, topic string, practice PracticeFactory) *SetupScreen {
	s := &SetupScreen{practice: practice}

	s.inputs[fieldName] = components.NewTextInput("e.g. Anaya", 40)
	s.inputs[fieldGrade] = components.NewTextInput("e.g. Grade 6", 20)
	s.inputs[fieldTopic] = components.NewTextInput("e.g. Fractions", 60)

	s.inputs[fieldName].Model.SetValue(student)
	s.inputs[fieldGrade].Model.SetValue(grade)
	s.inputs[fieldTopic].Model.SetValue(topic)

	return s
}

func (s *SetupScreen) Title() string {
	return "New Session"
}

func (s *SetupScreen) Init() tea.Cmd {
	return s.inputs[s.focused].Focus()
}

func (s *SetupScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Start"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *SetupScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "tab", "down":
			return s, s.focusField((s.focused + 1) % fieldCount)
		case "shift+tab", "up":
			return s, s.focusField((s.focused + fieldCount - 1) % fieldCount)
		case "enter":
			if s.focused < fieldCount-1 {
				return s, s.focusField(s.focused + 1)
			}
			return s.start()
		}
	}

	var cmd tea.Cmd
	s.inputs[s.focused], cmd = s.inputs[s.focused].Update(msg)
	return s, cmd
}

func (s *SetupScreen) focusField(idx int) tea.Cmd {
	s.inputs[s.focused].Blur()
	s.focused = idx
	return s.inputs[s.focused].Focus()
}

func (s *SetupScreen) start() (screen.Screen, tea.Cmd) {
	student := s.inputs[fieldName].Value()
	grade := s.inputs[fieldGrade].Value()
	topic := s.inputs[fieldTopic].Value()

	var missing []string
	if student == "" {
		missing = append(missing, "name")
	}
	if grade == "" {
		missing = append(missing, "grade")
	}
	if topic == "" {
		missing = append(missing, "topic")
	}
	if len(missing) > 0 {
		s.errMsg = "Please fill in: " + strings.Join(missing, ", ")
		return s, nil
	}

	s.errMsg = ""
	next := s.practice(student, grade, topic)
	return s, func() tea.Msg {
		return router.PushScreenMsg{Screen: next}
	}
}

func (s *SetupScreen) View(width, height int) string {
	var b strings.Builder

	b.WriteString("\n\n")
	b.WriteString(theme.Title.Width(width).Render("Let's practice some math"))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Width(width).Render("25 questions, easy to hard"))
	b.WriteString("\n\n")

	for i := 0; i < fieldCount; i++ {
		label := fieldLabels[i]
		labelStyle := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.focused {
			labelStyle = theme.Selected
		}
		line := labelStyle.Render(label+":") + "  " + s.inputs[i].View()
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, line))
		b.WriteString("\n\n")
	}

	if s.errMsg != "" {
		b.WriteString(theme.Incorrect.Width(width).Align(lipgloss.Center).Render(s.errMsg))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.Hint.Width(width).Align(lipgloss.Center).
		Render("Enter starts the session from the topic field"))

	return b.String()
}
