package tui

import (
	"fmt"
	"strconv"
	"strings"

	"elephant-quiz/internal/models"

	"github.com/charmbracelet/lipgloss"
)

const (
	colorTitle  = lipgloss.Color("99")
	colorMuted  = lipgloss.Color("242")
	colorRight  = lipgloss.Color("35")
	colorWrong  = lipgloss.Color("160")
	colorUrgent = lipgloss.Color("196")

	lowTime  = 5
	barWidth = 30
)

func renderIdle(m Model) string {
	lines := []string{
		title("Elephant Quiz", m.noColor),
		"",
		fmt.Sprintf("%d questions, %d seconds on the clock.", m.config.SessionLength, m.config.TimeBudget),
		"A right answer scores +1, a wrong one -1. Unanswered questions score 0.",
		"",
		stylize("enter: start   q: quit", m.noColor, colorMuted),
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderPlaying(m Model) string {
	s := m.session
	q, _ := s.Current()

	clock := fmt.Sprintf("%ds", s.TimeRemaining)
	if s.TimeRemaining <= lowTime {
		clock = stylize(clock, m.noColor, colorUrgent)
	}
	header := fmt.Sprintf("Question %d/%d   Score %d   Time %s", s.CurrentIndex+1, len(s.Questions), s.Score, clock)

	lines := []string{
		title("Elephant Quiz", m.noColor),
		header,
		m.progress.ViewAs(float64(s.CurrentIndex) / float64(len(s.Questions))),
		"",
		q.Text,
	}
	for _, label := range models.Labels {
		lines = append(lines, fmt.Sprintf("  %s) %s", label, q.Options[label]))
	}
	lines = append(lines, "")
	if m.feedback != "" {
		color := colorWrong
		if m.feedback == "Correct!" {
			color = colorRight
		}
		lines = append(lines, stylize(m.feedback, m.noColor, color))
	}
	lines = append(lines, stylize("a-d: answer   q: quit", m.noColor, colorMuted))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderFinished(m Model) string {
	res, _ := m.session.Result()
	heading := "All questions answered!"
	if res.TimedOut {
		heading = "Time's up!"
	}

	lines := []string{
		title("Elephant Quiz", m.noColor),
		heading,
		fmt.Sprintf("Final score: %d", res.Score),
		"",
		bar("Correct", res.CorrectCount, res.Total(), colorRight, m.noColor),
		bar("Wrong", res.WrongCount, res.Total(), colorWrong, m.noColor),
		bar("Unanswered", res.UnansweredCount, res.Total(), colorMuted, m.noColor),
		"",
		stylize("r: play again   h: home   q: quit", m.noColor, colorMuted),
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// bar renders one row of the result chart, scaled to barWidth.
func bar(label string, count, total int, color lipgloss.Color, noColor bool) string {
	width := 0
	if total > 0 {
		width = count * barWidth / total
	}
	filled := stylize(strings.Repeat("█", width), noColor, color)
	return fmt.Sprintf("%-11s %s %s", label, filled, strconv.Itoa(count))
}

func title(text string, noColor bool) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Bold(true).Foreground(colorTitle).Render(text)
}

func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
