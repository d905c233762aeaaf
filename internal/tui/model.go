package tui

import (
	"math/rand"
	"strings"
	"time"

	"elephant-quiz/internal/models"
	"elephant-quiz/internal/quiz"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model plays quiz sessions in the terminal.
type Model struct {
	bank     []models.Question
	config   quiz.Config
	rng      *rand.Rand
	session  quiz.Session
	previous quiz.Session
	// generation increments on every start so ticks from an earlier
	// session are dropped.
	generation int
	progress   progress.Model
	feedback   string
	err        error
	noColor    bool
}

// Options configures the terminal model.
type Options struct {
	Config  quiz.Config
	Seed    int64
	NoColor bool
}

// NewModel builds an idle model over bank.
func NewModel(bank []models.Question, opts Options) Model {
	cfg := opts.Config
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	if opts.NoColor {
		bar = progress.New(progress.WithSolidFill("7"), progress.WithoutPercentage())
	}
	return Model{
		bank:     bank,
		config:   cfg,
		rng:      rand.New(rand.NewSource(seed)),
		progress: bar,
		noColor:  opts.NoColor,
	}
}

// Session returns the session being shown.
func (m Model) Session() quiz.Session {
	return m.session
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.progress.Width = max(typed.Width-4, 10)
		return m, nil
	case tickMsg:
		return m.onTick(typed)
	case tea.KeyMsg:
		return m.onKey(strings.ToLower(typed.String()))
	}
	return m, nil
}

func (m Model) onKey(key string) (tea.Model, tea.Cmd) {
	if key == "ctrl+c" || key == "q" {
		return m, tea.Quit
	}

	switch m.session.Status {
	case models.StatusIdle:
		if key == "enter" || key == " " || key == "s" {
			return m.start()
		}
	case models.StatusPlaying:
		label, err := models.ParseOptionLabel(key)
		if err != nil {
			return m, nil
		}
		return m.answer(label), nil
	case models.StatusFinished:
		switch key {
		case "r", "enter":
			return m.start()
		case "h":
			idle, err := m.session.ResetToIdle()
			if err != nil {
				m.err = err
				return m, nil
			}
			m.session = idle
			m.feedback = ""
			return m, nil
		}
	}
	return m, nil
}

func (m Model) start() (tea.Model, tea.Cmd) {
	var (
		next quiz.Session
		err  error
	)
	if len(m.previous.Questions) > 0 {
		next, err = quiz.Replay(m.previous, m.bank, m.config, m.rng)
	} else {
		next, err = quiz.Start(m.bank, m.config, m.rng)
	}
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.feedback = ""
	m.session = next
	m.generation++
	return m, tick(m.generation, m.config.TickInterval)
}

func (m Model) answer(label models.OptionLabel) Model {
	q, ok := m.session.Current()
	if !ok {
		return m
	}
	next, err := m.session.Answer(label)
	if err != nil {
		m.err = err
		return m
	}
	if label == q.Answer {
		m.feedback = "Correct!"
	} else {
		m.feedback = "Wrong: the answer was " + string(q.Answer) + ") " + q.Options[q.Answer]
	}
	m.session = next
	if next.Status == models.StatusFinished {
		m.previous = next
	}
	return m
}

func (m Model) onTick(msg tickMsg) (tea.Model, tea.Cmd) {
	if msg.generation != m.generation || m.session.Status != models.StatusPlaying {
		return m, nil
	}
	m.session = m.session.Tick()
	if m.session.Status == models.StatusFinished {
		m.previous = m.session
		return m, nil
	}
	return m, tick(m.generation, m.config.TickInterval)
}

func (m Model) View() string {
	var body string
	switch m.session.Status {
	case models.StatusPlaying:
		body = renderPlaying(m)
	case models.StatusFinished:
		body = renderFinished(m)
	default:
		body = renderIdle(m)
	}
	if m.err != nil {
		body = lipgloss.JoinVertical(lipgloss.Left, body, stylize("Error: "+m.err.Error(), m.noColor, colorWrong))
	}
	return body + "\n"
}

// tickMsg is one unit of the time budget for session generation.
type tickMsg struct {
	generation int
	at         time.Time
}

func tick(generation int, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg{generation: generation, at: t}
	})
}
