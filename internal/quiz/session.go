// backend/internal/quiz/session.go
package quiz

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"elephant-quiz/internal/models"
)

var (
	ErrBankTooSmall  = errors.New("question bank smaller than session length")
	ErrInvalidConfig = errors.New("invalid quiz config")
	ErrNotPlaying    = errors.New("session is not playing")
	ErrNotFinished   = errors.New("session is not finished")
	ErrInvalidOption = errors.New("invalid option label")
	ErrStaleQuestion = errors.New("answer does not target the current question")
)

// maxRedraws bounds how often Replay redraws to avoid repeating the previous order.
const maxRedraws = 8

type Config struct {
	SessionLength int
	TimeBudget    int // in ticks
	TickInterval  time.Duration
}

func DefaultConfig() Config {
	return Config{
		SessionLength: 10,
		TimeBudget:    30,
		TickInterval:  time.Second,
	}
}

func (c Config) Validate() error {
	if c.SessionLength <= 0 {
		return fmt.Errorf("%w: session length must be positive, got %d", ErrInvalidConfig, c.SessionLength)
	}
	if c.TimeBudget <= 0 {
		return fmt.Errorf("%w: time budget must be positive, got %d", ErrInvalidConfig, c.TimeBudget)
	}
	return nil
}

// Session is one play-through. Transitions return a new Session and never
// modify the receiver, so older snapshots stay valid.
type Session struct {
	Status        models.Status
	Questions     []models.Question
	CurrentIndex  int
	Score         int
	TimeRemaining int
	Answers       []models.OptionLabel
	TimedOut      bool

	result *models.Result
}

// Start draws a fresh session from the bank.
func Start(bank []models.Question, cfg Config, rng *rand.Rand) (Session, error) {
	if err := cfg.Validate(); err != nil {
		return Session{}, err
	}
	if len(bank) < cfg.SessionLength {
		return Session{}, fmt.Errorf("%w: have %d questions, need %d", ErrBankTooSmall, len(bank), cfg.SessionLength)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return Session{
		Status:        models.StatusPlaying,
		Questions:     Draw(bank, cfg.SessionLength, rng),
		TimeRemaining: cfg.TimeBudget,
		Answers:       make([]models.OptionLabel, cfg.SessionLength),
	}, nil
}

// Replay starts a new session whose question order differs from prev
// whenever the bank makes that possible.
func Replay(prev Session, bank []models.Question, cfg Config, rng *rand.Rand) (Session, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	next, err := Start(bank, cfg, rng)
	if err != nil {
		return Session{}, err
	}
	for i := 0; i < maxRedraws && sameOrder(prev.Questions, next.Questions); i++ {
		next.Questions = Draw(bank, cfg.SessionLength, rng)
	}
	if sameOrder(prev.Questions, next.Questions) {
		next.Questions = perturb(next.Questions, bank)
	}
	return next, nil
}

// perturb returns a different order of drawn: rotated when it holds two or
// more questions, otherwise swapped for another bank question.
func perturb(drawn, bank []models.Question) []models.Question {
	out := make([]models.Question, len(drawn))
	if len(drawn) > 1 {
		copy(out, drawn[1:])
		out[len(out)-1] = drawn[0]
		return out
	}
	copy(out, drawn)
	for _, q := range bank {
		if len(out) == 1 && q.ID != out[0].ID {
			out[0] = q
			break
		}
	}
	return out
}

// Draw picks n questions without replacement using a partial Fisher-Yates
// shuffle over a copy of the bank.
func Draw(bank []models.Question, n int, rng *rand.Rand) []models.Question {
	pool := make([]models.Question, len(bank))
	copy(pool, bank)
	if n > len(pool) {
		n = len(pool)
	}
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n:n]
}

func sameOrder(a, b []models.Question) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

// Current returns the question awaiting an answer.
func (s Session) Current() (models.Question, bool) {
	if s.Status != models.StatusPlaying || s.CurrentIndex >= len(s.Questions) {
		return models.Question{}, false
	}
	return s.Questions[s.CurrentIndex], true
}

// Answer records label for the current question.
func (s Session) Answer(label models.OptionLabel) (Session, error) {
	if _, ok := s.Current(); !ok {
		return s, ErrNotPlaying
	}
	if !label.Valid() {
		return s, fmt.Errorf("%w: %q", ErrInvalidOption, label)
	}

	next := s
	next.Answers = make([]models.OptionLabel, len(s.Answers))
	copy(next.Answers, s.Answers)
	next.Answers[s.CurrentIndex] = label

	if label == s.Questions[s.CurrentIndex].Answer {
		next.Score++
	} else {
		next.Score--
	}

	next.CurrentIndex++
	if next.CurrentIndex < len(next.Questions) {
		return next, nil
	}
	return next.finish(false), nil
}

// AnswerAt is Answer guarded by the index the caller believes is current.
func (s Session) AnswerAt(index int, label models.OptionLabel) (Session, error) {
	if s.Status != models.StatusPlaying {
		return s, ErrNotPlaying
	}
	if index != s.CurrentIndex {
		return s, fmt.Errorf("%w: got %d, current is %d", ErrStaleQuestion, index, s.CurrentIndex)
	}
	return s.Answer(label)
}

// Tick consumes one unit of the time budget. Outside Playing it is a no-op.
func (s Session) Tick() Session {
	if s.Status != models.StatusPlaying {
		return s
	}
	next := s
	next.TimeRemaining--
	if next.TimeRemaining > 0 {
		return next
	}
	next.TimeRemaining = 0
	return next.finish(true)
}

// ResetToIdle discards a finished session.
func (s Session) ResetToIdle() (Session, error) {
	if s.Status != models.StatusFinished {
		return s, ErrNotFinished
	}
	return Session{Status: models.StatusIdle}, nil
}

// Result returns the summary of a finished session.
func (s Session) Result() (models.Result, bool) {
	if s.result == nil {
		return models.Result{}, false
	}
	res := *s.result
	res.Questions = append([]models.Question(nil), res.Questions...)
	res.Answers = append([]models.OptionLabel(nil), res.Answers...)
	return res, true
}

func (s Session) finish(timedOut bool) Session {
	s.Status = models.StatusFinished
	s.TimedOut = timedOut
	res := ComputeResult(s.Questions, s.Answers, s.Score)
	res.TimedOut = timedOut
	s.result = &res
	return s
}

// ComputeResult tallies answers against questions. Slots beyond the answers
// slice count as unanswered.
func ComputeResult(questions []models.Question, answers []models.OptionLabel, score int) models.Result {
	res := models.Result{
		Score:     score,
		Questions: append([]models.Question(nil), questions...),
		Answers:   make([]models.OptionLabel, len(questions)),
	}
	copy(res.Answers, answers)
	for i, q := range questions {
		switch res.Answers[i] {
		case models.Unanswered:
			res.UnansweredCount++
		case q.Answer:
			res.CorrectCount++
		default:
			res.WrongCount++
		}
	}
	return res
}
