// backend/internal/models/quiz.go
package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// OptionLabel identifies one of the four answer slots of a question.
type OptionLabel string

const (
	OptionA OptionLabel = "A"
	OptionB OptionLabel = "B"
	OptionC OptionLabel = "C"
	OptionD OptionLabel = "D"

	// Unanswered marks an answer slot the player never filled.
	Unanswered OptionLabel = ""
)

// Labels lists the option labels in display order.
var Labels = []OptionLabel{OptionA, OptionB, OptionC, OptionD}

func (l OptionLabel) Valid() bool {
	switch l {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// ParseOptionLabel accepts "a".."d" in any case, surrounding space ignored.
func ParseOptionLabel(s string) (OptionLabel, error) {
	label := OptionLabel(strings.ToUpper(strings.TrimSpace(s)))
	if !label.Valid() {
		return Unanswered, fmt.Errorf("unknown option label %q", s)
	}
	return label, nil
}

type Question struct {
	ID        uint                   `json:"id" yaml:"id" gorm:"primaryKey"`
	CreatedAt time.Time              `json:"-" yaml:"-"`
	UpdatedAt time.Time              `json:"-" yaml:"-"`
	Text      string                 `json:"text" yaml:"text" gorm:"not null"`
	Options   map[OptionLabel]string `json:"options" yaml:"options" gorm:"serializer:json;not null"`
	Answer    OptionLabel            `json:"answer" yaml:"answer" gorm:"size:1;not null"`
}

// Status is the lifecycle state of a quiz session.
type Status int

const (
	StatusIdle Status = iota
	StatusPlaying
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "PLAYING"
	case StatusFinished:
		return "FINISHED"
	default:
		return "IDLE"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "IDLE":
		*s = StatusIdle
	case "PLAYING":
		*s = StatusPlaying
	case "FINISHED":
		*s = StatusFinished
	default:
		return fmt.Errorf("unknown status %q", text)
	}
	return nil
}

// Result is the scoring summary produced once when a session finishes.
type Result struct {
	Score           int           `json:"score"`
	CorrectCount    int           `json:"correct_count"`
	WrongCount      int           `json:"wrong_count"`
	UnansweredCount int           `json:"unanswered_count"`
	TimedOut        bool          `json:"timed_out"`
	Questions       []Question    `json:"questions"`
	Answers         []OptionLabel `json:"answers"`
}

// Total is the number of questions the session drew.
func (r Result) Total() int {
	return len(r.Questions)
}

type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	Username  string         `json:"username" gorm:"uniqueIndex;not null"`
	Email     string         `json:"email"`
	Password  string         `json:"-" gorm:"not null"`
}

// PlayRecord is a finished session as stored in the database.
type PlayRecord struct {
	ID              uint          `json:"id" gorm:"primaryKey"`
	CreatedAt       time.Time     `json:"created_at"`
	SessionID       string        `json:"session_id" gorm:"uniqueIndex;size:36"`
	UserID          uint          `json:"user_id" gorm:"index"`
	Username        string        `json:"username"`
	Score           int           `json:"score"`
	CorrectCount    int           `json:"correct_count"`
	WrongCount      int           `json:"wrong_count"`
	UnansweredCount int           `json:"unanswered_count"`
	TimedOut        bool          `json:"timed_out"`
	QuestionIDs     []uint        `json:"question_ids" gorm:"serializer:json"`
	Answers         []OptionLabel `json:"answers" gorm:"serializer:json"`
	StartedAt       time.Time     `json:"started_at"`
	FinishedAt      time.Time     `json:"finished_at"`
}

// NewPlayRecord flattens a result for storage.
func NewPlayRecord(sessionID string, userID uint, username string, res Result, startedAt, finishedAt time.Time) *PlayRecord {
	ids := make([]uint, len(res.Questions))
	for i, q := range res.Questions {
		ids[i] = q.ID
	}
	answers := make([]OptionLabel, len(res.Answers))
	copy(answers, res.Answers)
	return &PlayRecord{
		SessionID:       sessionID,
		UserID:          userID,
		Username:        username,
		Score:           res.Score,
		CorrectCount:    res.CorrectCount,
		WrongCount:      res.WrongCount,
		UnansweredCount: res.UnansweredCount,
		TimedOut:        res.TimedOut,
		QuestionIDs:     ids,
		Answers:         answers,
		StartedAt:       startedAt,
		FinishedAt:      finishedAt,
	}
}

// Result rebuilds the scoring summary of the record. Counts, score and the
// timeout flag are the stored ones; questions must be in play order, one per
// entry of QuestionIDs.
func (r PlayRecord) Result(questions []Question) Result {
	answers := make([]OptionLabel, len(r.Answers))
	copy(answers, r.Answers)
	return Result{
		Score:           r.Score,
		CorrectCount:    r.CorrectCount,
		WrongCount:      r.WrongCount,
		UnansweredCount: r.UnansweredCount,
		TimedOut:        r.TimedOut,
		Questions:       questions,
		Answers:         answers,
	}
}

type LeaderboardEntry struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}
