package report

import (
	"bytes"
	"testing"
	"time"

	"elephant-quiz/internal/models"
)

func sampleResult() models.Result {
	questions := []models.Question{
		{ID: 1, Text: "How long is an elephant's pregnancy?", Answer: models.OptionC, Options: map[models.OptionLabel]string{
			models.OptionA: "9 months", models.OptionB: "15 months", models.OptionC: "22 months", models.OptionD: "30 months",
		}},
		{ID: 2, Text: "Which elephant is the largest?", Answer: models.OptionA, Options: map[models.OptionLabel]string{
			models.OptionA: "African bush", models.OptionB: "African forest", models.OptionC: "Asian", models.OptionD: "Sri Lankan",
		}},
		{ID: 3, Text: "What is a group of elephants called?", Answer: models.OptionB, Options: map[models.OptionLabel]string{
			models.OptionA: "Pod", models.OptionB: "Herd", models.OptionC: "Pride", models.OptionD: "Flock",
		}},
	}
	return models.Result{
		Score:           0,
		CorrectCount:    1,
		WrongCount:      1,
		UnansweredCount: 1,
		TimedOut:        true,
		Questions:       questions,
		Answers:         []models.OptionLabel{models.OptionC, models.OptionD, models.Unanswered},
	}
}

func TestScorecardRendersPDF(t *testing.T) {
	data, err := Scorecard(Card{
		Player:     "dumbo",
		FinishedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Result:     sampleResult(),
	})
	if err != nil {
		t.Fatalf("scorecard: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("expected PDF header, got %q", data[:8])
	}
}

func TestScorecardEmptyResult(t *testing.T) {
	data, err := Scorecard(Card{})
	if err != nil {
		t.Fatalf("scorecard: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected output for an empty result")
	}
}
