// backend/internal/models/dto.go
package models

// QuestionDTO is what a player sees while playing; the answer is withheld.
type QuestionDTO struct {
	ID      uint        `json:"id"`
	Text    string      `json:"text"`
	Options []OptionDTO `json:"options"`
}

type OptionDTO struct {
	Label OptionLabel `json:"label"`
	Text  string      `json:"text"`
}

func (q Question) ToDTO() QuestionDTO {
	options := make([]OptionDTO, 0, len(Labels))
	for _, label := range Labels {
		options = append(options, OptionDTO{Label: label, Text: q.Options[label]})
	}
	return QuestionDTO{
		ID:      q.ID,
		Text:    q.Text,
		Options: options,
	}
}

type SessionDTO struct {
	ID            string       `json:"id"`
	Status        Status       `json:"status"`
	Index         int          `json:"index"`
	Total         int          `json:"total"`
	Score         int          `json:"score"`
	TimeRemaining int          `json:"time_remaining"`
	Question      *QuestionDTO `json:"question,omitempty"`
	Result        *ResultDTO   `json:"result,omitempty"`
	RecordID      uint         `json:"record_id,omitempty"`
}

type ReviewDTO struct {
	QuestionID uint        `json:"question_id"`
	Text       string      `json:"text"`
	Chosen     OptionLabel `json:"chosen"`
	Correct    OptionLabel `json:"correct"`
}

type ResultDTO struct {
	Score           int         `json:"score"`
	CorrectCount    int         `json:"correct_count"`
	WrongCount      int         `json:"wrong_count"`
	UnansweredCount int         `json:"unanswered_count"`
	TimedOut        bool        `json:"timed_out"`
	Review          []ReviewDTO `json:"review"`
}

func (r Result) ToDTO() ResultDTO {
	review := make([]ReviewDTO, len(r.Questions))
	for i, q := range r.Questions {
		var chosen OptionLabel
		if i < len(r.Answers) {
			chosen = r.Answers[i]
		}
		review[i] = ReviewDTO{
			QuestionID: q.ID,
			Text:       q.Text,
			Chosen:     chosen,
			Correct:    q.Answer,
		}
	}
	return ResultDTO{
		Score:           r.Score,
		CorrectCount:    r.CorrectCount,
		WrongCount:      r.WrongCount,
		UnansweredCount: r.UnansweredCount,
		TimedOut:        r.TimedOut,
		Review:          review,
	}
}
