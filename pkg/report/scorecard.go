// backend/pkg/report/scorecard.go
package report

import (
	"bytes"
	"fmt"
	"time"

	"elephant-quiz/internal/models"

	"github.com/jung-kurt/gofpdf"
)

// Card is everything printed on a scorecard.
type Card struct {
	Player     string
	FinishedAt time.Time
	Result     models.Result
}

const (
	pageWidth = 190.0
	barHeight = 8.0
	barLabel  = 35.0
)

type bar struct {
	label   string
	count   int
	r, g, b int
}

// Scorecard renders card as a one page A4 PDF.
func Scorecard(card Card) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Elephant Quiz scorecard", true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.Cell(40, 10, "Elephant Quiz")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	if card.Player != "" {
		pdf.Cell(40, 8, tr("Player: "+card.Player))
		pdf.Ln(8)
	}
	if !card.FinishedAt.IsZero() {
		pdf.Cell(40, 8, "Played: "+card.FinishedAt.Format("2006-01-02 15:04"))
		pdf.Ln(8)
	}

	res := card.Result
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, fmt.Sprintf("Score: %d / %d", res.Score, res.Total()))
	pdf.Ln(10)
	if res.TimedOut {
		pdf.SetFont("Arial", "I", 11)
		pdf.Cell(40, 8, "Time ran out before every question was answered.")
		pdf.Ln(8)
	}
	pdf.Ln(4)

	drawBars(pdf, res)
	pdf.Ln(6)
	drawReview(pdf, tr, res)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render scorecard: %w", err)
	}
	return buf.Bytes(), nil
}

func drawBars(pdf *gofpdf.Fpdf, res models.Result) {
	bars := []bar{
		{"Correct", res.CorrectCount, 46, 160, 67},
		{"Wrong", res.WrongCount, 211, 47, 47},
		{"Unanswered", res.UnansweredCount, 158, 158, 158},
	}
	total := res.Total()
	if total == 0 {
		total = 1
	}
	maxWidth := pageWidth - barLabel - 20

	pdf.SetFont("Arial", "", 11)
	for _, b := range bars {
		y := pdf.GetY()
		pdf.SetXY(10, y)
		pdf.CellFormat(barLabel, barHeight, b.label, "", 0, "L", false, 0, "")
		width := maxWidth * float64(b.count) / float64(total)
		if width > 0 {
			pdf.SetFillColor(b.r, b.g, b.b)
			pdf.Rect(10+barLabel, y+1, width, barHeight-2, "F")
		}
		pdf.SetXY(10+barLabel+width+2, y)
		pdf.CellFormat(15, barHeight, fmt.Sprintf("%d", b.count), "", 1, "L", false, 0, "")
	}
}

func drawReview(pdf *gofpdf.Fpdf, tr func(string) string, res models.Result) {
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "Review")
	pdf.Ln(10)

	for i, q := range res.Questions {
		var chosen models.OptionLabel
		if i < len(res.Answers) {
			chosen = res.Answers[i]
		}
		pdf.SetFont("Arial", "B", 11)
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("%d. %s", i+1, q.Text)), "", "L", false)

		pdf.SetFont("Arial", "", 10)
		switch {
		case q.Answer == models.Unanswered && chosen == models.Unanswered:
			pdf.SetTextColor(120, 120, 120)
			pdf.MultiCell(0, 6, "   Not answered.", "", "L", false)
		case q.Answer == models.Unanswered:
			pdf.SetTextColor(120, 120, 120)
			pdf.MultiCell(0, 6, tr(fmt.Sprintf("   Answered %s.", chosen)), "", "L", false)
		case chosen == models.Unanswered:
			pdf.SetTextColor(120, 120, 120)
			pdf.MultiCell(0, 6, tr(fmt.Sprintf("   Not answered. Correct: %s) %s", q.Answer, q.Options[q.Answer])), "", "L", false)
		case chosen == q.Answer:
			pdf.SetTextColor(46, 125, 50)
			pdf.MultiCell(0, 6, tr(fmt.Sprintf("   %s) %s", chosen, q.Options[chosen])), "", "L", false)
		default:
			pdf.SetTextColor(198, 40, 40)
			pdf.MultiCell(0, 6, tr(fmt.Sprintf("   %s) %s. Correct: %s) %s", chosen, q.Options[chosen], q.Answer, q.Options[q.Answer])), "", "L", false)
		}
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(2)
	}
}
