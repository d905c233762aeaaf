package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"elephant-quiz/internal/bank"
	"elephant-quiz/internal/quiz"
	"elephant-quiz/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	defaults := quiz.DefaultConfig()
	bankPath := flag.String("bank", "", "question bank file (.yaml or .json); built-in bank when empty")
	length := flag.Int("questions", defaults.SessionLength, "questions per session")
	budget := flag.Int("time", defaults.TimeBudget, "seconds per session")
	seed := flag.Int64("seed", 0, "random seed; 0 picks one from the clock")
	noColor := flag.Bool("no-color", false, "disable colors")
	flag.Parse()

	if err := run(*bankPath, quiz.Config{SessionLength: *length, TimeBudget: *budget, TickInterval: time.Second}, *seed, *noColor); err != nil {
		fmt.Fprintln(os.Stderr, "elephant-quiz:", err)
		os.Exit(1)
	}
}

func run(bankPath string, cfg quiz.Config, seed int64, noColor bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	questions, err := bank.Load(bankPath)
	if err != nil {
		return err
	}
	if len(questions) < cfg.SessionLength {
		return fmt.Errorf("%w: bank has %d questions", quiz.ErrBankTooSmall, len(questions))
	}

	model := tui.NewModel(questions, tui.Options{Config: cfg, Seed: seed, NoColor: noColor})
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
