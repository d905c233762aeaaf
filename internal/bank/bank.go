// Package bank loads and validates question banks.
package bank

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"elephant-quiz/internal/models"
)

//go:embed elephants.yaml
var defaultBank []byte

var ErrInvalidBank = errors.New("invalid question bank")

type file struct {
	Questions []models.Question `json:"questions" yaml:"questions"`
}

// Default returns the built-in elephant question bank.
func Default() []models.Question {
	questions, err := Parse(defaultBank, "elephants.yaml")
	if err != nil {
		panic(fmt.Sprintf("bank: embedded bank is invalid: %v", err))
	}
	return questions
}

// Load reads a bank file. An empty path selects the built-in bank.
func Load(path string) ([]models.Question, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes JSON or YAML by the extension of name and validates the result.
func Parse(data []byte, name string) ([]models.Question, error) {
	var (
		f   file
		err error
	)
	if strings.ToLower(filepath.Ext(name)) == ".json" {
		f, err = parseJSON(data)
	} else {
		f, err = parseYAML(data)
	}
	if err != nil {
		return nil, err
	}
	if err := Validate(f.Questions); err != nil {
		return nil, err
	}
	return f.Questions, nil
}

func parseJSON(data []byte) (file, error) {
	var f file
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&f); err != nil {
		return file{}, fmt.Errorf("parse json: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return file{}, fmt.Errorf("parse json: multiple documents are not supported")
		}
		return file{}, fmt.Errorf("parse json: %w", err)
	}
	return f, nil
}

func parseYAML(data []byte) (file, error) {
	var f file
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return file{}, fmt.Errorf("parse yaml: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return file{}, fmt.Errorf("parse yaml: multiple documents are not supported")
		}
		return file{}, fmt.Errorf("parse yaml: %w", err)
	}
	return f, nil
}

// Validate checks every question has text, four options and a known answer,
// and that ids are unique.
func Validate(questions []models.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidBank)
	}
	seen := make(map[uint]bool, len(questions))
	for i, q := range questions {
		if q.ID == 0 {
			return fmt.Errorf("%w: question %d: id is required", ErrInvalidBank, i+1)
		}
		if seen[q.ID] {
			return fmt.Errorf("%w: question %d: duplicate id", ErrInvalidBank, q.ID)
		}
		seen[q.ID] = true
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("%w: question %d: text is required", ErrInvalidBank, q.ID)
		}
		if len(q.Options) != len(models.Labels) {
			return fmt.Errorf("%w: question %d: expected %d options, got %d", ErrInvalidBank, q.ID, len(models.Labels), len(q.Options))
		}
		for _, label := range models.Labels {
			if strings.TrimSpace(q.Options[label]) == "" {
				return fmt.Errorf("%w: question %d: option %s is missing", ErrInvalidBank, q.ID, label)
			}
		}
		if !q.Answer.Valid() {
			return fmt.Errorf("%w: question %d: answer %q is not one of A-D", ErrInvalidBank, q.ID, q.Answer)
		}
	}
	return nil
}
