package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tktflow/tkt/internal/types"
)

// Script is a UI for tests. Answers are consumed in order; every prompt and
// message is recorded in Log so tests can assert on what the user saw.
// Running out of answers falls back to the prompt's default, and to a
// cancellation error when the prompt has none.
type Script struct {
	Answers []string
	Log     []string
}

// NewScript returns a Script that will answer prompts with the given lines.
func NewScript(answers ...string) *Script {
	return &Script{Answers: answers}
}

func (s *Script) next() (string, bool) {
	if len(s.Answers) == 0 {
		return "", false
	}
	answer := s.Answers[0]
	s.Answers = s.Answers[1:]
	return answer, true
}

// Confirm implements UI.
func (s *Script) Confirm(prompt string, def bool) (bool, error) {
	s.Log = append(s.Log, "confirm: "+prompt)
	answer, ok := s.next()
	if !ok || answer == "" {
		return def, nil
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	}
	return false, fmt.Errorf("scripted answer %q is not yes or no", answer)
}

// Select implements UI.
func (s *Script) Select(prompt string, options []string, def int) (int, error) {
	s.Log = append(s.Log, fmt.Sprintf("select: %s [%s]", prompt, strings.Join(options, "/")))
	answer, ok := s.next()
	if !ok || answer == "" {
		if def >= 0 {
			return def, nil
		}
		return 0, fmt.Errorf("question %q requires an answer: %w", prompt, types.ErrCancelled)
	}
	for i, opt := range options {
		if strings.EqualFold(answer, opt) {
			return i, nil
		}
	}
	if n, err := strconv.Atoi(answer); err == nil && n >= 0 && n < len(options) {
		return n, nil
	}
	return 0, fmt.Errorf("scripted answer %q is not one of %s", answer, strings.Join(options, ", "))
}

// Input implements UI.
func (s *Script) Input(prompt string) (string, error) {
	s.Log = append(s.Log, "input: "+prompt)
	answer, ok := s.next()
	if !ok {
		return "", fmt.Errorf("no answer to %q: %w", prompt, types.ErrCancelled)
	}
	return answer, nil
}

// Show implements UI.
func (s *Script) Show(format string, args ...interface{}) {
	s.Log = append(s.Log, fmt.Sprintf(format, args...))
}

// Info implements UI.
func (s *Script) Info(format string, args ...interface{}) {
	s.Log = append(s.Log, "info: "+fmt.Sprintf(format, args...))
}

// Warn implements UI.
func (s *Script) Warn(format string, args ...interface{}) {
	s.Log = append(s.Log, "warning: "+fmt.Sprintf(format, args...))
}

// Error implements UI.
func (s *Script) Error(format string, args ...interface{}) {
	s.Log = append(s.Log, "error: "+fmt.Sprintf(format, args...))
}

// Saw reports whether any logged line contains substr.
func (s *Script) Saw(substr string) bool {
	for _, line := range s.Log {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}
