package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/tktflow/tkt/internal/types"
)

// Terminal implements UI for a real terminal session. Prompts use an
// interactive form when stdin is a TTY; when input is piped (or the form
// library is unusable) they fall back to reading one line per question, so
// answers can be fed from a script.
type Terminal struct {
	In          io.Reader
	Out         io.Writer
	Err         io.Writer
	Interactive bool

	reader *bufio.Reader
}

// NewTerminal builds a Terminal on the process's standard streams.
func NewTerminal() *Terminal {
	return &Terminal{
		In:          os.Stdin,
		Out:         os.Stdout,
		Err:         os.Stderr,
		Interactive: term.IsTerminal(int(os.Stdin.Fd())),
	}
}

// Confirm implements UI.
func (t *Terminal) Confirm(prompt string, def bool) (bool, error) {
	if t.Interactive {
		answer := def
		confirm := huh.NewConfirm().
			Title(prompt).
			Affirmative("yes").
			Negative("no").
			Value(&answer)
		if err := huh.NewForm(huh.NewGroup(confirm)).Run(); err != nil {
			return false, confirmAborted(err)
		}
		return answer, nil
	}

	hint := "[Yes/no]"
	if !def {
		hint = "[yes/No]"
	}
	line, err := t.readLine(fmt.Sprintf("%s %s ", prompt, hint))
	if err != nil || line == "" {
		return def, nil
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		t.Warn("please answer yes or no")
		return t.Confirm(prompt, def)
	}
}

// Select implements UI.
func (t *Terminal) Select(prompt string, options []string, def int) (int, error) {
	if t.Interactive {
		choices := make([]huh.Option[int], len(options))
		for i, opt := range options {
			choices[i] = huh.NewOption(opt, i)
		}
		selected := 0
		if def >= 0 {
			selected = def
		}
		sel := huh.NewSelect[int]().
			Title(prompt).
			Options(choices...).
			Value(&selected)
		if err := huh.NewForm(huh.NewGroup(sel)).Run(); err != nil {
			return 0, confirmAborted(err)
		}
		return selected, nil
	}

	hint := strings.Join(options, "/")
	if def >= 0 && def < len(options) {
		parts := make([]string, len(options))
		copy(parts, options)
		parts[def] = capitalize(parts[def])
		hint = strings.Join(parts, "/")
	}
	line, err := t.readLine(fmt.Sprintf("%s [%s] ", prompt, hint))
	if err != nil || line == "" {
		if def >= 0 {
			return def, nil
		}
		return 0, fmt.Errorf("question %q requires an answer: %w", prompt, types.ErrCancelled)
	}
	for i, opt := range options {
		if strings.EqualFold(line, opt) {
			return i, nil
		}
	}
	if n, err := strconv.Atoi(line); err == nil && n >= 0 && n < len(options) {
		return n, nil
	}
	t.Warn("please answer one of: %s", strings.Join(options, ", "))
	return t.Select(prompt, options, def)
}

// Input implements UI.
func (t *Terminal) Input(prompt string) (string, error) {
	if t.Interactive {
		var value string
		input := huh.NewInput().Title(prompt).Value(&value)
		if err := huh.NewForm(huh.NewGroup(input)).Run(); err != nil {
			return "", confirmAborted(err)
		}
		return strings.TrimSpace(value), nil
	}
	line, err := t.readLine(prompt + " ")
	if err != nil {
		return "", fmt.Errorf("no answer to %q: %w", prompt, types.ErrCancelled)
	}
	return line, nil
}

// Show implements UI.
func (t *Terminal) Show(format string, args ...interface{}) {
	fmt.Fprintf(t.Out, format+"\n", args...)
}

// Info implements UI.
func (t *Terminal) Info(format string, args ...interface{}) {
	fmt.Fprintln(t.Out, render(MutedStyle, fmt.Sprintf(format, args...)))
}

// Warn implements UI.
func (t *Terminal) Warn(format string, args ...interface{}) {
	fmt.Fprintln(t.Err, render(WarnStyle, "Warning: "+fmt.Sprintf(format, args...)))
}

// Error implements UI.
func (t *Terminal) Error(format string, args ...interface{}) {
	fmt.Fprintln(t.Err, render(FailStyle, "Error: "+fmt.Sprintf(format, args...)))
}

func (t *Terminal) readLine(prompt string) (string, error) {
	fmt.Fprint(t.Out, prompt)
	if t.reader == nil {
		t.reader = bufio.NewReader(t.In)
	}
	line, err := t.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// confirmAborted maps a ctrl-c'd form to the cancellation sentinel so
// callers treat it like any other declined prompt.
func confirmAborted(err error) error {
	if err == huh.ErrUserAborted {
		return types.ErrCancelled
	}
	return err
}
