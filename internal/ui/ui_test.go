package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tktflow/tkt/internal/types"
)

func newLineTerminal(input string) (*Terminal, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &Terminal{
		In:          strings.NewReader(input),
		Out:         out,
		Err:         out,
		Interactive: false,
	}, out
}

func TestTerminalConfirmDefaults(t *testing.T) {
	term, _ := newLineTerminal("\n")
	got, err := term.Confirm("delete branch?", false)
	require.NoError(t, err)
	assert.False(t, got)

	term, _ = newLineTerminal("yes\n")
	got, err = term.Confirm("delete branch?", false)
	require.NoError(t, err)
	assert.True(t, got)

	// Garbage answer reprompts until a usable one arrives.
	term, out := newLineTerminal("maybe\nno\n")
	got, err = term.Confirm("delete branch?", true)
	require.NoError(t, err)
	assert.False(t, got)
	assert.Contains(t, out.String(), "yes or no")
}

func TestTerminalSelect(t *testing.T) {
	options := []string{"discard", "keep", "stash"}

	term, _ := newLineTerminal("stash\n")
	got, err := term.Select("uncommitted changes", options, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	term, _ = newLineTerminal("\n")
	got, err = term.Select("uncommitted changes", options, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	// No default: empty input is a cancellation.
	term, _ = newLineTerminal("\n")
	_, err = term.Select("keep dependencies?", []string{"upload", "download", "keep"}, -1)
	assert.ErrorIs(t, err, types.ErrCancelled)
}

func TestTerminalSelectNumericAnswer(t *testing.T) {
	term, _ := newLineTerminal("2\n")
	got, err := term.Select("pick", []string{"a", "b", "c"}, -1)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestScriptRunsOutOfAnswers(t *testing.T) {
	s := NewScript("yes")

	got, err := s.Confirm("first?", false)
	require.NoError(t, err)
	assert.True(t, got)

	// Exhausted: fall back to the default.
	got, err = s.Confirm("second?", false)
	require.NoError(t, err)
	assert.False(t, got)

	_, err = s.Select("third?", []string{"a", "b"}, -1)
	assert.ErrorIs(t, err, types.ErrCancelled)

	s.Warn("branch %s is gone", "ticket/1")
	assert.True(t, s.Saw("ticket/1 is gone"))
}
