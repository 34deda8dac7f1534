// Package ui abstracts user interaction for the workflow commands. The
// workflow packages prompt through the UI interface so that tests can script
// answers; Terminal implements it for real terminals with an interactive
// form when stdin is a TTY and a plain line reader otherwise.
package ui

// UI is the prompting and reporting surface the workflow depends on.
//
// Prompts with a default must return that default when the user just hits
// enter or when no interactive answer can be obtained. Prompts without a
// default (Select with def < 0) require an explicit answer and fail when
// none can be obtained.
type UI interface {
	// Confirm asks a yes/no question. def is the answer chosen on empty
	// input.
	Confirm(prompt string, def bool) (bool, error)

	// Select asks the user to pick one of options and returns its index.
	// def is the index chosen on empty input; a negative def means there
	// is no default and the user must answer explicitly.
	Select(prompt string, options []string, def int) (int, error)

	// Input asks for a free-form line of text.
	Input(prompt string) (string, error)

	// Show prints verbatim output (diffs, logs) to the user.
	Show(format string, args ...interface{})

	// Info prints an informational message.
	Info(format string, args ...interface{})

	// Warn prints a warning.
	Warn(format string, args ...interface{})

	// Error prints an error message.
	Error(format string, args ...interface{})
}
