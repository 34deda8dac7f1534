package git

import (
	"fmt"
	"strings"
)

// CommandError reports a git invocation that exited non-zero. It carries the
// raw stdout/stderr for user diagnosis. Callers that understand the likely
// cause attach an Explain line and a suggested follow-up command via Advice.
type CommandError struct {
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Explain  string
	Advice   string
}

func (e *CommandError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "git exited with code %d", e.ExitCode)
	fmt.Fprintf(&b, "\nwhile executing `git %s`", strings.Join(e.Args, " "))
	if e.Explain != "" {
		b.WriteString("\n")
		b.WriteString(e.Explain)
	}
	if out := strings.TrimSpace(e.Stdout); out != "" {
		b.WriteString("\nstdout:\n")
		b.WriteString(out)
	}
	if errOut := strings.TrimSpace(e.Stderr); errOut != "" {
		b.WriteString("\nstderr:\n")
		b.WriteString(errOut)
	}
	if e.Advice != "" {
		b.WriteString("\n")
		b.WriteString(e.Advice)
	}
	return b.String()
}

// Output returns the combined stdout and stderr lines of the failed command,
// in that order, with trailing whitespace trimmed.
func (e *CommandError) Output() []string {
	var lines []string
	for _, chunk := range []string{e.Stdout, e.Stderr} {
		for _, line := range strings.Split(strings.TrimRight(chunk, "\n"), "\n") {
			if line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines
}
