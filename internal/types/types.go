// Package types defines the core identifiers and error taxonomy shared by
// the tkt workflow packages: ticket ids, branch name validation rules, and
// the sentinel/typed errors every layer agrees on.
package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// TicketID identifies a ticket on the tracker. Valid ids are non-negative.
type TicketID int

func (t TicketID) String() string {
	return fmt.Sprintf("#%d", int(t))
}

// ParseTicket parses a ticket reference such as "123" or "#123".
// It returns an InvalidNameError if s is not a non-negative integer.
func ParseTicket(s string) (TicketID, error) {
	raw := strings.TrimPrefix(s, "#")
	n, err := strconv.Atoi(raw)
	if err != nil || raw != strconv.Itoa(n) || n < 0 {
		return 0, &InvalidNameError{Kind: "ticket", Name: s}
	}
	return TicketID(n), nil
}

// IsTicketName reports whether s looks like a ticket reference.
// Branch names that look like tickets are refused everywhere to keep the
// ticket/branch namespaces unambiguous.
func IsTicketName(s string) bool {
	_, err := ParseTicket(s)
	return err == nil
}

// reservedBranchNames are trap names that must never name a local branch.
var reservedBranchNames = map[string]bool{
	"None":         true,
	"True":         true,
	"False":        true,
	"dependencies": true,
}

// ValidBranchName reports whether name is acceptable as a local branch name:
// it must satisfy git's ref-format rules, must not be a reserved trap name,
// and must not be mistakable for a ticket reference.
func ValidBranchName(name string) bool {
	if name == "" || reservedBranchNames[name] || IsTicketName(name) {
		return false
	}
	return validRefFormat(name)
}

// CheckBranchName returns an InvalidNameError unless name is a valid local
// branch name.
func CheckBranchName(name string) error {
	if !ValidBranchName(name) {
		return &InvalidNameError{Kind: "branch", Name: name}
	}
	return nil
}

// validRefFormat applies the same constraints git check-ref-format enforces
// on a ref name.
func validRefFormat(name string) bool {
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") ||
		strings.HasSuffix(name, ".") || strings.HasSuffix(name, ".lock") {
		return false
	}
	if strings.Contains(name, "..") || strings.Contains(name, "//") ||
		strings.Contains(name, "/.") || strings.Contains(name, "@{") ||
		strings.Contains(name, "\\") {
		return false
	}
	for _, r := range name {
		switch {
		case r <= 0x20 || r == 0x7f:
			return false
		case r == '~' || r == '^' || r == ':' || r == '?' || r == '*' || r == '[':
			return false
		}
	}
	return true
}

// ErrCancelled reports that the user declined a required step or that a
// precondition made the operation meaningless. It is not a failure: callers
// roll back any intermediate state and propagate it unchanged.
var ErrCancelled = errors.New("operation cancelled")

// IsCancelled reports whether err is (or wraps) a user cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// InvalidNameError reports a syntactically invalid or reserved ticket/branch
// name. It is always raised before any repository or tracker mutation.
type InvalidNameError struct {
	Kind string // "ticket", "branch", "remote branch", "stash"
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("`%s` is not a valid %s name", e.Name, e.Kind)
}

// NotFoundError reports that a ticket or branch does not exist where
// existence was required, or already exists where it must not.
type NotFoundError struct {
	Kind   string
	Name   string
	Exists bool // true: found where non-existence was required
}

func (e *NotFoundError) Error() string {
	if e.Exists {
		return fmt.Sprintf("%s `%s` already exists", e.Kind, e.Name)
	}
	return fmt.Sprintf("%s `%s` does not exist", e.Kind, e.Name)
}
