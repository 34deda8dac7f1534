package worktree

import (
	"strconv"
	"strings"
)

const (
	stashPrefix = "stash/"
	trashPrefix = "trash/"
)

// IsStashName reports whether branch is a stash branch.
func IsStashName(branch string) bool {
	return strings.HasPrefix(branch, stashPrefix)
}

// IsTrashName reports whether branch is a trash branch.
func IsTrashName(branch string) bool {
	return strings.HasPrefix(branch, trashPrefix)
}

// NextStashName returns "stash/N" for the first positive N not taken by any
// existing branch.
func NextStashName(existing []string) string {
	taken := make(map[int]bool)
	for _, branch := range existing {
		if !IsStashName(branch) {
			continue
		}
		if n, err := strconv.Atoi(branch[len(stashPrefix):]); err == nil && n > 0 {
			taken[n] = true
		}
	}
	n := 1
	for taken[n] {
		n++
	}
	return stashPrefix + strconv.Itoa(n)
}

// TrashName returns "trash/<branch>", appending underscores until the name
// does not collide with an existing branch.
func TrashName(existing []string, branch string) string {
	taken := make(map[string]bool, len(existing))
	for _, b := range existing {
		taken[b] = true
	}
	name := trashPrefix + branch
	for taken[name] {
		name += "_"
	}
	return name
}
