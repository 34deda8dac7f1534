package worktree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextStashName(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{"empty", nil, "stash/1"},
		{"no stashes", []string{"master", "ticket/1"}, "stash/1"},
		{"sequential", []string{"stash/1", "stash/2"}, "stash/3"},
		{"fills gap", []string{"stash/1", "stash/3"}, "stash/2"},
		{"ignores non-numeric", []string{"stash/foo", "stash/0", "stash/-1"}, "stash/1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextStashName(tt.existing))
		})
	}
}

func TestTrashName(t *testing.T) {
	assert.Equal(t, "trash/ticket/1", TrashName(nil, "ticket/1"))
	assert.Equal(t, "trash/ticket/1_", TrashName([]string{"trash/ticket/1"}, "ticket/1"))
	assert.Equal(t, "trash/ticket/1__",
		TrashName([]string{"trash/ticket/1", "trash/ticket/1_"}, "ticket/1"))
}

func TestNamePredicates(t *testing.T) {
	assert.True(t, IsStashName("stash/1"))
	assert.False(t, IsStashName("ticket/1"))
	assert.True(t, IsTrashName("trash/ticket/1"))
	assert.False(t, IsTrashName("master"))
}
