package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTicket(t *testing.T) {
	tests := []struct {
		in      string
		want    TicketID
		wantErr bool
	}{
		{"1", 1, false},
		{"#1", 1, false},
		{"0", 0, false},
		{"#1234", 1234, false},
		{"-1", 0, true},
		{"#-1", 0, true},
		{"1 000", 0, true},
		{"", 0, true},
		{"#", 0, true},
		{"master", 0, true},
		{"01", 0, true}, // leading zeros are not canonical ticket names
		{"1.5", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseTicket(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "ParseTicket(%q)", tt.in)
			var invalid *InvalidNameError
			assert.ErrorAs(t, err, &invalid)
		} else {
			require.NoError(t, err, "ParseTicket(%q)", tt.in)
			assert.Equal(t, tt.want, got)
		}
	}
}

func TestValidBranchName(t *testing.T) {
	valid := []string{
		"ticket/1", "u/alice/ticket/1", "stash/1", "trash/ticket/1",
		"feature-x", "a.b", "branch_1",
	}
	for _, name := range valid {
		assert.True(t, ValidBranchName(name), "expected %q to be valid", name)
	}

	invalid := []string{
		"", "None", "True", "False", "dependencies",
		"1", "#1", // ticket lookalikes
		"/leading", "trailing/", "a..b", "a//b", "a/.b",
		"has space", "has~tilde", "has^caret", "has:colon",
		"has?question", "has*star", "has[bracket", "a@{b",
		"back\\slash", "ends.", "ends.lock",
	}
	for _, name := range invalid {
		assert.False(t, ValidBranchName(name), "expected %q to be invalid", name)
	}
}

func TestTicketIDString(t *testing.T) {
	assert.Equal(t, "#42", TicketID(42).String())
}

func TestIsCancelled(t *testing.T) {
	assert.True(t, IsCancelled(ErrCancelled))
	assert.False(t, IsCancelled(&NotFoundError{Kind: "branch", Name: "x"}))
}
