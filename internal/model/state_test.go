package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_Known(t *testing.T) {
	for _, s := range AllStates {
		assert.True(t, s.Known(), "%s should be known", s)
	}
	assert.False(t, StateDisabled.Known())
	assert.False(t, State("BOGUS").Known())
}

func TestAllStates_NoDuplicates(t *testing.T) {
	seen := make(map[State]bool)
	for _, s := range AllStates {
		assert.False(t, seen[s], "duplicate state %s", s)
		seen[s] = true
	}
	assert.Len(t, AllStates, 5)
}
