package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiTurns(t *testing.T) {
	system, turns := geminiTurns(transcript)

	assert.Equal(t, "You are a verification agent.", system)
	require.Len(t, turns, 3)
	assert.Equal(t, "user", turns[0].role)
	assert.Equal(t, "model", turns[1].role)
	assert.Equal(t, "user", turns[2].role)
	assert.Contains(t, turns[2].text, "Tool output:")
}

func TestGeminiTurns_MergesConsecutiveRoles(t *testing.T) {
	_, turns := geminiTurns([]Message{
		{Role: RoleUser, Content: "a"},
		{Role: RoleUser, Content: "b"},
		{Role: RoleAssistant, Content: "c"},
	})

	require.Len(t, turns, 3)
	assert.Equal(t, "a\n\nb", turns[0].text)
	assert.Equal(t, "Continue.", turns[2].text, "a trailing model turn gets a user nudge")
}

func TestGeminiTurns_Empty(t *testing.T) {
	system, turns := geminiTurns(nil)
	assert.Empty(t, system)
	require.Len(t, turns, 1)
	assert.Equal(t, "user", turns[0].role)
}
