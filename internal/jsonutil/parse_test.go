package jsonutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type layout struct {
	Headline string   `json:"headline"`
	Palette  []string `json:"palette"`
}

func TestParse_Fenced(t *testing.T) {
	raw := "```json\n{\"headline\":\"I WON $10K\",\"palette\":[\"yellow\",\"red\"]}\n```"

	got, err := Parse[layout](raw)
	require.NoError(t, err)
	assert.Equal(t, "I WON $10K", got.Headline)
	assert.Equal(t, []string{"yellow", "red"}, got.Palette)
}

func TestParse_EmbeddedInProse(t *testing.T) {
	raw := `Here is the layout you asked for: {"headline":"Shocked {face}","palette":[]} Let me know!`

	got, err := Parse[layout](raw)
	require.NoError(t, err)
	assert.Equal(t, "Shocked {face}", got.Headline)
}

func TestParse_NoJSON(t *testing.T) {
	_, err := Parse[layout]("A bold, bright thumbnail with a surprised face.")
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse[layout](`{"headline": 12}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestExtract_Unterminated(t *testing.T) {
	_, err := Extract(`{"headline": "x"`)
	require.Error(t, err)
}

func TestExtract_EscapedQuotes(t *testing.T) {
	got, err := Extract(`x {"a":"say \"}\" now"} y`)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"say \"}\" now"}`, got)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, "plain", StripFences("  plain "))
	assert.Equal(t, "[1]", StripFences("```\n[1]\n```"))
	assert.Equal(t, "```", StripFences("```"))
}
