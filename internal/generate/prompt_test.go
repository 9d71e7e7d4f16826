package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrompt_OmitsBlankOptionalFields(t *testing.T) {
	out, err := BuildPrompt(Request{FaceImage: "f", VideoTitle: "My Trip", VideoDescription: "  "}, ModeDescribe)
	require.NoError(t, err)

	assert.Contains(t, out, "- Title: My Trip")
	assert.NotContains(t, out, "Description/Keywords")
	assert.NotContains(t, out, "Details:")
	assert.NotContains(t, out, "Text to display")
	assert.NotContains(t, out, "Style:")
}

func TestBuildPrompt_StyleDisplayName(t *testing.T) {
	out, err := BuildPrompt(Request{FaceImage: "f", VideoTitle: "T", Style: "neon-glow"}, ModeRender)
	require.NoError(t, err)
	assert.Contains(t, out, "- Style: Neon Glow")
	assert.Contains(t, out, "Render the thumbnail")
}

func TestHighEnergy(t *testing.T) {
	assert.True(t, highEnergy(Request{VideoTitle: "I gave away $10,000"}))
	assert.True(t, highEnergy(Request{ThumbnailText: "$1 vs $1M"}))
	assert.True(t, highEnergy(Request{ThumbnailDetails: "like Mr. Beast"}))
	assert.True(t, highEnergy(Request{VideoDescription: "24 hour Challenge"}))
	assert.False(t, highEnergy(Request{VideoTitle: "Quiet morning routine"}))

	out, err := BuildPrompt(Request{FaceImage: "f", VideoTitle: "Last to leave wins $500"}, ModeDescribe)
	require.NoError(t, err)
	assert.Contains(t, out, "high-energy")
}
