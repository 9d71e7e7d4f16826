package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"ID", "NAME", "PREVIEW"},
		[][]string{
			{"neon-glow", "Neon Glow", "http://localhost:8080/styles/neon-glow.jpg"},
			{"sunset", "Sunset", "http://localhost:8080/styles/sunset.png"},
		},
	)

	header := strings.Index(out, "PREVIEW")
	first := strings.Index(out, "Neon Glow")
	second := strings.Index(out, "sunset.png")
	assert.GreaterOrEqual(t, header, 0)
	assert.Greater(t, first, header)
	assert.Greater(t, second, first)
	assert.Contains(t, out, "│")

	assert.Empty(t, renderTable(nil, nil))
}
