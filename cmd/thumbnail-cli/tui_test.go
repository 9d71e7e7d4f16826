package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpang/yt-thumbnail-wizard/internal/generate"
	"github.com/fpang/yt-thumbnail-wizard/internal/style"
	"github.com/fpang/yt-thumbnail-wizard/internal/wizard"
)

type stubGenerator struct{ calls int }

func (s *stubGenerator) Generate(ctx context.Context, req generate.Request) (*generate.Response, error) {
	s.calls++
	return &generate.Response{ThumbnailURL: req.FaceImage, Description: "bold"}, nil
}

func press(t *testing.T, m wizardModel, msg tea.Msg) wizardModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(wizardModel)
}

var enter = tea.KeyMsg{Type: tea.KeyEnter}

func newTestModel(t *testing.T) (wizardModel, string) {
	t.Helper()
	dir := t.TempDir()
	for _, n := range []string{"sunset.png", "neon-glow.jpg", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}
	face := writePNG(t, t.TempDir(), "face.png")
	res := style.NewResolver(style.DirSource{Dir: dir, BaseURL: "http://localhost:8080/styles"})
	return newWizardModel(context.Background(), res, &stubGenerator{}), face
}

func (m wizardModel) atReview(t *testing.T, face string) wizardModel {
	t.Helper()
	m.face.SetValue(face)
	m = press(t, m, enter)
	m.video[0].SetValue("Budget Travel Tips")
	m = press(t, m, enter)
	return press(t, m, enter)
}

func TestWizardModelFlow(t *testing.T) {
	m, face := newTestModel(t)

	m = press(t, m, enter)
	assert.Equal(t, wizard.StepUploadFace, m.ws.Step)
	assert.Equal(t, "face image required", m.err)

	m.face.SetValue(face)
	m = press(t, m, enter)
	require.Equal(t, wizard.StepVideoInfo, m.ws.Step)
	assert.Empty(t, m.err)
	assert.Equal(t, "neon-glow", m.ws.SelectedStyleID)

	m = press(t, m, enter)
	assert.Equal(t, "title required", m.err)
	assert.Equal(t, wizard.StepVideoInfo, m.ws.Step)

	m.video[0].SetValue("Budget Travel Tips")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 1, m.focus)
	m = press(t, m, enter)
	require.Equal(t, wizard.StepSelectStyle, m.ws.Step)
	require.Len(t, m.options, 2)
	assert.Equal(t, 0, m.cursor)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(t, m, enter)
	require.Equal(t, wizard.StepReview, m.ws.Step)
	assert.Equal(t, "sunset", m.ws.SelectedStyleID)

	m = press(t, m, enter)
	require.True(t, m.generating)
	m = press(t, m, generatedMsg{
		resp:  &generate.Response{ThumbnailURL: "https://cdn.example.com/t.jpg", Description: "bold", RecordID: "r1"},
		token: m.ws.Generation,
	})
	assert.False(t, m.generating)
	require.Equal(t, wizard.StepDone, m.ws.Step)
	assert.Equal(t, "https://cdn.example.com/t.jpg", m.ws.GeneratedThumbnailRef)
	assert.Equal(t, "r1", m.ws.RecordID)
	assert.Contains(t, m.View(), "budget-travel-tips.jpg")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	assert.Equal(t, wizard.StepUploadFace, m.ws.Step)
	assert.Empty(t, m.ws.VideoTitle)
	assert.Empty(t, m.video[0].Value())
}

func TestWizardModelBackKeepsValues(t *testing.T) {
	m, face := newTestModel(t)
	m = m.atReview(t, face)
	require.Equal(t, wizard.StepReview, m.ws.Step)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, wizard.StepSelectStyle, m.ws.Step)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, wizard.StepVideoInfo, m.ws.Step)
	assert.Equal(t, "Budget Travel Tips", m.video[0].Value())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, wizard.StepUploadFace, m.ws.Step)
	assert.Equal(t, face, m.face.Value())
}

func TestWizardModelGenerationFailureStaysOnReview(t *testing.T) {
	m, face := newTestModel(t)
	m = m.atReview(t, face)
	require.Equal(t, wizard.StepReview, m.ws.Step)

	m = press(t, m, enter)
	m = press(t, m, generatedMsg{
		err:   &generate.UpstreamError{Message: "thumbnail service is busy, please try again shortly", Err: errors.New("429")},
		token: m.ws.Generation,
	})
	assert.Equal(t, wizard.StepReview, m.ws.Step)
	assert.Empty(t, m.ws.GeneratedThumbnailRef)
	assert.Equal(t, "thumbnail service is busy, please try again shortly", m.err)
}

func TestWizardModelDiscardsStaleResult(t *testing.T) {
	m, face := newTestModel(t)
	m = m.atReview(t, face)
	m = press(t, m, enter)
	token := m.ws.Generation

	m.ws.Reset()
	m = press(t, m, generatedMsg{resp: &generate.Response{ThumbnailURL: "https://cdn.example.com/t.jpg"}, token: token})
	assert.Equal(t, wizard.StepUploadFace, m.ws.Step)
	assert.Empty(t, m.ws.GeneratedThumbnailRef)
	assert.NotEmpty(t, m.err)
}
