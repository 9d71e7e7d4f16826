package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fpang/yt-thumbnail-wizard/internal/generate"
	"github.com/fpang/yt-thumbnail-wizard/internal/local"
	"github.com/fpang/yt-thumbnail-wizard/internal/style"
	"github.com/fpang/yt-thumbnail-wizard/internal/wizard"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Walk through the thumbnail wizard step by step",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, env, err := buildEnv(cmd.Context(), local.Options{})
		if err != nil {
			return err
		}
		_, err = tea.NewProgram(newWizardModel(ctx, env.Styles, env.Generate)).Run()
		return err
	},
}

// videoInputs are the text fields of the video info step, in tab order.
var videoInputs = []struct {
	field       wizard.Field
	label       string
	placeholder string
	limit       int
}{
	{wizard.FieldVideoTitle, "Title", "I Tried 100 Hot Sauces", 300},
	{wizard.FieldVideoDescription, "Description", "optional", 5000},
	{wizard.FieldThumbnailDetails, "Thumbnail details", "shocked face, flames in the background", 2000},
	{wizard.FieldThumbnailText, "Text overlay", "TOO HOT?!", 200},
}

type generatedMsg struct {
	resp  *generate.Response
	err   error
	token int
}

// wizardModel drives a wizard.Session from the terminal.
type wizardModel struct {
	ctx    context.Context
	styles *style.Resolver
	gen    generate.Generator

	ws      *wizard.Session
	face    textinput.Model
	video   []textinput.Model
	focus   int
	options []style.Option
	cursor  int

	generating bool
	spinner    spinner.Model
	warning    string
	err        string
	quitting   bool

	titleStyle   lipgloss.Style
	dimStyle     lipgloss.Style
	errStyle     lipgloss.Style
	warnStyle    lipgloss.Style
	cursorStyle  lipgloss.Style
	currentStyle lipgloss.Style
}

func newWizardModel(ctx context.Context, styles *style.Resolver, gen generate.Generator) wizardModel {
	face := textinput.New()
	face.Placeholder = "path/to/face.jpg or https://..."
	face.CharLimit = 2048
	face.Width = 60
	face.Focus()

	video := make([]textinput.Model, len(videoInputs))
	for i, in := range videoInputs {
		ti := textinput.New()
		ti.Placeholder = in.placeholder
		ti.CharLimit = in.limit
		ti.Width = 60
		video[i] = ti
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return wizardModel{
		ctx:     ctx,
		styles:  styles,
		gen:     gen,
		ws:      wizard.New(uuid.NewString(), ""),
		face:    face,
		video:   video,
		spinner: sp,

		titleStyle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		dimStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		errStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		warnStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		cursorStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
		currentStyle: lipgloss.NewStyle().Bold(true).Underline(true),
	}
}

func (m wizardModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case generatedMsg:
		return m.onGenerated(msg), nil
	case spinner.TickMsg:
		if !m.generating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "esc":
			if m.generating {
				return m, nil
			}
			m.err, m.warning = "", ""
			if wizard.Retreat(m.ws) {
				m.enterStep()
			}
			cmd := m.focusCmd()
			return m, cmd
		}
		return m.updateStep(msg)
	}
	return m, nil
}

func (m wizardModel) updateStep(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch m.ws.Step {
	case wizard.StepUploadFace:
		if key == "enter" {
			return m.submitFace()
		}
		var cmd tea.Cmd
		m.face, cmd = m.face.Update(msg)
		return m, cmd

	case wizard.StepVideoInfo:
		switch key {
		case "tab", "down":
			m.focus = (m.focus + 1) % len(m.video)
			cmd := m.focusCmd()
			return m, cmd
		case "shift+tab", "up":
			m.focus = (m.focus + len(m.video) - 1) % len(m.video)
			cmd := m.focusCmd()
			return m, cmd
		case "enter":
			m.syncVideo()
			return m.advance()
		}
		var cmd tea.Cmd
		m.video[m.focus], cmd = m.video[m.focus].Update(msg)
		return m, cmd

	case wizard.StepSelectStyle:
		switch key {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}
		case "enter":
			if m.cursor < len(m.options) {
				m.ws.SetField(wizard.FieldSelectedStyle, m.options[m.cursor].ID)
			}
			return m.advance()
		}
		return m, nil

	case wizard.StepReview:
		if key == "enter" && !m.generating {
			return m.startGenerate()
		}
		return m, nil

	case wizard.StepDone:
		switch key {
		case "n":
			m.ws.Reset()
			m.face.SetValue("")
			for i := range m.video {
				m.video[i].SetValue("")
			}
			m.err, m.warning = "", ""
			m.enterStep()
			cmd := m.focusCmd()
			return m, cmd
		case "q", "enter":
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m wizardModel) submitFace() (tea.Model, tea.Cmd) {
	m.err = ""
	if strings.TrimSpace(m.face.Value()) != "" {
		ref, err := faceRef(m.face.Value())
		if err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.ws.SetField(wizard.FieldFaceImage, ref)
		cat := m.styles.AfterFaceUpload(m.ctx, m.ws)
		m.warning = cat.Warning
	}
	return m.advance()
}

func (m *wizardModel) syncVideo() {
	for i, in := range videoInputs {
		m.ws.SetField(in.field, m.video[i].Value())
	}
}

func (m wizardModel) advance() (tea.Model, tea.Cmd) {
	warning, err := wizard.Advance(m.ws)
	if err != nil {
		m.err = err.Error()
		return m, nil
	}
	m.err = ""
	if warning != "" {
		m.warning = warning
	}
	m.enterStep()
	cmd := m.focusCmd()
	return m, cmd
}

// enterStep refreshes what the current step shows.
func (m *wizardModel) enterStep() {
	if m.ws.Step != wizard.StepSelectStyle {
		return
	}
	cat := m.styles.EnterStyleStep(m.ctx, m.ws)
	m.options = cat.Options
	if cat.Warning != "" {
		m.warning = cat.Warning
	}
	m.cursor = 0
	for i, o := range m.options {
		if o.ID == m.ws.SelectedStyleID {
			m.cursor = i
		}
	}
}

func (m *wizardModel) focusCmd() tea.Cmd {
	m.face.Blur()
	for i := range m.video {
		m.video[i].Blur()
	}
	switch m.ws.Step {
	case wizard.StepUploadFace:
		return m.face.Focus()
	case wizard.StepVideoInfo:
		return m.video[m.focus].Focus()
	}
	return nil
}

func (m wizardModel) startGenerate() (tea.Model, tea.Cmd) {
	if err := wizard.CheckGenerate(m.ws); err != nil {
		m.err = err.Error()
		return m, nil
	}
	m.err, m.warning = "", ""
	m.generating = true
	req := generate.Request{
		FaceImage:        m.ws.FaceImageRef,
		VideoTitle:       m.ws.VideoTitle,
		VideoDescription: m.ws.VideoDescription,
		ThumbnailDetails: m.ws.ThumbnailDetails,
		ThumbnailText:    m.ws.ThumbnailText,
		Style:            m.ws.SelectedStyleID,
	}
	token, ctx, gen := m.ws.Generation, m.ctx, m.gen
	run := func() tea.Msg {
		resp, err := gen.Generate(ctx, req)
		return generatedMsg{resp: resp, err: err, token: token}
	}
	return m, tea.Batch(m.spinner.Tick, run)
}

func (m wizardModel) onGenerated(msg generatedMsg) wizardModel {
	m.generating = false
	if msg.err != nil {
		m.err = generate.ClientMessage(msg.err)
		return m
	}
	err := wizard.Complete(m.ws, wizard.Result{
		ThumbnailURL: msg.resp.ThumbnailURL,
		Description:  msg.resp.Description,
		Generation:   msg.token,
	})
	if err != nil {
		m.err = err.Error()
		return m
	}
	m.ws.RecordID = msg.resp.RecordID
	m.warning = msg.resp.Warning
	return m
}

func (m wizardModel) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.titleStyle.Render("YouTube Thumbnail Wizard"))
	b.WriteString("\n\n")
	b.WriteString(m.stepIndicator())
	b.WriteString("\n\n")

	switch m.ws.Step {
	case wizard.StepUploadFace:
		b.WriteString("Face photo\n")
		b.WriteString(m.face.View())
		b.WriteString("\n")
		b.WriteString(m.dimStyle.Render("or one of the examples:"))
		b.WriteString("\n")
		for _, u := range wizard.ExampleFaces {
			b.WriteString(m.dimStyle.Render("  " + u))
			b.WriteString("\n")
		}
	case wizard.StepVideoInfo:
		for i, in := range videoInputs {
			label := in.label
			if i == m.focus {
				label = m.cursorStyle.Render(label)
			}
			fmt.Fprintf(&b, "%s\n%s\n\n", label, m.video[i].View())
		}
	case wizard.StepSelectStyle:
		if len(m.options) == 0 {
			b.WriteString(m.dimStyle.Render("No styles available. Press enter to continue without one."))
			b.WriteString("\n")
		}
		for i, o := range m.options {
			prefix := "  "
			if i == m.cursor {
				prefix = m.cursorStyle.Render("> ")
			}
			fmt.Fprintf(&b, "%s%s %s\n", prefix, o.DisplayName, m.dimStyle.Render(o.PreviewURL))
		}
	case wizard.StepReview:
		b.WriteString(m.summary())
		b.WriteString("\n")
		if m.generating {
			b.WriteString(m.spinner.View() + " Generating...")
		} else {
			b.WriteString("Press enter to generate.")
		}
		b.WriteString("\n")
	case wizard.StepDone:
		fmt.Fprintf(&b, "Thumbnail:      %s\n", m.ws.GeneratedThumbnailRef)
		fmt.Fprintf(&b, "Download name:  %s\n", generate.DownloadName(m.ws.VideoTitle, time.Now()))
		if m.ws.GeneratedDescription != "" {
			fmt.Fprintf(&b, "\n%s\n", m.ws.GeneratedDescription)
		}
		b.WriteString("\n")
		b.WriteString(m.dimStyle.Render("n: create another  q: quit"))
		b.WriteString("\n")
	}

	if m.warning != "" {
		b.WriteString("\n" + m.warnStyle.Render(m.warning) + "\n")
	}
	if m.err != "" {
		b.WriteString("\n" + m.errStyle.Render(m.err) + "\n")
	}
	b.WriteString("\n" + m.dimStyle.Render("enter: next  esc: back  ctrl+c: quit") + "\n")
	return b.String()
}

func (m wizardModel) stepIndicator() string {
	labels := wizard.Labels()
	parts := make([]string, len(labels))
	for i, l := range labels {
		if wizard.Step(i+1) == m.ws.Step {
			parts[i] = m.currentStyle.Render(fmt.Sprintf("%d. %s", i+1, l))
		} else {
			parts[i] = m.dimStyle.Render(fmt.Sprintf("%d. %s", i+1, l))
		}
	}
	return strings.Join(parts, m.dimStyle.Render("  >  "))
}

func (m wizardModel) summary() string {
	face := m.ws.FaceImageRef
	if generate.IsDataURI(face) {
		face = "(uploaded file)"
	}
	styleName := "none"
	if m.ws.SelectedStyleID != "" {
		styleName = style.DisplayName(m.ws.SelectedStyleID)
	}
	rows := [][2]string{
		{"Face", face},
		{"Title", m.ws.VideoTitle},
		{"Description", m.ws.VideoDescription},
		{"Details", m.ws.ThumbnailDetails},
		{"Text", m.ws.ThumbnailText},
		{"Style", styleName},
	}
	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "%-12s %s\n", r[0]+":", r[1])
	}
	return b.String()
}
