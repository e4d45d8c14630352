package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"karolbroda.com/scrollreel/internal/colors"
	"karolbroda.com/scrollreel/internal/frame"
	"karolbroda.com/scrollreel/internal/scene"
)

func (m Model) View() string {
	width := m.width
	height := m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	if m.quitting {
		return ""
	}

	palette := frame.DefaultPalette()

	if m.err != nil {
		return m.renderMessage(width, height, lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Render(m.err.Error()))
	}
	if m.anim == nil {
		dim := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim)).Italic(true)
		return m.renderMessage(width, height, m.spinner.View()+" "+dim.Render("loading scenes"))
	}

	vh := m.viewportHeight()
	active := m.anim.ActiveScene()
	s := m.anim.Layout().Scene(active)

	var rows []string
	if s != nil && s.Kind == scene.Pinned {
		rows = m.renderPinned(active, s, width, vh)
	} else {
		rows = m.renderPage(width, vh)
	}

	if m.help.ShowAll {
		helpLines := strings.Split(m.help.View(m.keys), "\n")
		start := max(0, len(rows)-len(helpLines)-1)
		for i, l := range helpLines {
			if start+i < len(rows) {
				rows[start+i] = "  " + l
			}
		}
	}

	rows = append(rows, m.renderStatus(width))
	return strings.Join(rows, "\n")
}

func (m Model) renderMessage(width int, height int, text string) string {
	lines := make([]string, height)
	lines[height/2] = centerText(text, lipgloss.Width(text), width)
	return strings.Join(lines, "\n")
}

// renderPinned fills the viewport with the scene's current frame and lays
// the title over it.
func (m Model) renderPinned(idx int, s *scene.Scene, width int, height int) []string {
	rows := make([]string, height)

	if m.canvas.KittyEnabled() {
		rows[0] = m.canvas.Kitty(idx, width, height)
	} else {
		m.placeFrame(rows, idx, 0, width, height)
	}

	if s.Title == "" {
		return rows
	}

	opacity := 1.0
	if v, ok := m.anim.Value(scene.ChannelTitleOpacity); ok {
		opacity = v
	}
	if opacity <= 0.02 {
		return rows
	}

	var translate float64
	if v, ok := m.anim.Value(scene.ChannelTitleTranslate); ok {
		translate = v
	}

	row := height/2 - int(math.Round(translate))
	if row < 0 || row >= height {
		return rows
	}

	palette := m.canvas.Palette(idx)
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colors.Fade(palette.Primary, colors.Background, opacity)))
	title := style.Render(strings.ToUpper(s.Title))
	rows[row] = centerText(title, lipgloss.Width(title), width)

	return rows
}

// placeFrame writes the scene's frame into rows, centred, with its top at
// page row top relative to the viewport.
func (m Model) placeFrame(rows []string, idx int, top int, width int, height int) {
	lines := m.canvas.Lines(idx, width, height)
	if len(lines) == 0 {
		return
	}

	top += (height - len(lines)) / 2
	pad := strings.Repeat(" ", max(0, (width-lipgloss.Width(lines[0]))/2))

	for i, l := range lines {
		if r := top + i; r >= 0 && r < len(rows) {
			rows[r] = pad + l
		}
	}
}

// renderPage draws the page as a document scrolled to the smoothed offset.
// A pinned scene below the active one scrolls into view on its first frame.
func (m Model) renderPage(width int, height int) []string {
	rows := make([]string, height)

	layout := m.anim.Layout()
	active := m.anim.ActiveScene()
	top := int(math.Floor(m.anim.SmoothedOffset()))

	palette := frame.DefaultPalette()
	margin := strings.Repeat(" ", textMargin)

	bodyColor := "#D8DEE9"
	if v, ok := m.anim.Value(scene.ChannelBodyOpacity); ok {
		bodyColor = colors.Fade(bodyColor, colors.Background, v)
	}
	activeBody := lipgloss.NewStyle().Foreground(lipgloss.Color(bodyColor))
	otherBody := lipgloss.NewStyle().Foreground(lipgloss.Color("#D8DEE9"))

	placed := make(map[int]bool)

	for y := 0; y < height; y++ {
		p := float64(top + y)
		if p < 0 || p >= layout.TotalExtent() {
			continue
		}

		i := layout.IndexAt(p + 0.5)
		s := layout.Scene(i)
		start := layout.PrecedingExtentSum(i)

		if s.Kind == scene.Pinned {
			if !placed[i] {
				placed[i] = true
				m.placeFrame(rows, i, int(start)-top, width, height)
			}
			continue
		}

		block := m.texts.get(s.Name, s.Title, s.Body, width)
		text, isTitle := block.line(int(p - start))
		if text == "" {
			continue
		}

		switch {
		case isTitle:
			rows[y] = margin + colors.GradientText(text, palette.Gradient, true)
		case i == active:
			rows[y] = margin + activeBody.Render(text)
		default:
			rows[y] = margin + otherBody.Render(text)
		}
	}

	return rows
}

func (m Model) renderStatus(width int) string {
	layout := m.anim.Layout()
	active := m.anim.ActiveScene()
	palette := m.canvas.Palette(active)

	markerColor := palette.Dim
	if !m.changes.changed.IsZero() && time.Since(m.changes.changed) < highlightPeriod {
		markerColor = palette.Accent
	}
	marker := lipgloss.NewStyle().Foreground(lipgloss.Color(markerColor)).Render("●")

	name := ""
	if s := layout.Scene(active); s != nil {
		name = s.Name
	}
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim))
	left := fmt.Sprintf(" %s %s %s", marker, dim.Render(fmt.Sprintf("%d/%d", active+1, layout.Len())), name)

	percent := 0.0
	if mo := m.maxOffset(); mo > 0 {
		percent = max(0, min(1, m.anim.SmoothedOffset()/mo))
	}
	bar := m.progress.ViewAs(percent)

	right := ""
	if m.following {
		right = dim.Render("following ")
	}
	if !m.help.ShowAll {
		right += m.help.ShortHelpView(m.keys.ShortHelp())
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(bar) - lipgloss.Width(right) - 4
	if gap < 0 {
		right = ""
		gap = max(0, width-lipgloss.Width(left)-lipgloss.Width(bar)-4)
	}

	return left + "  " + bar + strings.Repeat(" ", gap) + "  " + right
}

func centerText(text string, visualWidth int, screenWidth int) string {
	padding := (screenWidth - visualWidth) / 2
	if padding < 0 {
		padding = 0
	}
	return strings.Repeat(" ", padding) + text
}
