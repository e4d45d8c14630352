package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"
	"github.com/mattn/go-runewidth"

	"karolbroda.com/scrollreel/internal/scene"
)

const (
	textMargin  = 4
	textPadding = 1
)

// textBlock is a normal scene laid out at one width.
type textBlock struct {
	title []string
	body  []string
}

// rows is the scene's natural height: padding, title, gap, body, padding.
func (b textBlock) rows() int {
	n := 2 * textPadding
	n += len(b.title)
	if len(b.title) > 0 && len(b.body) > 0 {
		n++
	}
	return n + len(b.body)
}

// line returns row i relative to the top of the scene and whether it
// belongs to the title.
func (b textBlock) line(i int) (string, bool) {
	i -= textPadding
	if i < 0 {
		return "", false
	}
	if i < len(b.title) {
		return b.title[i], true
	}
	i -= len(b.title)
	if len(b.title) > 0 && len(b.body) > 0 {
		if i == 0 {
			return "", false
		}
		i--
	}
	if i < len(b.body) {
		return b.body[i], false
	}
	return "", false
}

func layoutText(title string, body string, width int) textBlock {
	inner := width - 2*textMargin
	if inner < 10 {
		inner = 10
	}

	var b textBlock
	if title != "" {
		b.title = figletTitle(title, inner)
	}
	if body != "" {
		wrapped := lipgloss.NewStyle().Width(inner).Render(strings.TrimRight(body, "\n"))
		b.body = strings.Split(wrapped, "\n")
	}
	return b
}

// figletTitle renders title as a figlet banner when it fits, otherwise as a
// single line.
func figletTitle(title string, width int) []string {
	banner := figure.NewFigure(title, "", false).Slicify()

	widest := 0
	for _, l := range banner {
		widest = max(widest, runewidth.StringWidth(l))
	}

	for len(banner) > 0 && strings.TrimSpace(banner[len(banner)-1]) == "" {
		banner = banner[:len(banner)-1]
	}

	if widest == 0 || widest > width || len(banner) == 0 {
		return []string{strings.ToUpper(title)}
	}
	return banner
}

// textLayouts memoizes text blocks by scene name for one width.
type textLayouts struct {
	width  int
	blocks map[string]textBlock
}

func newTextLayouts() *textLayouts {
	return &textLayouts{blocks: make(map[string]textBlock)}
}

func (t *textLayouts) get(name string, title string, body string, width int) textBlock {
	if width != t.width {
		t.width = width
		t.blocks = make(map[string]textBlock)
	}
	if b, ok := t.blocks[name]; ok {
		return b
	}
	b := layoutText(title, body, width)
	t.blocks[name] = b
	return b
}

// measurer returns the natural height of normal scenes at width.
func (t *textLayouts) measurer(width int) scene.Measurer {
	return scene.MeasureFunc(func(d scene.Descriptor) float64 {
		return float64(t.get(d.Name, d.Title, d.Body, width).rows())
	})
}

// TextMeasurer measures normal scenes the way the viewer lays them out at
// width columns.
func TextMeasurer(width int) scene.Measurer {
	return newTextLayouts().measurer(width)
}
