package frame

import (
	"image"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nfnt/resize"

	"karolbroda.com/scrollreel/internal/colors"
)

// Fit returns the largest cell size with the image's aspect ratio that fits
// in width x height cells. A cell is one column wide and two pixels tall.
func Fit(img image.Image, width int, height int) (int, int) {
	if img == nil || width <= 0 || height <= 0 {
		return 0, 0
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return 0, 0
	}

	aspect := float64(b.Dx()) / float64(b.Dy())
	w := width
	h := int(float64(w) / aspect / 2)
	if h > height {
		h = height
		w = int(float64(h) * 2 * aspect)
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// RenderHalfBlock draws img as width x height cells of "▀", the top pixel in
// the foreground colour and the bottom one in the background.
func RenderHalfBlock(img image.Image, width int, height int) []string {
	if img == nil || width < 4 || height < 2 {
		return nil
	}

	resized := resize.Resize(uint(width), uint(height*2), img, resize.Lanczos3)
	bounds := resized.Bounds()

	lines := make([]string, height)

	for y := 0; y < height; y++ {
		var line strings.Builder
		topY := y * 2
		bottomY := topY + 1

		for x := 0; x < bounds.Dx(); x++ {
			topR, topG, topB, topA := resized.At(bounds.Min.X+x, bounds.Min.Y+topY).RGBA()

			bottomR, bottomG, bottomB, bottomA := topR, topG, topB, topA
			if bottomY < bounds.Dy() {
				bottomR, bottomG, bottomB, bottomA = resized.At(bounds.Min.X+x, bounds.Min.Y+bottomY).RGBA()
			}

			if topA>>8 < 128 && bottomA>>8 < 128 {
				line.WriteString(" ")
				continue
			}

			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(colors.RGBToHex(int(topR>>8), int(topG>>8), int(topB>>8)))).
				Background(lipgloss.Color(colors.RGBToHex(int(bottomR>>8), int(bottomG>>8), int(bottomB>>8))))

			line.WriteString(style.Render("▀"))
		}
		lines[y] = line.String()
	}

	return lines
}
