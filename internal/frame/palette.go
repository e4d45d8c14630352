package frame

import (
	"image"
	"math"
	"sort"

	"github.com/EdlinOrg/prominentcolor"

	"karolbroda.com/scrollreel/internal/colors"
)

const gradientSteps = 20

type Palette struct {
	Primary   string
	Secondary string
	Accent    string
	Dim       string
	Gradient  []string
}

type swatch struct {
	r, g, b    uint32
	sat        float64
	brightness float64
	score      float64
}

func (s swatch) same(o swatch) bool {
	return s.r == o.r && s.g == o.g && s.b == o.b
}

// ExtractPalette picks three accent colours from the image with k-means. It
// falls back to DefaultPalette for nil or near-monochrome images.
func ExtractPalette(img image.Image) *Palette {
	if img == nil {
		return DefaultPalette()
	}

	items, err := prominentcolor.KmeansWithAll(5, img, prominentcolor.ArgumentDefault, prominentcolor.DefaultSize, nil)
	if err != nil || len(items) < 3 {
		return DefaultPalette()
	}

	swatches := make([]swatch, len(items))
	for i, c := range items {
		r := float64(c.Color.R) / 255.0
		g := float64(c.Color.G) / 255.0
		b := float64(c.Color.B) / 255.0

		max := math.Max(math.Max(r, g), b)
		min := math.Min(math.Min(r, g), b)

		var sat float64
		if max > 0 {
			sat = (max - min) / max
		}

		swatches[i] = swatch{
			r: c.Color.R, g: c.Color.G, b: c.Color.B,
			sat:        sat,
			brightness: max,
			score:      sat * (1.0 - math.Abs(max-0.6)),
		}
	}

	primary, ok := pick(swatches, func(s swatch) bool { return s.brightness > 0.3 && s.sat > 0.2 }, true)
	if !ok {
		return DefaultPalette()
	}
	secondary, _ := pick(swatches, func(s swatch) bool {
		return !s.same(primary) && s.sat > 0.15 && s.brightness > 0.3
	}, false)
	accent, _ := pick(swatches, func(s swatch) bool {
		return !s.same(primary) && !s.same(secondary) && s.sat > 0.1 && s.brightness > 0.25
	}, false)

	chosen := []swatch{primary, secondary, accent}
	sort.SliceStable(chosen, func(i, j int) bool { return chosen[i].brightness > chosen[j].brightness })

	hex := make([]string, len(chosen))
	for i, s := range chosen {
		hex[i] = colors.Boost(s.r, s.g, s.b, s.brightness)
	}

	return &Palette{
		Primary:   hex[0],
		Secondary: hex[2],
		Accent:    hex[1],
		Dim:       "#6272A4",
		Gradient:  colors.Gradient(hex[0], hex[1], gradientSteps),
	}
}

// pick returns the best scoring match when best is set, otherwise the first.
func pick(swatches []swatch, match func(swatch) bool, best bool) (swatch, bool) {
	var out swatch
	found := false
	for _, s := range swatches {
		if !match(s) {
			continue
		}
		if !best {
			return s, true
		}
		if !found || s.score > out.score {
			out = s
			found = true
		}
	}
	return out, found
}

func DefaultPalette() *Palette {
	return &Palette{
		Primary:   "#8BA4E8",
		Secondary: "#E8A4C8",
		Accent:    "#B8A8E8",
		Dim:       "#6272A4",
		Gradient:  colors.Gradient("#8BA4E8", "#E8A4C8", gradientSteps),
	}
}
