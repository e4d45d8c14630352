package colors

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestHexToRGB(t *testing.T) {
	tests := []struct {
		in      string
		r, g, b int
	}{
		{"#FF8000", 255, 128, 0},
		{"0a0b0c", 10, 11, 12},
		{"#FFF", 255, 255, 255},
		{"#GGGGGG", 255, 255, 255},
	}

	for _, tt := range tests {
		r, g, b := HexToRGB(tt.in)
		if r != tt.r || g != tt.g || b != tt.b {
			t.Errorf("%s: expected %d,%d,%d got %d,%d,%d", tt.in, tt.r, tt.g, tt.b, r, g, b)
		}
	}
}

func TestBlendAndFade(t *testing.T) {
	if got := Blend("#000000", "#FFFFFF", 0); got != "#000000" {
		t.Fatalf("t=0: got %s", got)
	}
	if got := Blend("#000000", "#FFFFFF", 1); got != "#FFFFFF" {
		t.Fatalf("t=1: got %s", got)
	}
	if got := Blend("#000000", "#FFFFFF", 2); got != "#FFFFFF" {
		t.Fatalf("t clamps: got %s", got)
	}
	if got := Fade("#C86464", Background, 0.5); got != "#643232" {
		t.Fatalf("half opacity: got %s", got)
	}
	if got := Fade("#C86464", Background, 0); got != Background {
		t.Fatalf("zero opacity: got %s", got)
	}
}

func TestGradientEndpoints(t *testing.T) {
	g := Gradient("#102030", "#A0B0C0", 5)
	if len(g) != 5 || g[0] != "#102030" || g[4] != "#A0B0C0" {
		t.Fatalf("unexpected gradient %v", g)
	}
	if len(Gradient("#000000", "#FFFFFF", 0)) != 2 {
		t.Fatal("expected at least two stops")
	}
}

func TestBoost(t *testing.T) {
	if got := Boost(40, 20, 20, 40.0/255); got == RGBToHex(40, 20, 20) {
		t.Fatal("expected dark colour to be lifted")
	}
	if got := Boost(120, 100, 90, 0.5); got != RGBToHex(120, 100, 90) {
		t.Fatalf("expected mid colour unchanged, got %s", got)
	}
}

func TestGradientTextKeepsRunes(t *testing.T) {
	if GradientText("", []string{"#FFFFFF"}, false) != "" {
		t.Fatal("expected empty text unchanged")
	}
	if GradientText("abc", nil, false) != "abc" {
		t.Fatal("expected text unchanged without a gradient")
	}

	out := GradientText("héllo", Gradient("#000000", "#FFFFFF", 3), true)
	if got := lipgloss.Width(out); got != 5 {
		t.Fatalf("expected visual width 5, got %d", got)
	}
}
