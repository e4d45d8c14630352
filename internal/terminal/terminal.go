package terminal

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	"github.com/nfnt/resize"
)

const (
	kittyChunkSize = 4096
	// pixels per cell assumed when sizing kitty uploads
	cellPixelsX = 10
	cellPixelsY = 20
)

type Capabilities struct {
	SupportsKittyGraphics bool
	TermProgram           string
}

// DetectCapabilities reads the terminal environment. Kitty graphics are
// opt-in through SCROLLREEL_USE_KITTY_GRAPHICS or the force flag.
func DetectCapabilities(forceKitty bool) *Capabilities {
	caps := &Capabilities{TermProgram: os.Getenv("TERM_PROGRAM")}

	switch os.Getenv("SCROLLREEL_USE_KITTY_GRAPHICS") {
	case "1", "true", "yes", "on":
		caps.SupportsKittyGraphics = true
	case "0", "false", "no", "off":
		caps.SupportsKittyGraphics = false
	}

	if forceKitty {
		caps.SupportsKittyGraphics = true
	}
	if caps.SupportsKittyGraphics && caps.TermProgram == "" {
		caps.TermProgram = "kitty"
	}

	return caps
}

func Reset() {
	os.Stdout.WriteString("\033[?25h")
	os.Stdout.WriteString("\033[0m")
	os.Stdout.WriteString("\033[?1049l")
	os.Stdout.WriteString("\033[?1000l")
	os.Stdout.WriteString("\033[?1002l")
	os.Stdout.WriteString("\033[?1003l")
	os.Stdout.WriteString("\033[?1006l")
	os.Stdout.Sync()
}

// DeleteKittyImages clears every placement so a new frame does not stack on
// the previous one.
func DeleteKittyImages() string {
	return "\x1b_Ga=d,d=A,q=2\x1b\\"
}

// EncodeImageForKitty returns the escape sequence that places img in a
// cols x rows cell box, keeping its aspect ratio.
func EncodeImageForKitty(img image.Image, cols int, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return ""
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width == 0 || height == 0 {
		return ""
	}

	newWidth := uint(cols * cellPixelsX)
	newHeight := uint(rows * cellPixelsY)

	aspectRatio := float64(width) / float64(height)
	targetAspect := float64(newWidth) / float64(newHeight)

	if aspectRatio > targetAspect {
		newHeight = uint(float64(newWidth) / aspectRatio)
	} else {
		newWidth = uint(float64(newHeight) * aspectRatio)
	}

	if newWidth < 10 {
		newWidth = 10
	}
	if newHeight < 10 {
		newHeight = 10
	}

	resized := resize.Resize(newWidth, newHeight, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, resized); err != nil {
		return ""
	}

	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())

	var result strings.Builder

	for i := 0; i < len(encoded); i += kittyChunkSize {
		end := min(i+kittyChunkSize, len(encoded))
		chunk := encoded[i:end]

		more := 1
		if end >= len(encoded) {
			more = 0
		}

		if i == 0 {
			fmt.Fprintf(&result, "\x1b_Ga=T,f=100,q=2,z=-1,c=%d,r=%d,m=%d;%s\x1b\\", cols, rows, more, chunk)
		} else {
			fmt.Fprintf(&result, "\x1b_Gm=%d;%s\x1b\\", more, chunk)
		}
	}

	return result.String()
}
