package frame

import (
	"fmt"
	"log"
	"os"

	"karolbroda.com/scrollreel/internal/cache"
	"karolbroda.com/scrollreel/internal/scene"
	"karolbroda.com/scrollreel/internal/terminal"
)

// Canvas is the drawing surface of pinned scenes. DrawFrame only records the
// latest frame per scene; rendering happens when the view asks for it at the
// current cell size.
type Canvas struct {
	frames   map[int]scene.Frame
	palettes map[int]*Palette
	modTimes map[string]int64
	cache    *cache.FrameCache
	kitty    bool
	draws    int

	kittyKey string
	kittyOut string

	// last half-block render per scene
	rendered map[int]render

	// persist writes rendered frames to the disk layer; tests run it inline
	persist func(*cache.Entry)
}

type render struct {
	key   string
	lines []string
}

func NewCanvas(fc *cache.FrameCache, kitty bool) *Canvas {
	if fc == nil {
		fc = cache.Disabled()
	}

	c := &Canvas{
		frames:   make(map[int]scene.Frame),
		palettes: make(map[int]*Palette),
		modTimes: make(map[string]int64),
		rendered: make(map[int]render),
		cache:    fc,
		kitty:    kitty,
	}
	c.persist = func(e *cache.Entry) {
		go func() {
			if err := fc.Set(e); err != nil {
				log.Printf("frame cache: %v", err)
			}
		}()
	}
	return c
}

func (c *Canvas) DrawFrame(sceneIndex int, f scene.Frame) {
	if f.Image == nil {
		return
	}
	c.frames[sceneIndex] = f
	c.draws++

	if _, ok := c.palettes[sceneIndex]; !ok {
		c.palettes[sceneIndex] = ExtractPalette(f.Image)
	}
}

func (c *Canvas) Current(sceneIndex int) (scene.Frame, bool) {
	f, ok := c.frames[sceneIndex]
	return f, ok
}

// Palette is the accent palette of the first frame drawn in a scene.
func (c *Canvas) Palette(sceneIndex int) *Palette {
	if p, ok := c.palettes[sceneIndex]; ok {
		return p
	}
	return DefaultPalette()
}

func (c *Canvas) Draws() int         { return c.draws }
func (c *Canvas) KittyEnabled() bool { return c.kitty }

// Lines renders the scene's current frame as half-block art fitted into
// width x height cells. The last render per scene is reused until the frame
// or size changes.
func (c *Canvas) Lines(sceneIndex int, width int, height int) []string {
	f, ok := c.frames[sceneIndex]
	if !ok {
		return nil
	}

	w, h := Fit(f.Image, width, height)
	key := fmt.Sprintf("%s|%p|%dx%d", f.Path, f.Image, w, h)
	if r, ok := c.rendered[sceneIndex]; ok && r.key == key {
		return r.lines
	}

	modTime := c.modTime(f.Path)

	var lines []string
	if entry, err := c.cache.Get(f.Path, modTime, w, h); err == nil {
		lines = entry.Lines
	} else {
		lines = RenderHalfBlock(f.Image, w, h)
		if lines != nil && f.Path != "" && c.cache.Enabled() {
			c.persist(&cache.Entry{Path: f.Path, ModTime: modTime, Width: w, Height: h, Lines: lines})
		}
	}

	c.rendered[sceneIndex] = render{key: key, lines: lines}
	return lines
}

// Kitty returns the kitty graphics sequence for the scene's current frame,
// clearing earlier placements first. The last encoding is reused.
func (c *Canvas) Kitty(sceneIndex int, cols int, rows int) string {
	f, ok := c.frames[sceneIndex]
	if !ok || !c.kitty {
		return ""
	}

	key := fmt.Sprintf("%d|%s|%p|%dx%d", sceneIndex, f.Path, f.Image, cols, rows)
	if key != c.kittyKey {
		c.kittyKey = key
		c.kittyOut = terminal.DeleteKittyImages() + terminal.EncodeImageForKitty(f.Image, cols, rows)
	}
	return c.kittyOut
}

func (c *Canvas) modTime(path string) int64 {
	if path == "" {
		return 0
	}
	if t, ok := c.modTimes[path]; ok {
		return t
	}

	var t int64
	if info, err := os.Stat(path); err == nil {
		t = info.ModTime().UnixNano()
	}
	c.modTimes[path] = t
	return t
}
