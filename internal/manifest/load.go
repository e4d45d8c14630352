package manifest

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"runtime"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"karolbroda.com/scrollreel/internal/scene"
)

// Load decodes every frame of every entry with at most workers decodes in
// flight. A frame that fails to decode keeps its slot with a nil image.
func Load(ctx context.Context, entries []Entry, workers int) ([][]scene.Frame, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	out := make([][]scene.Frame, len(entries))
	for i, e := range entries {
		out[i] = make([]scene.Frame, len(e.Files))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, e := range entries {
		for j, path := range e.Files {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}

				frame := scene.Frame{Name: filepath.Base(path), Path: path}
				img, err := decodeFile(path)
				if err != nil {
					log.Printf("manifest: skipping frame %s: %v", path, err)
				} else {
					frame.Image = img
				}
				// each goroutine owns its own slot
				out[i][j] = frame
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load frames: %w", err)
	}

	return out, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Descriptors scans root, reads its optional scenes.yaml and decodes all
// frames.
func Descriptors(ctx context.Context, root string, workers int) ([]scene.Descriptor, *Layout, error) {
	entries, err := Scan(root)
	if err != nil {
		return nil, nil, err
	}

	layout, err := ReadLayout(filepath.Join(root, LayoutFileName))
	if err != nil {
		return nil, nil, err
	}

	frames, err := Load(ctx, entries, workers)
	if err != nil {
		return nil, nil, err
	}

	return Build(entries, frames, layout), layout, nil
}
