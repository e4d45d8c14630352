package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"karolbroda.com/scrollreel/internal/scene"
)

const LayoutFileName = "scenes.yaml"

// Layout is the optional scenes.yaml that sits next to the scene
// directories.
type Layout struct {
	Version        int           `yaml:"version"`
	PinnedMultiple float64       `yaml:"pinned_multiple,omitempty"`
	Scenes         []SceneLayout `yaml:"scenes"`
}

type SceneLayout struct {
	Name           string                   `yaml:"name"`
	Kind           string                   `yaml:"kind,omitempty"`
	Title          string                   `yaml:"title,omitempty"`
	Body           string                   `yaml:"body,omitempty"`
	PinnedMultiple float64                  `yaml:"pinned_multiple,omitempty"`
	Segments       map[string]scene.Segment `yaml:"segments,omitempty"`
}

// ReadLayout reads a scenes.yaml file. A missing file yields a nil layout.
func ReadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read layout: %w", err)
	}

	var layout Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("failed to parse layout %s: %w", path, err)
	}

	return &layout, nil
}

func WriteLayout(path string, layout *Layout) error {
	data, err := yaml.Marshal(layout)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultLayout describes entries the way an unconfigured root is shown:
// the first scene pinned, the rest normal.
func DefaultLayout(entries []Entry) *Layout {
	layout := &Layout{Version: 1}
	for i, e := range entries {
		sl := SceneLayout{Name: e.Name, Kind: scene.Normal.String(), Title: e.Name}
		if i == 0 {
			sl.Kind = scene.Pinned.String()
		}
		if e.FrameCount() > 0 {
			sl.Segments = map[string]scene.Segment{
				string(scene.ChannelFrameSequence): scene.FrameSegment(e.FrameCount()),
			}
		}
		layout.Scenes = append(layout.Scenes, sl)
	}
	return layout
}

// Build turns scanned entries and their decoded frames into scene
// descriptors. Scenes named in the layout come first in layout order, text
// scenes without a directory included. Remaining directories follow in name
// order. A pinned_multiple at the top of the layout applies to every listed
// scene that does not set its own.
func Build(entries []Entry, frames [][]scene.Frame, layout *Layout) []scene.Descriptor {
	byName := make(map[string]int, len(entries))
	for i, e := range entries {
		byName[e.Name] = i
	}

	if layout == nil {
		layout = DefaultLayout(entries)
	}

	used := make(map[string]bool)
	var descs []scene.Descriptor

	for _, sl := range layout.Scenes {
		if sl.Name == "" || used[sl.Name] {
			continue
		}
		used[sl.Name] = true

		var sceneFrames []scene.Frame
		if i, ok := byName[sl.Name]; ok && i < len(frames) {
			sceneFrames = frames[i]
		}
		if sl.PinnedMultiple <= 0 {
			sl.PinnedMultiple = layout.PinnedMultiple
		}
		descs = append(descs, describe(sl, sceneFrames))
	}

	for i, e := range entries {
		if used[e.Name] {
			continue
		}
		var sceneFrames []scene.Frame
		if i < len(frames) {
			sceneFrames = frames[i]
		}
		descs = append(descs, describe(SceneLayout{Name: e.Name, Title: e.Name}, sceneFrames))
	}

	return descs
}

func describe(sl SceneLayout, frames []scene.Frame) scene.Descriptor {
	desc := scene.Descriptor{
		Name:           sl.Name,
		Kind:           scene.ParseKind(sl.Kind),
		Title:          sl.Title,
		Body:           sl.Body,
		Frames:         frames,
		PinnedMultiple: sl.PinnedMultiple,
	}

	channels := make([]string, 0, len(sl.Segments))
	for ch := range sl.Segments {
		channels = append(channels, ch)
	}
	sort.Strings(channels)

	hasFrames := false
	for _, ch := range channels {
		if scene.Channel(ch) == scene.ChannelFrameSequence {
			hasFrames = true
		}
		desc.Bindings = append(desc.Bindings, scene.Binding{
			Channel: scene.Channel(ch),
			Segment: sl.Segments[ch],
		})
	}

	if !hasFrames && len(frames) > 0 {
		desc.Bindings = append([]scene.Binding{{
			Channel: scene.ChannelFrameSequence,
			Segment: scene.FrameSegment(len(frames)),
		}}, desc.Bindings...)
	}

	return desc
}
