package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// Entry is one scene directory and its frame files in name order.
type Entry struct {
	Name  string
	Dir   string
	Files []string
}

func (e Entry) FrameCount() int { return len(e.Files) }

func IsImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// Scan lists the scene directories under root. Hidden entries and
// non-image files are skipped.
func Scan(root string) ([]Entry, error) {
	dirs, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene root: %w", err)
	}

	var entries []Entry
	for _, d := range dirs {
		if !d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			continue
		}

		dir := filepath.Join(root, d.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read scene %q: %w", d.Name(), err)
		}

		entry := Entry{Name: d.Name(), Dir: dir}
		for _, f := range files {
			if f.IsDir() || strings.HasPrefix(f.Name(), ".") || !IsImage(f.Name()) {
				continue
			}
			entry.Files = append(entry.Files, filepath.Join(dir, f.Name()))
		}
		sort.Strings(entry.Files)

		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	return entries, nil
}
