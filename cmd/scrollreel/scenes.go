package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"karolbroda.com/scrollreel/internal/config"
	"karolbroda.com/scrollreel/internal/manifest"
	"karolbroda.com/scrollreel/internal/scene"
	"karolbroda.com/scrollreel/internal/ui"
)

var (
	// flags for scenes list and eval
	viewWidth  int
	viewHeight int

	// flags for scenes init
	initForce bool
)

var scenesCmd = &cobra.Command{
	Use:   "scenes",
	Short: "inspect and configure a scene root",
	Long:  `list the scenes under a root, evaluate their segments, or write a starter scenes.yaml.`,
}

var scenesListCmd = &cobra.Command{
	Use:   "list [root]",
	Short: "list scenes with their extents",
	Long:  `show every scene in page order with its kind, frame count and measured extent.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd, args)

		layout, err := measure(cfg)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tNAME\tKIND\tFRAMES\tSTART\tEXTENT")
		fmt.Fprintln(w, "-\t----\t----\t------\t-----\t------")

		for i, s := range layout.Scenes() {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%.0f\t%.0f\n",
				i, s.Name, s.Kind, s.FrameCount(), layout.PrecedingExtentSum(i), s.Extent)
		}

		w.Flush()

		fmt.Printf("\ntotal: %d scenes, %.0f rows at %dx%d\n", layout.Len(), layout.TotalExtent(), viewWidth, viewHeight)

		return nil
	},
}

var scenesEvalCmd = &cobra.Command{
	Use:   "eval <scene> <offset>",
	Short: "evaluate a scene's segments at a local offset",
	Long: `print the value of every channel bound to a scene at the given offset in
rows from the scene's start. the scene may be given by name or index.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd, nil)

		offset, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid offset %q: %w", args[1], err)
		}

		layout, err := measure(cfg)
		if err != nil {
			return err
		}

		s := findScene(layout, args[0])
		if s == nil {
			return fmt.Errorf("scene %q not found", args[0])
		}

		fmt.Printf("scene:   %s (%s)\n", s.Name, s.Kind)
		fmt.Printf("extent:  %.0f\n", s.Extent)
		fmt.Printf("offset:  %.2f\n\n", offset)

		if len(s.Bindings) == 0 {
			fmt.Println("no segments bound")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CHANNEL\tRAW\tCLAMPED\tFRAME")

		for _, b := range s.Bindings {
			raw := scene.Evaluate(b.Segment, offset, s.Extent)
			clamped := scene.Clamped(b.Segment, offset, s.Extent)

			frameStr := "-"
			if b.Channel == scene.ChannelFrameSequence {
				frameStr = strconv.Itoa(scene.FrameIndex(raw))
			}
			fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%s\n", b.Channel, raw, clamped, frameStr)
		}

		w.Flush()

		return nil
	},
}

var scenesInitCmd = &cobra.Command{
	Use:   "init [root]",
	Short: "write a starter scenes.yaml",
	Long: `write a scenes.yaml describing the scene directories under root. the first
scene is pinned, the rest are normal. use --force to replace an existing file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd, args)

		path := filepath.Join(cfg.Root, manifest.LayoutFileName)
		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}

		entries, err := manifest.Scan(cfg.Root)
		if err != nil {
			return err
		}

		layout := manifest.DefaultLayout(entries)
		layout.PinnedMultiple = cfg.PinnedMultiple

		if err := manifest.WriteLayout(path, layout); err != nil {
			return fmt.Errorf("failed to write layout: %w", err)
		}

		fmt.Printf("wrote %s with %d scenes\n", path, len(layout.Scenes))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scenesCmd)

	scenesCmd.AddCommand(scenesListCmd)
	scenesCmd.AddCommand(scenesEvalCmd)
	scenesCmd.AddCommand(scenesInitCmd)

	scenesCmd.PersistentFlags().IntVar(&viewWidth, "width", 80, "terminal width used to measure text scenes")
	scenesCmd.PersistentFlags().IntVar(&viewHeight, "height", 24, "terminal height used to size pinned scenes")

	scenesInitCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing scenes.yaml")
}

// measure lays out the root's scenes without decoding any frames.
func measure(cfg *config.Config) (*scene.Layout, error) {
	entries, err := manifest.Scan(cfg.Root)
	if err != nil {
		return nil, err
	}

	fl, err := manifest.ReadLayout(filepath.Join(cfg.Root, manifest.LayoutFileName))
	if err != nil {
		return nil, err
	}

	frames := make([][]scene.Frame, len(entries))
	for i, e := range entries {
		for _, f := range e.Files {
			frames[i] = append(frames[i], scene.Frame{Name: filepath.Base(f), Path: f})
		}
	}

	descs := manifest.Build(entries, frames, fl)

	layout, _, err := scene.Initialize(descs, scene.Options{
		ViewportHeight: float64(max(1, viewHeight-1)),
		PinnedMultiple: cfg.PinnedMultiple,
		Measure:        ui.TextMeasurer(viewWidth),
	}, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to lay out %s: %w", cfg.Root, err)
	}

	return layout, nil
}

func findScene(layout *scene.Layout, ref string) *scene.Scene {
	for i, s := range layout.Scenes() {
		if s.Name == ref {
			return layout.Scene(i)
		}
	}
	if i, err := strconv.Atoi(ref); err == nil {
		return layout.Scene(i)
	}
	return nil
}
