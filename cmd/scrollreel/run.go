package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"karolbroda.com/scrollreel/internal/cache"
	"karolbroda.com/scrollreel/internal/frame"
	"karolbroda.com/scrollreel/internal/manifest"
	"karolbroda.com/scrollreel/internal/player"
	"karolbroda.com/scrollreel/internal/scene"
	"karolbroda.com/scrollreel/internal/terminal"
	"karolbroda.com/scrollreel/internal/ui"
)

var runCmd = &cobra.Command{
	Use:   "run [root]",
	Short: "start the interactive viewer",
	Long:  `starts the scroll-driven scene viewer on the given scene root.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runViewer,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runViewer(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		<-sigChan
		cancel()
		terminal.Reset()
		os.Exit(0)
	}()

	defer terminal.Reset()

	cfg := loadConfig(cmd, args)

	if info, err := os.Stat(cfg.Root); err != nil || !info.IsDir() {
		return fmt.Errorf("scene root %q is not a directory", cfg.Root)
	}

	if cfg.Debug {
		f, err := tea.LogToFile(cfg.LogFile, "scrollreel")
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	frameCache := cache.Disabled()
	if !cfg.NoCache {
		fc, err := cache.New()
		if err != nil {
			log.Printf("frame cache unavailable: %v", err)
		} else {
			frameCache = fc
		}
	}

	caps := terminal.DetectCapabilities(cfg.Kitty)
	canvas := frame.NewCanvas(frameCache, caps.SupportsKittyGraphics)

	root := cfg.Root
	load := func(ctx context.Context) ([]scene.Descriptor, *manifest.Layout, error) {
		return manifest.Descriptors(ctx, root, runtime.NumCPU())
	}

	var playerService *player.Service
	if cfg.FollowPlayer {
		bus, err := dbus.ConnectSessionBus()
		if err != nil {
			return fmt.Errorf("failed to connect to session bus: %w", err)
		}
		defer bus.Close()

		playerService, err = player.NewService(bus, cfg.MprisService)
		if err != nil {
			return fmt.Errorf("failed to create player service: %w", err)
		}

		if err := playerService.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not set up dbus signals: %v\n", err)
		}
	}

	model := ui.NewModel(ui.ModelConfig{
		Config: cfg,
		Load:   load,
		Player: playerService,
		Canvas: canvas,
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	go func() {
		<-ctx.Done()
		if playerService != nil {
			playerService.Stop()
		}
		p.Quit()
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error running bubble tea: %w", err)
	}

	return nil
}
