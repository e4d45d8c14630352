package main

import (
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"karolbroda.com/scrollreel/internal/player"
)

var playerCmd = &cobra.Command{
	Use:   "player",
	Short: "mpris player utilities",
	Long:  `discover mpris players and check how a track maps onto the scroll offset.`,
}

var playerListCmd = &cobra.Command{
	Use:   "list",
	Short: "list available mpris players",
	Long:  `list all mpris-compatible music players currently running on the system.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bus, err := dbus.ConnectSessionBus()
		if err != nil {
			return fmt.Errorf("failed to connect to session bus: %w", err)
		}
		defer bus.Close()

		services, err := player.ListPlayers(bus)
		if err != nil {
			return err
		}

		if len(services) == 0 {
			fmt.Println("no mpris players found")
			fmt.Println("\ncheck if your music player is running and supports mpris")
			return nil
		}

		fmt.Printf("found %d mpris player(s):\n\n", len(services))
		for _, service := range services {
			if identity := player.Identity(bus, service); identity != "" {
				fmt.Printf("  %s (%s)\n", service, identity)
			} else {
				fmt.Printf("  %s\n", service)
			}
		}

		fmt.Println("\nuse --mpris-service flag to specify which player to follow")

		return nil
	},
}

var playerTestCmd = &cobra.Command{
	Use:   "test [root]",
	Short: "test connection to an mpris player",
	Long: `connect to an mpris player, show the current track and the scroll offset
it would drive in the given scene root.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd, args)

		bus, err := dbus.ConnectSessionBus()
		if err != nil {
			return fmt.Errorf("failed to connect to session bus: %w", err)
		}
		defer bus.Close()

		fmt.Printf("testing connection to: %s\n\n", cfg.MprisService)

		playerService, err := player.NewService(bus, cfg.MprisService)
		if err != nil {
			return fmt.Errorf("failed to connect to player: %w", err)
		}

		if identity := player.Identity(bus, cfg.MprisService); identity != "" {
			fmt.Printf("player identity: %s\n", identity)
		}

		if err := playerService.Poll(); err != nil {
			return fmt.Errorf("failed to read player state: %w", err)
		}

		fmt.Printf("status: connected ✓\n\n")

		state := playerService.GetState()
		if state.Track == nil || !state.Track.IsValid() {
			fmt.Println("no track currently playing")
			return nil
		}

		position := state.Estimate(time.Now())

		fmt.Println("current track:")
		fmt.Printf("  title:    %s\n", state.Track.Title)
		fmt.Printf("  artist:   %s\n", state.Track.Artist)
		if state.Track.Album != "" {
			fmt.Printf("  album:    %s\n", state.Track.Album)
		}
		fmt.Printf("  position: %s / %s\n", formatDuration(position), formatDuration(state.Track.Length))
		if state.Playing {
			fmt.Printf("  state:    playing\n")
		} else {
			fmt.Printf("  state:    paused\n")
		}

		layout, err := measure(cfg)
		if err != nil {
			fmt.Printf("\nno scene layout: %v\n", err)
			return nil
		}

		offset := player.ScrollOffset(position, state.Track.Length, layout.TotalExtent())
		active := layout.IndexAt(offset)
		fmt.Printf("\nscroll offset: %.1f of %.0f rows (scene %d, %s)\n",
			offset, layout.TotalExtent(), active, layout.Scene(active).Name)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(playerCmd)

	playerCmd.AddCommand(playerListCmd)
	playerCmd.AddCommand(playerTestCmd)

	playerTestCmd.Flags().IntVar(&viewWidth, "width", 80, "terminal width used to measure text scenes")
	playerTestCmd.Flags().IntVar(&viewHeight, "height", 24, "terminal height used to size pinned scenes")
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		return "0:00"
	}
	seconds := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
