package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"karolbroda.com/scrollreel/internal/config"
)

var (
	// global flags
	rootDir        string
	damping        float64
	epsilon        float64
	pinnedMultiple float64
	scrollStep     float64
	followMode     string
	startOffset    float64
	followPlayer   bool
	mprisService   string
	noCache        bool
	forceKitty     bool
	debug          bool
)

var rootCmd = &cobra.Command{
	Use:   "scrollreel [root]",
	Short: "scroll-driven scene viewer for the terminal",
	Long: `scrollreel plays a directory of scenes as a scrolling page in the terminal.
normal scenes scroll past as text, pinned scenes hold the viewport and scrub
through their image frames as you scroll.

when run without a subcommand, it starts the interactive viewer.`,
	Version: "1.0.0",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runViewer(cmd, args)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&rootDir, "root", "r", "", "scene root directory (default \"video\")")
	flags.Float64Var(&damping, "damping", config.DefaultDamping, "fraction of the remaining distance covered per frame (0..1)")
	flags.Float64Var(&epsilon, "epsilon", config.DefaultEpsilon, "distance in rows at which the follow loop stops")
	flags.Float64Var(&pinnedMultiple, "pinned-multiple", config.DefaultPinnedMultiple, "pinned scene extent in viewport heights")
	flags.Float64Var(&scrollStep, "scroll-step", config.DefaultScrollStep, "rows per wheel notch or arrow key")
	flags.StringVar(&followMode, "follow", config.DefaultFollow, "follow curve: ema or spring")
	flags.Float64Var(&startOffset, "offset", 0, "initial scroll offset in rows")
	flags.BoolVar(&followPlayer, "follow-player", false, "drive the scroll offset from an mpris player")
	flags.StringVarP(&mprisService, "mpris-service", "m", "", "mpris service name (e.g., org.mpris.MediaPlayer2.spotify)")
	flags.BoolVar(&noCache, "no-cache", false, "disable the rendered frame cache")
	flags.BoolVar(&forceKitty, "kitty", false, "draw pinned frames with the kitty graphics protocol")
	flags.BoolVar(&debug, "debug", false, "write debug logs to scrollreel.log")
}

// loadConfig reads the environment and lets explicitly set flags override
// it.
func loadConfig(cmd *cobra.Command, args []string) *config.Config {
	cfg := config.Load()
	flags := cmd.Flags()

	if len(args) > 0 {
		cfg.Root = args[0]
	} else if rootDir != "" {
		cfg.Root = rootDir
	}
	if flags.Changed("damping") {
		cfg.Damping = damping
	}
	if flags.Changed("epsilon") {
		cfg.Epsilon = epsilon
	}
	if flags.Changed("pinned-multiple") {
		cfg.PinnedMultiple = pinnedMultiple
	}
	if flags.Changed("scroll-step") {
		cfg.ScrollStep = scrollStep
	}
	if flags.Changed("follow") {
		cfg.Follow = followMode
	}
	if flags.Changed("offset") {
		cfg.StartOffset = startOffset
	}
	if mprisService != "" {
		cfg.MprisService = mprisService
	}
	if followPlayer {
		cfg.FollowPlayer = true
	}
	if noCache {
		cfg.NoCache = true
	}
	if forceKitty {
		cfg.Kitty = true
	}
	if debug {
		cfg.Debug = true
	}

	cfg.Validate()
	return cfg
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
