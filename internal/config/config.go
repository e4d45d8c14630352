package config

import (
	"os"
	"strconv"
	"time"
)

const (
	DefaultRoot           = "video"
	DefaultMprisService   = "org.mpris.MediaPlayer2.spotify"
	DefaultFollow         = "ema"
	DefaultDamping        = 0.1
	DefaultEpsilon        = 1.0
	DefaultPinnedMultiple = 5
	DefaultScrollStep     = 3
	DefaultLogFile        = "scrollreel.log"

	FPS           = 60
	FrameInterval = time.Second / FPS
	PollInterval  = 250 * time.Millisecond
	SpinnerTicks  = 100 * time.Millisecond
)

type Config struct {
	Root           string
	Damping        float64
	Epsilon        float64
	PinnedMultiple float64
	ScrollStep     float64
	Follow         string
	StartOffset    float64
	FollowPlayer   bool
	MprisService   string
	NoCache        bool
	Kitty          bool
	Debug          bool
	LogFile        string
}

func Load() *Config {
	return &Config{
		Root:           getEnvOrDefault("SCROLLREEL_ROOT", DefaultRoot),
		Damping:        getFloatOrDefault("SCROLLREEL_DAMPING", DefaultDamping),
		Epsilon:        getFloatOrDefault("SCROLLREEL_EPSILON", DefaultEpsilon),
		PinnedMultiple: getFloatOrDefault("SCROLLREEL_PINNED_MULTIPLE", DefaultPinnedMultiple),
		ScrollStep:     getFloatOrDefault("SCROLLREEL_SCROLL_STEP", DefaultScrollStep),
		Follow:         getEnvOrDefault("SCROLLREEL_FOLLOW", DefaultFollow),
		MprisService:   getEnvOrDefault("MPRIS_SERVICE", DefaultMprisService),
		Debug:          getBool("SCROLLREEL_DEBUG"),
		LogFile:        getEnvOrDefault("SCROLLREEL_LOG_FILE", DefaultLogFile),
	}
}

// Validate replaces out-of-range values with their defaults.
func (c *Config) Validate() {
	if c.Damping <= 0 || c.Damping >= 1 {
		c.Damping = DefaultDamping
	}
	if c.Epsilon <= 0 {
		c.Epsilon = DefaultEpsilon
	}
	if c.PinnedMultiple <= 0 {
		c.PinnedMultiple = DefaultPinnedMultiple
	}
	if c.ScrollStep <= 0 {
		c.ScrollStep = DefaultScrollStep
	}
	if c.Root == "" {
		c.Root = DefaultRoot
	}
	if c.Follow == "" {
		c.Follow = DefaultFollow
	}
}

func getEnvOrDefault(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getFloatOrDefault(key string, fallback float64) float64 {
	value, err := strconv.ParseFloat(getEnvOrDefault(key, ""), 64)
	if err != nil {
		return fallback
	}
	return value
}

func getBool(key string) bool {
	switch os.Getenv(key) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
