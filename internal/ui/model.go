package ui

import (
	"context"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"karolbroda.com/scrollreel/internal/animator"
	"karolbroda.com/scrollreel/internal/config"
	"karolbroda.com/scrollreel/internal/frame"
	"karolbroda.com/scrollreel/internal/manifest"
	"karolbroda.com/scrollreel/internal/player"
	"karolbroda.com/scrollreel/internal/scene"
)

const (
	statusRows      = 1
	overscrollRows  = 4
	settleDelay     = 150 * time.Millisecond
	highlightPeriod = time.Second
)

// FrameMsg drives one animation frame. Only one is in flight at a time.
type FrameMsg time.Time

type PollMsg time.Time

// settleMsg pulls an overscrolled offset back inside the page.
type settleMsg struct{ seq int }

type ScenesLoadedMsg struct {
	Descriptors []scene.Descriptor
	Layout      *manifest.Layout
	Err         error
}

type PlayerEventMsg struct {
	Event player.EventData
}

// LoadFunc produces the scene descriptors for the viewer.
type LoadFunc func(ctx context.Context) ([]scene.Descriptor, *manifest.Layout, error)

// sceneChanges is shared between model copies so the animator's listener
// can record into it.
type sceneChanges struct {
	prev    int
	count   int
	changed time.Time
}

type Model struct {
	cfg    *config.Config
	load   LoadFunc
	player *player.Service
	canvas *frame.Canvas

	anim    *animator.Animator
	descs   []scene.Descriptor
	texts   *textLayouts
	changes *sceneChanges

	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	progress progress.Model

	raw       float64
	settleSeq int
	following bool
	loading   bool
	err       error
	quitting  bool
	width     int
	height    int
}

type ModelConfig struct {
	Config *config.Config
	Load   LoadFunc
	Player *player.Service
	Canvas *frame.Canvas
}

func NewModel(cfg ModelConfig) Model {
	c := cfg.Config
	if c == nil {
		c = config.Load()
	}

	canvas := cfg.Canvas
	if canvas == nil {
		canvas = frame.NewCanvas(nil, false)
	}

	s := spinner.New()
	s.Spinner = spinner.MiniDot

	palette := frame.DefaultPalette()
	p := progress.New(
		progress.WithScaledGradient(palette.Primary, palette.Secondary),
		progress.WithoutPercentage(),
	)

	return Model{
		cfg:       c,
		load:      cfg.Load,
		player:    cfg.Player,
		canvas:    canvas,
		texts:     newTextLayouts(),
		changes:   &sceneChanges{},
		keys:      defaultKeyMap(),
		help:      help.New(),
		spinner:   s,
		progress:  p,
		raw:       c.StartOffset,
		following: cfg.Player != nil && c.FollowPlayer,
		loading:   cfg.Load != nil,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}

	if m.load != nil {
		cmds = append(cmds, loadCmd(m.load))
	}
	if m.player != nil {
		cmds = append(cmds, pollCmd(), m.listenForPlayerEvents())
	}

	return tea.Batch(cmds...)
}

func loadCmd(load LoadFunc) tea.Cmd {
	return func() tea.Msg {
		descs, layout, err := load(context.Background())
		return ScenesLoadedMsg{Descriptors: descs, Layout: layout, Err: err}
	}
}

func frameCmd() tea.Cmd {
	return tea.Tick(config.FrameInterval, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}

func pollCmd() tea.Cmd {
	return tea.Tick(config.PollInterval, func(t time.Time) tea.Msg {
		return PollMsg(t)
	})
}

func settleCmd(seq int) tea.Cmd {
	return tea.Tick(settleDelay, func(time.Time) tea.Msg {
		return settleMsg{seq: seq}
	})
}

func (m Model) listenForPlayerEvents() tea.Cmd {
	if m.player == nil {
		return nil
	}

	return func() tea.Msg {
		event, ok := <-m.player.Events()
		if !ok {
			return nil
		}
		return PlayerEventMsg{Event: event}
	}
}

func (m Model) viewportHeight() int {
	h := m.height - statusRows
	if h < 1 {
		h = 1
	}
	return h
}

// rebuild measures every scene at the current size. The raw offset is kept,
// so resizing a pinned scene changes how far into it the view is.
func (m *Model) rebuild() {
	if len(m.descs) == 0 || m.width == 0 {
		return
	}

	layout, _, err := scene.Initialize(m.descs, scene.Options{
		ViewportHeight: float64(m.viewportHeight()),
		PinnedMultiple: m.cfg.PinnedMultiple,
		Measure:        m.texts.measurer(m.width),
	}, m.raw)
	if err != nil {
		m.err = err
		return
	}

	if m.anim == nil {
		m.anim = animator.New(layout,
			animator.WithDamping(m.cfg.Damping),
			animator.WithEpsilon(m.cfg.Epsilon),
			animator.WithFollower(animator.NewFollower(m.cfg.Follow, m.cfg.Damping, config.FPS)),
			animator.WithSurface(m.canvas),
			animator.WithStart(m.raw),
		)

		anim, changes := m.anim, m.changes
		anim.Subscribe(func(prev int, next int) {
			changes.prev = prev
			changes.count++
			changes.changed = time.Now()
			if s := anim.Layout().Scene(next); s != nil {
				log.Printf("scene %d -> %d (%s)", prev, next, s.Name)
			}
		})

		m.primeCanvas(layout)
		return
	}

	m.anim.SetLayout(layout)
}

// primeCanvas shows the first frame of every pinned scene until the
// animator draws into it.
func (m *Model) primeCanvas(layout *scene.Layout) {
	for i, s := range layout.Scenes() {
		if s.Kind != scene.Pinned {
			continue
		}
		if f, ok := s.Frame(0); ok {
			m.canvas.DrawFrame(i, f)
		}
	}
}

// maxOffset is the furthest the top of the viewport can go.
func (m Model) maxOffset() float64 {
	if m.anim == nil {
		return 0
	}
	return max(0, m.anim.Layout().TotalExtent()-float64(m.viewportHeight()))
}

func (m Model) Width() int                   { return m.width }
func (m Model) Height() int                  { return m.height }
func (m Model) Raw() float64                 { return m.raw }
func (m Model) Animator() *animator.Animator { return m.anim }
func (m Model) Following() bool              { return m.following }
func (m Model) Loading() bool                { return m.loading }
func (m Model) Err() error                   { return m.err }
func (m Model) IsQuitting() bool             { return m.quitting }
func (m Model) SceneChanges() int            { return m.changes.count }

func (m *Model) Stop() {
	if m.player != nil {
		m.player.Stop()
	}
}
