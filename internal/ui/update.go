package ui

import (
	"log"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"karolbroda.com/scrollreel/internal/player"
	"karolbroda.com/scrollreel/internal/scene"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case ScenesLoadedMsg:
		return m.handleScenesLoaded(msg)

	case FrameMsg:
		return m.handleFrame()

	case settleMsg:
		return m.handleSettle(msg)

	case PollMsg:
		return m.handlePoll(time.Time(msg))

	case PlayerEventMsg:
		return m.handlePlayerEvent(msg.Event)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.help.Width = msg.Width
	m.progress.Width = max(10, msg.Width/4)

	m.rebuild()
	if m.anim == nil {
		return m, nil
	}
	m.raw = max(0, min(m.raw, m.maxOffset()))
	return m, m.ingest(m.raw)
}

func (m Model) handleScenesLoaded(msg ScenesLoadedMsg) (tea.Model, tea.Cmd) {
	m.loading = false

	if msg.Err != nil {
		m.err = msg.Err
		log.Printf("load scenes: %v", msg.Err)
		return m, nil
	}
	if len(msg.Descriptors) == 0 {
		m.err = scene.ErrNoScenes
		return m, nil
	}

	m.descs = msg.Descriptors
	m.rebuild()
	if m.anim == nil {
		return m, nil
	}
	m.raw = max(0, min(m.raw, m.maxOffset()))
	return m, m.ingest(m.raw)
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.Stop()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Follow):
		if m.player != nil {
			m.following = !m.following
		}
		return m, nil
	}

	if m.anim == nil || m.following {
		return m, nil
	}

	step := m.cfg.ScrollStep
	page := float64(m.viewportHeight())

	switch {
	case key.Matches(msg, m.keys.Down):
		return m.scrollBy(step)
	case key.Matches(msg, m.keys.Up):
		return m.scrollBy(-step)
	case key.Matches(msg, m.keys.PageDown):
		return m.scrollBy(page)
	case key.Matches(msg, m.keys.PageUp):
		return m.scrollBy(-page)
	case key.Matches(msg, m.keys.Top):
		return m.scrollTo(0)
	case key.Matches(msg, m.keys.Bottom):
		return m.scrollTo(m.maxOffset())
	case key.Matches(msg, m.keys.NextScene):
		return m.scrollTo(m.sceneStart(m.anim.ActiveScene() + 1))
	case key.Matches(msg, m.keys.PrevScene):
		return m.scrollTo(m.sceneStart(m.anim.ActiveScene() - 1))
	}

	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.anim == nil || m.following || msg.Action != tea.MouseActionPress {
		return m, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelDown:
		return m.scrollBy(m.cfg.ScrollStep)
	case tea.MouseButtonWheelUp:
		return m.scrollBy(-m.cfg.ScrollStep)
	}

	return m, nil
}

// sceneStart is an offset just inside scene i, far enough past its start
// that the damped offset still crosses it before the loop settles.
func (m Model) sceneStart(i int) float64 {
	layout := m.anim.Layout()
	i = max(0, min(i, layout.Len()-1))
	if i == 0 {
		return 0
	}
	return min(layout.PrecedingExtentSum(i)+2*m.cfg.Epsilon, m.maxOffset())
}

// scrollBy moves the raw offset. It may run a few rows past either edge of
// the page; a settle message pulls it back once input stops.
func (m Model) scrollBy(delta float64) (tea.Model, tea.Cmd) {
	raw := m.raw + delta
	raw = max(-overscrollRows, min(raw, m.maxOffset()+overscrollRows))

	if raw == m.raw {
		return m, nil
	}
	m.raw = raw

	cmds := []tea.Cmd{m.ingest(raw)}
	if raw < 0 || raw > m.maxOffset() {
		m.settleSeq++
		cmds = append(cmds, settleCmd(m.settleSeq))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) scrollTo(offset float64) (tea.Model, tea.Cmd) {
	m.raw = max(0, min(offset, m.maxOffset()))
	return m, m.ingest(m.raw)
}

func (m Model) handleSettle(msg settleMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.settleSeq || m.anim == nil {
		return m, nil
	}
	return m.scrollTo(m.raw)
}

// ingest hands the offset to the animator and starts the frame loop when it
// is idle.
func (m Model) ingest(raw float64) tea.Cmd {
	if m.anim.Ingest(raw) {
		return frameCmd()
	}
	return nil
}

func (m Model) handleFrame() (tea.Model, tea.Cmd) {
	if m.anim == nil {
		return m, nil
	}

	res := m.anim.Tick()
	if res.Continue {
		return m, frameCmd()
	}
	return m, nil
}

func (m Model) handlePoll(now time.Time) (tea.Model, tea.Cmd) {
	if m.player == nil {
		return m, nil
	}
	if !m.following || m.anim == nil {
		return m, pollCmd()
	}

	if err := m.player.Poll(); err != nil {
		log.Printf("player poll: %v", err)
		return m, pollCmd()
	}

	cmd := m.followState(m.player.GetState(), now)
	return m, tea.Batch(cmd, pollCmd())
}

func (m Model) handlePlayerEvent(event player.EventData) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.listenForPlayerEvents()}

	if m.following && m.anim != nil {
		switch event.Type {
		case player.EventSeeked, player.EventTrackChanged:
			cmds = append(cmds, m.followState(m.player.GetState(), time.Now()))
		}
	}

	return m, tea.Batch(cmds...)
}

// followState drives the offset from the player's position.
func (m *Model) followState(state player.State, now time.Time) tea.Cmd {
	if !state.Track.IsValid() {
		return nil
	}

	total := m.anim.Layout().TotalExtent()
	m.raw = player.ScrollOffset(state.Estimate(now), state.Track.Length, total)
	return m.ingest(m.raw)
}
