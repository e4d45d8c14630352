package player

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	mprisPath        = "/org/mpris/MediaPlayer2"
	mprisPlayerIface = "org.mpris.MediaPlayer2.Player"

	seekThreshold = 3 * time.Second
)

type Event int

const (
	EventTrackChanged Event = iota
	EventSeeked
	EventPlaybackStateChanged
)

type EventData struct {
	Type     Event
	Track    *Track
	Position time.Duration
	Playing  bool
}

type State struct {
	Track              *Track
	Position           time.Duration
	Playing            bool
	lastPositionUpdate time.Time
}

// Estimate extrapolates the position from the last update while playing.
func (s *State) Estimate(now time.Time) time.Duration {
	if !s.Playing || s.lastPositionUpdate.IsZero() {
		return s.Position
	}
	pos := s.Position + now.Sub(s.lastPositionUpdate)
	if s.Track != nil && s.Track.Length > 0 && pos > s.Track.Length {
		pos = s.Track.Length
	}
	return pos
}

func (s *State) DetectSeek(newPosition time.Duration, now time.Time) bool {
	if s.lastPositionUpdate.IsZero() {
		return false
	}

	diff := newPosition - s.Estimate(now)
	if diff < 0 {
		diff = -diff
	}

	return diff > seekThreshold
}

func (s *State) UpdatePosition(pos time.Duration, now time.Time) {
	s.Position = pos
	s.lastPositionUpdate = now
}

type Service struct {
	bus        *dbus.Conn
	service    string
	signalChan chan *dbus.Signal
	stopChan   chan struct{}
	stopOnce   sync.Once
	eventChan  chan EventData
	state      *State
	mu         sync.RWMutex
}

func NewService(bus *dbus.Conn, mprisService string) (*Service, error) {
	if bus == nil {
		return nil, errors.New("nil dbus connection")
	}
	if mprisService == "" {
		return nil, errors.New("empty mpris service name")
	}

	return &Service{
		bus:       bus,
		service:   mprisService,
		eventChan: make(chan EventData, 16),
		state:     &State{},
	}, nil
}

func (s *Service) Name() string { return s.service }

func (s *Service) Start() error {
	signalChan := make(chan *dbus.Signal, 10)
	s.signalChan = signalChan
	s.stopChan = make(chan struct{})

	s.bus.Signal(signalChan)

	matchPropertiesChanged := fmt.Sprintf(
		"type='signal',sender='%s',interface='org.freedesktop.DBus.Properties',member='PropertiesChanged',path='%s'",
		s.service, mprisPath,
	)
	matchSeeked := fmt.Sprintf(
		"type='signal',sender='%s',interface='%s',member='Seeked',path='%s'",
		s.service, mprisPlayerIface, mprisPath,
	)

	if err := s.bus.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, matchPropertiesChanged).Err; err != nil {
		return fmt.Errorf("failed to add properties match: %w", err)
	}

	if err := s.bus.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, matchSeeked).Err; err != nil {
		return fmt.Errorf("failed to add seeked match: %w", err)
	}

	go s.signalLoop()

	return nil
}

func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		if s.stopChan != nil {
			close(s.stopChan)
		}
	})
}

func (s *Service) Events() <-chan EventData {
	return s.eventChan
}

func (s *Service) CurrentTrack() (*Track, error) {
	prop, err := s.bus.Object(s.service, mprisPath).GetProperty(mprisPlayerIface + ".Metadata")
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata property: %w", err)
	}

	metadata, ok := prop.Value().(map[string]dbus.Variant)
	if !ok {
		return nil, fmt.Errorf("unexpected metadata type %T", prop.Value())
	}

	info := trackFromMetadata(metadata)
	if !info.IsValid() {
		return nil, fmt.Errorf("missing title or length in metadata (title=%q)", info.Title)
	}

	return info, nil
}

func (s *Service) CurrentPosition() (time.Duration, error) {
	prop, err := s.bus.Object(s.service, mprisPath).GetProperty(mprisPlayerIface + ".Position")
	if err != nil {
		return 0, fmt.Errorf("failed to get position property: %w", err)
	}

	micros, ok := prop.Value().(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected position type %T", prop.Value())
	}

	return microsToDuration(micros), nil
}

func (s *Service) playing() bool {
	prop, err := s.bus.Object(s.service, mprisPath).GetProperty(mprisPlayerIface + ".PlaybackStatus")
	if err != nil {
		return false
	}
	status, _ := prop.Value().(string)
	return status == "Playing"
}

// Poll refreshes track, position and playback state from the player and
// emits events for what changed.
func (s *Service) Poll() error {
	trk, err := s.CurrentTrack()
	if err != nil {
		return err
	}

	pos, err := s.CurrentPosition()
	if err != nil {
		return err
	}

	playing := s.playing()
	now := time.Now()

	s.mu.Lock()
	currentTrack := s.state.Track
	seekDetected := s.state.DetectSeek(pos, now)
	wasPlaying := s.state.Playing
	s.state.UpdatePosition(pos, now)
	s.state.Playing = playing

	if !trk.IsSameTrack(currentTrack) {
		s.state.Track = trk
		s.mu.Unlock()
		s.emitEvent(EventData{Type: EventTrackChanged, Track: trk, Position: pos, Playing: playing})
		return nil
	}
	s.mu.Unlock()

	if seekDetected {
		s.emitEvent(EventData{Type: EventSeeked, Position: pos})
	}
	if playing != wasPlaying {
		s.emitEvent(EventData{Type: EventPlaybackStateChanged, Playing: playing})
	}

	return nil
}

func (s *Service) signalLoop() {
	for {
		select {
		case sig, ok := <-s.signalChan:
			if !ok {
				return
			}
			s.handleSignal(sig)
		case <-s.stopChan:
			return
		}
	}
}

func (s *Service) handleSignal(sig *dbus.Signal) {
	if sig == nil {
		return
	}

	switch sig.Name {
	case "org.freedesktop.DBus.Properties.PropertiesChanged":
		s.handlePropertiesChanged(sig)
	case "org.mpris.MediaPlayer2.Player.Seeked":
		s.handleSeeked(sig)
	}
}

func (s *Service) handlePropertiesChanged(sig *dbus.Signal) {
	if len(sig.Body) < 2 {
		return
	}

	interfaceName, ok := sig.Body[0].(string)
	if !ok || interfaceName != mprisPlayerIface {
		return
	}

	changedProps, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return
	}

	if metadataVariant, exists := changedProps["Metadata"]; exists {
		if metadata, ok := metadataVariant.Value().(map[string]dbus.Variant); ok {
			info := trackFromMetadata(metadata)
			if info.IsValid() {
				s.mu.Lock()
				s.state.Track = info
				s.state.UpdatePosition(0, time.Now())
				s.mu.Unlock()

				s.emitEvent(EventData{Type: EventTrackChanged, Track: info})
			}
		}
	}

	if playbackVariant, exists := changedProps["PlaybackStatus"]; exists {
		if status, ok := playbackVariant.Value().(string); ok {
			playing := status == "Playing"
			now := time.Now()

			s.mu.Lock()
			s.state.UpdatePosition(s.state.Estimate(now), now)
			s.state.Playing = playing
			s.mu.Unlock()

			s.emitEvent(EventData{Type: EventPlaybackStateChanged, Playing: playing})
		}
	}
}

func (s *Service) handleSeeked(sig *dbus.Signal) {
	if len(sig.Body) < 1 {
		return
	}

	micros, ok := sig.Body[0].(int64)
	if !ok {
		return
	}

	pos := microsToDuration(micros)

	s.mu.Lock()
	s.state.UpdatePosition(pos, time.Now())
	s.mu.Unlock()

	s.emitEvent(EventData{Type: EventSeeked, Position: pos})
}

func (s *Service) emitEvent(event EventData) {
	select {
	case s.eventChan <- event:
	default:
	}
}

// GetState returns a copy of the current state.
func (s *Service) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stateCopy := *s.state
	if s.state.Track != nil {
		trackCopy := *s.state.Track
		stateCopy.Track = &trackCopy
	}

	return stateCopy
}

func trackFromMetadata(metadata map[string]dbus.Variant) *Track {
	return &Track{
		Title:   extractString(metadata, "xesam:title"),
		Artist:  extractArtist(metadata, "xesam:artist"),
		Album:   extractString(metadata, "xesam:album"),
		TrackID: extractTrackID(metadata, "mpris:trackid"),
		Length:  extractLength(metadata, "mpris:length"),
	}
}

func microsToDuration(micros int64) time.Duration {
	if micros < 0 {
		return 0
	}
	return time.Duration(micros) * time.Microsecond
}

func variantValue(metadata map[string]dbus.Variant, key string) any {
	if metadata == nil {
		return nil
	}
	variant, exists := metadata[key]
	if !exists {
		return nil
	}
	return variant.Value()
}

func extractString(metadata map[string]dbus.Variant, key string) string {
	text, _ := variantValue(metadata, key).(string)
	return text
}

// trackid is an object path in the MPRIS spec, though some players send a
// plain string.
func extractTrackID(metadata map[string]dbus.Variant, key string) string {
	switch typed := variantValue(metadata, key).(type) {
	case dbus.ObjectPath:
		return string(typed)
	case string:
		return typed
	}
	return ""
}

func extractArtist(metadata map[string]dbus.Variant, key string) string {
	switch typed := variantValue(metadata, key).(type) {
	case []string:
		if len(typed) > 0 {
			return typed[0]
		}
	case string:
		return typed
	}
	return ""
}

func extractLength(metadata map[string]dbus.Variant, key string) time.Duration {
	switch typed := variantValue(metadata, key).(type) {
	case int64:
		return microsToDuration(typed)
	case uint64:
		return microsToDuration(int64(typed))
	case int32:
		return microsToDuration(int64(typed))
	}
	return 0
}
