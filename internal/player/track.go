package player

import "time"

type Track struct {
	Title   string
	Artist  string
	Album   string
	Length  time.Duration
	TrackID string
}

// IsValid reports whether the track can drive the scroll offset. Video
// players often publish no artist, so only a title and a length are needed.
func (t *Track) IsValid() bool {
	if t == nil {
		return false
	}
	return t.Title != "" && t.Length > 0
}

func (t *Track) IsSameTrack(other *Track) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.TrackID != "" && other.TrackID != "" {
		return t.TrackID == other.TrackID
	}
	return t.Title == other.Title && t.Artist == other.Artist
}
