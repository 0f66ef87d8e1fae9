package models

import "strings"

// NoteTimestamp marks an important moment in the video. Time uses the
// MM:SS label convention produced by the generator.
type NoteTimestamp struct {
	Time        string `json:"time"`
	Description string `json:"description"`
}

// GeneratedNote is the structured note produced by the AI generator.
// All five fields must be non-blank for the note to be valid; the
// generator never hands an invalid note to its caller.
type GeneratedNote struct {
	VideoTitle  string          `json:"video_title"`
	ChannelName string          `json:"channel_name"`
	Summary     string          `json:"summary"`
	KeyPoints   []string        `json:"key_points"`
	Timestamps  []NoteTimestamp `json:"timestamps"`
}

// MissingFields reports every required field that is empty or blank,
// not just the first, so callers can surface a complete diagnosis.
func (n *GeneratedNote) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(n.VideoTitle) == "" {
		missing = append(missing, "video_title")
	}
	if strings.TrimSpace(n.ChannelName) == "" {
		missing = append(missing, "channel_name")
	}
	if strings.TrimSpace(n.Summary) == "" {
		missing = append(missing, "summary")
	}
	if len(n.KeyPoints) == 0 {
		missing = append(missing, "key_points")
	}
	if len(n.Timestamps) == 0 {
		missing = append(missing, "timestamps")
	}
	return missing
}

// Valid reports whether the note satisfies the non-empty invariant.
func (n *GeneratedNote) Valid() bool {
	return len(n.MissingFields()) == 0
}
