package models

import "time"

// Sentinel values used when a metadata source cannot provide a field.
const (
	UnknownTitle   = "Unknown Title"
	UnknownChannel = "Unknown Channel"
)

// VideoRef is a validated reference to a YouTube video. ID is always an
// 11-character YouTube video identifier; Reference keeps the string the
// user originally submitted.
type VideoRef struct {
	ID        string `json:"id"`
	Reference string `json:"reference"`
}

// WatchURL returns the canonical watch URL for the video.
func (r VideoRef) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + r.ID
}

// VideoMetadata holds everything the fetch stage learned about a video.
// Title and Channel fall back to the Unknown* sentinels rather than
// staying empty; Transcript may be empty when no captions exist.
type VideoMetadata struct {
	Title      string `json:"title"`
	Channel    string `json:"channel"`
	ChannelID  string `json:"channel_id"`
	Transcript string `json:"transcript"`

	// FromFallback is set when the primary extractor failed and the
	// values came from the oEmbed endpoint instead. FetchError keeps the
	// original extractor error message for diagnostics.
	FromFallback bool   `json:"from_fallback"`
	FetchError   string `json:"fetch_error,omitempty"`

	// Optional enrichment from the YouTube Data API. Zero values mean
	// the enrichment did not run or had nothing for this video.
	DurationSeconds int       `json:"duration_seconds,omitempty"`
	ViewCount       int64     `json:"view_count,omitempty"`
	PublishedAt     time.Time `json:"published_at,omitempty"`
}

// TranscriptSegment is one fixed-length slice of the audio fallback's
// waveform. Text is empty when recognition produced nothing for it.
type TranscriptSegment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}
