package ai

import (
	"strings"
	"testing"
	"unicode/utf8"
)

const sampleNoteJSON = `{
	"video_title": "Go Concurrency Patterns",
	"channel_name": "GopherCon",
	"summary": "An overview of channels and goroutines.",
	"key_points": ["Channels synchronize goroutines", "Select multiplexes"],
	"timestamps": [{"time": "02:15", "description": "Channel basics"}]
}`

func TestParseNoteResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "bare JSON", response: sampleNoteJSON},
		{name: "json-tagged fence", response: "```json\n" + sampleNoteJSON + "\n```"},
		{name: "untagged fence", response: "```\n" + sampleNoteJSON + "\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note := parseNoteResponse(tt.response, "fallback title", "fallback channel")

			if note.VideoTitle != "Go Concurrency Patterns" {
				t.Errorf("VideoTitle = %q", note.VideoTitle)
			}
			if note.ChannelName != "GopherCon" {
				t.Errorf("ChannelName = %q", note.ChannelName)
			}
			if len(note.KeyPoints) != 2 {
				t.Errorf("KeyPoints = %v", note.KeyPoints)
			}
			if len(note.Timestamps) != 1 || note.Timestamps[0].Time != "02:15" {
				t.Errorf("Timestamps = %v", note.Timestamps)
			}
			if !note.Valid() {
				t.Errorf("parsed note should be valid, missing %v", note.MissingFields())
			}
		})
	}
}

func TestParseNoteResponseBackfillsIdentity(t *testing.T) {
	response := `{"summary": "s", "key_points": ["k"], "timestamps": [{"time": "00:10", "description": "d"}]}`

	note := parseNoteResponse(response, "Known Title", "Known Channel")
	if note.VideoTitle != "Known Title" {
		t.Errorf("VideoTitle = %q, want backfilled title", note.VideoTitle)
	}
	if note.ChannelName != "Known Channel" {
		t.Errorf("ChannelName = %q, want backfilled channel", note.ChannelName)
	}
}

func TestParseNoteResponseFallback(t *testing.T) {
	response := "The model decided to reply in prose instead of JSON."

	note := parseNoteResponse(response, "Some Title", "Some Channel")

	if note.Summary != response {
		t.Errorf("Summary = %q, want raw response text", note.Summary)
	}
	if len(note.KeyPoints) != 1 || !strings.Contains(note.KeyPoints[0], "Key point") {
		t.Errorf("KeyPoints = %v, want single placeholder", note.KeyPoints)
	}
	if len(note.Timestamps) != 1 || note.Timestamps[0].Time != "00:00" {
		t.Errorf("Timestamps = %v, want single 00:00 placeholder", note.Timestamps)
	}
	// The degraded note must still clear validation.
	if !note.Valid() {
		t.Errorf("fallback note should be valid, missing %v", note.MissingFields())
	}
}

func TestParseNoteResponseFallbackTruncatesSummary(t *testing.T) {
	response := strings.Repeat("x", summaryFallbackLimit+500)

	note := parseNoteResponse(response, "t", "c")
	if len(note.Summary) != summaryFallbackLimit {
		t.Errorf("Summary length = %d, want %d", len(note.Summary), summaryFallbackLimit)
	}
}

func TestParseNoteResponseFallbackTruncatesOnRuneBoundary(t *testing.T) {
	// 400 three-byte runes: the 1000-byte limit lands mid-rune.
	response := strings.Repeat("世", 400)

	note := parseNoteResponse(response, "t", "c")
	if !utf8.ValidString(note.Summary) {
		t.Error("truncated summary contains a split rune")
	}
	if len(note.Summary) > summaryFallbackLimit {
		t.Errorf("Summary length = %d, want at most %d", len(note.Summary), summaryFallbackLimit)
	}
	if note.Summary == "" {
		t.Error("truncation should keep the leading runes")
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "no fences", in: `{"a": 1}`, want: `{"a": 1}`},
		{name: "json tagged", in: "```json\n{\"a\": 1}\n```", want: `{"a": 1}`},
		{name: "untagged", in: "```\n{\"a\": 1}\n```", want: `{"a": 1}`},
		{name: "surrounding whitespace", in: "  ```json\n{\"a\": 1}\n```  ", want: `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFences(tt.in); got != tt.want {
				t.Errorf("stripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGenerationErrorMessage(t *testing.T) {
	err := &GenerationError{Missing: []string{"summary", "key_points"}}
	if !strings.Contains(err.Error(), "summary, key_points") {
		t.Errorf("Error() = %q, want all missing fields listed", err.Error())
	}
}
