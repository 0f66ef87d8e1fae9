package email

import (
	"strings"
	"testing"

	"yt-notes/internal/models"
	"yt-notes/shared/config"
)

func TestGenerateEmailBody(t *testing.T) {
	sender := NewSender(&config.EmailConfig{})

	note := &models.GeneratedNote{
		VideoTitle:  "Generics in Go",
		ChannelName: "Go Time",
		Summary:     "Type parameters & constraints.",
		KeyPoints:   []string{"Constraints bound type sets"},
		Timestamps:  []models.NoteTimestamp{{Time: "03:20", Description: "First example"}},
	}

	body, err := sender.generateEmailBody(note, "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("generateEmailBody returned error: %v", err)
	}

	for _, want := range []string{
		"Generics in Go",
		"Go Time",
		"Constraints bound type sets",
		"03:20",
		"First example",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("email body missing %q", want)
		}
	}

	// html/template must escape, not mangle, plain content.
	if !strings.Contains(body, "Type parameters &amp; constraints.") {
		t.Error("summary should be HTML-escaped")
	}
}

func TestSendNoteNil(t *testing.T) {
	sender := NewSender(&config.EmailConfig{})
	if err := sender.SendNote(nil, ""); err == nil {
		t.Error("SendNote(nil) should fail")
	}
}
