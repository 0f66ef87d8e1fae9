package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestPlanSegments(t *testing.T) {
	tests := []struct {
		name  string
		total time.Duration
		want  []time.Duration // segment lengths, in order
	}{
		{
			name:  "130 seconds becomes 59+59+12",
			total: 130 * time.Second,
			want:  []time.Duration{59 * time.Second, 59 * time.Second, 12 * time.Second},
		},
		{
			name:  "exact multiple has no tail",
			total: 118 * time.Second,
			want:  []time.Duration{59 * time.Second, 59 * time.Second},
		},
		{
			name:  "shorter than one segment",
			total: 30 * time.Second,
			want:  []time.Duration{30 * time.Second},
		},
		{
			name:  "sub-second tail discarded",
			total: 59*time.Second + 500*time.Millisecond,
			want:  []time.Duration{59 * time.Second},
		},
		{
			name:  "one second tail kept",
			total: 60 * time.Second,
			want:  []time.Duration{59 * time.Second, 1 * time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments := planSegments(tt.total)
			if len(segments) != len(tt.want) {
				t.Fatalf("planSegments(%v) produced %d segments, want %d", tt.total, len(segments), len(tt.want))
			}

			var cursor time.Duration
			for i, seg := range segments {
				if seg.Start != cursor {
					t.Errorf("segment %d starts at %v, want %v", i, seg.Start, cursor)
				}
				if got := seg.End - seg.Start; got != tt.want[i] {
					t.Errorf("segment %d length = %v, want %v", i, got, tt.want[i])
				}
				cursor = seg.End
			}
		})
	}
}

// orderScrambler recognizes segments with delays inversely proportional
// to their position, so later segments finish before earlier ones.
type orderScrambler struct {
	total int
}

var segmentIndexPattern = regexp.MustCompile(`segment_(\d+)\.wav$`)

func (r *orderScrambler) Recognize(ctx context.Context, audioPath string) (string, error) {
	match := segmentIndexPattern.FindStringSubmatch(audioPath)
	if match == nil {
		return "", fmt.Errorf("unexpected scratch path %q", audioPath)
	}
	index, _ := strconv.Atoi(match[1])

	time.Sleep(time.Duration(r.total-index) * 10 * time.Millisecond)
	return fmt.Sprintf("word%d", index), nil
}

func TestRecognizeSegmentsChronologicalOrder(t *testing.T) {
	// "true" accepts any arguments and writes nothing, standing in for
	// ffmpeg so no real export happens.
	tr := NewTranscriber("yt-dlp", "true", "ffprobe", t.TempDir(), &orderScrambler{total: 4})

	segments := planSegments(4 * segmentLength)
	if len(segments) != 4 {
		t.Fatalf("expected 4 segments, got %d", len(segments))
	}

	texts := tr.recognizeSegments(context.Background(), "audio.wav", t.TempDir(), segments)

	got := collapseTexts(texts)
	want := "word0 word1 word2 word3"
	if got != want {
		t.Errorf("transcript = %q, want %q", got, want)
	}
}

func TestCollapseTexts(t *testing.T) {
	tests := []struct {
		name  string
		texts []string
		want  string
	}{
		{name: "skips blanks", texts: []string{"a", "", "  ", "b"}, want: "a b"},
		{name: "all blank", texts: []string{"", "   "}, want: ""},
		{name: "trims each part", texts: []string{" a ", "b "}, want: "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := collapseTexts(tt.texts); got != tt.want {
				t.Errorf("collapseTexts(%v) = %q, want %q", tt.texts, got, tt.want)
			}
		})
	}
}

func TestExtractionErrorUnwrap(t *testing.T) {
	inner := fmt.Errorf("boom")
	err := &ExtractionError{Msg: "download failed", Err: inner}

	if !strings.Contains(err.Error(), "download failed") {
		t.Errorf("Error() = %q, missing message", err.Error())
	}
	if err.Unwrap() != inner {
		t.Error("Unwrap() should return the inner error")
	}

	bare := &ExtractionError{Msg: "no speech recognized"}
	if !strings.Contains(bare.Error(), "no speech recognized") {
		t.Errorf("Error() = %q, missing message", bare.Error())
	}
}

func TestPruneWorkspaces(t *testing.T) {
	tmpDir := t.TempDir()

	stale := filepath.Join(tmpDir, workspacePrefix+"stale")
	fresh := filepath.Join(tmpDir, workspacePrefix+"fresh")
	unrelated := filepath.Join(tmpDir, "unrelated-dir")
	for _, dir := range []string{stale, fresh, unrelated} {
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(unrelated, old, old); err != nil {
		t.Fatal(err)
	}

	removed, err := PruneWorkspaces(tmpDir, time.Hour)
	if err != nil {
		t.Fatalf("PruneWorkspaces returned error: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale workspace should have been removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh workspace should survive")
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Error("unrelated directory should survive")
	}
}
