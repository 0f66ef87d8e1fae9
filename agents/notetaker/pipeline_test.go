package notetaker

import (
	"context"
	"errors"
	"testing"

	"yt-notes/internal/models"
	"yt-notes/shared/audio"
	"yt-notes/shared/config"
	"yt-notes/shared/youtube"
)

type stubFetcher struct {
	md  *models.VideoMetadata
	err error
}

func (s *stubFetcher) Fetch(ctx context.Context, ref models.VideoRef) (*models.VideoMetadata, error) {
	if s.err != nil {
		return nil, s.err
	}
	md := *s.md
	return &md, nil
}

type stubTranscriber struct {
	transcript string
	err        error
	called     bool
}

func (s *stubTranscriber) Transcribe(ctx context.Context, ref models.VideoRef) (string, error) {
	s.called = true
	return s.transcript, s.err
}

type stubGenerator struct {
	note          *models.GeneratedNote
	err           error
	gotTranscript string
	gotTitle      string
	gotChannel    string
}

func (s *stubGenerator) Generate(ctx context.Context, transcript, videoURL, title, channel string) (*models.GeneratedNote, error) {
	s.gotTranscript = transcript
	s.gotTitle = title
	s.gotChannel = channel
	return s.note, s.err
}

func testNote() *models.GeneratedNote {
	return &models.GeneratedNote{
		VideoTitle:  "A Video",
		ChannelName: "A Channel",
		Summary:     "summary",
		KeyPoints:   []string{"point"},
		Timestamps:  []models.NoteTimestamp{{Time: "00:30", Description: "intro"}},
	}
}

func testPipeline(fetcher MetadataFetcher, transcriber AudioTranscriber, generator NoteGenerator) *Pipeline {
	cfg := &config.Config{}
	cfg.YouTube.MaxAudioMinutes = 90
	return &Pipeline{
		config:      cfg,
		fetcher:     fetcher,
		transcriber: transcriber,
		generator:   generator,
	}
}

const testURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func TestRunWithCaptionsSkipsAudio(t *testing.T) {
	transcriber := &stubTranscriber{}
	generator := &stubGenerator{note: testNote()}
	fetcher := &stubFetcher{md: &models.VideoMetadata{
		Title:      "A Video",
		Channel:    "A Channel",
		Transcript: "caption text here",
	}}

	result, err := testPipeline(fetcher, transcriber, generator).Run(context.Background(), testURL)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if transcriber.called {
		t.Error("audio transcriber should not run when captions exist")
	}
	if result.UsedAudioFallback {
		t.Error("UsedAudioFallback should be false")
	}
	if generator.gotTranscript != "caption text here" {
		t.Errorf("generator received transcript %q", generator.gotTranscript)
	}
	if generator.gotTitle != "A Video" || generator.gotChannel != "A Channel" {
		t.Errorf("generator received identity %q/%q", generator.gotTitle, generator.gotChannel)
	}
	if result.Ref.ID != "dQw4w9WgXcQ" {
		t.Errorf("Ref.ID = %q", result.Ref.ID)
	}
}

func TestRunWithoutCaptionsUsesAudio(t *testing.T) {
	transcriber := &stubTranscriber{transcript: "recognized speech"}
	generator := &stubGenerator{note: testNote()}
	fetcher := &stubFetcher{md: &models.VideoMetadata{
		Title:   "A Video",
		Channel: "A Channel",
	}}

	result, err := testPipeline(fetcher, transcriber, generator).Run(context.Background(), testURL)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if !transcriber.called {
		t.Error("audio transcriber should run when no captions exist")
	}
	if !result.UsedAudioFallback {
		t.Error("UsedAudioFallback should be true")
	}
	if generator.gotTranscript != "recognized speech" {
		t.Errorf("generator received transcript %q", generator.gotTranscript)
	}
	if result.Metadata.Transcript != "recognized speech" {
		t.Errorf("metadata transcript = %q", result.Metadata.Transcript)
	}
}

func TestRunWhitespaceTranscriptTriggersAudio(t *testing.T) {
	transcriber := &stubTranscriber{transcript: "speech"}
	fetcher := &stubFetcher{md: &models.VideoMetadata{Title: "t", Channel: "c", Transcript: "   \n  "}}

	_, err := testPipeline(fetcher, transcriber, &stubGenerator{note: testNote()}).Run(context.Background(), testURL)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !transcriber.called {
		t.Error("whitespace-only captions should count as no captions")
	}
}

func TestRunInvalidReference(t *testing.T) {
	p := testPipeline(&stubFetcher{}, &stubTranscriber{}, &stubGenerator{})

	_, err := p.Run(context.Background(), "not a video")
	var perr *PipelineError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want PipelineError", err)
	}
	if perr.Stage != StageExtracting {
		t.Errorf("Stage = %q, want %q", perr.Stage, StageExtracting)
	}
	if !errors.Is(err, youtube.ErrInvalidReference) {
		t.Errorf("error should wrap ErrInvalidReference, got %v", err)
	}
}

func TestRunFetchFailure(t *testing.T) {
	fetchErr := errors.New("extraction exploded")
	p := testPipeline(&stubFetcher{err: fetchErr}, &stubTranscriber{}, &stubGenerator{})

	_, err := p.Run(context.Background(), testURL)
	var perr *PipelineError
	if !errors.As(err, &perr) || perr.Stage != StageFetching {
		t.Fatalf("error = %v, want fetching-stage PipelineError", err)
	}
	if !errors.Is(err, fetchErr) {
		t.Errorf("error should wrap the fetch failure")
	}
}

func TestRunAudioFailure(t *testing.T) {
	transcriber := &stubTranscriber{err: &audio.ExtractionError{Msg: "no speech recognized"}}
	fetcher := &stubFetcher{md: &models.VideoMetadata{Title: "t", Channel: "c"}}

	_, err := testPipeline(fetcher, transcriber, &stubGenerator{}).Run(context.Background(), testURL)
	var perr *PipelineError
	if !errors.As(err, &perr) || perr.Stage != StageTranscribing {
		t.Fatalf("error = %v, want transcribing-stage PipelineError", err)
	}
	var extractionErr *audio.ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Errorf("error should wrap ExtractionError")
	}
}

func TestRunDurationGateBlocksAudioFallback(t *testing.T) {
	transcriber := &stubTranscriber{transcript: "should never run"}
	fetcher := &stubFetcher{md: &models.VideoMetadata{
		Title:           "Marathon Stream",
		Channel:         "c",
		DurationSeconds: 91 * 60,
	}}

	_, err := testPipeline(fetcher, transcriber, &stubGenerator{}).Run(context.Background(), testURL)
	var perr *PipelineError
	if !errors.As(err, &perr) || perr.Stage != StageTranscribing {
		t.Fatalf("error = %v, want transcribing-stage PipelineError", err)
	}
	if transcriber.called {
		t.Error("transcriber should not run past the duration ceiling")
	}
}

func TestRunNegativeCeilingDisablesDurationGate(t *testing.T) {
	transcriber := &stubTranscriber{transcript: "speech"}
	fetcher := &stubFetcher{md: &models.VideoMetadata{
		Title:           "Marathon Stream",
		Channel:         "c",
		DurationSeconds: 10 * 3600,
	}}

	p := testPipeline(fetcher, transcriber, &stubGenerator{note: testNote()})
	p.config.YouTube.MaxAudioMinutes = -1

	_, err := p.Run(context.Background(), testURL)
	if err != nil {
		t.Fatalf("disabled ceiling should let any duration through, got %v", err)
	}
	if !transcriber.called {
		t.Error("transcriber should run when the ceiling is disabled")
	}
}

func TestRunDurationGateIgnoredWithCaptions(t *testing.T) {
	fetcher := &stubFetcher{md: &models.VideoMetadata{
		Title:           "Marathon Stream",
		Channel:         "c",
		Transcript:      "captions",
		DurationSeconds: 10 * 3600,
	}}

	_, err := testPipeline(fetcher, &stubTranscriber{}, &stubGenerator{note: testNote()}).Run(context.Background(), testURL)
	if err != nil {
		t.Fatalf("long videos with captions should pass, got %v", err)
	}
}

func TestRunGeneratorFailure(t *testing.T) {
	genErr := errors.New("model said no")
	fetcher := &stubFetcher{md: &models.VideoMetadata{Title: "t", Channel: "c", Transcript: "text"}}

	_, err := testPipeline(fetcher, &stubTranscriber{}, &stubGenerator{err: genErr}).Run(context.Background(), testURL)
	var perr *PipelineError
	if !errors.As(err, &perr) || perr.Stage != StageGenerating {
		t.Fatalf("error = %v, want generating-stage PipelineError", err)
	}
	if !errors.Is(err, genErr) {
		t.Errorf("error should wrap the generation failure")
	}
}
