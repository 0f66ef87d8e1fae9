package notetaker

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"yt-notes/internal/models"
	"yt-notes/shared/ai"
	"yt-notes/shared/audio"
	"yt-notes/shared/config"
	"yt-notes/shared/speech"
	"yt-notes/shared/youtube"
)

// Stage identifies where in the pipeline a run currently is, or where
// it failed.
type Stage string

const (
	StageExtracting   Stage = "extracting"
	StageFetching     Stage = "fetching"
	StageTranscribing Stage = "transcribing"
	StageGenerating   Stage = "generating"
)

// PipelineError carries the failing stage alongside the underlying
// cause so callers can report precisely what broke.
type PipelineError struct {
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline failed at %s stage: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// Result is a completed pipeline run: the validated note plus the
// metadata it was generated from.
type Result struct {
	Ref               models.VideoRef
	Metadata          *models.VideoMetadata
	Note              *models.GeneratedNote
	UsedAudioFallback bool
	Elapsed           time.Duration
}

// MetadataFetcher resolves a video reference to metadata and any
// available caption text.
type MetadataFetcher interface {
	Fetch(ctx context.Context, ref models.VideoRef) (*models.VideoMetadata, error)
}

// MetadataEnricher optionally supplements fetched metadata with
// duration and statistics.
type MetadataEnricher interface {
	Enrich(ctx context.Context, ref models.VideoRef, md *models.VideoMetadata)
}

// AudioTranscriber recovers transcript text from the audio track when
// no captions exist.
type AudioTranscriber interface {
	Transcribe(ctx context.Context, ref models.VideoRef) (string, error)
}

// NoteGenerator turns transcript text into a validated note.
type NoteGenerator interface {
	Generate(ctx context.Context, transcript, videoURL, title, channel string) (*models.GeneratedNote, error)
}

// Pipeline chains reference extraction, metadata/caption fetching, the
// audio transcription fallback, and note generation into one run.
type Pipeline struct {
	config      *config.Config
	fetcher     MetadataFetcher
	enricher    MetadataEnricher
	transcriber AudioTranscriber
	generator   NoteGenerator
}

func NewPipeline(cfg *config.Config) *Pipeline {
	return &Pipeline{config: cfg}
}

// Initialize wires the default components. Components already set (by
// tests, typically) are left alone.
func (p *Pipeline) Initialize() error {
	log.Printf("Initializing note pipeline...")

	if p.fetcher == nil {
		extractor, err := youtube.NewYtDlpExtractor(p.config.YouTube.YtDlpPath)
		if err != nil {
			return fmt.Errorf("failed to create info extractor: %w", err)
		}
		p.fetcher = youtube.NewFetcher(extractor)
		log.Println("Metadata fetcher initialized")
	}

	if p.enricher == nil && p.config.YouTube.APIKey != "" {
		enricher, err := youtube.NewDataAPIClient(context.Background(), p.config.YouTube.APIKey)
		if err != nil {
			return fmt.Errorf("failed to create Data API client: %w", err)
		}
		p.enricher = enricher
		log.Println("Data API enrichment enabled")
	}

	if p.transcriber == nil {
		recognizer := speech.NewWhisperRecognizer(
			p.config.Speech.OpenAIAPIKey,
			p.config.Speech.Model,
			p.config.Speech.RequestsPerMinute,
		)
		p.transcriber = audio.NewTranscriber(
			p.config.YouTube.YtDlpPath,
			p.config.YouTube.FfmpegPath,
			p.config.YouTube.FfprobePath,
			p.config.TmpDir,
			recognizer,
		)
		log.Println("Audio transcriber initialized")
	}

	if p.generator == nil {
		generator, err := ai.NewGenerator(p.config)
		if err != nil {
			return fmt.Errorf("failed to create note generator: %w", err)
		}
		p.generator = generator
		log.Println("Note generator initialized")
	}

	return nil
}

// Run processes one video reference end to end. The audio fallback
// engages only when the fetched metadata carries no caption text.
func (p *Pipeline) Run(ctx context.Context, reference string) (*Result, error) {
	startTime := time.Now()

	ref, err := youtube.ExtractRef(reference)
	if err != nil {
		return nil, &PipelineError{Stage: StageExtracting, Err: err}
	}

	log.Printf("Processing video %s", ref.ID)

	md, err := p.fetcher.Fetch(ctx, ref)
	if err != nil {
		return nil, &PipelineError{Stage: StageFetching, Err: err}
	}
	if p.enricher != nil {
		p.enricher.Enrich(ctx, ref, md)
	}

	usedAudio := false
	transcript := strings.TrimSpace(md.Transcript)
	if transcript == "" {
		log.Printf("No captions for %s, falling back to audio transcription", ref.ID)

		if err := p.checkAudioDuration(md); err != nil {
			return nil, &PipelineError{Stage: StageTranscribing, Err: err}
		}

		transcript, err = p.transcriber.Transcribe(ctx, ref)
		if err != nil {
			return nil, &PipelineError{Stage: StageTranscribing, Err: err}
		}
		md.Transcript = transcript
		usedAudio = true
	}

	note, err := p.generator.Generate(ctx, transcript, ref.WatchURL(), md.Title, md.Channel)
	if err != nil {
		return nil, &PipelineError{Stage: StageGenerating, Err: err}
	}

	elapsed := time.Since(startTime)
	log.Printf("Completed note for %s in %v (audio fallback: %t)", ref.ID, elapsed.Round(time.Millisecond), usedAudio)

	return &Result{
		Ref:               ref,
		Metadata:          md,
		Note:              note,
		UsedAudioFallback: usedAudio,
		Elapsed:           elapsed,
	}, nil
}

// checkAudioDuration refuses the audio fallback for videos longer than
// the configured ceiling. Duration is only known when Data API
// enrichment ran; unknown durations pass.
func (p *Pipeline) checkAudioDuration(md *models.VideoMetadata) error {
	maxMinutes := p.config.YouTube.MaxAudioMinutes
	if maxMinutes <= 0 || md.DurationSeconds <= 0 {
		return nil
	}
	if md.DurationSeconds > maxMinutes*60 {
		return &audio.ExtractionError{
			Msg: fmt.Sprintf("video is %dm long, over the %dm audio fallback ceiling",
				md.DurationSeconds/60, maxMinutes),
		}
	}
	return nil
}
