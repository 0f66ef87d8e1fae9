package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"yt-notes/internal/models"
	"yt-notes/shared/speech"
)

const (
	// segmentLength is the de facto per-request ceiling of the
	// recognition backend.
	segmentLength = 59 * time.Second
	// segmentFloor: residual tails shorter than this carry no speech
	// worth a request.
	segmentFloor = 1 * time.Second
	// minAudioDuration: audio shorter than this cannot contain speech.
	minAudioDuration = 2 * time.Second

	sampleRate      = 16000
	workspacePrefix = "yt-notes-audio-"
)

// ExtractionError means every download/convert/transcribe option was
// exhausted without producing usable text.
type ExtractionError struct {
	Msg string
	Err error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("audio extraction failed: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("audio extraction failed: %s", e.Msg)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Transcriber recovers transcript text from a video's audio track when
// no captions exist: download, normalize to a 16kHz mono waveform,
// partition into fixed-length segments, recognize each, concatenate.
type Transcriber struct {
	ytDlpPath   string
	ffmpegPath  string
	ffprobePath string
	recognizer  speech.Recognizer
	tmpDir      string
}

func NewTranscriber(ytDlpPath, ffmpegPath, ffprobePath, tmpDir string, recognizer speech.Recognizer) *Transcriber {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return &Transcriber{
		ytDlpPath:   ytDlpPath,
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		recognizer:  recognizer,
		tmpDir:      tmpDir,
	}
}

// Transcribe runs the full audio fallback for one video. All disk
// artifacts live in a per-run workspace that is removed on every exit
// path, including cancellation.
func (t *Transcriber) Transcribe(ctx context.Context, ref models.VideoRef) (string, error) {
	workspace := filepath.Join(t.tmpDir, workspacePrefix+uuid.NewString())
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return "", fmt.Errorf("failed to create audio workspace: %w", err)
	}
	defer os.RemoveAll(workspace)

	sourcePath, err := t.downloadAudio(ctx, ref.WatchURL(), workspace)
	if err != nil {
		return "", err
	}

	wavPath := filepath.Join(workspace, "audio.wav")
	if err := t.normalizeToWav(ctx, sourcePath, wavPath); err != nil {
		return "", err
	}

	duration, err := t.probeDuration(ctx, wavPath)
	if err != nil {
		return "", err
	}
	if duration < minAudioDuration {
		return "", &ExtractionError{Msg: fmt.Sprintf("audio too short to contain speech (%.1fs)", duration.Seconds())}
	}

	segments := planSegments(duration)
	log.Printf("Transcribing %s: %.0fs of audio in %d segments", ref.ID, duration.Seconds(), len(segments))

	texts := t.recognizeSegments(ctx, wavPath, workspace, segments)
	if err := ctx.Err(); err != nil {
		return "", err
	}

	transcript := collapseTexts(texts)
	if transcript == "" {
		return "", &ExtractionError{Msg: "no speech recognized"}
	}
	return transcript, nil
}

// planSegments partitions a waveform into chronological fixed-length
// segments, discarding tails shorter than the floor.
func planSegments(total time.Duration) []models.TranscriptSegment {
	var segments []models.TranscriptSegment
	for start := time.Duration(0); start < total; start += segmentLength {
		end := start + segmentLength
		if end > total {
			end = total
		}
		if end-start < segmentFloor {
			break
		}
		segments = append(segments, models.TranscriptSegment{Start: start, End: end})
	}
	return segments
}

// recognizeSegments exports and recognizes each segment. Segments are
// processed concurrently, but results are collected by index so the
// concatenation order is always chronological. Recognition misses and
// backend outages skip the segment; they never abort the run.
func (t *Transcriber) recognizeSegments(ctx context.Context, wavPath, workspace string, segments []models.TranscriptSegment) []string {
	texts := make([]string, len(segments))

	var wg sync.WaitGroup
	for i, seg := range segments {
		wg.Add(1)
		go func(i int, seg models.TranscriptSegment) {
			defer wg.Done()
			text, err := t.recognizeSegment(ctx, wavPath, workspace, i, seg)
			if err != nil {
				switch {
				case errors.Is(err, speech.ErrNoSpeech):
					// Expected for silent or musical segments.
				case errors.Is(err, speech.ErrServiceUnavailable):
					log.Printf("Recognition backend unavailable for segment %d, skipping: %v", i, err)
				case ctx.Err() != nil:
					// Cancelled; nothing to report per segment.
				default:
					log.Printf("Recognition failed for segment %d, skipping: %v", i, err)
				}
				return
			}
			texts[i] = text
		}(i, seg)
	}
	wg.Wait()

	return texts
}

func (t *Transcriber) recognizeSegment(ctx context.Context, wavPath, workspace string, index int, seg models.TranscriptSegment) (string, error) {
	scratch := filepath.Join(workspace, fmt.Sprintf("segment_%03d.wav", index))
	if err := t.exportSegment(ctx, wavPath, scratch, seg); err != nil {
		return "", err
	}
	defer os.Remove(scratch)

	return t.recognizer.Recognize(ctx, scratch)
}

// exportSegment cuts one segment into an isolated scratch file. The
// highpass/denoise filter strips ambient noise before recognition.
func (t *Transcriber) exportSegment(ctx context.Context, wavPath, scratch string, seg models.TranscriptSegment) error {
	args := []string{
		"-y",
		"-ss", formatSeconds(seg.Start),
		"-t", formatSeconds(seg.End - seg.Start),
		"-i", wavPath,
		"-af", "highpass=f=80,afftdn",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", "1",
		scratch,
	}
	return t.runFfmpeg(ctx, args)
}

// normalizeToWav converts the downloaded audio into a single mono WAV
// at the sample rate the recognition backend expects.
func (t *Transcriber) normalizeToWav(ctx context.Context, sourcePath, wavPath string) error {
	args := []string{
		"-y",
		"-i", sourcePath,
		"-vn",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", "1",
		wavPath,
	}
	if err := t.runFfmpeg(ctx, args); err != nil {
		return &ExtractionError{Msg: "failed to convert audio to waveform", Err: err}
	}
	if _, err := os.Stat(wavPath); err != nil {
		return &ExtractionError{Msg: "no waveform file produced by conversion", Err: err}
	}
	return nil
}

func (t *Transcriber) runFfmpeg(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("ffmpeg failed: %s", msg)
	}
	return nil
}

func (t *Transcriber) probeDuration(ctx context.Context, wavPath string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, t.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		wavPath,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, &ExtractionError{Msg: "failed to probe audio duration", Err: err}
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, &ExtractionError{Msg: "unparseable audio duration", Err: err}
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func collapseTexts(texts []string) string {
	var parts []string
	for _, text := range texts {
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

// PruneWorkspaces removes audio workspaces older than maxAge. Normal
// runs clean up after themselves; this catches leftovers from crashed
// or killed processes.
func PruneWorkspaces(tmpDir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read tmp dir: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), workspacePrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(tmpDir, entry.Name())); err != nil {
			log.Printf("Failed to prune workspace %s: %v", entry.Name(), err)
			continue
		}
		removed++
	}
	return removed, nil
}
