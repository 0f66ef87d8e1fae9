package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const recognizeTimeout = 60 * time.Second

// WhisperRecognizer implements Recognizer on top of the OpenAI audio
// transcription API. A rate limiter keeps per-segment requests under
// the configured ceiling so long videos do not trip provider limits.
type WhisperRecognizer struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
}

func NewWhisperRecognizer(apiKey, model string, requestsPerMinute int) *WhisperRecognizer {
	if model == "" {
		model = openai.Whisper1
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}
	return &WhisperRecognizer{
		client:  openai.NewClient(apiKey),
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1),
	}
}

func (w *WhisperRecognizer) Recognize(ctx context.Context, audioPath string) (string, error) {
	if err := w.limiter.Wait(ctx); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, recognizeTimeout)
	defer cancel()

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: audioPath,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode >= 500 {
			return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
		}
		return "", err
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}
