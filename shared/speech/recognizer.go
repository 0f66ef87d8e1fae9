// Package speech defines the speech-recognition backend contract used
// by the audio transcription fallback.
package speech

import (
	"context"
	"errors"
)

// ErrNoSpeech means the backend could not produce a confident
// transcription for the segment. This is expected for silence or music
// and is not treated as a failure by callers.
var ErrNoSpeech = errors.New("no speech recognized in segment")

// ErrServiceUnavailable means the backend itself was unreachable or
// erroring. Callers skip the segment and continue.
var ErrServiceUnavailable = errors.New("speech recognition service unavailable")

// Recognizer transcribes a single audio segment stored on disk.
type Recognizer interface {
	Recognize(ctx context.Context, audioPath string) (string, error)
}
