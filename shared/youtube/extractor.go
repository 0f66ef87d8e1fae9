package youtube

import (
	"errors"
	"fmt"
	"regexp"

	"yt-notes/internal/models"
)

// ErrInvalidReference signals that a reference string does not contain a
// recognizable YouTube video identifier.
var ErrInvalidReference = errors.New("invalid YouTube reference")

// Ordered from most specific to generic; the first pattern that matches
// wins. The mobile-domain form is matched separately so a bare
// "m.youtube.com" host is still accepted.
var referencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/v/)([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`m\.youtube\.com/watch\?v=([A-Za-z0-9_-]{11})`),
}

// ExtractRef parses a loosely formatted video reference into a VideoRef.
// Supported shapes:
//   - https://www.youtube.com/watch?v=VIDEO_ID
//   - https://youtu.be/VIDEO_ID
//   - https://www.youtube.com/embed/VIDEO_ID
//   - https://m.youtube.com/watch?v=VIDEO_ID
//
// No partial identifier is ever returned: either a pattern matches a
// full 11-character ID or the reference is rejected.
func ExtractRef(reference string) (models.VideoRef, error) {
	for _, pattern := range referencePatterns {
		if match := pattern.FindStringSubmatch(reference); match != nil {
			return models.VideoRef{ID: match[1], Reference: reference}, nil
		}
	}
	return models.VideoRef{}, fmt.Errorf("%w: %s", ErrInvalidReference, reference)
}

// ValidReference reports whether a reference contains an extractable ID.
func ValidReference(reference string) bool {
	_, err := ExtractRef(reference)
	return err == nil
}
