package youtube

import (
	"context"
	"fmt"
)

// InfoErrorKind classifies primary-extractor failures. Download and
// extractor failures are expected upstream noise and degrade to the
// oEmbed fallback; unclassified failures propagate to the caller.
type InfoErrorKind int

const (
	InfoErrorUnclassified InfoErrorKind = iota
	InfoErrorDownload
	InfoErrorExtractor
)

func (k InfoErrorKind) String() string {
	switch k {
	case InfoErrorDownload:
		return "download"
	case InfoErrorExtractor:
		return "extractor"
	default:
		return "unclassified"
	}
}

// InfoError is a classified failure from the info extractor.
type InfoError struct {
	Kind InfoErrorKind
	Msg  string
}

func (e *InfoError) Error() string {
	return fmt.Sprintf("info extraction failed (%s): %s", e.Kind, e.Msg)
}

// CaptionTrack is one downloadable caption rendition for a language.
type CaptionTrack struct {
	URL string `json:"url"`
	Ext string `json:"ext"`
}

// VideoInfo mirrors the subset of the extractor's info dictionary the
// fetcher reads. Map keys are language codes.
type VideoInfo struct {
	Title             string                    `json:"title"`
	Uploader          string                    `json:"uploader"`
	UploaderID        string                    `json:"uploader_id"`
	Artist            string                    `json:"artist"`
	ChannelID         string                    `json:"channel_id"`
	Subtitles         map[string][]CaptionTrack `json:"subtitles"`
	AutomaticCaptions map[string][]CaptionTrack `json:"automatic_captions"`
}

// InfoExtractor retrieves video metadata without downloading any media.
type InfoExtractor interface {
	ExtractInfo(ctx context.Context, url string) (*VideoInfo, error)
}
