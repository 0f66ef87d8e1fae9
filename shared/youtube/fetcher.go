package youtube

import (
	"context"
	"errors"
	"log"
	"net/http"

	"yt-notes/internal/models"
)

// Fetcher retrieves video metadata and best-available transcript text.
// Expected provider failures never surface as errors: the result is a
// degraded but usable VideoMetadata instead. Only unclassified
// extractor failures propagate.
type Fetcher struct {
	extractor InfoExtractor
	oembed    *OEmbedClient
	client    *http.Client
}

func NewFetcher(extractor InfoExtractor) *Fetcher {
	return &Fetcher{
		extractor: extractor,
		oembed:    NewOEmbedClient(),
		client:    &http.Client{Timeout: captionTimeout},
	}
}

// Fetch runs the primary extraction call and, if a caption track is
// available, downloads and flattens it into transcript text. Classified
// extractor failures (download-class, extractor-class) degrade to the
// oEmbed fallback with empty transcript text.
func (f *Fetcher) Fetch(ctx context.Context, ref models.VideoRef) (*models.VideoMetadata, error) {
	info, err := f.extractor.ExtractInfo(ctx, ref.WatchURL())
	if err != nil {
		var infoErr *InfoError
		if errors.As(err, &infoErr) && infoErr.Kind != InfoErrorUnclassified {
			log.Printf("Primary extraction failed for %s (%s), using oEmbed fallback: %s", ref.ID, infoErr.Kind, infoErr.Msg)
			md := f.oembed.Lookup(ctx, ref)
			md.FetchError = infoErr.Msg
			return md, nil
		}
		return nil, err
	}

	md := &models.VideoMetadata{
		Title:     info.Title,
		Channel:   uploaderName(info),
		ChannelID: channelID(info),
	}
	if md.Title == "" {
		md.Title = models.UnknownTitle
	}

	if url := selectCaptionURL(info); url != "" {
		md.Transcript = fetchCaptionText(ctx, f.client, url)
		if md.Transcript == "" {
			log.Printf("Caption download failed for %s, continuing without transcript", ref.ID)
		}
	}

	return md, nil
}

// uploaderName resolves the channel display name with the precedence
// uploader, uploader id, artist, sentinel.
func uploaderName(info *VideoInfo) string {
	switch {
	case info.Uploader != "":
		return info.Uploader
	case info.UploaderID != "":
		return info.UploaderID
	case info.Artist != "":
		return info.Artist
	}
	return models.UnknownChannel
}

func channelID(info *VideoInfo) string {
	if info.ChannelID != "" {
		return info.ChannelID
	}
	return info.UploaderID
}
