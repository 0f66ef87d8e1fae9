package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"yt-notes/internal/models"
)

const (
	oembedEndpoint = "https://www.youtube.com/oembed"
	oembedTimeout  = 6 * time.Second
)

// OEmbedClient queries YouTube's public oEmbed endpoint. It is the
// lightweight secondary fallback when the primary extractor fails: it
// can recover title and channel name, nothing more.
type OEmbedClient struct {
	client   *http.Client
	endpoint string
}

func NewOEmbedClient() *OEmbedClient {
	return &OEmbedClient{
		client:   &http.Client{Timeout: oembedTimeout},
		endpoint: oembedEndpoint,
	}
}

// Lookup returns metadata for the video with sentinel values filled in
// wherever the endpoint could not help. It never returns an error: any
// internal failure (network, non-200, parse) yields the same
// sentinel-valued object.
func (o *OEmbedClient) Lookup(ctx context.Context, ref models.VideoRef) *models.VideoMetadata {
	md := &models.VideoMetadata{
		Title:        models.UnknownTitle,
		Channel:      models.UnknownChannel,
		FromFallback: true,
	}

	url := fmt.Sprintf("%s?url=%s&format=json", o.endpoint, ref.WatchURL())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return md
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return md
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return md
	}

	var payload struct {
		Title      string `json:"title"`
		AuthorName string `json:"author_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return md
	}

	if payload.Title != "" {
		md.Title = payload.Title
	}
	if payload.AuthorName != "" {
		md.Channel = payload.AuthorName
	}
	return md
}
