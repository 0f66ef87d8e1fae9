package youtube

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"yt-notes/internal/models"
)

// DataAPIClient enriches fetched metadata through the YouTube Data API.
// API-key access only; the pipeline never touches user-scoped resources.
type DataAPIClient struct {
	service *youtube.Service
}

func NewDataAPIClient(ctx context.Context, apiKey string) (*DataAPIClient, error) {
	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return &DataAPIClient{service: service}, nil
}

// Enrich fills duration, view count and publish date on md. Enrichment
// is best-effort: any API failure leaves md unchanged.
func (c *DataAPIClient) Enrich(ctx context.Context, ref models.VideoRef, md *models.VideoMetadata) {
	call := c.service.Videos.
		List([]string{"contentDetails", "statistics", "snippet"}).
		Id(ref.ID).
		Context(ctx)

	resp, err := call.Do()
	if err != nil {
		log.Printf("Data API enrichment failed for %s: %v", ref.ID, err)
		return
	}
	if len(resp.Items) == 0 {
		return
	}

	item := resp.Items[0]
	if item.ContentDetails != nil {
		md.DurationSeconds = parseDurationSeconds(item.ContentDetails.Duration)
	}
	if item.Statistics != nil {
		md.ViewCount = int64(item.Statistics.ViewCount)
	}
	if item.Snippet != nil {
		if publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			md.PublishedAt = publishedAt
		}
	}
}

var iso8601Duration = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// parseDurationSeconds parses an ISO 8601 duration ("PT2H15M30S") into
// whole seconds. Unparseable input yields 0.
func parseDurationSeconds(duration string) int {
	if duration == "" {
		return 0
	}

	matches := iso8601Duration.FindStringSubmatch(duration)
	if len(matches) == 0 {
		return 0
	}

	var totalSeconds int
	if matches[1] != "" {
		if hours, err := strconv.Atoi(matches[1]); err == nil {
			totalSeconds += hours * 3600
		}
	}
	if matches[2] != "" {
		if minutes, err := strconv.Atoi(matches[2]); err == nil {
			totalSeconds += minutes * 60
		}
	}
	if matches[3] != "" {
		if seconds, err := strconv.Atoi(matches[3]); err == nil {
			totalSeconds += seconds
		}
	}
	return totalSeconds
}
