package youtube

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

const captionTimeout = 10 * time.Second

// selectCaptionURL picks the caption track to download. Manually
// authored tracks win over automatically generated ones; within a
// category, languages are tried in sorted order so the choice is
// deterministic. Returns "" when no track is available.
func selectCaptionURL(info *VideoInfo) string {
	if url := firstTrackURL(info.Subtitles); url != "" {
		return url
	}
	return firstTrackURL(info.AutomaticCaptions)
}

func firstTrackURL(tracks map[string][]CaptionTrack) string {
	langs := make([]string, 0, len(tracks))
	for lang := range tracks {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	for _, lang := range langs {
		for _, track := range tracks[lang] {
			if track.URL != "" {
				return track.URL
			}
		}
	}
	return ""
}

// fetchCaptionText downloads a caption track and flattens it to plain
// text. Transport failures are expected noise and yield "", never an
// error; a payload that is not json3 is returned verbatim.
func fetchCaptionText(ctx context.Context, client *http.Client, url string) string {
	ctx, cancel := context.WithTimeout(ctx, captionTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", browserUA)
	req.Header.Set("Referer", "https://www.youtube.com/")

	resp, err := client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}
	return flattenCaptionPayload(body)
}

// captionPayload is the json3 caption format: a list of timed events,
// each carrying text segments.
type captionPayload struct {
	Events []struct {
		Segs []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// flattenCaptionPayload concatenates all segment texts in order,
// separated by single spaces, with whitespace runs collapsed. If the
// payload does not parse as json3, the raw text is used verbatim.
func flattenCaptionPayload(body []byte) string {
	var payload captionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return string(body)
	}

	var segments []string
	for _, event := range payload.Events {
		for _, seg := range event.Segs {
			if text := strings.TrimSpace(seg.UTF8); text != "" {
				segments = append(segments, text)
			}
		}
	}
	return collapseWhitespace(strings.Join(segments, " "))
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
