package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const downloadTimeout = 10 * time.Minute

// formatPreferences is the ordered list of yt-dlp format selectors the
// downloader tries. Best-compatible audio first, then a lower-quality
// fallback, then generic best audio. The first selector that produces a
// file wins.
var formatPreferences = []string{
	"bestaudio[ext=m4a]",
	"worstaudio",
	"bestaudio",
}

// downloadAudio fetches the audio track for url into dir using the
// format preference chain. Retries, retry sleep and a transfer-rate
// ceiling are applied per attempt to reduce provider-side throttling.
// Returns the downloaded file path or the last underlying error wrapped
// in an ExtractionError.
func (t *Transcriber) downloadAudio(ctx context.Context, url, dir string) (string, error) {
	outputTemplate := filepath.Join(dir, "source.%(ext)s")

	var lastErr error
	for _, format := range formatPreferences {
		attemptCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
		err := t.runYtDlp(attemptCtx, format, outputTemplate, url)
		cancel()

		if err == nil {
			if path := findDownloaded(dir); path != "" {
				return path, nil
			}
			lastErr = fmt.Errorf("format %q reported success but produced no file", format)
			continue
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
	}

	return "", &ExtractionError{Msg: "all audio download attempts failed", Err: lastErr}
}

func (t *Transcriber) runYtDlp(ctx context.Context, format, outputTemplate, url string) error {
	args := []string{
		"-f", format,
		"-o", outputTemplate,
		"--no-playlist",
		"--no-warnings",
		"--no-check-certificates",
		"--retries", "3",
		"--retry-sleep", "2",
		"--limit-rate", "1M",
		url,
	}

	cmd := exec.CommandContext(ctx, t.ytDlpPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("yt-dlp format %q failed: %s", format, msg)
	}
	return nil
}

// findDownloaded returns the completed download in dir. A failed
// earlier format attempt can leave partial artifacts (.part, .ytdl)
// behind; those must never be handed to the normalization step.
func findDownloaded(dir string) string {
	matches, err := filepath.Glob(filepath.Join(dir, "source.*"))
	if err != nil {
		return ""
	}
	for _, match := range matches {
		switch filepath.Ext(match) {
		case ".part", ".ytdl":
			continue
		}
		return match
	}
	return ""
}
