package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	infoTimeout = 30 * time.Second
	browserUA   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// YtDlpExtractor implements InfoExtractor by shelling out to yt-dlp in
// info-only mode (-J never downloads media).
type YtDlpExtractor struct {
	binPath string
}

func NewYtDlpExtractor(binPath string) (*YtDlpExtractor, error) {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	resolved, err := exec.LookPath(binPath)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp executable not found at %q: %w", binPath, err)
	}
	return &YtDlpExtractor{binPath: resolved}, nil
}

func (y *YtDlpExtractor) ExtractInfo(ctx context.Context, url string) (*VideoInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, infoTimeout)
	defer cancel()

	args := []string{
		"-J",
		"--skip-download",
		"--no-playlist",
		"--no-warnings",
		"--no-check-certificates",
		"--user-agent", browserUA,
		"--referer", "https://www.youtube.com/",
		url,
	}

	cmd := exec.CommandContext(ctx, y.binPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, &InfoError{Kind: InfoErrorDownload, Msg: fmt.Sprintf("info extraction timed out: %v", ctx.Err())}
		}
		return nil, classifyInfoFailure(stderr.String(), err)
	}

	var info VideoInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, &InfoError{Kind: InfoErrorExtractor, Msg: fmt.Sprintf("malformed info JSON: %v", err)}
	}
	return &info, nil
}

// classifyInfoFailure maps yt-dlp stderr output onto the download /
// extractor / unclassified taxonomy. HTTP 403 and format-availability
// signatures count as download-class failures.
func classifyInfoFailure(stderr string, runErr error) error {
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		msg = runErr.Error()
	}

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "403"),
		strings.Contains(lower, "forbidden"),
		strings.Contains(lower, "format is not available"),
		strings.Contains(lower, "requested format"),
		strings.Contains(lower, "http error"),
		strings.Contains(lower, "unable to download"):
		return &InfoError{Kind: InfoErrorDownload, Msg: msg}
	case strings.Contains(lower, "unsupported url"),
		strings.Contains(lower, "video unavailable"),
		strings.Contains(lower, "private video"),
		strings.Contains(lower, "age-restricted"),
		strings.Contains(lower, "geo restricted"),
		strings.Contains(lower, "not available in your country"),
		strings.Contains(lower, "extractor"):
		return &InfoError{Kind: InfoErrorExtractor, Msg: msg}
	}
	return &InfoError{Kind: InfoErrorUnclassified, Msg: msg}
}
