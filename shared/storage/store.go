package storage

import (
	"context"
	"errors"
	"time"

	"yt-notes/internal/models"
)

var (
	// ErrDuplicateNote: the user already has a note for this video.
	ErrDuplicateNote = errors.New("note already exists for this video")
	// ErrNoteNotFound: no note with that ID.
	ErrNoteNotFound = errors.New("note not found")
	// ErrNotOwned: the note exists but belongs to another user.
	ErrNotOwned = errors.New("note is owned by another user")
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Note is a stored study note. KeyPoints and Timestamps are persisted
// as JSON text columns.
type Note struct {
	ID          string                 `json:"id"`
	UserID      string                 `json:"user_id"`
	YouTubeURL  string                 `json:"youtube_url"`
	VideoTitle  string                 `json:"video_title"`
	ChannelName string                 `json:"channel_name"`
	Summary     string                 `json:"summary"`
	KeyPoints   []string               `json:"key_points"`
	Timestamps  []models.NoteTimestamp `json:"timestamps"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// NotePage is one page of a user's notes plus pagination metadata.
type NotePage struct {
	Notes       []*Note `json:"notes"`
	TotalNotes  int     `json:"total_notes"`
	TotalPages  int     `json:"total_pages"`
	CurrentPage int     `json:"current_page"`
	PageSize    int     `json:"page_size"`
}

// NoteStore persists validated notes. Uniqueness is enforced on
// (user, video URL).
type NoteStore interface {
	Create(ctx context.Context, note *Note) error
	Get(ctx context.Context, id, userID string) (*Note, error)
	List(ctx context.Context, userID string, page, pageSize int, search string) (*NotePage, error)
	Update(ctx context.Context, note *Note) error
	Delete(ctx context.Context, id, userID string) error
}

// clampPagination normalizes page/size the same way for every store
// implementation: pages start at 1, sizes are capped at maxPageSize.
func clampPagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
