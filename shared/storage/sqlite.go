package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"yt-notes/internal/models"
)

// SQLiteStore is the NoteStore implementation backed by an embedded
// SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at databaseURL. Supported
// forms: "sqlite:./notes.db", "sqlite3:./notes.db", a bare path.
func OpenSQLite(databaseURL string) (*SQLiteStore, error) {
	dsn := normalizeDSN(databaseURL)

	if dir := filepath.Dir(strings.TrimPrefix(dsn, "file:")); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// Single writer connection works best with WAL.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to configure sqlite pragma (%s): %w", pragma, err)
		}
	}

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func normalizeDSN(databaseURL string) string {
	dsn := strings.TrimSpace(databaseURL)
	if dsn == "" {
		dsn = "./notes.db"
	}
	for _, prefix := range []string{"sqlite3:", "sqlite:"} {
		if strings.HasPrefix(dsn, prefix) {
			dsn = strings.TrimPrefix(dsn, prefix)
			break
		}
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + filepath.Clean(dsn)
	}
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)"
	}
	return dsn
}

func ensureSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			youtube_url TEXT NOT NULL,
			video_title TEXT NOT NULL,
			channel_name TEXT NOT NULL,
			summary TEXT NOT NULL,
			key_points TEXT NOT NULL,
			timestamps TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE(user_id, youtube_url)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_notes_user_created ON notes(user_id, created_at);`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Create inserts a new note, assigning ID and timestamps.
func (s *SQLiteStore) Create(ctx context.Context, note *Note) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	note.CreatedAt = now
	note.UpdatedAt = now

	keyPoints, timestamps, err := marshalFields(note)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO notes
		(id, user_id, youtube_url, video_title, channel_name, summary, key_points, timestamps, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		note.ID, note.UserID, note.YouTubeURL, note.VideoTitle, note.ChannelName,
		note.Summary, keyPoints, timestamps, note.CreatedAt, note.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateNote
		}
		return fmt.Errorf("failed to insert note: %w", err)
	}
	return nil
}

// Get returns the note with the given ID, enforcing ownership.
func (s *SQLiteStore) Get(ctx context.Context, id, userID string) (*Note, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` FROM notes WHERE id = ?`, id)
	note, err := scanNote(row)
	if err != nil {
		return nil, err
	}
	if note.UserID != userID {
		return nil, ErrNotOwned
	}
	return note, nil
}

// List returns one page of the user's notes, newest first, optionally
// filtered by a case-insensitive search over title, channel and summary.
func (s *SQLiteStore) List(ctx context.Context, userID string, page, pageSize int, search string) (*NotePage, error) {
	page, pageSize = clampPagination(page, pageSize)

	where := "WHERE user_id = ?"
	args := []any{userID}
	if search = strings.TrimSpace(search); search != "" {
		where += ` AND (LOWER(video_title) LIKE ? OR LOWER(channel_name) LIKE ? OR LOWER(summary) LIKE ?)`
		term := "%" + strings.ToLower(search) + "%"
		args = append(args, term, term, term)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count notes: %w", err)
	}

	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	args = append(args, pageSize, (page-1)*pageSize)
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` FROM notes `+where+` ORDER BY created_at DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := []*Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notes: %w", err)
	}

	return &NotePage{
		Notes:       notes,
		TotalNotes:  total,
		TotalPages:  totalPages,
		CurrentPage: page,
		PageSize:    pageSize,
	}, nil
}

// Update rewrites the mutable fields of an existing note, enforcing
// ownership.
func (s *SQLiteStore) Update(ctx context.Context, note *Note) error {
	existing, err := s.Get(ctx, note.ID, note.UserID)
	if err != nil {
		return err
	}

	note.CreatedAt = existing.CreatedAt
	note.UpdatedAt = time.Now().UTC()

	keyPoints, timestamps, err := marshalFields(note)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `UPDATE notes SET
		video_title = ?, channel_name = ?, summary = ?, key_points = ?, timestamps = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		note.VideoTitle, note.ChannelName, note.Summary, keyPoints, timestamps,
		note.UpdatedAt, note.ID, note.UserID)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	return nil
}

// Delete removes a note, enforcing ownership.
func (s *SQLiteStore) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, user_id, youtube_url, video_title, channel_name, summary, key_points, timestamps, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*Note, error) {
	var note Note
	var keyPoints, timestamps string
	err := row.Scan(&note.ID, &note.UserID, &note.YouTubeURL, &note.VideoTitle,
		&note.ChannelName, &note.Summary, &keyPoints, &timestamps,
		&note.CreatedAt, &note.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan note: %w", err)
	}

	if err := json.Unmarshal([]byte(keyPoints), &note.KeyPoints); err != nil {
		return nil, fmt.Errorf("failed to decode key points: %w", err)
	}
	if err := json.Unmarshal([]byte(timestamps), &note.Timestamps); err != nil {
		return nil, fmt.Errorf("failed to decode timestamps: %w", err)
	}
	return &note, nil
}

func marshalFields(note *Note) (string, string, error) {
	if note.KeyPoints == nil {
		note.KeyPoints = []string{}
	}
	if note.Timestamps == nil {
		note.Timestamps = []models.NoteTimestamp{}
	}

	keyPoints, err := json.Marshal(note.KeyPoints)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode key points: %w", err)
	}
	timestamps, err := json.Marshal(note.Timestamps)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode timestamps: %w", err)
	}
	return string(keyPoints), string(timestamps), nil
}
