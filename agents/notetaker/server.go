package notetaker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"yt-notes/internal/models"
	"yt-notes/shared/config"
	"yt-notes/shared/email"
	"yt-notes/shared/monitoring"
	"yt-notes/shared/storage"
	"yt-notes/shared/youtube"
)

// Server exposes the pipeline and the note store over HTTP. Callers
// identify themselves with the X-User-ID header; there is no auth
// layer beyond that.
type Server struct {
	config   *config.Config
	pipeline *Pipeline
	store    storage.NoteStore
	monitor  *monitoring.Monitor
	sender   *email.Sender
	httpSrv  *http.Server
}

func NewServer(cfg *config.Config, pipeline *Pipeline, store storage.NoteStore, monitor *monitoring.Monitor) *Server {
	s := &Server{
		config:   cfg,
		pipeline: pipeline,
		store:    store,
		monitor:  monitor,
	}
	if cfg.EmailEnabled() {
		s.sender = email.NewSender(&cfg.Email)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/notes", s.handleCreateNote)
	mux.HandleFunc("GET /api/notes", s.handleListNotes)
	mux.HandleFunc("GET /api/notes/{id}", s.handleGetNote)
	mux.HandleFunc("PATCH /api/notes/{id}", s.handleUpdateNote)
	mux.HandleFunc("DELETE /api/notes/{id}", s.handleDeleteNote)
	monitoring.NewHealthHandlers(monitor).Register(mux)

	s.httpSrv = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the context is cancelled, then shuts the
// server down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP API listening on %s", s.httpSrv.Addr)
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type createNoteRequest struct {
	YouTubeURL string `json:"youtube_url"`
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(w, r)
	if userID == "" {
		return
	}

	var req createNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.YouTubeURL == "" {
		writeError(w, http.StatusBadRequest, "youtube_url is required")
		return
	}
	if !youtube.ValidReference(req.YouTubeURL) {
		writeError(w, http.StatusBadRequest, "youtube_url is not a recognizable YouTube video URL")
		return
	}

	startTime := time.Now()
	result, err := s.pipeline.Run(r.Context(), req.YouTubeURL)
	if err != nil {
		s.monitor.RecordFailure(err, time.Since(startTime))
		writePipelineError(w, err)
		return
	}

	note := &storage.Note{
		UserID:      userID,
		YouTubeURL:  result.Ref.WatchURL(),
		VideoTitle:  result.Note.VideoTitle,
		ChannelName: result.Note.ChannelName,
		Summary:     result.Note.Summary,
		KeyPoints:   result.Note.KeyPoints,
		Timestamps:  result.Note.Timestamps,
	}
	if err := s.store.Create(r.Context(), note); err != nil {
		if errors.Is(err, storage.ErrDuplicateNote) {
			writeError(w, http.StatusConflict, "a note for this video already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to save note")
		return
	}

	s.monitor.RecordSuccess(fmt.Sprintf("note %s for video %s", note.ID, result.Ref.ID), result.Elapsed)

	if s.sender != nil {
		go func(n *models.GeneratedNote, url string) {
			if err := s.sender.SendNote(n, url); err != nil {
				log.Printf("Failed to email note: %v", err)
			}
		}(result.Note, note.YouTubeURL)
	}

	writeJSON(w, http.StatusCreated, note)
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(w, r)
	if userID == "" {
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	result, err := s.store.List(r.Context(), userID, page, pageSize, q.Get("search"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list notes")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(w, r)
	if userID == "" {
		return
	}

	note, err := s.store.Get(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

type updateNoteRequest struct {
	VideoTitle  *string                 `json:"video_title"`
	ChannelName *string                 `json:"channel_name"`
	Summary     *string                 `json:"summary"`
	KeyPoints   *[]string               `json:"key_points"`
	Timestamps  *[]models.NoteTimestamp `json:"timestamps"`
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(w, r)
	if userID == "" {
		return
	}

	var req updateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	note, err := s.store.Get(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	if req.VideoTitle != nil {
		note.VideoTitle = *req.VideoTitle
	}
	if req.ChannelName != nil {
		note.ChannelName = *req.ChannelName
	}
	if req.Summary != nil {
		note.Summary = *req.Summary
	}
	if req.KeyPoints != nil {
		note.KeyPoints = *req.KeyPoints
	}
	if req.Timestamps != nil {
		note.Timestamps = *req.Timestamps
	}

	if err := s.store.Update(r.Context(), note); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(w, r)
	if userID == "" {
		return
	}

	if err := s.store.Delete(r.Context(), r.PathValue("id"), userID); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) userID(w http.ResponseWriter, r *http.Request) string {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "X-User-ID header is required")
	}
	return userID
}

func writePipelineError(w http.ResponseWriter, err error) {
	var perr *PipelineError
	if errors.As(err, &perr) {
		switch perr.Stage {
		case StageExtracting:
			writeError(w, http.StatusBadRequest, perr.Error())
		default:
			writeError(w, http.StatusBadGateway, perr.Error())
		}
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNoteNotFound):
		writeError(w, http.StatusNotFound, "note not found")
	case errors.Is(err, storage.ErrNotOwned):
		writeError(w, http.StatusForbidden, "note belongs to another user")
	default:
		writeError(w, http.StatusInternalServerError, "storage operation failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
