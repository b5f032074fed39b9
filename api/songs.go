package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/thomasrocks006-cmyk/Suno/internal/session"
	"github.com/thomasrocks006-cmyk/Suno/internal/song"
)

// MaxRequestBody bounds request bodies. Lyrics and briefs are text; 1 MB
// is far beyond anything legitimate.
const MaxRequestBody = 1 << 20

// SongHandler handles the song workflow endpoints.
type SongHandler struct {
	ctrl   *session.Controller
	logger *slog.Logger
}

// NewSongHandler creates a new song handler.
func NewSongHandler(ctrl *session.Controller, logger *slog.Logger) *SongHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SongHandler{ctrl: ctrl, logger: logger}
}

// RegisterRoutes registers song routes on the given mux.
func (h *SongHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/songs", h.list)
	mux.HandleFunc("POST /api/songs", h.submit)
	mux.HandleFunc("DELETE /api/songs", h.clear)
	mux.HandleFunc("GET /api/songs/current", h.current)
	mux.HandleFunc("POST /api/songs/current", h.selectCurrent)
	mux.HandleFunc("GET /api/songs/{id}", h.get)
	mux.HandleFunc("POST /api/songs/{id}/analysis", h.requestAnalysis)
	mux.HandleFunc("POST /api/songs/{id}/variations", h.requestVariations)
	mux.HandleFunc("POST /api/songs/{id}/render", h.requestRender)
	mux.HandleFunc("POST /api/songs/{id}/versions", h.createVersion)
	mux.HandleFunc("POST /api/songs/{id}/rewrite", h.rewrite)
	mux.HandleFunc("POST /api/songs/{id}/improvements", h.applyImprovement)
	mux.HandleFunc("POST /api/infer", h.infer)
}

// decode parses a bounded JSON request body.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return false
	}
	return true
}

// decodeOptional is decode for endpoints whose body may be absent; an
// empty body leaves dst at its zero value.
func decodeOptional(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBody)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return false
	}
	return true
}

// list returns the full history, most recent first, plus the current id.
func (h *SongHandler) list(w http.ResponseWriter, _ *http.Request) {
	songs := h.ctrl.List()
	currentID := ""
	if cur, ok := h.ctrl.Current(); ok {
		currentID = cur.ID
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"songs":     songs,
		"total":     len(songs),
		"currentId": currentID,
	})
}

// submit generates a new song from a creative brief. One generation runs
// at a time; overlapping submissions get 409.
func (h *SongHandler) submit(w http.ResponseWriter, r *http.Request) {
	var in song.Inputs
	if !decode(w, r, &in) {
		return
	}

	s, err := h.ctrl.Submit(r.Context(), in)
	switch {
	case errors.Is(err, session.ErrBusy):
		writeError(w, http.StatusConflict, "busy", "a generation is already in progress")
		return
	case err != nil:
		h.logger.Error("song generation failed", "error", err)
		writeError(w, http.StatusBadGateway, "generation_failed", "the songwriting collaborator did not produce a song")
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// clear deletes the entire history.
func (h *SongHandler) clear(w http.ResponseWriter, _ *http.Request) {
	h.ctrl.ClearHistory()
	w.WriteHeader(http.StatusNoContent)
}

// current returns the current song.
func (h *SongHandler) current(w http.ResponseWriter, _ *http.Request) {
	s, ok := h.ctrl.Current()
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "no current song")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// SelectRequest is the request body for selecting the current song.
type SelectRequest struct {
	ID string `json:"id"`
}

// selectCurrent makes an existing song the current one.
func (h *SongHandler) selectCurrent(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if !decode(w, r, &req) {
		return
	}
	s, err := h.ctrl.Select(req.ID)
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "song not found")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// get returns one song by id.
func (h *SongHandler) get(w http.ResponseWriter, r *http.Request) {
	s, err := h.ctrl.Get(r.PathValue("id"))
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "song not found")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// scheduleResponse reports whether a background enrichment was launched.
type scheduleResponse struct {
	Scheduled bool `json:"scheduled"`
}

// schedule maps an enrichment request onto HTTP: 202 when launched, 200
// when the work already ran or is running, 404 for unknown songs.
func (h *SongHandler) schedule(w http.ResponseWriter, id string, request func(string) (bool, error)) {
	launched, err := request(id)
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "song not found")
		return
	}
	status := http.StatusOK
	if launched {
		status = http.StatusAccepted
	}
	writeJSON(w, status, scheduleResponse{Scheduled: launched})
}

func (h *SongHandler) requestAnalysis(w http.ResponseWriter, r *http.Request) {
	h.schedule(w, r.PathValue("id"), h.ctrl.RequestAnalysis)
}

func (h *SongHandler) requestVariations(w http.ResponseWriter, r *http.Request) {
	h.schedule(w, r.PathValue("id"), h.ctrl.RequestVariations)
}

func (h *SongHandler) requestRender(w http.ResponseWriter, r *http.Request) {
	h.schedule(w, r.PathValue("id"), h.ctrl.RequestRender)
}

// CreateVersionRequest is the request body for deriving a new version,
// typically from a chosen variation. Flags override the generation modes
// recorded on the version; omitted means inherit the base's.
type CreateVersionRequest struct {
	Lyrics    string      `json:"lyrics"`
	Rationale string      `json:"rationale"`
	Flags     *song.Flags `json:"flags,omitempty"`
}

// createVersion derives a new version of a song with the supplied lyrics.
func (h *SongHandler) createVersion(w http.ResponseWriter, r *http.Request) {
	var req CreateVersionRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Lyrics) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "lyrics must not be empty")
		return
	}

	s, err := h.ctrl.CreateVersion(r.PathValue("id"), req.Lyrics, req.Rationale, req.Flags)
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "song not found")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// RewriteRequest is the optional request body for a rewrite; an empty
// body keeps the base song's flags.
type RewriteRequest struct {
	Flags *song.Flags `json:"flags,omitempty"`
}

// rewrite derives a new version by having the collaborator apply the
// song's accepted critique.
func (h *SongHandler) rewrite(w http.ResponseWriter, r *http.Request) {
	var req RewriteRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	s, err := h.ctrl.RewriteVersion(r.Context(), r.PathValue("id"), req.Flags)
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "song not found")
		return
	case errors.Is(err, session.ErrAnalysisRequired):
		writeError(w, http.StatusPreconditionFailed, "analysis_required", "analyze the song before rewriting")
		return
	case errors.Is(err, session.ErrBusy):
		writeError(w, http.StatusConflict, "busy", "a generation is already in progress")
		return
	case err != nil:
		h.logger.Error("rewrite failed", "song_id", r.PathValue("id"), "error", err)
		writeError(w, http.StatusBadGateway, "rewrite_failed", "the songwriting collaborator did not produce a rewrite")
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// ApplyImprovementRequest is the request body for a manual line edit.
type ApplyImprovementRequest struct {
	Index    int    `json:"index"`
	Improved string `json:"improved"`
}

// applyImprovement replaces one suggested line improvement with the
// user's own wording.
func (h *SongHandler) applyImprovement(w http.ResponseWriter, r *http.Request) {
	var req ApplyImprovementRequest
	if !decode(w, r, &req) {
		return
	}

	s, err := h.ctrl.ApplyLineImprovement(r.PathValue("id"), req.Index, req.Improved)
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "song not found")
		return
	case errors.Is(err, session.ErrAnalysisRequired):
		writeError(w, http.StatusPreconditionFailed, "analysis_required", "the song has no analysis yet")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// InferRequest is the request body for attribute inference.
type InferRequest struct {
	ArtistReference string `json:"artistReference"`
	SongReference   string `json:"songReference"`
}

// infer suggests brief values from an artist/song reference.
func (h *SongHandler) infer(w http.ResponseWriter, r *http.Request) {
	var req InferRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ArtistReference) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "artistReference is required")
		return
	}

	inferred, err := h.ctrl.Infer(r.Context(), req.ArtistReference, req.SongReference)
	if err != nil {
		h.logger.Error("attribute inference failed", "error", err)
		writeError(w, http.StatusBadGateway, "inference_failed", "the collaborator did not return suggestions")
		return
	}
	writeJSON(w, http.StatusOK, inferred)
}
