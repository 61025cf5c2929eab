package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aylabs/musicore/pkg/engrave"
	apperrors "github.com/aylabs/musicore/pkg/errors"
	"github.com/aylabs/musicore/pkg/pipeline"
	"github.com/aylabs/musicore/pkg/score"
	"github.com/aylabs/musicore/pkg/store"
)

// maxBodyBytes bounds request body size (16 MiB covers very large scores).
const maxBodyBytes = 16 << 20

// layoutRequest is the body of POST /v1/layout.
type layoutRequest struct {
	Score  json.RawMessage       `json:"score"`
	Config *engrave.LayoutConfig `json:"config,omitempty"`
}

// layoutResponse wraps the layout with cache metadata.
type layoutResponse struct {
	ScoreHash string                `json:"score_hash"`
	Cached    bool                  `json:"cached"`
	Layout    *engrave.GlobalLayout `json:"layout"`
}

// createScoreRequest is the body of POST /v1/scores.
type createScoreRequest struct {
	Title string          `json:"title,omitempty"`
	Score json.RawMessage `json:"score"`
}

func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "read request body")
	}
	return data, nil
}

// handleLayout computes a layout for a score supplied inline.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req layoutRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if len(req.Score) == 0 {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "score is required"))
		return
	}

	sc, err := score.Parse(req.Score)
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidScore, err, "parse score"))
		return
	}

	s.respondWithLayout(w, r, sc, req.Config)
}

// handleScoreLayout computes a layout for a stored score.
func (s *Server) handleScoreLayout(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	sc, err := score.Parse(rec.ScoreJSON)
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidScore, err, "parse stored score"))
		return
	}

	s.respondWithLayout(w, r, sc, nil)
}

// respondWithLayout runs the layout stage through the shared runner.
func (s *Server) respondWithLayout(w http.ResponseWriter, r *http.Request, sc *score.Score, cfg *engrave.LayoutConfig) {
	opts := pipeline.Options{
		Score:   sc,
		Refresh: r.URL.Query().Get("refresh") == "true",
		Logger:  s.logger,
	}
	if cfg != nil {
		opts.Config = *cfg
	}

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, apperrors.Wrap(layoutErrorCode(err), err, "compute layout"))
		return
	}

	writeJSON(w, http.StatusOK, layoutResponse{
		ScoreHash: result.ScoreHash,
		Cached:    result.CacheInfo.LayoutHit,
		Layout:    result.Layout,
	})
}

// layoutErrorCode distinguishes config validation failures from engine
// failures for status mapping.
func layoutErrorCode(err error) apperrors.Code {
	if code := apperrors.GetCode(err); code != "" {
		return code
	}
	return apperrors.ErrCodeInvalidConfig
}

// handleCreateScore validates and stores a score document.
func (s *Server) handleCreateScore(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createScoreRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if len(req.Score) == 0 {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "score is required"))
		return
	}

	// Validate before storing so the store never holds unparseable scores.
	sc, err := score.Parse(req.Score)
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidScore, err, "parse score"))
		return
	}

	title := req.Title
	if title == "" {
		title = sc.Title
	}
	rec := store.NewRecord(title, req.Score)
	if err := s.store.Put(r.Context(), rec); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeStore, err, "store score"))
		return
	}

	writeJSON(w, http.StatusCreated, rec.Summary())
}

func (s *Server) handleListScores(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeStore, err, "list scores"))
		return
	}
	if summaries == nil {
		summaries = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetScore(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteScore(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
