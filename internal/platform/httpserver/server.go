package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	scriptvoting "showrunner/contexts/editorial/script-voting"
	scriptvotingerrors "showrunner/contexts/editorial/script-voting/domain/errors"
	scriptvotinghttp "showrunner/contexts/editorial/script-voting/transport/http"
	seriesproduction "showrunner/contexts/production/series-production"
	productionerrors "showrunner/contexts/production/series-production/domain/errors"
	productionhttp "showrunner/contexts/production/series-production/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "showrunner/internal/platform/httpserver/docs"
)

type Server struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	addr         string
	scriptVoting scriptvoting.Module
	production   seriesproduction.Module
}

func New(
	scriptVotingModule scriptvoting.Module,
	productionModule seriesproduction.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:          http.NewServeMux(),
		logger:       logger,
		addr:         addr,
		scriptVoting: scriptVotingModule,
		production:   productionModule,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/editorial/v1/scripts", s.handleSubmitScript)
	s.mux.HandleFunc("POST /api/editorial/v1/scripts/{script_id}/votes", s.handleCastScriptVote)
	s.mux.HandleFunc("GET /api/editorial/v1/periods/{period_id}/standings", s.handlePeriodStandings)

	s.mux.HandleFunc("POST /api/production/v1/series", s.handleEnqueueSeries)
	s.mux.HandleFunc("GET /api/production/v1/series/{series_id}", s.handleSeriesDetail)
	s.mux.HandleFunc("POST /api/production/v1/variants/{variant_id}/votes", s.handleCastClipVote)
	s.mux.HandleFunc("GET /api/production/v1/episodes/{episode_id}/clips", s.handleClipStandings)
}

func (s *Server) handleSubmitScript(w http.ResponseWriter, r *http.Request) {
	var req scriptvotinghttp.SubmitScriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeScriptVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.scriptVoting.Handler.SubmitScriptHandler(r.Context(), req)
	if err != nil {
		writeScriptVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCastScriptVote(w http.ResponseWriter, r *http.Request) {
	voterID := resolveVoterID(r)
	if voterID == "" {
		writeScriptVotingError(w, http.StatusUnauthorized, "missing_voter", "X-User-Id header is required")
		return
	}

	var req scriptvotinghttp.CastScriptVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeScriptVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.scriptVoting.Handler.CastVoteHandler(
		r.Context(),
		r.PathValue("script_id"),
		voterID,
		req,
	)
	if err != nil {
		writeScriptVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePeriodStandings(w http.ResponseWriter, r *http.Request) {
	resp, err := s.scriptVoting.Handler.PeriodStandingsHandler(r.Context(), r.PathValue("period_id"))
	if err != nil {
		writeScriptVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEnqueueSeries(w http.ResponseWriter, r *http.Request) {
	var req productionhttp.EnqueueSeriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProductionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.production.Handler.EnqueueSeriesHandler(r.Context(), req)
	if err != nil {
		writeProductionDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleSeriesDetail(w http.ResponseWriter, r *http.Request) {
	resp, err := s.production.Handler.SeriesDetailHandler(r.Context(), r.PathValue("series_id"))
	if err != nil {
		writeProductionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastClipVote(w http.ResponseWriter, r *http.Request) {
	voterID := resolveVoterID(r)
	if voterID == "" {
		writeProductionError(w, http.StatusUnauthorized, "missing_voter", "X-User-Id header is required")
		return
	}

	var req productionhttp.CastClipVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProductionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.production.Handler.CastClipVoteHandler(
		r.Context(),
		r.PathValue("variant_id"),
		voterID,
		req,
	)
	if err != nil {
		writeProductionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClipStandings(w http.ResponseWriter, r *http.Request) {
	resp, err := s.production.Handler.ClipStandingsHandler(r.Context(), r.PathValue("episode_id"))
	if err != nil {
		writeProductionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeScriptVotingDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scriptvotingerrors.ErrInvalidScriptInput),
		errors.Is(err, scriptvotingerrors.ErrInvalidVoteInput):
		writeScriptVotingError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, scriptvotingerrors.ErrScriptNotFound):
		writeScriptVotingError(w, http.StatusNotFound, "script_not_found", err.Error())
	case errors.Is(err, scriptvotingerrors.ErrPeriodNotFound):
		writeScriptVotingError(w, http.StatusNotFound, "period_not_found", err.Error())
	case errors.Is(err, scriptvotingerrors.ErrSelfVoteForbidden):
		writeScriptVotingError(w, http.StatusForbidden, "self_vote_forbidden", err.Error())
	case errors.Is(err, scriptvotingerrors.ErrScriptNotVoting):
		writeScriptVotingError(w, http.StatusConflict, "script_not_voting", err.Error())
	case errors.Is(err, scriptvotingerrors.ErrPeriodProcessed),
		errors.Is(err, scriptvotingerrors.ErrConflict):
		writeScriptVotingError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeScriptVotingError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeProductionDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, productionerrors.ErrInvalidEnqueueInput),
		errors.Is(err, productionerrors.ErrInvalidClipVoteInput):
		writeProductionError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, productionerrors.ErrSeriesNotFound):
		writeProductionError(w, http.StatusNotFound, "series_not_found", err.Error())
	case errors.Is(err, productionerrors.ErrEpisodeNotFound):
		writeProductionError(w, http.StatusNotFound, "episode_not_found", err.Error())
	case errors.Is(err, productionerrors.ErrVariantNotFound):
		writeProductionError(w, http.StatusNotFound, "variant_not_found", err.Error())
	case errors.Is(err, productionerrors.ErrJobNotFound):
		writeProductionError(w, http.StatusNotFound, "job_not_found", err.Error())
	case errors.Is(err, productionerrors.ErrEpisodeNotVoting):
		writeProductionError(w, http.StatusConflict, "episode_not_voting", err.Error())
	case errors.Is(err, productionerrors.ErrConflict):
		writeProductionError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeProductionError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeScriptVotingError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, scriptvotinghttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeProductionError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, productionhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func resolveVoterID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-Id"))
}
