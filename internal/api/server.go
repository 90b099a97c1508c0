// Package api exposes the auction engine and roster manager over a JSON
// HTTP surface. Authentication is left to the deployment front door.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vpleague/auctioneer/internal/auction"
	"github.com/vpleague/auctioneer/internal/roster"
)

// Server wires HTTP routes to the engine and roster manager.
type Server struct {
	engine *auction.Engine
	roster *roster.Manager
	logger *slog.Logger
}

// NewServer returns a new API server.
func NewServer(engine *auction.Engine, rm *roster.Manager, logger *slog.Logger) *Server {
	return &Server{engine: engine, roster: rm, logger: logger}
}

// Routes returns the API route table.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auction/start", s.handleStart)
	mux.HandleFunc("POST /auction/pause", s.handlePause)
	mux.HandleFunc("POST /auction/resume", s.handleResume)
	mux.HandleFunc("POST /auction/reset", s.handleReset)
	mux.HandleFunc("GET /auction/state", s.handleState)
	mux.HandleFunc("GET /auction/current", s.handleCurrent)
	mux.HandleFunc("GET /auction/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /auction/stats", s.handleStats)

	mux.HandleFunc("POST /auction/sale", s.handleSale)
	mux.HandleFunc("POST /auction/unsold", s.handleUnsold)
	mux.HandleFunc("POST /auction/revert-sale", s.handleRevertSale)
	mux.HandleFunc("POST /auction/revert-unsold", s.handleRevertUnsold)

	mux.HandleFunc("POST /players", s.handleRegisterPlayer)
	mux.HandleFunc("GET /players", s.handleListPlayers)
	mux.HandleFunc("GET /players/{leagueID}", s.handleGetPlayer)
	mux.HandleFunc("POST /players/{id}/approve", s.handleApprovePlayer)
	mux.HandleFunc("GET /players/export", s.handleExportPlayers)

	mux.HandleFunc("POST /teams", s.handleCreateTeam)
	mux.HandleFunc("GET /teams", s.handleListTeams)
	mux.HandleFunc("GET /teams/{id}/roster", s.handleTeamRoster)
	mux.HandleFunc("GET /teams/{id}/roster/export", s.handleExportTeamRoster)

	return mux
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Start(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "live"})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Pause(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Resume(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "live"})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	if err := s.engine.ResetAll(r.Context(), req.Token); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.State(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":            st.Status,
		"current_player_id": st.CurrentPlayerID,
	})
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	p, err := s.engine.CurrentPlayer(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if p == nil {
		s.writeJSON(w, http.StatusOK, map[string]any{"player": nil})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"player": p})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	standings, err := s.engine.Dashboard(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"teams": standings})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSale(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"player_id"`
		TeamID   string `json:"team_id"`
		Bid      int    `json:"bid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	summary, err := s.engine.FinalizeSale(r.Context(), req.PlayerID, req.TeamID, req.Bid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleUnsold(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"player_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	if err := s.engine.MarkUnsold(r.Context(), req.PlayerID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "unsold"})
}

func (s *Server) handleRevertSale(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"player_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	if err := s.engine.RevertSale(r.Context(), req.PlayerID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "reverted"})
}

func (s *Server) handleRevertUnsold(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"player_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	if err := s.engine.RevertUnsold(r.Context(), req.PlayerID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "reverted"})
}

func (s *Server) handleRegisterPlayer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		Phone     string `json:"phone"`
		Role      string `json:"role"`
		BasePrice int    `json:"base_price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	p, err := s.roster.RegisterPlayer(r.Context(), roster.Registration{
		Name:      req.Name,
		Phone:     req.Phone,
		Role:      req.Role,
		BasePrice: req.BasePrice,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.roster.ListPlayers(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"players": players})
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	p, err := s.roster.GetPlayer(r.Context(), r.PathValue("leagueID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleApprovePlayer(w http.ResponseWriter, r *http.Request) {
	if err := s.roster.ApprovePlayer(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

func (s *Server) handleExportPlayers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="players.csv"`)
	if err := s.roster.ExportPlayersCSV(r.Context(), w); err != nil {
		s.logger.ErrorContext(r.Context(), "csv export failed", slog.Any("error", err))
	}
}

func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	t, err := s.roster.CreateTeam(r.Context(), req.Name, req.Color)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.roster.ListTeams(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"teams": teams})
}

func (s *Server) handleTeamRoster(w http.ResponseWriter, r *http.Request) {
	team, players, err := s.roster.TeamRoster(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"team": team, "players": players})
}

// handleExportTeamRoster renders into a buffer first so an unknown team
// still gets a proper error status instead of half-written CSV headers.
func (s *Server) handleExportTeamRoster(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.roster.ExportTeamRosterCSV(r.Context(), r.PathValue("id"), &buf); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="roster.csv"`)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.ErrorContext(r.Context(), "roster export write failed", slog.Any("error", err))
	}
}

// writeError maps domain sentinels to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var code int
	switch {
	case errors.Is(err, auction.ErrNotFound), errors.Is(err, roster.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, auction.ErrConflict):
		code = http.StatusConflict
	case errors.Is(err, auction.ErrBudgetExceeded), errors.Is(err, auction.ErrRosterFull),
		errors.Is(err, auction.ErrInvalidState):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, auction.ErrResetToken):
		code = http.StatusForbidden
	case errors.Is(err, roster.ErrDuplicate):
		code = http.StatusConflict
	case errors.Is(err, roster.ErrInvalidRole), errors.Is(err, roster.ErrInvalidInput):
		code = http.StatusBadRequest
	default:
		code = http.StatusInternalServerError
		s.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
	s.writeJSON(w, code, errorBody(err.Error()))
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", slog.Any("error", err))
	}
}
