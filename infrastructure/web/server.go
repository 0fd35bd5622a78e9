package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"ludarena/auth"
	"ludarena/contract"
	"ludarena/domain"
	apperrors "ludarena/errors"
	"ludarena/services"
)

const defaultLeaderboardSize = 20

type Server struct {
	log      *slog.Logger
	authSvc  services.IAuthService
	profiles services.IProfileService
	arena    services.IArenaService
	tokens   *auth.TokenManager
	hub      contract.IHub
	upgrader websocket.Upgrader
	stats    func() any

	httpServer *http.Server
}

func NewServer(
	log *slog.Logger,
	addr string,
	authSvc services.IAuthService,
	profiles services.IProfileService,
	arena services.IArenaService,
	tokens *auth.TokenManager,
	hub contract.IHub,
) *Server {
	s := &Server{
		log:      log,
		authSvc:  authSvc,
		profiles: profiles,
		arena:    arena,
		tokens:   tokens,
		hub:      hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The arena serves browser clients from any origin; auth
			// happens through the token, not the Origin header.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("GET /api/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("GET /api/account/{id}", s.handleAccount)
	mux.HandleFunc("GET /api/account/{id}/games", s.handleAccountGames)
	mux.HandleFunc("GET /api/session/{id}", s.handleSession)
	mux.HandleFunc("POST /api/queue/join", s.authenticated(s.handleQueueJoin))
	mux.HandleFunc("POST /api/queue/leave", s.authenticated(s.handleQueueLeave))
	mux.HandleFunc("GET /ws", s.handleWebsocket)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe() error {
	s.log.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the routing table for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// AttachStats adds a live metrics snapshot to the health payload.
func (s *Server) AttachStats(provider func() any) { s.stats = provider }

// authenticated wraps a handler with JWT extraction. The claims travel
// onward as an explicit argument, not through the request context.
func (s *Server) authenticated(next func(http.ResponseWriter, *http.Request, *auth.CustomClaims)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.claimsFrom(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, apperrors.ErrMissingToken)
			return
		}
		next(w, r, claims)
	}
}

func (s *Server) claimsFrom(r *http.Request) (*auth.CustomClaims, error) {
	header := r.Header.Get("Authorization")
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		// Websocket handshakes from browsers cannot set headers.
		tokenString = r.URL.Query().Get("token")
	}
	if tokenString == "" {
		return nil, apperrors.ErrMissingToken
	}
	return s.tokens.Validate(tokenString)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	payload := map[string]any{"status": "ok"}
	if s.stats != nil {
		payload["stats"] = s.stats()
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body"))
		return
	}
	token, err := s.authSvc.Register(req.Username, req.Password)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{Token: string(token)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body"))
		return
	}
	token, err := s.authSvc.Login(req.Username, req.Password)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: string(token)})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	profiles, err := s.profiles.Leaderboard(limit)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	out := make([]profileResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, toProfileResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	profile, err := s.profiles.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (s *Server) handleAccountGames(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	records, err := s.profiles.History(accountID, limit)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	out := make([]recordResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toRecordResponse(record, accountID))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.arena.GetSession(r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	resp := sessionResponse{
		SessionID: view.Session.ID,
		Class:     string(view.Session.Class),
		Status:    string(view.Session.Status),
		WhiteID:   view.Session.White.AccountID,
		BlackID:   view.Session.Black.AccountID,
		Moves:     view.Session.Moves,
		Outcome:   string(view.Session.Outcome),
		Reason:    string(view.Session.Reason),
	}
	if !view.Session.Status.Terminal() {
		resp.Turn = string(view.Session.Turn())
	}
	if view.Record != nil {
		record := toRecordResponse(*view.Record, view.Record.WhiteID)
		resp.Record = &record
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQueueJoin(w http.ResponseWriter, r *http.Request, claims *auth.CustomClaims) {
	var req joinQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body"))
		return
	}
	class := domain.Class(req.Class)
	if !class.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown class %q", req.Class))
		return
	}
	result, err := s.arena.JoinQueue(r.Context(), claims.AccountID, class)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, joinQueueResponse{
		Matched:    result.Matched,
		SessionID:  result.SessionID,
		Role:       string(result.Role),
		OpponentID: result.OpponentID,
	})
}

func (s *Server) handleQueueLeave(w http.ResponseWriter, _ *http.Request, claims *auth.CustomClaims) {
	s.arena.LeaveQueue(claims.AccountID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	claims, err := s.claimsFrom(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, apperrors.ErrMissingToken)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("Websocket upgrade failed", "error", err)
		return
	}

	// The request context dies when this handler returns; the client
	// outlives it, so it runs on its own context.
	client := NewClient(s.log, conn, s.arena, s.hub, claims.AccountID, uuid.New().String())
	go client.Run(context.Background())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrAccountNotFound),
		errors.Is(err, apperrors.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrUserAlreadyExists),
		errors.Is(err, apperrors.ErrAlreadyQueued):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrInvalidCredentials),
		errors.Is(err, apperrors.ErrMissingToken):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrInvalidPassword),
		errors.Is(err, apperrors.ErrNotYourTurn),
		errors.Is(err, apperrors.ErrIllegalMove),
		errors.Is(err, apperrors.ErrTimeExpired),
		errors.Is(err, apperrors.ErrNotAParticipant):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
