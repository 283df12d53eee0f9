package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/elstracker/elstracker/internal/actions"
	"github.com/elstracker/elstracker/internal/database"
)

const maxRequestBodyBytes = 1 << 20

type errorResponse struct {
	Message string `json:"message"`
}

// Routes builds the JSON API. Reads answer with the entity or an error
// message; writes go through the actions and always answer with their
// envelope.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Get("/servers", s.handleGetServers)
		api.Get("/servers/{name}", s.handleGetServerByName)

		api.Get("/accounts", s.handleGetAccounts)
		api.Post("/accounts", s.handleCreateAccount)
		api.Get("/accounts/{id}", s.handleGetAccount)
		api.Delete("/accounts/{id}", s.handleDeleteAccount)
		api.Get("/accounts/{id}/characters", s.handleGetAccountCharacters)

		api.Post("/characters", s.handleCreateCharacter)
		api.Get("/characters/{id}", s.handleGetCharacter)
		api.Delete("/characters/{id}", s.handleDeleteCharacter)

		api.Get("/classes", s.handleGetClasses)
		api.Get("/pvp-ranks", s.handleGetPvPRanks)
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.Logger().LogAttrs(r.Context(), slog.LevelDebug, "request handled",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("requestID", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.DB().BunDB().PingContext(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetServers(w http.ResponseWriter, r *http.Request) {
	servers, err := s.DB().GetAllServers(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, servers)
}

func (s *Server) handleGetServerByName(w http.ResponseWriter, r *http.Request) {
	server, err := s.DB().GetServerByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, server)
}

func (s *Server) handleGetAccounts(w http.ResponseWriter, r *http.Request) {
	var accounts []database.Account
	var err error

	if raw := r.URL.Query().Get("serverId"); raw != "" {
		serverID, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Message: "serverId must be an integer"})
			return
		}

		accounts, err = s.DB().GetAccountsByServerID(r.Context(), serverID)
	} else {
		accounts, err = s.DB().GetAllAccounts(r.Context())
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.idParam(w, r)
	if !ok {
		return
	}

	account, err := s.DB().GetAccountByID(r.Context(), accountID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleGetAccountCharacters(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.idParam(w, r)
	if !ok {
		return
	}

	characters, err := s.DB().GetCharactersByAccountID(r.Context(), accountID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, characters)
}

func (s *Server) handleGetCharacter(w http.ResponseWriter, r *http.Request) {
	characterID, ok := s.idParam(w, r)
	if !ok {
		return
	}

	character, err := s.DB().GetCharacterByID(r.Context(), characterID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, character)
}

func (s *Server) handleGetClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := s.DB().GetAllClasses(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, classes)
}

func (s *Server) handleGetPvPRanks(w http.ResponseWriter, r *http.Request) {
	ranks, err := s.DB().GetAllPvPRanks(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, ranks)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var input actions.CreateAccountInput
	if !s.decodeBody(w, r, &input) {
		return
	}

	result := s.Actions().CreateAccount(r.Context(), input)
	writeResult(s, w, result, http.StatusCreated)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.idParam(w, r)
	if !ok {
		return
	}

	result := s.Actions().DeleteAccount(r.Context(), accountID)
	writeResult(s, w, result, http.StatusOK)
}

func (s *Server) handleCreateCharacter(w http.ResponseWriter, r *http.Request) {
	var input actions.CreateCharacterInput
	if !s.decodeBody(w, r, &input) {
		return
	}

	result := s.Actions().CreateCharacter(r.Context(), input)
	writeResult(s, w, result, http.StatusCreated)
}

func (s *Server) handleDeleteCharacter(w http.ResponseWriter, r *http.Request) {
	characterID, ok := s.idParam(w, r)
	if !ok {
		return
	}

	result := s.Actions().DeleteCharacter(r.Context(), characterID)
	writeResult(s, w, result, http.StatusOK)
}

func (s *Server) idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Message: "id must be a positive integer"})
		return 0, false
	}

	return id, true
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		s.Logger().Debug("rejected request body", "path", r.URL.Path, "error", err)
		s.writeJSON(w, http.StatusBadRequest, actions.Result[struct{}]{
			Success: false,
			Error:   &actions.ActionError{Message: "invalid request body"},
		})
		return false
	}

	return true
}

func writeResult[T any](s *Server, w http.ResponseWriter, result actions.Result[T], successStatus int) {
	status := successStatus
	if !result.Success {
		status = statusFor(result.Err())
	}

	s.writeJSON(w, status, result)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.Logger().Error("request failed", "path", r.URL.Path, "error", err)
	}

	s.writeJSON(w, status, errorResponse{Message: actions.Message(err)})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.Logger().Error("failed to write response", "error", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, database.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
