package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"wagonquiz/internal/models"
	"wagonquiz/internal/security"
	"wagonquiz/internal/service"
)

// APIHandler serves the JSON game API
type APIHandler struct {
	verifier *service.Verifier
	plays    *service.PlayService
	results  *service.Results
	tokens   *security.TokenIssuer
	limiter  *security.RateLimiter
	rounds   *RoundRegistry
	log      *zap.Logger

	// TrustProxy takes the client address from X-Forwarded-For when set
	TrustProxy bool
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(verifier *service.Verifier, plays *service.PlayService, results *service.Results,
	tokens *security.TokenIssuer, limiter *security.RateLimiter, rounds *RoundRegistry, log *zap.Logger) *APIHandler {
	return &APIHandler{
		verifier: verifier,
		plays:    plays,
		results:  results,
		tokens:   tokens,
		limiter:  limiter,
		rounds:   rounds,
		log:      log,
	}
}

// Register adds the API routes to mux
func (h *APIHandler) Register(mux *http.ServeMux, m *Middleware) {
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("POST /api/login", h.Login)
	mux.HandleFunc("POST /api/logout", h.Logout)
	mux.HandleFunc("POST /api/round/start", m.RequireSession(h.StartRound))
	mux.HandleFunc("POST /api/round/answer", m.RequireSession(h.Answer))
	mux.HandleFunc("POST /api/round/next", m.RequireSession(h.Next))
	mux.HandleFunc("POST /api/round/restart", m.RequireSession(h.Restart))
	mux.HandleFunc("GET /api/round", m.RequireSession(h.GetRound))
	mux.HandleFunc("GET /api/results", m.RequireSession(h.Results))
}

// numberText accepts a JSON string or a bare JSON number
type numberText string

func (n *numberText) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = numberText(s)
		return nil
	}
	*n = numberText(data)
	return nil
}

type loginRequest struct {
	UID string     `json:"uid"`
	PIN numberText `json:"pin"`
}

type loginResponse struct {
	UID   string `json:"uid"`
	Grade int    `json:"grade"`
}

type answerRequest struct {
	Previous numberText `json:"previous"`
	Next     numberText `json:"next"`
}

type answerResponse struct {
	Correct       bool `json:"correct"`
	Previous      int  `json:"previous"`
	Next          int  `json:"next"`
	Score         int  `json:"score"`
	QuestionCount int  `json:"questionCount"`
	GameOver      bool `json:"gameOver"`
}

type roundResponse struct {
	Phase         string               `json:"phase"`
	CurrentNumber int                  `json:"currentNumber"`
	Score         int                  `json:"score"`
	QuestionCount int                  `json:"questionCount"`
	GameOver      bool                 `json:"gameOver"`
	Config        configResponse       `json:"config"`
	ConfigSource  string               `json:"configSource"`
	Result        *models.ResultRecord `json:"result,omitempty"`
}

type configResponse struct {
	MaxNumberRange int     `json:"maxNumberRange"`
	Duration       float64 `json:"duration"`
	NumQuestions   int     `json:"numQuestions"`
	RequiredScore  int     `json:"requiredScore"`
}

type resultResponse struct {
	Key string `json:"key"`
	models.ResultRecord
}

func newRoundResponse(play *service.Play) roundResponse {
	state := play.State()
	cfg := play.Config()
	return roundResponse{
		Phase:         state.Phase.String(),
		CurrentNumber: state.CurrentNumber,
		Score:         state.Score,
		QuestionCount: state.QuestionCount,
		GameOver:      state.GameOver,
		Config: configResponse{
			MaxNumberRange: cfg.MaxNumberRange,
			Duration:       cfg.Duration,
			NumQuestions:   cfg.NumQuestions,
			RequiredScore:  cfg.RequiredScore,
		},
		ConfigSource: string(play.Source()),
		Result:       play.Result(),
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// Health reports that the server is up
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Login verifies UID and PIN and sets the session cookie
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	ip := security.GetClientIP(r, h.TrustProxy)
	if !h.limiter.Allow(ip) {
		h.log.Warn("login rate limited", zap.String("ip", ip))
		respondWithError(w, h.log, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
		return
	}

	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidRequest, "failed to decode login", err)
		return
	}

	identity, err := h.verifier.Login(r.Context(), req.UID, string(req.PIN))
	if err != nil {
		respondWithServiceError(w, h.log, "login failed", err)
		return
	}

	token, claims, err := h.tokens.Issue(*identity)
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, "failed to issue session", err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, token, claims.ExpiresAt.Time))
	respondJSON(w, http.StatusOK, loginResponse{UID: identity.Identifier, Grade: identity.Grade})
}

// Logout drops the session's round and clears the cookie
func (h *APIHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(security.SessionCookieName); err == nil {
		if claims, err := h.tokens.Parse(cookie.Value); err == nil {
			h.rounds.Delete(claims.ID)
		}
	}

	http.SetCookie(w, security.CreateDeleteCookie(r))
	w.WriteHeader(http.StatusNoContent)
}

// StartRound loads the player's config and starts a new round, replacing
// any round already in progress
func (h *APIHandler) StartRound(w http.ResponseWriter, r *http.Request) {
	claims := GetSessionFromContext(r.Context())

	play, err := h.plays.Begin(r.Context(), claims.Identity())
	if err != nil {
		respondWithServiceError(w, h.log, "failed to start round", err)
		return
	}

	h.rounds.Put(claims.ID, play, claims.ExpiresAt.Time)
	respondJSON(w, http.StatusCreated, newRoundResponse(play))
}

// GetRound returns the current round
func (h *APIHandler) GetRound(w http.ResponseWriter, r *http.Request) {
	h.withPlay(w, r, func(play *service.Play) {
		respondJSON(w, http.StatusOK, newRoundResponse(play))
	})
}

// Answer submits the previous and next numbers for the current question
func (h *APIHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidRequest, "failed to decode answer", err)
		return
	}

	h.withPlay(w, r, func(play *service.Play) {
		fb, err := play.Submit(string(req.Previous), string(req.Next))
		if err != nil {
			respondWithServiceError(w, h.log, "answer rejected", err)
			return
		}
		respondJSON(w, http.StatusOK, answerResponse{
			Correct:       fb.Correct,
			Previous:      fb.Previous,
			Next:          fb.Next,
			Score:         fb.Score,
			QuestionCount: fb.QuestionCount,
			GameOver:      fb.GameOver,
		})
	})
}

// Next moves on after feedback. The last call finishes the round and saves
// its result in the background.
func (h *APIHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.withPlay(w, r, func(play *service.Play) {
		if _, err := play.Next(); err != nil {
			respondWithServiceError(w, h.log, "next rejected", err)
			return
		}
		respondJSON(w, http.StatusOK, newRoundResponse(play))
	})
}

// Restart starts a new round with the same config after one has finished
func (h *APIHandler) Restart(w http.ResponseWriter, r *http.Request) {
	h.withPlay(w, r, func(play *service.Play) {
		if err := play.Restart(); err != nil {
			respondWithServiceError(w, h.log, "restart rejected", err)
			return
		}
		respondJSON(w, http.StatusOK, newRoundResponse(play))
	})
}

// Results lists the player's stored results, newest first
func (h *APIHandler) Results(w http.ResponseWriter, r *http.Request) {
	claims := GetSessionFromContext(r.Context())

	limit := DefaultResultsLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondWithError(w, h.log, http.StatusBadRequest, "limit must be a positive number", "", nil)
			return
		}
		limit = min(n, MaxResultsLimit)
	}

	stored, err := h.results.History(r.Context(), claims.UID, limit)
	if err != nil {
		respondWithServiceError(w, h.log, "failed to list results", err)
		return
	}

	out := make([]resultResponse, 0, len(stored))
	for _, sr := range stored {
		out = append(out, resultResponse{Key: sr.Key, ResultRecord: sr.Result})
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *APIHandler) withPlay(w http.ResponseWriter, r *http.Request, fn func(*service.Play)) {
	claims := GetSessionFromContext(r.Context())
	if !h.rounds.With(claims.ID, fn) {
		respondWithError(w, h.log, http.StatusNotFound, ErrNoRound, "", nil)
	}
}
