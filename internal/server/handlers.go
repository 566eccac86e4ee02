package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/volumebot/console/internal/account"
	"github.com/volumebot/console/internal/clients/volumebot"
	"github.com/volumebot/console/internal/dashboard"
	"github.com/volumebot/console/internal/export"
	"github.com/volumebot/console/internal/session"
	"github.com/volumebot/console/internal/views"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"service": "volumebot-console",
		"api_url": s.container.APIClient.BaseURL(),
	}

	s.writeJSON(w, http.StatusOK, response)
}

type sessionResponse struct {
	State string `json:"state"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

func (s *Server) sessionResponse() sessionResponse {
	resp := sessionResponse{State: string(s.container.Gate.State())}
	if cred, ok := s.container.Gate.Credential(); ok {
		resp.Email = cred.Email
		resp.Role = cred.Role
	}
	return resp
}

// handleSession handles GET /api/session
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.sessionResponse())
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin handles POST /api/session/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, err := s.container.Gate.Login(r.Context(), req.Email, req.Password); err != nil {
		if errors.Is(err, session.ErrMissingCredentials) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeAPIError(w, err, "Login failed, please try again.")
		return
	}

	s.writeJSON(w, http.StatusOK, s.sessionResponse())
}

// handleLogout handles POST /api/session/logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.container.Gate.Logout()
	s.writeJSON(w, http.StatusOK, map[string]string{
		"state":    string(s.container.Gate.State()),
		"redirect": session.LoginPath,
	})
}

type signupRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	AdminPasscode   string `json:"admin_passcode"`
}

// handleSignup handles POST /api/signup
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body signupRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if body.ConfirmPassword != "" {
		if err := account.ValidatePasswordChange(body.Password, body.ConfirmPassword); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	req := volumebot.SignupRequest{
		Email:         body.Email,
		Password:      body.Password,
		AdminPasscode: body.AdminPasscode,
	}
	if err := account.ValidateSignup(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.container.APIClient.Signup(r.Context(), req); err != nil {
		s.writeAPIError(w, err, "Signup failed, please try again.")
		return
	}

	s.log.Info().Str("email", req.Email).Msg("Account created")
	s.writeJSON(w, http.StatusCreated, map[string]string{
		"message":  "Account created, please log in.",
		"redirect": session.LoginPath,
	})
}

// handleView handles GET /api/views/{resource}.
// Query parameters page, search, type, start and end update the page query;
// refresh=true fetches before answering.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	page, ok := s.container.Console.Page(chi.URLParam(r, "resource"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "Unknown resource")
		return
	}

	q, err := s.parseQuery(r, page.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page.SetQuery(q)

	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	if refresh || !page.View().HasData {
		if err := page.RefreshNow(r.Context()); err != nil && volumebot.IsUnauthorized(err) {
			s.writeAPIError(w, err, "")
			return
		}
	}

	s.writeJSON(w, http.StatusOK, page.View())
}

func (s *Server) parseQuery(r *http.Request, q dashboard.Query) (dashboard.Query, error) {
	params := r.URL.Query()

	if raw := params.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return q, errors.New("page must be a positive integer")
		}
		q.Page = n
	}
	if params.Has("search") {
		q.Search = params.Get("search")
	}
	if params.Has("type") {
		tradeType := strings.ToLower(params.Get("type"))
		switch tradeType {
		case "", "buy", "sell":
		default:
			return q, errors.New("type must be buy, sell or empty")
		}
		q.TradeType = tradeType
	}

	start, end := params.Get("start"), params.Get("end")
	if start != "" || end != "" {
		if start == "" && !q.Range.IsZero() {
			start = q.Range.Start.Format(views.DateLayout)
		}
		if end == "" && !q.Range.IsZero() {
			end = q.Range.End.Format(views.DateLayout)
		}
		rng, err := views.ParseDateRange(start, end, s.clock.Now())
		if err != nil {
			return q, err
		}
		if !rng.Start.Equal(q.Range.Start) || !rng.End.Equal(q.Range.End) {
			q.Page = 1
		}
		q.Range = rng
	}
	return q, nil
}

// handleExport handles GET /api/export/{dataset}.{csv|xlsx}
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	dot := strings.LastIndex(file, ".")
	if dot <= 0 {
		s.writeError(w, http.StatusNotFound, "Unknown export")
		return
	}
	format, err := export.ParseFormat(file[dot+1:])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	table, ok := s.container.Console.Table(file[:dot])
	if !ok {
		s.writeError(w, http.StatusNotFound, "Unknown dataset")
		return
	}
	if table.Len() == 0 {
		s.writeError(w, http.StatusConflict, export.ErrNothingToExport.Error())
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(table, format)+`"`)
	if err := export.Write(w, table, format); err != nil {
		s.log.Error().Err(err).Str("dataset", table.Name).Msg("Failed to write export")
		s.container.EventManager.EmitError("export", err, map[string]interface{}{
			"dataset": table.Name,
			"format":  string(format),
		})
	}
}

// handleRefresh handles POST /api/refresh
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.container.Console.RefreshAll(r.Context()); err != nil {
		s.writeAPIError(w, err, "Refresh failed.")
		return
	}

	pages := s.container.Console.Pages()
	out := make([]dashboard.View, 0, len(pages))
	for _, p := range pages {
		out = append(out, p.View())
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"pages": out})
}

// handleGetTradingConfig handles GET /api/trading-config
func (s *Server) handleGetTradingConfig(w http.ResponseWriter, r *http.Request) {
	page := s.container.Console.TradingConfig
	if !page.State().HasData {
		if err := page.RefreshNow(r.Context()); err != nil {
			s.writeAPIError(w, err, "Error fetching trading configuration.")
			return
		}
	}

	state := page.State()
	if !state.HasData {
		s.writeError(w, http.StatusServiceUnavailable, "Trading configuration not loaded")
		return
	}
	s.writeJSON(w, http.StatusOK, state.Data)
}

// handlePutTradingConfig handles PUT /api/trading-config
func (s *Server) handlePutTradingConfig(w http.ResponseWriter, r *http.Request) {
	var cfg volumebot.TradingConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := cfg.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := s.container.Console.SaveTradingConfig(r.Context(), cfg)
	if err != nil {
		s.writeAPIError(w, err, "Error saving trading configuration.")
		return
	}
	s.writeJSON(w, http.StatusOK, saved)
}

// writeAPIError maps remote API failures onto gateway responses.
func (s *Server) writeAPIError(w http.ResponseWriter, err error, fallback string) {
	var apiErr *volumebot.APIError
	switch {
	case volumebot.IsUnauthorized(err), errors.Is(err, volumebot.ErrNoToken):
		s.writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":    volumebot.Message(err, volumebot.SessionExpired),
			"redirect": session.LoginPath,
		})
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
		s.writeError(w, apiErr.Status, volumebot.Message(err, fallback))
	default:
		s.log.Warn().Err(err).Msg("Remote API request failed")
		s.writeError(w, http.StatusBadGateway, volumebot.Message(err, fallback))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
