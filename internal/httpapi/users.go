package httpapi

import (
	"net/http"

	"jobmate/board-service/internal/apperr"
	"jobmate/board-service/internal/identity"
)

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in identity.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, s.logger, err)
		return
	}
	u, err := s.identity.Register(r.Context(), in)
	if err != nil {
		jsonError(w, s.logger, err)
		return
	}
	jsonOK(w, http.StatusCreated, "Registration successful. Please check your email to verify your account.", u)
}

func (s *Server) verifyEmail(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.identity.VerifyEmail(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		jsonError(w, s.logger, err)
		return
	}
	if outcome == identity.AlreadyVerified {
		jsonOK(w, http.StatusOK, "Email is already verified.", nil)
		return
	}
	jsonOK(w, http.StatusOK, "Email verified successfully. You can now log in.", nil)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, s.logger, err)
		return
	}
	if body.Email == "" || body.Password == "" {
		jsonError(w, s.logger, apperr.Validation("Login failed.", map[string]string{
			"credentials": "Email and password are required.",
		}))
		return
	}
	u, pair, err := s.identity.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		jsonError(w, s.logger, err)
		return
	}
	jsonOK(w, http.StatusOK, "Login successful.", map[string]any{
		"access":           pair.Access,
		"refresh":          pair.Refresh,
		"accessExpiresAt":  pair.AccessExpiresAt,
		"refreshExpiresAt": pair.RefreshExpiresAt,
		"user":             u,
	})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Refresh string `json:"refresh"`
	}
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, s.logger, err)
		return
	}
	if body.Refresh == "" {
		jsonError(w, s.logger, apperr.Validation("Refresh failed.", map[string]string{"refresh": "This field is required."}))
		return
	}
	pair, err := s.identity.Refresh(r.Context(), body.Refresh)
	if err != nil {
		jsonError(w, s.logger, err)
		return
	}
	jsonOK(w, http.StatusOK, "Token refreshed.", pair)
}
