package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/storekit/catalog/internal/core/domain"
	"github.com/storekit/catalog/internal/core/port"
)

// POST /v1/auth/signup JSON {"email", "password", "first_name", "last_name"}
// POST /v1/auth/signin JSON {"email", "password"}
// POST /v1/auth/verify JSON {"token"}

type AuthHandler struct {
	auth port.Authenticator
}

func RegisterAuth(mux *http.ServeMux, auth port.Authenticator) {
	h := AuthHandler{auth}
	mux.HandleFunc("POST /v1/auth/signup", h.SignUp)
	mux.HandleFunc("POST /v1/auth/signin", h.SignIn)
	mux.HandleFunc("POST /v1/auth/verify", h.Verify)
}

func (h AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	const op = "AuthHandler.SignUp"
	log := slog.With("op", op)

	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}

	user, token, err := h.auth.SignUp(
		r.Context(), req.Email, req.Password, req.FirstName, req.LastName,
	)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			http.Error(w, "email is already taken", http.StatusConflict)
			return
		}
		http.Error(w, "failed to sign up", http.StatusInternalServerError)
		log.Error("failed to sign up", "err", err)
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{Email: user.Email, Token: token})
}

func (h AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	const op = "AuthHandler.SignIn"
	log := slog.With("op", op)

	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	user, token, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		http.Error(w, "failed to sign in", http.StatusInternalServerError)
		log.Error("failed to sign in", "err", err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Email: user.Email, Token: token})
}

func (h AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	const op = "AuthHandler.Verify"
	log := slog.With("op", op)

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	ok, err := h.auth.VerifyEmail(r.Context(), req.Token)
	if err != nil {
		http.Error(w, "failed to verify email", http.StatusInternalServerError)
		log.Error("failed to verify email", "err", err)
		return
	}
	if !ok {
		http.Error(w, "invalid or expired token", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("Verified")); err != nil {
		log.Error("failed to write response body", "err", err)
	}
}
