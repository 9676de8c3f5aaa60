package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Trinaxus/TON.BAND/internal/ctxkeys"
	"github.com/Trinaxus/TON.BAND/internal/service"
)

type authHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *authHandler {
	return &authHandler{authService: authService}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	noStore(w)

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "E-Mail und Passwort erforderlich")
		return
	}

	principal, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.loginError(w, err)
		return
	}

	token, err := h.authService.IssueToken(principal)
	if err != nil {
		slog.Error("failed to issue session token", "error", err, "user_id", principal.UserID)
		writeError(w, http.StatusInternalServerError, "Sitzung konnte nicht erstellt werden")
		return
	}
	h.authService.SetSessionCookie(w, token)

	writeJSON(w, http.StatusOK, envelope{"success": true, "user": principal})
}

func (h *authHandler) loginError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrMissingCredentials):
		writeError(w, http.StatusBadRequest, "E-Mail und Passwort erforderlich")
	case errors.Is(err, service.ErrEmailNotFound):
		writeError(w, http.StatusUnauthorized, "E-Mail-Adresse nicht gefunden")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Falsches Passwort")
	case errors.Is(err, service.ErrAccountProblem):
		writeError(w, http.StatusInternalServerError, "Konto-Problem: Bitte kontaktiere den Administrator")
	case errors.Is(err, service.ErrVerification):
		writeJSON(w, http.StatusInternalServerError, envelope{"error": "Fehler bei der Passwortüberprüfung", "details": err.Error()})
	default:
		writeUpstreamError(w, err, "Anmeldung fehlgeschlagen")
	}
}

func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, envelope{"success": true})
}

func (h *authHandler) Session(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	principal := ctxkeys.Principal(r.Context())
	if principal == nil {
		writeJSON(w, http.StatusUnauthorized, envelope{"authenticated": false})
		return
	}
	writeJSON(w, http.StatusOK, envelope{"authenticated": true, "user": principal})
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *authHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Alle Felder sind erforderlich")
		return
	}

	user, err := h.authService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if msg, ok := validationMessage(err); ok {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
		switch {
		case errors.Is(err, service.ErrMissingFields):
			writeError(w, http.StatusBadRequest, "Alle Felder sind erforderlich")
		case errors.Is(err, service.ErrEmailTaken):
			writeError(w, http.StatusConflict, "E-Mail-Adresse bereits vergeben")
		case errors.Is(err, service.ErrUsernameTaken):
			writeError(w, http.StatusConflict, "Benutzername bereits vergeben")
		default:
			writeUpstreamError(w, err, "Registrierung fehlgeschlagen")
		}
		return
	}

	writeJSON(w, http.StatusCreated, envelope{"success": true, "user": user})
}
