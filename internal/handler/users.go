package handler

import (
	"errors"
	"net/http"

	"github.com/Trinaxus/TON.BAND/internal/ctxkeys"
	"github.com/Trinaxus/TON.BAND/internal/repository"
	"github.com/Trinaxus/TON.BAND/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeUpstreamError(w, err, "Benutzer konnten nicht geladen werden")
		return
	}
	writeJSON(w, http.StatusOK, envelope{"users": users})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Ungültige Benutzer-ID")
		return
	}
	user, err := h.userService.ByID(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"user": user})
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.UserInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, errBadJSON.Error())
		return
	}
	user, err := h.userService.Create(r.Context(), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"success": true, "user": user})
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Ungültige Benutzer-ID")
		return
	}
	var in service.UserInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, errBadJSON.Error())
		return
	}
	user, err := h.userService.Update(r.Context(), id, in)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "user": user})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Ungültige Benutzer-ID")
		return
	}
	actor := ctxkeys.Principal(r.Context())
	if err := h.userService.Delete(r.Context(), id, actor.UserID); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true})
}

func (h *UserHandler) fail(w http.ResponseWriter, err error) {
	if msg, ok := validationMessage(err); ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	switch {
	case errors.Is(err, service.ErrMissingFields):
		writeError(w, http.StatusBadRequest, "Alle Felder sind erforderlich")
	case errors.Is(err, service.ErrEmailInUse):
		writeError(w, http.StatusBadRequest, "E-Mail wird bereits verwendet")
	case errors.Is(err, service.ErrDeleteSelf):
		writeError(w, http.StatusBadRequest, "Du kannst deinen eigenen Account nicht löschen")
	case errors.Is(err, repository.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "Benutzer nicht gefunden")
	default:
		writeUpstreamError(w, err, "Benutzeroperation fehlgeschlagen")
	}
}
