package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/crudapp/apiserver/internal/services"
	"github.com/crudapp/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// UserHandler provides HTTP handlers for users.
type UserHandler struct {
	userService *services.UserService
	logger      *slog.Logger
}

func NewUserHandler(userService *services.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, userService *services.UserService, logger *slog.Logger) {
	handler := NewUserHandler(userService, logger)

	r.Get("/", handler.ListUsers)
	r.Post("/", handler.CreateUser)
	r.Route("/{userID}", func(r chi.Router) {
		r.Get("/", handler.GetUser)
		r.Put("/", handler.UpdateUser)
		r.Delete("/", handler.DeleteUser)
	})
}

// UserRequest is the create/update payload. Any id in the body is ignored.
type UserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		h.internalError(w, r, "failed to list users", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, found, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "failed to fetch user", err)
		return
	}
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.userService.Create(r.Context(), &types.User{Name: req.Name, Email: req.Email})
	if err != nil {
		h.writeServiceError(w, r, "failed to create user", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req UserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.userService.Update(r.Context(), id, &types.User{Name: req.Name, Email: req.Email})
	if err != nil {
		h.writeServiceError(w, r, "failed to update user", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, "failed to delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError maps a service error kind to a response. Not found has an empty body.
func (h *UserHandler) writeServiceError(w http.ResponseWriter, r *http.Request, fallback string, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		h.internalError(w, r, fallback, err)
		return
	}

	switch svcErr.Kind {
	case services.KindInvalidInput:
		writeError(w, http.StatusBadRequest, svcErr.Message)
	case services.KindNotFound:
		w.WriteHeader(http.StatusNotFound)
	default:
		h.internalError(w, r, fallback, err)
	}
}

func (h *UserHandler) internalError(w http.ResponseWriter, r *http.Request, message string, err error) {
	h.logger.ErrorContext(r.Context(), message, slog.String("error", err.Error()))
	writeError(w, http.StatusInternalServerError, message)
}
