package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"myflix-api/internal/domain"
	"myflix-api/internal/service"
	"myflix-api/pkg/response"
)

type UserHandler struct {
	userService *service.UserService
	validator   *validator.Validate
	log         *zap.SugaredLogger
}

func NewUserHandler(userService *service.UserService, log *zap.SugaredLogger) *UserHandler {
	return &UserHandler{
		userService: userService,
		validator:   validator.New(),
		log:         log,
	}
}

// decodeUserRequest reads and validates a user body. It writes the error response itself and
// reports whether the handler may continue.
func (h *UserHandler) decodeUserRequest(w http.ResponseWriter, r *http.Request) (*domain.UserRequest, bool) {
	var req domain.UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return nil, false
	}

	if err := h.validator.Struct(req); err != nil {
		response.ValidationFailed(w, validationErrors(err))
		return nil, false
	}

	return &req, true
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeUserRequest(w, r)
	if !ok {
		return
	}

	user, err := h.userService.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			response.Conflict(w, req.Username+" already exists.")
			return
		}
		serverError(w, r, h.log, err)
		return
	}

	response.Created(w, user)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		serverError(w, r, h.log, err)
		return
	}

	response.Success(w, users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["Username"]

	user, err := h.userService.GetByUsername(r.Context(), username)
	if err != nil {
		h.writeUserError(w, r, username, err)
		return
	}

	response.Success(w, user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["Username"]

	req, ok := h.decodeUserRequest(w, r)
	if !ok {
		return
	}

	user, err := h.userService.Update(r.Context(), username, req)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			response.Conflict(w, req.Username+" already exists.")
			return
		}
		h.writeUserError(w, r, username, err)
		return
	}

	response.Success(w, user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["Username"]

	if err := h.userService.Delete(r.Context(), username); err != nil {
		h.writeUserError(w, r, username, err)
		return
	}

	response.Text(w, http.StatusOK, username+" was deleted.")
}

func (h *UserHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	user, err := h.userService.AddFavorite(r.Context(), vars["Username"], vars["MovieID"])
	if err != nil {
		h.writeUserError(w, r, vars["Username"], err)
		return
	}

	response.Success(w, user)
}

func (h *UserHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	user, err := h.userService.RemoveFavorite(r.Context(), vars["Username"], vars["MovieID"])
	if err != nil {
		h.writeUserError(w, r, vars["Username"], err)
		return
	}

	response.Success(w, user)
}

func (h *UserHandler) writeUserError(w http.ResponseWriter, r *http.Request, username string, err error) {
	if errors.Is(err, domain.ErrUserNotFound) {
		response.NotFound(w, username+" was not found.")
		return
	}
	serverError(w, r, h.log, err)
}
