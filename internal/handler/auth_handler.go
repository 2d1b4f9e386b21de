package handler

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"myflix-api/internal/domain"
	"myflix-api/internal/service"
	"myflix-api/pkg/response"
)

const loginFailedMessage = "Something is not right."

type AuthHandler struct {
	authService *service.AuthService
	log         *zap.SugaredLogger
}

func NewAuthHandler(authService *service.AuthService, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log,
	}
}

// Login exchanges Username and Password for a token. Credentials may come as JSON, as a form
// body or in the query string.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := loginCredentials(r)
	if err != nil {
		response.Message(w, http.StatusBadRequest, loginFailedMessage)
		return
	}

	loginResp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			response.Message(w, http.StatusBadRequest, loginFailedMessage)
			return
		}
		serverError(w, r, h.log, err)
		return
	}

	response.Success(w, loginResp)
}

func loginCredentials(r *http.Request) (*domain.LoginRequest, error) {
	var req domain.LoginRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, err
		}
	}

	if req.Username == "" && req.Password == "" {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		req.Username = r.Form.Get("Username")
		req.Password = r.Form.Get("Password")
	}

	return &req, nil
}
