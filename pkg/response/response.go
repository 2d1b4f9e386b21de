package response

import (
	"encoding/json"
	"net/http"
)

type MessageBody struct {
	Message string `json:"message"`
}

type FieldError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

type ValidationBody struct {
	Errors []FieldError `json:"errors"`
}

func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func Success(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, data)
}

// Text writes a plain-text body, the format used for not-found and confirmation messages.
func Text(w http.ResponseWriter, statusCode int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	w.Write([]byte(msg))
}

func Message(w http.ResponseWriter, statusCode int, msg string) {
	JSON(w, statusCode, MessageBody{Message: msg})
}

func ValidationFailed(w http.ResponseWriter, errs []FieldError) {
	JSON(w, http.StatusUnprocessableEntity, ValidationBody{Errors: errs})
}

func BadRequest(w http.ResponseWriter, msg string) {
	Text(w, http.StatusBadRequest, msg)
}

func Unauthorized(w http.ResponseWriter) {
	Text(w, http.StatusUnauthorized, "Unauthorized")
}

func NotFound(w http.ResponseWriter, msg string) {
	Text(w, http.StatusNotFound, msg)
}

func Conflict(w http.ResponseWriter, msg string) {
	Text(w, http.StatusConflict, msg)
}

func TooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "60")
	Text(w, http.StatusTooManyRequests, "Too many requests")
}

func InternalError(w http.ResponseWriter) {
	Text(w, http.StatusInternalServerError, "Internal server error")
}
