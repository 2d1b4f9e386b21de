package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"myflix-api/internal/domain"
	"myflix-api/internal/service"
	"myflix-api/pkg/response"
)

type MovieHandler struct {
	movieService *service.MovieService
	log          *zap.SugaredLogger
}

func NewMovieHandler(movieService *service.MovieService, log *zap.SugaredLogger) *MovieHandler {
	return &MovieHandler{
		movieService: movieService,
		log:          log,
	}
}

func (h *MovieHandler) List(w http.ResponseWriter, r *http.Request) {
	movies, err := h.movieService.List(r.Context())
	if err != nil {
		serverError(w, r, h.log, err)
		return
	}

	response.Success(w, movies)
}

func (h *MovieHandler) GetByTitle(w http.ResponseWriter, r *http.Request) {
	movie, err := h.movieService.GetByTitle(r.Context(), mux.Vars(r)["Title"])
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}

	response.Success(w, movie)
}

func (h *MovieHandler) GetGenre(w http.ResponseWriter, r *http.Request) {
	genre, err := h.movieService.GetGenre(r.Context(), mux.Vars(r)["Name"])
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}

	response.Success(w, genre)
}

func (h *MovieHandler) GetDirector(w http.ResponseWriter, r *http.Request) {
	director, err := h.movieService.GetDirector(r.Context(), mux.Vars(r)["Name"])
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}

	response.Success(w, director)
}

func (h *MovieHandler) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrMovieNotFound):
		response.NotFound(w, "Movie not found.")
	case errors.Is(err, domain.ErrGenreNotFound):
		response.NotFound(w, "Genre not found.")
	case errors.Is(err, domain.ErrDirectorNotFound):
		response.NotFound(w, "Director not found.")
	default:
		serverError(w, r, h.log, err)
	}
}
