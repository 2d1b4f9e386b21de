package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"myflix-api/internal/config"
	"myflix-api/internal/middleware"
	"myflix-api/internal/service"
	"myflix-api/internal/websocket"
	"myflix-api/pkg/response"
)

const welcomeMessage = "This Is The New Default Page"

type RouterDeps struct {
	AuthService  *service.AuthService
	UserService  *service.UserService
	MovieService *service.MovieService
	WSManager    *websocket.Manager
	Config       *config.Config
	Log          *zap.SugaredLogger
}

// NewRouter wires every route and wraps the router with recovery, request logging and CORS.
// CORS sits outside the router so preflights never reach the authorization gate.
func NewRouter(deps RouterDeps) http.Handler {
	cfg := deps.Config

	authHandler := NewAuthHandler(deps.AuthService, deps.Log)
	userHandler := NewUserHandler(deps.UserService, deps.Log)
	movieHandler := NewMovieHandler(deps.MovieService, deps.Log)
	wsHandler := NewWebSocketHandler(deps.WSManager, deps.AuthService,
		cfg.WebSocket.ReadBufferSize, cfg.WebSocket.WriteBufferSize, deps.Log)

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Not found.")
	})

	r.HandleFunc("/", rootHandler).Methods(http.MethodGet)
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	login := http.Handler(http.HandlerFunc(authHandler.Login))
	if cfg.RateLimit.Enabled {
		login = middleware.NewRateLimitMiddleware(cfg.RateLimit.LoginRequestsPerMinute, cfg.RateLimit.TrustedProxies...).Handler(login)
	}
	r.Handle("/login", login).Methods(http.MethodPost)

	r.HandleFunc("/users", userHandler.Register).Methods(http.MethodPost)
	r.HandleFunc("/ws", wsHandler.HandleConnection).Methods(http.MethodGet)

	if cfg.Catalog.PublicMovies {
		r.HandleFunc("/movies", movieHandler.List).Methods(http.MethodGet)
	}

	protected := r.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(deps.AuthService))

	if !cfg.Catalog.PublicMovies {
		protected.HandleFunc("/movies", movieHandler.List).Methods(http.MethodGet)
	}
	protected.HandleFunc("/movies/genre/{Name}", movieHandler.GetGenre).Methods(http.MethodGet)
	protected.HandleFunc("/movies/director/{Name}", movieHandler.GetDirector).Methods(http.MethodGet)
	protected.HandleFunc("/movies/{Title}", movieHandler.GetByTitle).Methods(http.MethodGet)

	protected.HandleFunc("/users", userHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/users/{Username}", userHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/users/{Username}", userHandler.Update).Methods(http.MethodPut)
	protected.HandleFunc("/users/{Username}", userHandler.Delete).Methods(http.MethodDelete)
	protected.HandleFunc("/users/{Username}/movies/{MovieID}", userHandler.AddFavorite).Methods(http.MethodPost)
	protected.HandleFunc("/users/{Username}/movies/{MovieID}", userHandler.RemoveFavorite).Methods(http.MethodDelete)

	var h http.Handler = r
	h = middleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders)(h)
	h = middleware.LoggerMiddleware(deps.Log)(h)
	h = middleware.RecoveryMiddleware(deps.Log)(h)
	return h
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]string{"status": "healthy"})
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	response.Text(w, http.StatusOK, welcomeMessage)
}
