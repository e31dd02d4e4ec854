package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/swiss-tournament/docs"
	"github.com/Dosada05/swiss-tournament/handlers"
	"github.com/Dosada05/swiss-tournament/middleware"
)

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
}

func SetupRoutes(
	router chi.Router,
	opts Options,
	authHandler *handlers.AuthHandler,
	playerHandler *handlers.PlayerHandler,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	roundHandler *handlers.RoundHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// The websocket route stays outside the timeout middleware.
	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
	router.Get("/swagger/*", httpSwagger.WrapHandler)

	requireOrganizer := chi.Chain(middleware.Authenticate(opts.JWTSecret), middleware.RequireOrganizer)

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		r.Get("/rounds-required", roundHandler.RoundsRequired)

		r.Route("/players", func(r chi.Router) {
			r.Get("/", playerHandler.List)
			r.Get("/{playerID}", playerHandler.GetByID)
			r.With(requireOrganizer...).Post("/", playerHandler.Create)
			r.With(requireOrganizer...).Delete("/{playerID}", playerHandler.Delete)
		})

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", tournamentHandler.List)
			r.With(requireOrganizer...).Post("/", tournamentHandler.Create)

			r.Route("/{tournamentID}", func(r chi.Router) {
				r.Get("/", tournamentHandler.GetByID)
				r.Get("/players", tournamentHandler.ListPlayers)
				r.Get("/standings", tournamentHandler.Standings)
				r.Get("/rounds/{round}", roundHandler.Get)
				r.Get("/matches", matchHandler.List)
				r.Get("/byes", matchHandler.ListByes)

				r.Group(func(r chi.Router) {
					r.Use(requireOrganizer...)
					r.Post("/players", tournamentHandler.Enroll)
					r.Delete("/players/{playerID}", tournamentHandler.Unenroll)
					r.Post("/rounds", roundHandler.PairNext)
					r.Post("/matches", matchHandler.Report)
					r.Post("/complete", tournamentHandler.Complete)
					r.Post("/cancel", tournamentHandler.Cancel)
				})
			})
		})
	})
}
