package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // алиас, чтобы не конфликтовать с нашим middleware
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/worldcup-simulator/docs" // регистрирует swagger-документ
	"github.com/Dosada05/worldcup-simulator/handlers"
	"github.com/Dosada05/worldcup-simulator/middleware"
)

type Options struct {
	CORSAllowedOrigins []string
}

func SetupRoutes(
	router chi.Router,
	referenceHandler *handlers.ReferenceHandler,
	simulatorHandler *handlers.SimulatorHandler,
	webSocketHandler *handlers.WebSocketHandler,
	tokens *middleware.TokenIssuer,
	opts Options,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	router.Get("/teams", referenceHandler.ListTeams)
	router.Get("/groups", referenceHandler.ListGroups)

	router.Get("/ws/sessions/{sessionID}", webSocketHandler.ServeWs)

	router.Route("/sessions", func(r chi.Router) {
		r.Post("/", simulatorHandler.CreateSession)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", simulatorHandler.GetSession)
			r.Get("/groups/{groupID}/standings", simulatorHandler.GetGroupStandings)
			r.Get("/groups/{groupID}/matches", simulatorHandler.ListGroupMatches)
			r.Get("/knockout", simulatorHandler.ListKnockoutMatches)
			r.Get("/history", simulatorHandler.ListScoreHistory)

			// Изменять сессию может только владелец токена.
			r.Group(func(r chi.Router) {
				r.Use(middleware.Authenticate(tokens))
				r.Use(middleware.RequireSessionOwner("sessionID"))

				r.Put("/group-matches/{matchID}", simulatorHandler.UpdateGroupMatch)
				r.Put("/knockout-matches/{matchID}", simulatorHandler.UpdateKnockoutMatch)
				r.Post("/reset", simulatorHandler.ResetSession)
				r.Post("/export", simulatorHandler.ExportSession)
			})
		})
	})
}
