package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/junho-l/pickup-system/handlers"
	"github.com/junho-l/pickup-system/middleware"
)

// SetupRoutes вешает все маршруты приложения на переданный роутер.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	requestTimeout time.Duration,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	sportHandler *handlers.SportHandler,
	roomHandler *handlers.RoomHandler,
	participantHandler *handlers.ParticipantHandler,
	notificationHandler *handlers.NotificationHandler,
	placeHandler *handlers.PlaceHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate([]byte(jwtSecret))

	router.Get("/swagger/*", httpSwagger.Handler())

	// У WebSocket-маршрутов нет таймаута на запрос: соединение живёт долго.
	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/ws/rooms/{roomID}", webSocketHandler.ServeRoomUpdates)
		r.Get("/ws/notifications", webSocketHandler.ServeNotifications)
	})

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(requestTimeout))

		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Get("/sports", sportHandler.ListSports)
		r.Get("/sports/{sportID}/rooms", roomHandler.ListRoomsBySport)

		r.Route("/rooms", func(r chi.Router) {
			// Публичные маршруты для просмотра комнат
			r.Get("/", roomHandler.ListRooms)
			r.Get("/feed", roomHandler.ListFeed)
			r.Get("/{roomID}", roomHandler.GetRoomDetail)

			// Защищённые маршруты
			r.Group(func(r chi.Router) {
				r.Use(authenticate)

				r.Post("/", roomHandler.CreateRoom)
				r.Get("/my", roomHandler.GetMyRooms)
				r.Patch("/{roomID}/status", roomHandler.UpdateRoomStatus)
				r.Delete("/{roomID}", roomHandler.DeleteRoom)

				r.Post("/{roomID}/join", participantHandler.JoinRoom)
				r.Delete("/{roomID}/leave", participantHandler.LeaveRoom)
				r.Get("/{roomID}/participation", participantHandler.GetMyParticipation)
			})
		})

		r.Route("/users/me", func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/", userHandler.GetMe)
			r.Patch("/", userHandler.UpdateProfile)
			r.Post("/avatar", userHandler.UploadAvatar)
			r.Get("/stats", userHandler.GetStats)

			r.Get("/sports", userHandler.GetMySports)
			r.Put("/sports", userHandler.SaveMySports)
			r.Delete("/sports/{sportID}", userHandler.RemoveMySport)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/", notificationHandler.ListNotifications)
			r.Get("/unread", notificationHandler.GetUnreadCount)
			r.Patch("/{notificationID}/read", notificationHandler.MarkRead)
			r.Patch("/read-all", notificationHandler.MarkAllRead)
		})

		r.Route("/places", func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/search", placeHandler.SearchPlaces)
			r.Get("/favorites", placeHandler.ListFavoritePlaces)
			r.Post("/favorites", placeHandler.AddFavoritePlace)
			r.Delete("/favorites/{favoriteID}", placeHandler.RemoveFavoritePlace)
		})
	})
}
