package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/convoyapp/convoy-backend/api/controllers"
	"github.com/convoyapp/convoy-backend/api/middleware"
	"github.com/convoyapp/convoy-backend/internal/auth"
	"github.com/convoyapp/convoy-backend/internal/cars"
	"github.com/convoyapp/convoy-backend/internal/catalog"
	"github.com/convoyapp/convoy-backend/internal/notifications"
	"github.com/convoyapp/convoy-backend/internal/participation"
	"github.com/convoyapp/convoy-backend/internal/trips"
	"github.com/convoyapp/convoy-backend/internal/users"
	"github.com/convoyapp/convoy-backend/pkg/auth/session"
	"github.com/convoyapp/convoy-backend/pkg/config"
	"github.com/convoyapp/convoy-backend/pkg/db"
	"github.com/convoyapp/convoy-backend/pkg/logger"
	"github.com/convoyapp/convoy-backend/pkg/redis"
)

// RouterParams bundles everything the HTTP surface needs.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	SessionChecker session.AccessSessionChecker

	AuthService          auth.Service
	RegisterService      auth.RegisterService
	UsersService         users.Service
	CatalogService       catalog.Service
	CarsService          cars.Service
	TripsService         trips.Service
	ParticipationService participation.Service
	NotificationsService notifications.Service
}

// NewRouter assembles the chi router with the full middleware stack.
func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.DB, p.Redis, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).Post("/register", controllers.AuthRegister(p.RegisterService, logg))
		r.Post("/logout", controllers.AuthLogout(p.AuthService, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.AuthService, cfg.JWT, logg))
		r.Get("/check-email", controllers.CheckEmail(p.UsersService, logg))
		r.Get("/check-phone", controllers.CheckPhone(p.UsersService, logg))
	})

	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/brands", controllers.ListBrands(p.CatalogService, logg))
		r.Get("/brands/{brandID}/models", controllers.ListModels(p.CatalogService, logg))
		r.Get("/models/{modelID}/variants", controllers.ListVariants(p.CatalogService, logg))
		r.Get("/types", controllers.ListCarTypes(p.CatalogService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.SessionChecker, logg))

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", controllers.ProfileGet(p.UsersService, logg))
			r.Put("/", controllers.ProfileUpdate(p.UsersService, logg))
			r.Patch("/", controllers.ProfileUpdate(p.UsersService, logg))
			r.Post("/change-password", controllers.ProfileChangePassword(p.UsersService, logg))
		})

		r.Route("/cars", func(r chi.Router) {
			r.Get("/", controllers.ListMyCars(p.CarsService, logg))
			r.Post("/", controllers.RegisterCar(p.CarsService, logg))
			r.Get("/{carID}", controllers.GetCar(p.CarsService, logg))
			r.Put("/{carID}", controllers.UpdateCar(p.CarsService, logg))
			r.Patch("/{carID}", controllers.UpdateCar(p.CarsService, logg))
			r.Delete("/{carID}", controllers.DeleteCar(p.CarsService, logg))
			r.Post("/{carID}/photos", controllers.AddCarPhoto(p.CarsService, logg))
			r.Delete("/{carID}/photos/{photoID}", controllers.DeleteCarPhoto(p.CarsService, logg))
		})

		r.Route("/trips", func(r chi.Router) {
			r.Get("/", controllers.ListTrips(p.TripsService, logg))
			r.Post("/", controllers.CreateTrip(p.TripsService, logg))
			r.Get("/mine", controllers.ListMyTrips(p.TripsService, logg))
			r.Get("/{tripID}", controllers.GetTrip(p.TripsService, logg))
			r.Put("/{tripID}", controllers.UpdateTrip(p.TripsService, logg))
			r.Patch("/{tripID}", controllers.UpdateTrip(p.TripsService, logg))
			// deleting a trip cancels it, history stays visible
			r.Delete("/{tripID}", controllers.CancelTrip(p.TripsService, logg))
			r.Post("/{tripID}/cancel", controllers.CancelTrip(p.TripsService, logg))

			r.Post("/{tripID}/join", controllers.JoinTrip(p.ParticipationService, logg))
			r.Post("/{tripID}/leave", controllers.LeaveTrip(p.ParticipationService, logg))
			r.Get("/{tripID}/participants", controllers.ListTripParticipants(p.ParticipationService, logg))
			r.Patch("/{tripID}/participants/{participantID}", controllers.UpdateParticipantStatus(p.ParticipationService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.NotificationsService, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(p.NotificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.NotificationsService, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(p.NotificationsService, logg))
		})
	})

	return r
}
