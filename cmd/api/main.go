package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/convoyapp/convoy-backend/api/routes"
	"github.com/convoyapp/convoy-backend/internal/auth"
	"github.com/convoyapp/convoy-backend/internal/cars"
	"github.com/convoyapp/convoy-backend/internal/catalog"
	"github.com/convoyapp/convoy-backend/internal/eligibility"
	"github.com/convoyapp/convoy-backend/internal/notifications"
	"github.com/convoyapp/convoy-backend/internal/participation"
	"github.com/convoyapp/convoy-backend/internal/trips"
	"github.com/convoyapp/convoy-backend/internal/users"
	"github.com/convoyapp/convoy-backend/pkg/auth/session"
	"github.com/convoyapp/convoy-backend/pkg/config"
	"github.com/convoyapp/convoy-backend/pkg/db"
	"github.com/convoyapp/convoy-backend/pkg/logger"
	"github.com/convoyapp/convoy-backend/pkg/migrate"
	"github.com/convoyapp/convoy-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	carsRepo := cars.NewRepository(dbClient.DB())
	tripsRepo := trips.NewRepository(dbClient.DB())
	participationRepo := participation.NewRepository(dbClient.DB())
	notificationsRepo := notifications.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		Repo:           usersRepo,
		SessionManager: sessionManager,
		PasswordConfig: cfg.Password,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(usersRepo, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	carsService, err := cars.NewService(cars.ServiceParams{
		DB:          dbClient,
		Repo:        carsRepo,
		CatalogRepo: catalogRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cars service", err)
		os.Exit(1)
	}

	eligibilityService, err := eligibility.NewService(carsRepo, usersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create eligibility service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	fanout, err := notifications.NewFanout(notifications.FanoutParams{
		Repo:         notificationsRepo,
		Participants: participationRepo,
		Audience:     eligibilityService,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification fanout", err)
		os.Exit(1)
	}

	tripsService, err := trips.NewService(trips.ServiceParams{
		DB:           dbClient,
		Repo:         tripsRepo,
		CatalogRepo:  catalogRepo,
		Participants: participationRepo,
		Fanout:       fanout,
		Config:       cfg.Trips,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create trips service", err)
		os.Exit(1)
	}

	participationService, err := participation.NewService(participation.ServiceParams{
		DB:          dbClient,
		Repo:        participationRepo,
		TripsRepo:   tripsRepo,
		Eligibility: eligibilityService,
		Fanout:      fanout,
		Config:      cfg.Trips,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create participation service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:               cfg,
			Logger:               logg,
			DB:                   dbClient,
			Redis:                redisClient,
			SessionChecker:       sessionManager,
			AuthService:          authService,
			RegisterService:      registerService,
			UsersService:         usersService,
			CatalogService:       catalogService,
			CarsService:          carsService,
			TripsService:         tripsService,
			ParticipationService: participationService,
			NotificationsService: notificationsService,
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-shutdownCtx.Done()
		graceCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(graceCtx); err != nil {
			logg.Error(ctx, "server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shutting down gracefully")
}
