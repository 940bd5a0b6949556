package main // Entry point package

import (
	"context" // Context for startup deadlines
	"time"    // Timeout durations

	"github.com/joho/godotenv" // Loads .env files in development
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/andescampus/uniride/internal/config"
	"github.com/andescampus/uniride/internal/database"
	"github.com/andescampus/uniride/internal/handler"
	"github.com/andescampus/uniride/internal/logger"
	"github.com/andescampus/uniride/internal/queue"
	"github.com/andescampus/uniride/internal/repository"
	"github.com/andescampus/uniride/internal/router"
	"github.com/andescampus/uniride/internal/service"
)

func main() {
	// .env is optional; in production configuration comes from the real
	// environment.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config
	logger.Setup()       // Structured logging to stdout and rotating file

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logrus.WithError(err).Fatal("database connection failed")
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		logrus.WithError(err).Fatal("database migration failed")
	}
	cancel()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; middleware degrades

	// Repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	trips := repository.NewTripRepo(db)
	reservations := repository.NewReservationRepo(db)
	capacity := repository.NewCapacityRepo(db)

	// Handlers
	authH := handler.NewAuthHandler(cfg, users, tokens)
	tripH := handler.NewTripHandler(cfg, trips, users)
	resH := handler.NewReservationHandler(capacity, trips, reservations, users)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterPublic(e, tripH, authH, rdb)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterBooking(e, tripH, resH, cfg.JWTSecret)

	// Background consumer writing the reservation audit log.  Runs its own
	// reconnect loop for the lifetime of the process.
	go queue.StartReservationConsumer(service.BrokerURL())

	addr := ":" + cfg.Port
	logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("server starting")
	if err := e.Start(addr); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}
