package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caiowilker/rifa-project/internal/app"
	"github.com/caiowilker/rifa-project/internal/clock"
	"github.com/caiowilker/rifa-project/internal/config"
	"github.com/caiowilker/rifa-project/internal/payment/mercadopago"
	"github.com/caiowilker/rifa-project/internal/storage/postgres"
	transporthttp "github.com/caiowilker/rifa-project/internal/transport/http"
	"github.com/caiowilker/rifa-project/migrations"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load(logger)

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("connect to db")
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		logger.WithError(err).Fatal("db ping")
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		logger.WithError(err).Fatal("apply migrations")
	}

	ticketRepo := postgres.NewTicketRepository(pool)
	if err := ticketRepo.EnsureTickets(startupCtx, cfg.TicketCount); err != nil {
		logger.WithError(err).Fatal("provision tickets")
	}

	sysClock := clock.NewSystem()
	reservationSvc := app.NewReservationService(ticketRepo, sysClock,
		app.WithReservationTTL(cfg.ReservationTTL),
		app.WithUnitPrice(cfg.UnitPrice),
	)
	confirmationSvc := app.NewConfirmationService(ticketRepo, sysClock)
	raffleSvc := app.NewRaffleService(ticketRepo, sysClock, logger,
		app.WithRaffleTTL(cfg.ReservationTTL),
	)

	gateway := mercadopago.NewClient(
		cfg.MercadoPago.BaseURL,
		cfg.MercadoPago.AccessToken,
		cfg.MercadoPago.NotificationURL,
		logger,
		http.DefaultClient,
	)

	validate := validator.New()

	router := mux.NewRouter()
	router.HandleFunc("/health", transporthttp.HealthHandler).Methods(http.MethodGet)
	router.Handle("/tickets", transporthttp.HandleListTickets(raffleSvc)).Methods(http.MethodGet)
	router.Handle("/reservations", transporthttp.HandleCreateReservation(reservationSvc, gateway, validate)).Methods(http.MethodPost)
	router.Handle("/payments/webhook", transporthttp.HandlePaymentWebhook(gateway, confirmationSvc, logger)).Methods(http.MethodPost)
	router.Handle("/admin/draw", transporthttp.HandleDraw(raffleSvc)).Methods(http.MethodGet)
	router.Handle("/admin/winners/{number}", transporthttp.HandleLookupWinner(raffleSvc)).Methods(http.MethodGet)
	router.NotFoundHandler = transporthttp.NotFoundHandler()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})

	handler := transporthttp.RequestLogger(corsHandler.Handler(router), logger)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	logger.Infof("api listening on :%s", cfg.Port)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("server error")
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("server shutdown error")
	}
	logger.Info("server stopped")
}
