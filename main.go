package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-eventpay/internal/analytics"
	analytics_api "ms-eventpay/internal/analytics/api"
	"ms-eventpay/internal/auth"
	"ms-eventpay/internal/comments"
	commentsdb "ms-eventpay/internal/comments/db"
	"ms-eventpay/internal/config"
	"ms-eventpay/internal/database/migrations"
	"ms-eventpay/internal/discount"
	discountdb "ms-eventpay/internal/discount/db"
	eventsdb "ms-eventpay/internal/events/db"
	"ms-eventpay/internal/events/event_api"
	"ms-eventpay/internal/kafka"
	"ms-eventpay/internal/logger"
	"ms-eventpay/internal/loyalty"
	loyaltydb "ms-eventpay/internal/loyalty/db"
	"ms-eventpay/internal/models"
	"ms-eventpay/internal/order"
	orderdb "ms-eventpay/internal/order/db"
	"ms-eventpay/internal/order/order_api"
	rediswrap "ms-eventpay/internal/order/redis"
	"ms-eventpay/internal/payment"
	"ms-eventpay/internal/tickets"
	ticketsdb "ms-eventpay/internal/tickets/db"
	"ms-eventpay/internal/tickets/ticket_api"
	"ms-eventpay/internal/users"
	usersdb "ms-eventpay/internal/users/db"
	"ms-eventpay/internal/users/user_api"
)

func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bun.DB, *redis.Client) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Database.Username, cfg.Database.Password,
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", dsn)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", "Redis connection successful to "+cfg.Redis.Addr)

	return bunDB, redisClient
}

func runMigrations(bunDB *bun.DB, log *logger.Logger) {
	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
	if err := runner.Initialize(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migration init failed: %v", err))
	}
	if err := runner.RunMigrations(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
	}
	log.Info("DATABASE", "Migrations applied")
}

func buildVerifier(ctx context.Context, cfg *config.Config, log *logger.Logger) auth.Verifier {
	if cfg.Auth.OIDCIssuer != "" {
		verifier, err := auth.NewOIDCVerifier(ctx, cfg.Auth.OIDCIssuer)
		if err != nil {
			log.Fatal("AUTH", fmt.Sprintf("OIDC verifier init failed: %v", err))
		}
		log.Info("AUTH", "Using OIDC token verification against "+cfg.Auth.OIDCIssuer)
		return verifier
	}
	log.Info("AUTH", "Using shared-secret token verification")
	return &auth.SecretVerifier{Secret: cfg.Auth.JWTSecret}
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting EventPay service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	bunDB, redisClient := verifyConnections(ctx, cfg, log)
	defer bunDB.Close()
	defer redisClient.Close()

	runMigrations(bunDB, log)

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()

		requiredTopics := []string{
			cfg.Kafka.Topics.OrderCreated,
			cfg.Kafka.Topics.OrderCompleted,
			cfg.Kafka.Topics.OrderCancelled,
			cfg.Kafka.Topics.TicketIssued,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}
	} else {
		log.Warn("KAFKA", "Kafka disabled, settlement events will not be published")
	}

	// Repos.
	loyaltyRepo := &loyaltydb.DB{Bun: bunDB}
	eventsRepo := &eventsdb.DB{Bun: bunDB}
	ticketsRepo := &ticketsdb.DB{Bun: bunDB}
	discountRepo := &discountdb.DB{Bun: bunDB}
	commentsRepo := &commentsdb.DB{Bun: bunDB}
	usersRepo := &usersdb.DB{Bun: bunDB}
	orderRepo := orderdb.NewDB(bunDB)

	// Services.
	loyaltyService := loyalty.NewService(loyaltyRepo, bunDB, cfg.Loyalty, log)
	discountService := discount.NewService(discountRepo, eventsRepo, log)
	ticketService := tickets.NewService(ticketsRepo, log)
	commentService := comments.NewService(commentsRepo, log)
	usersService := users.NewService(usersRepo, loyaltyService, cfg.Auth, log)
	analyticsService := analytics.NewService(bunDB)

	var paymentProvider order.PaymentProvider
	var stripeService *payment.StripeService
	if cfg.Stripe.SecretKey != "" {
		var err error
		stripeService, err = payment.NewStripeService(cfg.Stripe, log)
		if err != nil {
			log.Fatal("STRIPE", fmt.Sprintf("Stripe init failed: %v", err))
		}
		paymentProvider = stripeService
	} else {
		log.Warn("STRIPE", "STRIPE_SECRET_KEY not set, checkout sessions disabled")
	}

	var publisher order.Publisher
	if producer != nil {
		publisher = producer
	}

	orderService := order.NewService(
		orderRepo,
		eventsRepo,
		discountService,
		loyaltyService,
		ticketService,
		rediswrap.NewRedis(redisClient),
		publisher,
		paymentProvider,
		cfg.Kafka.Topics,
		log,
	)

	// Handlers.
	paymentsHandler := order_api.NewHandler(orderService, loyaltyService, discountService, log)
	userHandler := user_api.NewHandler(usersService, log)
	eventHandler := event_api.NewHandler(discountService, commentService, log)
	ticketHandler := ticket_api.NewHandler(ticketService, log)
	analyticsHandler := analytics_api.NewHandler(analyticsService, log)

	verifier := buildVerifier(ctx, cfg, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// --- Public routes ---
	r.Post("/users", userHandler.Register)
	r.Post("/users/login", userHandler.Login)

	if stripeService != nil {
		webhookHandler := payment.NewWebhookHandler(orderService, cfg.Stripe.WebhookSecret, log)
		r.Post("/payments/stripe/webhook", webhookHandler.HandleWebhook)
		log.Info("ROUTER", "Stripe webhook registered at /payments/stripe/webhook")
	}

	// --- Protected routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(verifier))

		r.Route("/payments", func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleCustomer))
			r.Post("/order", paymentsHandler.CreateOrder)
			r.Post("/transaction", paymentsHandler.FinishOrder)
			r.Get("/transaction", paymentsHandler.GetTransactions)
			r.Get("/transaction/{orderID}", paymentsHandler.GetTransaction)
			r.Post("/ticket", paymentsHandler.CreateFreeTicket)
			r.Get("/points", paymentsHandler.GetPoints)
			r.Get("/discounts", paymentsHandler.GetDiscounts)
		})
		log.Info("ROUTER", "Payment routes registered under /payments")

		r.Route("/event", func(r chi.Router) {
			r.With(auth.RequireRole(models.RoleOrganizer)).
				Post("/events/{eventID}/discounts", eventHandler.CreateDiscount)
			r.Post("/events/{eventID}/apply-discount", eventHandler.ApplyDiscount)
			r.With(auth.RequireRole(models.RoleCustomer)).
				Post("/comments", eventHandler.CreateComment)
			r.Get("/comments/{eventID}", eventHandler.ListComments)
		})
		log.Info("ROUTER", "Event routes registered under /event")

		r.Route("/management", func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleOrganizer))
			r.Get("/revenue", analyticsHandler.Revenue)
			r.Get("/transactionstats", analyticsHandler.TransactionStats)
			r.Get("/allavailable", analyticsHandler.AllAvailable)
			r.Get("/allbooked", analyticsHandler.AllBooked)
			r.Get("/transactions", analyticsHandler.Transactions)
		})
		log.Info("ROUTER", "Management routes registered under /management")

		r.With(auth.RequireRole(models.RoleCustomer)).Get("/tickets", ticketHandler.ListMyTickets)
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", "EventPay service running on "+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "EventPay service shutdown complete")
	}
}
