package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/paypal-enrolment/internal"
	coursepkg "github.com/frahmantamala/paypal-enrolment/internal/course"
	coursestore "github.com/frahmantamala/paypal-enrolment/internal/course/postgres"
	"github.com/frahmantamala/paypal-enrolment/internal/core/events"
	enrolpkg "github.com/frahmantamala/paypal-enrolment/internal/enrolment"
	enrolstore "github.com/frahmantamala/paypal-enrolment/internal/enrolment/postgres"
	"github.com/frahmantamala/paypal-enrolment/internal/gateway"
	ipnpkg "github.com/frahmantamala/paypal-enrolment/internal/ipn"
	ipnstore "github.com/frahmantamala/paypal-enrolment/internal/ipn/postgres"
	messagingpkg "github.com/frahmantamala/paypal-enrolment/internal/messaging"
	messagingstore "github.com/frahmantamala/paypal-enrolment/internal/messaging/postgres"
	"github.com/frahmantamala/paypal-enrolment/internal/transport"
	"github.com/frahmantamala/paypal-enrolment/internal/transport/rest"
	userpkg "github.com/frahmantamala/paypal-enrolment/internal/user"
	userstore "github.com/frahmantamala/paypal-enrolment/internal/user/postgres"
	"github.com/frahmantamala/paypal-enrolment/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle IPN callbacks`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config     *internal.Config
	DB         *sqlx.DB
	GormDB     *gorm.DB
	Router     *chi.Mux
	IPNHandler *ipnpkg.WebhookHandler
	Logger     *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, deps.IPNHandler, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.InitWithConfig(config.Observability.Logging.Level, config.Observability.Logging.Format)
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	// repositories
	userRepo := userstore.NewUserRepository(gormDB)
	courseRepo := coursestore.NewCourseRepository(gormDB)
	enrolRepo := enrolstore.NewEnrolmentRepository(gormDB)
	txnRepo := ipnstore.NewTransactionRepository(gormDB)
	messageRepo := messagingstore.NewMessageRepository(gormDB)

	// services
	userService := userpkg.NewService(userRepo)
	courseService := coursepkg.NewService(courseRepo)
	enrolService := enrolpkg.NewService(enrolRepo, config.Enrolment, log)
	messagingService := messagingpkg.NewService(messageRepo, userService, courseService, config.Enrolment, log)

	// event bus + notification fan-out
	eventBus := events.NewEventBus(log)
	messagingpkg.NewEventHandler(messagingService, log).RegisterEventHandlers(eventBus)

	// outbound gateway verifier
	gatewayClient, err := gateway.NewClient(
		gateway.ValidationURL(config.Gateway.UseSandbox),
		config.Gateway.Timeout,
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gateway client: %w", err)
	}

	ipnService := ipnpkg.NewService(
		config.Enrolment,
		gatewayClient,
		userService,
		courseService,
		enrolService,
		txnRepo,
		messagingService,
		eventBus,
		log,
	)
	ipnHandler := ipnpkg.NewWebhookHandler(transport.NewBaseHandler(log), ipnService, log)

	return &Dependencies{
		Config:     config,
		Logger:     log,
		DB:         db,
		GormDB:     gormDB,
		Router:     chi.NewRouter(),
		IPNHandler: ipnHandler,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
