package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/frahmantamala/smartwork/api"
	"github.com/frahmantamala/smartwork/internal"
	"github.com/frahmantamala/smartwork/internal/auth"
	authPostgres "github.com/frahmantamala/smartwork/internal/auth/postgres"
	"github.com/frahmantamala/smartwork/internal/core/events"
	"github.com/frahmantamala/smartwork/internal/idalloc"
	"github.com/frahmantamala/smartwork/internal/mail"
	"github.com/frahmantamala/smartwork/internal/notification"
	"github.com/frahmantamala/smartwork/internal/recurring"
	recurringPostgres "github.com/frahmantamala/smartwork/internal/recurring/postgres"
	"github.com/frahmantamala/smartwork/internal/request"
	requestPostgres "github.com/frahmantamala/smartwork/internal/request/postgres"
	"github.com/frahmantamala/smartwork/internal/session"
	"github.com/frahmantamala/smartwork/internal/transport/middleware"
	"github.com/frahmantamala/smartwork/internal/transport/rest"
	"github.com/frahmantamala/smartwork/internal/user"
	userPostgres "github.com/frahmantamala/smartwork/internal/user/postgres"
	"github.com/frahmantamala/smartwork/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	Router   *chi.Mux
	Bus      *events.EventBus
	Notifier *notification.Notifier
	Logger   *slog.Logger
}

func startHTTPServer() error {
	deps, err := initializeDependencies()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	var serveErr error
	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down", "signal", sig.String())
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("server failed: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdown(ctx, server, deps)

	deps.Logger.Info("Server stopped")
	return serveErr
}

// shutdown drains in order: HTTP first so no new events arrive, then event
// handlers, then queued mail, then the database.
func shutdown(ctx context.Context, server *http.Server, deps *Dependencies) {
	if err := server.Shutdown(ctx); err != nil {
		deps.Logger.Error("Server shutdown error", "error", err)
	}
	deps.Bus.Wait()
	if err := deps.Notifier.Shutdown(ctx); err != nil {
		deps.Logger.Warn("Notification queue not drained", "error", err)
	}
	if err := deps.DB.Close(); err != nil {
		deps.Logger.Error("Database close error", "error", err)
	}
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.L()

	sqlxDB, gormDB, err := openDatabase(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	ids, err := newAllocator(config.Security, gormDB, sqlxDB, log)
	if err != nil {
		_ = sqlxDB.Close()
		return nil, err
	}

	sender, err := mail.NewSender(config.Mail, log)
	if err != nil {
		_ = sqlxDB.Close()
		return nil, fmt.Errorf("failed to initialize mail sender: %w", err)
	}

	bus := events.NewEventBus(log)
	notifier := notification.NewNotifier(sender, notification.PoolConfig{
		MaxWorkers: config.Notification.MaxWorkers,
		QueueSize:  config.Notification.QueueSize,
	}, config.Notification.AdminEmail, log)
	notifier.Register(bus)

	userRepo := userPostgres.NewRepository(gormDB)
	authService := auth.NewService(authPostgres.NewRepository(gormDB), session.NewInMemoryRegistry(), notifier, auth.Config{
		PasswordMaxAgeMonths:    config.Security.PasswordMaxAgeMonths,
		TemporaryPasswordLength: config.Security.TemporaryPasswordSize,
	}, log)
	userService := user.NewService(userRepo, bus, config.Security.TemporaryPasswordSize, log)
	requestService := request.NewService(requestPostgres.NewRepository(gormDB, ids), userRepo, bus, log)
	recurringService := recurring.NewService(recurringPostgres.NewRepository(gormDB, ids), userRepo, bus, log)

	doc, err := api.Load(context.Background())
	if err != nil {
		_ = sqlxDB.Close()
		return nil, fmt.Errorf("failed to load API document: %w", err)
	}
	validate, err := middleware.OpenAPIValidator(doc, log)
	if err != nil {
		_ = sqlxDB.Close()
		return nil, fmt.Errorf("failed to build request validator: %w", err)
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, sqlxDB, rest.Handlers{
		Auth:      auth.NewHandler(authService),
		Roles:     auth.NewRoleAuthorization(log),
		User:      user.NewHandler(userService),
		Request:   request.NewHandler(requestService),
		Recurring: recurring.NewHandler(recurringService),
	}, rest.Options{
		AllowedOrigins: config.Server.Origins(),
		Validate:       validate,
	}, log)

	return &Dependencies{
		Config:   config,
		DB:       sqlxDB,
		Gorm:     gormDB,
		Router:   router,
		Bus:      bus,
		Notifier: notifier,
		Logger:   log,
	}, nil
}

func newAllocator(cfg internal.SecurityConfig, gormDB *gorm.DB, sqlxDB *sqlx.DB, log *slog.Logger) (idalloc.Allocator, error) {
	if cfg.IDAllocation == internal.IDAllocationCounter {
		counter := idalloc.NewCounterAllocator(gormDB, sqlxDB, log)
		if err := counter.Seed(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to seed id counter: %w", err)
		}
		log.Warn("Using in-process id counter; run a single API instance")
		return counter, nil
	}
	return idalloc.NewTxAllocator(gormDB, log), nil
}

// openDatabase returns one pool shared by sqlx (health, id seeding) and gorm (repositories).
func openDatabase(cfg internal.DatabaseConfig) (*sqlx.DB, *gorm.DB, error) {
	gormConfig := &gorm.Config{TranslateError: true}

	var (
		sqlxDB *sqlx.DB
		gormDB *gorm.DB
		err    error
	)
	switch cfg.Driver {
	case internal.DatabaseDriverSQLite:
		gormDB, err = gorm.Open(sqlite.Open(cfg.GetDSN()), gormConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			return nil, nil, err
		}
		// sqlite serializes writers; one connection avoids SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
		sqlxDB = sqlx.NewDb(sqlDB, "sqlite3")
	default:
		sqlxDB, err = sqlx.Connect("pgx", cfg.GetDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
		}
		sqlxDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlxDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlxDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		sqlxDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

		gormDB, err = gorm.Open(postgres.New(postgres.Config{Conn: sqlxDB.DB}), gormConfig)
		if err != nil {
			_ = sqlxDB.Close()
			return nil, nil, fmt.Errorf("failed to open gorm: %w", err)
		}
	}

	if err := sqlxDB.Ping(); err != nil {
		_ = sqlxDB.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return sqlxDB, gormDB, nil
}
