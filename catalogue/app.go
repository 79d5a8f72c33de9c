package catalogue

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgconn"
	"github.com/jonanatree/cardbinder/internal/middleware"
	"github.com/jonanatree/cardbinder/internal/searchcache"
	"github.com/jonanatree/cardbinder/internal/tcgio"
	"github.com/jonanatree/cardbinder/internal/web"
	"github.com/jonanatree/cardbinder/users"
	"golang.org/x/exp/slog"

	_ "github.com/lib/pq"
)

// App is the main application. It owns the HTTP server, the database
// handle and the upstream search proxy, and is responsible for starting
// and stopping them.
type App struct {
	srv    *http.Server
	db     *sql.DB
	wg     *sync.WaitGroup
	Addr   string
	logger *slog.Logger
	config *Config
}

func NewApp(logger *slog.Logger, config *Config) *App {
	logger = logger.With(slog.String("app", "catalogue"))

	if config == nil {
		config = DefaultConfig()
	}

	return &App{
		wg:     &sync.WaitGroup{},
		logger: logger,
		config: config,
	}
}

func (a *App) Start() error {
	a.logger.Info("starting app...")

	if a.config.DatabaseDSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	connCfg, err := pgconn.ParseConfig(a.config.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("parse DB_DSN: %w", err)
	}
	a.logger.Info("connecting to postgres",
		slog.String("host", connCfg.Host),
		slog.String("database", connCfg.Database),
	)

	db, err := sql.Open("postgres", a.config.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxIdleConns(5)
	db.SetMaxOpenConns(10)
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	a.db = db

	repository := NewRepository(db)

	upstream := tcgio.New(a.config.UpstreamBaseURL, a.config.UpstreamAPIKey)
	cache := searchcache.New(a.config.SearchCacheTTL, a.config.SearchCacheSize)
	searchProxy := NewSearchProxy(upstream, cache)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.NewStructuredLogger(a.logger))
	router.Use(middleware.Recoverer(a.logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	api := NewAPI(repository, searchProxy, a.logger)
	api.AppendRoutes(router)

	usersAPI := users.NewAPI(users.NewMemoryStore(), a.logger)
	usersAPI.AppendRoutes(router)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		web.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Get("/-/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := repository.Ping(ctx); err != nil {
			web.RespondError(w, http.StatusServiceUnavailable, "db not ready")
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	l, err := net.Listen("tcp", a.config.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening tcp port: %w", err)
	}

	a.Addr = l.Addr().String()

	a.srv = &http.Server{
		Handler: router,
	}

	a.wg.Add(1)
	go func() {
		a.logger.Info("http server started", slog.String("addr", a.Addr))

		if err := a.srv.Serve(l); err != nil {
			if err != http.ErrServerClosed {
				a.logger.Error("starting http server", "err", err)
			}

			a.logger.Info("http server stopped")
		}

		a.wg.Done()
	}()

	return nil
}

func (a *App) Shutdown() {
	a.logger.Info("shutting down app...")

	a.srv.Shutdown(context.Background())

	if a.db != nil {
		a.db.Close()
	}

	a.wg.Wait()

	a.logger.Info("app stopped")
}
