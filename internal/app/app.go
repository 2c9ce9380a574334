package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ticketdash/internal/charts"
	"ticketdash/internal/config"
	apierrors "ticketdash/internal/errors"
	"ticketdash/internal/infrastructure"
	customMiddleware "ticketdash/internal/middleware"
	"ticketdash/internal/services"
	"ticketdash/internal/store"
	handlers "ticketdash/internal/transport/http"
	"ticketdash/internal/validation"
	ws "ticketdash/internal/websocket"
	"ticketdash/pkg/contracts"
)

// Application holds all application dependencies
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.DashboardMetrics
	WebFS         fs.FS

	Store     store.Store
	Dashboard *services.DashboardService
	Health    *services.HealthService
	Hub       *ws.Hub

	errorHandler *apierrors.ErrorHandler
	stopJanitor  context.CancelFunc
}

// Options configures New. Logger defaults to the global logger.
type Options struct {
	Config *config.Config
	Logger *slog.Logger
	WebFS  fs.FS
}

// NewApplication loads configuration, initializes the global logger and
// builds the application around webFS.
func NewApplication(webFS fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(Options{Config: cfg, Logger: logger, WebFS: webFS})
}

// New wires every component from an already loaded configuration.
func New(opts Options) (*Application, error) {
	if opts.Config == nil {
		return nil, errors.New("app: config is required")
	}
	if opts.WebFS == nil {
		return nil, errors.New("app: web assets are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	app := &Application{
		Config: opts.Config,
		Logger: logger,
		WebFS:  opts.WebFS,
	}

	if err := app.initializeServices(); err != nil {
		return nil, err
	}

	if err := app.setupRouter(); err != nil {
		return nil, err
	}

	app.createServer()

	return app, nil
}

// initializeServices initializes all services
func (a *Application) initializeServices() error {
	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(a.Config.Observability), a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	a.OTelProviders = providers

	metrics, err := infrastructure.CreateDashboardMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create dashboard metrics: %w", err)
	}
	a.Metrics = metrics

	st, err := store.New(a.Config.Store, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create dataset store: %w", err)
	}
	if mem, ok := st.(*store.MemoryStore); ok {
		mem.OnExpire = func(n int) {
			metrics.ActiveDatasets.Add(context.Background(), int64(-n))
		}
	}
	a.Store = st

	a.Dashboard = services.NewDashboardService(services.DashboardDeps{
		Store:       st,
		Validator:   validation.NewFileValidator(a.Config.Upload, a.Logger),
		Charts:      charts.NewRenderer(charts.Options{}, a.Logger),
		Metrics:     metrics,
		Tracer:      providers.Tracer,
		Logger:      a.Logger,
		PreviewRows: a.Config.Dashboard.PreviewRows,
	})

	a.Hub = ws.NewHub(ws.HubDeps{
		Config:      a.Config.WebSocket,
		Reporter:    a.Dashboard,
		Validator:   customMiddleware.NewValidator(a.Logger),
		Metrics:     metrics,
		Logger:      a.Logger,
		CheckOrigin: a.checkOrigin,
	})

	a.Health = services.NewHealthService(config.AppVersion, st, a.Hub, a.Logger)
	a.errorHandler = apierrors.NewErrorHandler(a.Logger, false)

	a.Logger.Info("Services initialized",
		slog.String("store", a.Config.Store.Backend),
		slog.Duration("dataset_ttl", a.Config.Store.TTL),
		slog.Bool("metrics_enabled", a.Config.Observability.EnableMetrics))

	return nil
}

// setupRouter configures the HTTP router
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	// Only middleware that leaves the ResponseWriter unwrapped runs before
	// the live route, so the upgrade can hijack the connection.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	live := handlers.NewLiveHandler(a.Dashboard, a.Hub, a.errorHandler, a.Logger)
	r.Get("/ws/datasets/{id}", live.ServeHTTP)

	pages, err := handlers.NewPageHandler(a.Dashboard, a.WebFS, a.errorHandler, a.Logger, a.Config.Upload.MaxBytes)
	if err != nil {
		return err
	}

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(apierrors.RecoveryMiddleware(a.errorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
		a.setupHTMLRoutes(r, pages)
		a.setupStaticRoutes(r)
	})

	// Prometheus scrape endpoint stays outside the middleware group
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
	return nil
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	validator := customMiddleware.NewValidator(a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

		handlers.NewHealthHandler(a.Health, a.Logger).Register(r)

		dashboard := handlers.NewDashboardHandler(a.Dashboard, validator, a.errorHandler, a.Logger, a.Config.Upload.MaxBytes)
		r.Mount("/datasets", dashboard.Routes())

		clientLogs := handlers.NewClientLogHandler(validator, a.errorHandler, a.Logger)
		r.Post("/logs", clientLogs.Handle)
	})
}

// setupHTMLRoutes serves the server-rendered dashboard pages.
func (a *Application) setupHTMLRoutes(r chi.Router, pages *handlers.PageHandler) {
	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))
		r.Get("/", pages.Index)
		r.Post("/upload", pages.Upload)
		r.Get("/dashboard/{id}", pages.Dashboard)
	})
}

// setupStaticRoutes serves the embedded script and stylesheet.
func (a *Application) setupStaticRoutes(r chi.Router) {
	static := http.FileServer(http.FS(a.WebFS))
	r.With(middleware.Compress(5), cacheControl("public, max-age=3600")).
		Handle("/static/*", static)
}

func cacheControl(value string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", value)
			next.ServeHTTP(w, r)
		})
	}
}

// getCORSConfig builds the CORS policy from the security section.
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	origins := []string{
		fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
		fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port),
	}
	for _, o := range a.Config.Security.AllowedOrigins {
		if o != "" && !slices.Contains(origins, o) {
			origins = append(origins, o)
		}
	}

	return customMiddleware.CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
		Logger:           a.Logger,
	}
}

// checkOrigin accepts same-host pages, non-browser clients and the
// configured origins for live sessions.
func (a *Application) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	return slices.Contains(a.getCORSConfig().AllowedOrigins, origin)
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// preloadDefault loads the configured default data file into the
// "default" dataset. A missing file is not an error.
func (a *Application) preloadDefault(ctx context.Context) {
	path := a.Config.Dashboard.DefaultDataFile
	if path == "" {
		return
	}

	resp, err := a.Dashboard.LoadDefault(ctx, path)
	switch {
	case errors.Is(err, services.ErrNoDefaultData):
		a.Logger.InfoContext(ctx, "No default data file, waiting for uploads", slog.String("path", path))
	case err != nil:
		a.Logger.WarnContext(ctx, "Default data file could not be loaded",
			slog.String("path", path),
			slog.String("error", err.Error()))
	default:
		a.Logger.InfoContext(ctx, "Default dataset loaded",
			slog.String("path", path),
			slog.Int("rows", resp.Dataset.Rows))
	}
}

// Start loads the default dataset, starts the janitor and serves HTTP in
// the background. A listener failure calls cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", contracts.GetFullVersionString()),
		slog.String("addr", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	a.preloadDefault(ctx)

	if mem, ok := a.Store.(*store.MemoryStore); ok {
		janitorCtx, stop := context.WithCancel(context.Background())
		a.stopJanitor = stop
		mem.StartJanitor(janitorCtx, a.Config.Store.CleanupInterval)
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	return nil
}

// Stop shuts the server down, closes live sessions and releases the store.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	if err := a.Hub.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Live sessions did not close in time", slog.String("error", err.Error()))
	}

	if a.stopJanitor != nil {
		a.stopJanitor()
	}

	if err := a.Store.Close(); err != nil {
		a.Logger.ErrorContext(ctx, "Error closing dataset store", slog.String("error", err.Error()))
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run starts the application and blocks until SIGINT, SIGTERM or a
// listener failure, then shuts down gracefully.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout+5*time.Second)
	defer stopCancel()
	return a.Stop(stopCtx)
}
