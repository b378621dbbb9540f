package internal

import (
	"context"
	"database/sql"
	"fmt"
	"listings-agent/internal/adapters/announcements_api"
	logger_adapter "listings-agent/internal/adapters/logger"
	"listings-agent/internal/adapters/notifier"
	rabbitmq_adapter "listings-agent/internal/adapters/rabbitmq"
	"listings-agent/internal/adapters/rest"
	sqlite_adapter "listings-agent/internal/adapters/sqlite"
	"listings-agent/internal/configs"
	"listings-agent/internal/contextkeys"
	"listings-agent/internal/core/port"
	"listings-agent/internal/core/usecase"
	fluentlogger "listings-agent/pkg/fluent_logger"
	"listings-agent/pkg/rabbitmq/rabbitmq_common"
	"listings-agent/pkg/rabbitmq/rabbitmq_producer"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config    *configs.AppConfig
	appCtx    context.Context
	cancelApp context.CancelFunc

	db        *sql.DB
	session   *announcements_api.Session
	apiServer *rest.Server
	favorites *usecase.FavoritesSync
	views     *usecase.ViewRegistry
	sse       *notifier.SSENotifier

	rabbitManager   *rabbitmq_common.ConnectionManager
	rabbitPublisher *rabbitmq_producer.Publisher
	favoriteEvents  *rabbitmq_adapter.FavoriteEventsPublisher

	fluentClient *fluent.Fluent
	logger       port.LoggerPort
	baseLogger   port.LoggerPort
}

func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	// --- 1. ИНИЦИАЛИЗАЦИЯ ЛОГГЕРОВ ---
	var activeLoggers []port.LoggerPort

	stdoutLogger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{
		Level:    logger_adapter.ParseLevel(appConfig.StdoutLogger.Level),
		IsJSON:   false,
		UseColor: true,
	})
	activeLoggers = append(activeLoggers, stdoutLogger)

	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
			Async:     true,
			Timeout:   3 * time.Second,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, logger_adapter.ParseLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	// --- 2. БАЗОВЫЙ ЛОГГЕР ПРИЛОЖЕНИЯ ---
	baseLogger := multiLogger.WithFields(port.Fields{"service_name": appConfig.AppName})

	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	appCtx, cancelApp := context.WithCancel(contextkeys.ContextWithLogger(context.Background(), baseLogger))

	application := &App{
		config:       appConfig,
		appCtx:       appCtx,
		cancelApp:    cancelApp,
		fluentClient: fluentClient,
		logger:       appLogger,
		baseLogger:   baseLogger,
	}
	if err := application.build(); err != nil {
		application.shutdown()
		return nil, err
	}
	return application, nil
}

// build собирает адаптеры и use cases. При ошибке уже созданное закрывает shutdown.
func (a *App) build() error {
	cfg := a.config

	// --- 3. СЕССИЯ И КЛИЕНТ БЭКЕНДА ---
	session := announcements_api.NewSession()
	a.session = session
	if cfg.ApiClient.Token != "" {
		if err := session.SetToken(cfg.ApiClient.Token); err != nil {
			a.logger.Warn("Configured API token is not usable, waiting for PUT /api/v1/session", port.Fields{"error": err.Error()})
		}
	}
	apiClient := announcements_api.NewClient(announcements_api.Config{
		BaseURL:           cfg.ApiClient.BaseURL,
		Timeout:           cfg.ApiClient.Timeout,
		ValidateResponses: cfg.ApiClient.ValidateResponses,
	}, session)

	// --- 4. ЛОКАЛЬНЫЕ НАСТРОЙКИ (sqlite) ---
	db, err := sqlite_adapter.OpenConnection(a.appCtx, cfg.Preferences.DBPath)
	if err != nil {
		a.logger.Error("Failed to open preferences database", err, port.Fields{"path": cfg.Preferences.DBPath})
		return fmt.Errorf("failed to open preferences database: %w", err)
	}
	a.db = db
	if err := sqlite_adapter.RunMigrations(a.appCtx, db); err != nil {
		a.logger.Error("Failed to migrate preferences database", err, nil)
		return fmt.Errorf("failed to migrate preferences database: %w", err)
	}
	preferences := sqlite_adapter.NewPreferencesRepository(db)

	languageUC := usecase.NewLanguagePreferenceUseCase(preferences, session.SetLanguage)
	if err := languageUC.Restore(a.appCtx); err != nil {
		a.logger.Error("Failed to restore language preference", err, nil)
		return fmt.Errorf("failed to restore language preference: %w", err)
	}
	a.logger.Info("Preferences restored", port.Fields{"language": session.Language()})

	// --- 5. УВЕДОМЛЕНИЯ ---
	a.sse = notifier.NewSSENotifier(a.baseLogger)
	notifiers := []port.NotifierPort{a.sse}

	if cfg.RabbitMQ.URL != "" {
		if events, err := a.connectFavoriteEvents(session); err != nil {
			// Аналитика не критична: без брокера агент продолжает работать
			a.logger.Warn("Favorite events publishing disabled", port.Fields{"error": err.Error()})
		} else {
			notifiers = append(notifiers, events)
		}
	}
	stateNotifier := notifier.NewMulti(notifiers...)

	// --- 6. USE CASES ---
	a.favorites = usecase.NewFavoritesSync(apiClient, stateNotifier)
	removeUC := usecase.NewRemoveFavoriteUseCase(a.favorites)
	toggleUC := usecase.NewToggleFavoriteUseCase(a.favorites, removeUC)
	likedUC := usecase.NewLikedListingsUseCase(a.favorites, apiClient, cfg.Favorites.LikedFetchConcurrency)
	pillsUC := usecase.NewFilterPillsUseCase(apiClient)

	a.views = usecase.NewViewRegistry(a.appCtx, apiClient, stateNotifier, usecase.FetcherConfig{
		PageSize:        cfg.Fetcher.PageSize,
		Debounce:        cfg.Fetcher.FilterDebounce,
		GenerationGuard: cfg.Fetcher.GenerationGuard,
		DedupeOnAppend:  cfg.Fetcher.DedupeOnAppend,
		Liked:           a.favorites.IsLiked,
	}, usecase.DefaultViews())
	a.logger.Info("Use cases initialized", port.Fields{"views": a.views.Names()})

	// --- 7. REST API ---
	handlers := rest.Handlers{
		Session:   rest.NewSessionHandler(session, a.favorites, languageUC),
		Favorites: rest.NewFavoritesHandler(a.favorites, toggleUC, removeUC, likedUC),
		Views:     rest.NewViewsHandler(a.views, pillsUC),
		Events:    rest.NewEventsHandler(a.sse),
	}
	a.apiServer = rest.NewServer(a.appCtx, cfg.Rest.PORT, handlers, cfg.Rest.CORSAllowedOrigins, a.baseLogger)
	a.logger.Info("REST API server configured.", nil)

	return nil
}

func (a *App) connectFavoriteEvents(session *announcements_api.Session) (*rabbitmq_adapter.FavoriteEventsPublisher, error) {
	pkgLogger := rabbitmq_adapter.NewPkgLoggerBridge(a.baseLogger.WithFields(port.Fields{"component": "rabbitmq"}))

	manager, err := rabbitmq_common.NewManager(rabbitmq_common.Config{URL: a.config.RabbitMQ.URL}, rabbitmq_common.DefaultReconnectInterval, pkgLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	a.rabbitManager = manager

	publisher, err := rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
		ExchangeName:             a.config.RabbitMQ.Exchange,
		ExchangeType:             "topic",
		DurableExchange:          true,
		DeclareExchangeIfMissing: true,
		Logger:                   pkgLogger,
	}, manager)
	if err != nil {
		return nil, fmt.Errorf("failed to create RabbitMQ publisher: %w", err)
	}
	a.rabbitPublisher = publisher

	events, err := rabbitmq_adapter.NewFavoriteEventsPublisher(publisher, rabbitmq_adapter.FavoriteEventsConfig{
		RoutingPrefix: "favorites",
		UserID:        session.UserID,
	}, a.baseLogger)
	if err != nil {
		return nil, err
	}
	a.favoriteEvents = events

	a.logger.Info("Favorite events publishing enabled", port.Fields{"exchange": a.config.RabbitMQ.Exchange})
	return events, nil
}

// Run запускает все компоненты приложения и управляет их жизненным циклом.
func (a *App) Run() error {
	defer a.shutdown()

	a.logger.Info("Application is starting...", nil)

	serverErrors := make(chan error, 1)
	go func() {
		if err := a.apiServer.Start(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	// Начальная загрузка избранного, если токен задан в конфиге
	if _, err := a.session.Token(); err == nil {
		go a.loadFavorites()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("Application running. Waiting for signals or server error...", nil)
	var runErr error
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received OS signal, shutting down...", port.Fields{"signal": receivedSignal.String()})
	case <-a.appCtx.Done():
		a.logger.Warn("Context was cancelled unexpectedly, shutting down...", nil)
	case err := <-serverErrors:
		a.logger.Error("Server failed to start, shutting down", err, nil)
		runErr = err
	}
	return runErr
}

func (a *App) loadFavorites() {
	ctx, traceID := contextkeys.EnsureTraceID(a.appCtx)
	ctx = contextkeys.ContextWithLogger(ctx, a.baseLogger.WithFields(port.Fields{"trace_id": traceID}))
	if err := a.favorites.LoadFavorites(ctx); err != nil {
		a.logger.Warn("Initial favorites load failed", port.Fields{"error": err.Error()})
	}
}

// shutdown останавливает компоненты в обратном порядке. Повторный вызов безопасен.
func (a *App) shutdown() {
	a.logger.Info("Shutdown sequence initiated...", nil)

	// Отмена контекста закрывает SSE-потоки и отложенные применения фильтров
	a.cancelApp()

	if a.apiServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.apiServer.Stop(ctx); err != nil {
			a.logger.Error("Error during API server shutdown", err, nil)
		}
		cancel()
		a.apiServer = nil
	}

	if a.views != nil {
		a.views.Close()
		a.views = nil
	}

	// Публикатор закрывается после сервера: новых событий избранного уже не будет
	if a.favoriteEvents != nil {
		a.favoriteEvents.Close()
		a.favoriteEvents = nil
	}
	if a.rabbitPublisher != nil {
		_ = a.rabbitPublisher.Close()
		a.rabbitPublisher = nil
	}
	if a.rabbitManager != nil {
		if err := a.rabbitManager.Close(); err != nil {
			a.logger.Error("Error closing RabbitMQ connection", err, nil)
		}
		a.rabbitManager = nil
	}

	if a.sse != nil {
		a.sse.Close()
		a.sse = nil
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("Error closing preferences database", err, nil)
		}
		a.db = nil
		a.logger.Info("Preferences database closed.", nil)
	}

	a.logger.Info("Application shut down gracefully.", nil)

	if a.fluentClient != nil {
		if err := a.fluentClient.Close(); err != nil {
			// fluent может быть уже недоступен, поэтому в stdout
			fmt.Printf("ERROR: Error closing fluent client: %v\n", err)
		}
		a.fluentClient = nil
	}
}
