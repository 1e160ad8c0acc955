package bootstrap

import (
	"context"
	stdhttp "net/http"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"scango/app/internal/admin"
	"scango/app/internal/auth"
	"scango/app/internal/config"
	"scango/app/internal/curator"
	"scango/app/internal/dashboard"
	"scango/app/internal/db"
	"scango/app/internal/demo"
	"scango/app/internal/feedback"
	apphttp "scango/app/internal/http"
	"scango/app/internal/tts"
	"scango/app/internal/upload"
)

type Dependencies struct {
	Config    config.Config
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
	// HTTPClient overrides the client used by the text-to-speech provider.
	HTTPClient *stdhttp.Client
}

// Stores holds the migrated repositories shared by the server and the CLI.
type Stores struct {
	Database  *gorm.DB
	Admins    *admin.GormRepository
	Demos     *demo.GormRepository
	Feedbacks *feedback.GormRepository
	Proposals *curator.GormRepository
}

// Close releases the database connection.
func (s *Stores) Close() error {
	return db.Close(s.Database)
}

type Result struct {
	Stores     *Stores
	Demos      *demo.Service
	Dashboard  *dashboard.Reporter
	HTTPServer *apphttp.Server
	Cleanup    func() error
}

// OpenStores opens the SQLite database and migrates every table.
func OpenStores(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*Stores, error) {
	conn, err := db.Open(db.Options{Path: cfg.DBPath, Logger: logger})
	if err != nil {
		return nil, eris.Wrap(err, "opening database")
	}

	closeOnError := func(wrapper error) (*Stores, error) {
		if closeErr := db.Close(conn); closeErr != nil && logger != nil {
			logger.WithError(closeErr).Error("closing database after bootstrap failure")
		}
		return nil, wrapper
	}

	migrations := []struct {
		name string
		run  func(context.Context, *gorm.DB, *logrus.Logger) error
	}{
		{"admin", admin.Migrate},
		{"demo", demo.Migrate},
		{"feedback", feedback.Migrate},
		{"curator", curator.Migrate},
	}
	for _, m := range migrations {
		if err := m.run(ctx, conn, logger); err != nil {
			return closeOnError(eris.Wrapf(err, "running %s migrations", m.name))
		}
	}

	stores := &Stores{Database: conn}
	if stores.Admins, err = admin.NewRepository(conn, logger); err != nil {
		return closeOnError(eris.Wrap(err, "creating admin repository"))
	}
	if stores.Demos, err = demo.NewRepository(conn, logger); err != nil {
		return closeOnError(eris.Wrap(err, "creating demo repository"))
	}
	if stores.Feedbacks, err = feedback.NewRepository(conn, logger); err != nil {
		return closeOnError(eris.Wrap(err, "creating feedback repository"))
	}
	if stores.Proposals, err = curator.NewRepository(conn, logger); err != nil {
		return closeOnError(eris.Wrap(err, "creating proposal repository"))
	}

	return stores, nil
}

// NewReporter builds the dashboard reporter over stores.
func NewReporter(stores *Stores) (*dashboard.Reporter, error) {
	return dashboard.NewReporter(dashboard.Sources{
		Demos:     stores.Demos,
		Feedbacks: stores.Feedbacks,
		Proposals: stores.Proposals,
		Admins:    stores.Admins,
	})
}

// NewSpeechProvider selects the text-to-speech backend named by the configuration.
func NewSpeechProvider(cfg config.TTSConfig, client *stdhttp.Client) (tts.Provider, error) {
	switch cfg.Provider {
	case "", "google":
		return tts.NewGoogleTranslateProvider(tts.GoogleOptions{Timeout: cfg.Timeout, HTTPClient: client}), nil
	case "openai":
		if client == nil {
			client = &stdhttp.Client{Timeout: cfg.Timeout}
		}
		return tts.NewOpenAIProvider(tts.OpenAIOptions{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.Model,
			Voice:      cfg.Voice,
			HTTPClient: client,
		})
	default:
		return nil, eris.Errorf("unsupported tts provider: %s", cfg.Provider)
	}
}

// NewDemoService builds the demo service with its media store and speech backend.
func NewDemoService(cfg config.Config, stores *Stores, speech *tts.Service, logger *logrus.Logger) (*demo.Service, *upload.Store, error) {
	media, err := upload.NewStore(upload.Options{Dir: cfg.UploadDir, MaxBytes: cfg.UploadMaxBytes, Logger: logger})
	if err != nil {
		return nil, nil, eris.Wrap(err, "creating upload store")
	}

	options := demo.ServiceOptions{
		Repository:    stores.Demos,
		Media:         media,
		PublicBaseURL: cfg.PublicBaseURL,
		Logger:        logger,
	}
	if speech != nil {
		options.Speech = speech
	}

	service, err := demo.NewService(options)
	if err != nil {
		return nil, nil, eris.Wrap(err, "creating demo service")
	}
	return service, media, nil
}

// Build composes the ScanGo application layers and returns the constructed components.
func Build(ctx context.Context, deps Dependencies) (Result, error) {
	cfg := deps.Config

	stores, err := OpenStores(ctx, cfg, deps.Logger)
	if err != nil {
		return Result{}, err
	}

	closeOnError := func(wrapper error) (Result, error) {
		if closeErr := stores.Close(); closeErr != nil && deps.Logger != nil {
			deps.Logger.WithError(closeErr).Error("closing database after bootstrap failure")
		}
		return Result{}, wrapper
	}

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating token issuer"))
	}

	authService, err := auth.NewService(stores.Admins, tokens, deps.Logger)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating auth service"))
	}

	bearer, err := auth.NewBearerAuthorizer(tokens, stores.Admins)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating bearer authorizer"))
	}

	provider, err := NewSpeechProvider(cfg.TTS, deps.HTTPClient)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating speech provider"))
	}

	speech, err := tts.NewService(provider, deps.Logger)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating speech service"))
	}

	demoService, media, err := NewDemoService(cfg, stores, speech, deps.Logger)
	if err != nil {
		return closeOnError(err)
	}

	feedbackService, err := feedback.NewService(stores.Feedbacks)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating feedback service"))
	}

	curatorService, err := curator.NewService(stores.Proposals)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating curator service"))
	}

	reporter, err := NewReporter(stores)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating dashboard reporter"))
	}

	httpServer, err := apphttp.NewServer(apphttp.Options{
		Auth:           authService,
		Bearer:         bearer,
		AdminKey:       auth.NewSharedSecretAuthorizer(cfg.AdminAPIKey),
		Demos:          demoService,
		Feedback:       feedbackService,
		Curator:        curatorService,
		Dashboard:      reporter,
		Speech:         speech,
		Database:       stores.Database,
		UploadDir:      media.Dir(),
		MaxUpload:      media.MaxBytes(),
		CORSOrigins:    cfg.CORSOrigins,
		TrustedProxies: cfg.TrustedProxies,
		Logger:         deps.Logger,
		SentryHub:      deps.SentryHub,
		RateLimiter: apphttp.RateLimiterSettings{
			Burst:             cfg.TTS.RateLimit.Burst,
			RequestsPerSecond: cfg.TTS.RateLimit.RequestsPerSecond,
			ClientTTL:         cfg.TTS.RateLimit.ClientTTL,
		},
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "initialising http server"))
	}

	cleanup := func() error {
		httpServer.Close()
		return stores.Close()
	}

	return Result{
		Stores:     stores,
		Demos:      demoService,
		Dashboard:  reporter,
		HTTPServer: httpServer,
		Cleanup:    cleanup,
	}, nil
}
