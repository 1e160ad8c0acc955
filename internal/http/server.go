package http

import (
	stdhttp "net/http"
	"net/netip"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"scango/app/internal/auth"
	"scango/app/internal/curator"
	"scango/app/internal/dashboard"
	"scango/app/internal/demo"
	"scango/app/internal/feedback"
	"scango/app/internal/tts"
)

// Options configures the HTTP server wiring.
type Options struct {
	Auth        *auth.Service
	Bearer      auth.Authorizer
	AdminKey    auth.Authorizer
	Demos       *demo.Service
	Feedback    *feedback.Service
	Curator     *curator.Service
	Dashboard   *dashboard.Reporter
	Speech      *tts.Service
	Database    *gorm.DB
	UploadDir   string
	MaxUpload   int64
	CORSOrigins []string
	// TrustedProxies lists the CIDR ranges or addresses whose forwarding
	// headers identify the client. Empty means every peer is the client.
	TrustedProxies []string
	Logger         *logrus.Logger
	SentryHub      *sentry.Hub
	RateLimiter    RateLimiterSettings
}

// RateLimiterSettings configures the TTS route rate limiter.
type RateLimiterSettings struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

// Server wires the HTTP transport layer via Huma.
type Server struct {
	api         huma.API
	mux         *stdhttp.ServeMux
	handler     stdhttp.Handler
	auth        *auth.Service
	bearer      auth.Authorizer
	adminKey    auth.Authorizer
	demos       *demo.Service
	feedback    *feedback.Service
	curator     *curator.Service
	dashboard   *dashboard.Reporter
	speech      *tts.Service
	logger      *logrus.Logger
	sentry      *sentry.Hub
	db          *gorm.DB
	uploadDir   string
	maxUpload   int64
	rateLimiter *RateLimiter
	// forwarding headers are honoured only from these peers
	trustedProxies []netip.Prefix
}

// NewServer constructs the HTTP server.
func NewServer(opts Options) (*Server, error) {
	switch {
	case opts.Auth == nil:
		return nil, eris.New("auth service is required")
	case opts.Bearer == nil:
		return nil, eris.New("bearer authorizer is required")
	case opts.AdminKey == nil:
		return nil, eris.New("admin key authorizer is required")
	case opts.Demos == nil:
		return nil, eris.New("demo service is required")
	case opts.Feedback == nil:
		return nil, eris.New("feedback service is required")
	case opts.Curator == nil:
		return nil, eris.New("curator service is required")
	case opts.Dashboard == nil:
		return nil, eris.New("dashboard reporter is required")
	case opts.Speech == nil:
		return nil, eris.New("speech service is required")
	case opts.Database == nil:
		return nil, eris.New("database is required")
	case opts.UploadDir == "":
		return nil, eris.New("upload directory is required")
	}

	settings := opts.RateLimiter
	if settings.Burst <= 0 {
		return nil, eris.New("rate limiter burst must be greater than zero")
	}
	if settings.RequestsPerSecond <= 0 {
		return nil, eris.New("rate limiter requests per second must be greater than zero")
	}
	if settings.ClientTTL <= 0 {
		return nil, eris.New("rate limiter client TTL must be greater than zero")
	}

	trustedProxies, err := parseTrustedProxies(opts.TrustedProxies)
	if err != nil {
		return nil, err
	}

	useErrorEnvelope()

	mux := stdhttp.NewServeMux()
	config := huma.DefaultConfig("ScanGo", "1.0.0")
	// No "$schema" links in response bodies.
	config.CreateHooks = nil
	api := humago.New(mux, config)

	srv := &Server{
		api:         api,
		mux:         mux,
		auth:        opts.Auth,
		bearer:      opts.Bearer,
		adminKey:    opts.AdminKey,
		demos:       opts.Demos,
		feedback:    opts.Feedback,
		curator:     opts.Curator,
		dashboard:   opts.Dashboard,
		speech:      opts.Speech,
		logger:      opts.Logger,
		sentry:      opts.SentryHub,
		db:          opts.Database,
		uploadDir:   opts.UploadDir,
		maxUpload:   opts.MaxUpload,
		rateLimiter: NewRateLimiter(settings.Burst, settings.RequestsPerSecond, settings.ClientTTL),

		trustedProxies: trustedProxies,
	}

	srv.registerMiddlewares()
	srv.registerRoutes()
	srv.handler = corsMiddleware(opts.CORSOrigins, mux)

	return srv, nil
}

// Handler exposes the underlying HTTP handler for wiring into the application.
func (s *Server) Handler() stdhttp.Handler {
	return s.handler
}

// API exposes the underlying Huma API instance.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) registerMiddlewares() {
	s.api.UseMiddleware(
		s.sentryMiddleware(),
		s.recoveryMiddleware(),
		s.requestIDMiddleware(),
		s.loggingMiddleware(),
	)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("GET /uploads/", uploadsHandler(s.uploadDir))

	s.registerAuthRoutes()
	s.registerDemoRoutes()
	s.registerFeedbackRoutes()
	s.registerCuratorRoutes()
	s.registerDashboardRoutes()
	s.registerMediaRoutes()
	s.registerPreviewRoute()
	s.registerHealthRoute()
}

func (s *Server) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	s.handler.ServeHTTP(w, r)
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Close()
	}
}
