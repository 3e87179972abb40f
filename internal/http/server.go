package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"expenses/internal/auth"
	"expenses/internal/log"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/middleware/security"
	"expenses/internal/middleware/trace"
	"expenses/internal/services"
)

// requestTimeout bounds every API handler.
const requestTimeout = 7 * time.Second

// Pinger is satisfied by the store; readiness fails when Ping does.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the API is built from.
type Deps struct {
	Ledger         *services.LedgerService
	Reconciliation *services.ReconciliationService
	Summary        *services.SummaryService
	Importer       *services.ImportService
	Store          Pinger
	Verifier       *auth.Verifier
	Logger         *log.Logger

	CORSOrigins    []string
	RateLimitRPM   int
	TrustedProxies []string
}

type Server struct {
	http.Server

	ledger    *services.LedgerService
	reconcile *services.ReconciliationService
	summary   *services.SummaryService
	importer  *services.ImportService
	store     Pinger
	logger    *log.Logger
	started   time.Time

	rateLimiter  *ratelimit.Limiter
	detector     *security.Detector
	tracer       *trace.Middleware
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		ledger:      deps.Ledger,
		reconcile:   deps.Reconciliation,
		summary:     deps.Summary,
		importer:    deps.Importer,
		store:       deps.Store,
		logger:      logger,
		started:     time.Now(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitRPM}),
		detector:    security.NewDetector(logger),
		tracer:      trace.NewMiddleware(logger),
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(deps Deps) *gin.Engine {
	r := gin.New()

	proxies := deps.TrustedProxies
	if proxies == nil {
		proxies = security.DefaultTrustedProxies
	}
	if err := r.SetTrustedProxies(proxies); err != nil {
		s.logger.Warn("Ignoring invalid trusted proxies", log.FieldError, err.Error())
	}

	r.Use(
		gin.CustomRecovery(s.recover),
		log.Middleware(s.logger),
		s.tracer.Handler(),
		log.RequestIDMiddleware(trace.GetRequestID),
		security.Headers(security.DefaultHeadersConfig()),
		s.detector.Middleware(),
		cors.New(corsConfig(deps.CORSOrigins)),
	)

	r.GET("/healthz", s.handleHealth)
	r.GET("/readyz", s.handleReady)

	api := r.Group("/api",
		s.rateLimiter.Middleware(nil),
		auth.Middleware(deps.Verifier, s.logger),
		withTimeout(requestTimeout),
	)

	api.GET("/summary", s.handleSummary)
	api.GET("/summary/periods", s.handleSummaryPeriods)

	accounts := api.Group("/accounts")
	accounts.GET("", s.handleListAccounts)
	accounts.POST("", s.handleCreateAccount)
	accounts.POST("/bulk-delete", s.handleBulkDeleteAccounts)
	accounts.GET("/:id", s.handleGetAccount)
	accounts.PATCH("/:id", s.handleUpdateAccount)
	accounts.DELETE("/:id", s.handleDeleteAccount)

	categories := api.Group("/categories")
	categories.GET("", s.handleListCategories)
	categories.POST("", s.handleCreateCategory)
	categories.POST("/bulk-delete", s.handleBulkDeleteCategories)
	categories.GET("/:id", s.handleGetCategory)
	categories.PATCH("/:id", s.handleUpdateCategory)
	categories.DELETE("/:id", s.handleDeleteCategory)

	transactions := api.Group("/transactions")
	transactions.GET("", s.handleListTransactions)
	transactions.POST("", s.handleCreateTransaction)
	transactions.POST("/bulk-create", s.handleBulkCreateTransactions)
	transactions.POST("/bulk-delete", s.handleBulkDeleteTransactions)
	transactions.POST("/import", s.handleImportTransactions)
	transactions.GET("/:id", s.handleGetTransaction)
	transactions.PATCH("/:id", s.handleUpdateTransaction)
	transactions.DELETE("/:id", s.handleDeleteTransaction)

	balances := api.Group("/account-balances")
	balances.GET("", s.handleListBalanceChecks)
	balances.POST("", s.handleCreateBalanceCheck)
	balances.GET("/latest/:accountId", s.handleLatestBalanceCheck)
	balances.GET("/expected/:accountId", s.handleExpectedBalance)
	balances.GET("/:id", s.handleGetBalanceCheck)
	balances.PATCH("/:id", s.handleUpdateBalanceCheck)
	balances.DELETE("/:id", s.handleDeleteBalanceCheck)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", trace.HeaderRequestID},
		ExposeHeaders: []string{"Content-Length", trace.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && strings.TrimSpace(origins[0]) == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func (s *Server) recover(c *gin.Context, recovered any) {
	s.logger.ErrorContext(c.Request.Context(), "Handler panicked",
		log.FieldPath, c.Request.URL.Path,
		"panic", recovered)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// withTimeout puts a deadline on the request context for the handlers below it.
func withTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Shutdown gracefully shuts down the server and stops background goroutines
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		m := s.tracer.GetMetrics()
		s.logger.Info("HTTP server shutting down",
			"total_requests", m.TotalRequests,
			"failed_requests", m.FailedRequests,
			"rate_limited", s.rateLimiter.Rejected(),
			"suspicious_requests", s.detector.GetMetrics().SuspiciousRequests)
		err = s.Server.Shutdown(ctx)
	})
	return err
}
