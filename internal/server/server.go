// Package server exposes the HTTP API over the store and the comparison
// pipeline.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/procupilot/procupilot/internal/extract"
	"github.com/procupilot/procupilot/internal/recommend"
	"github.com/procupilot/procupilot/internal/scoring"
	"github.com/procupilot/procupilot/internal/store"
)

type extractor interface {
	ExtractRFP(ctx context.Context, text string) (*extract.RFPDraft, error)
}

type recommender interface {
	Recommend(ctx context.Context, rfp *store.RFP, scores []scoring.Score) recommend.Recommendation
}

type sender interface {
	Send(to, subject, body string) error
}

// Server routes API requests. Comparison runs on demand: it reads the RFP and
// its proposals, scores them, and asks the recommender for a winner.
type Server struct {
	store       *store.Store
	extractor   extractor
	recommender recommender
	sender      sender
	logger      *zap.Logger
	router      *gin.Engine
}

func New(st *store.Store, ex extractor, rec recommender, snd sender, log *zap.Logger) *Server {
	s := &Server{
		store:       st,
		extractor:   ex,
		recommender: rec,
		sender:      snd,
		logger:      log,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger(), cors.Default())

	api := router.Group("/api")
	{
		api.POST("/rfps", s.createRFP)
		api.GET("/rfps", s.listRFPs)
		api.GET("/rfps/:id", s.getRFP)
		api.POST("/rfps/:id/send", s.sendRFP)
		api.GET("/rfps/:id/proposals", s.listProposals)
		api.GET("/rfps/:id/compare", s.compareProposals)
		api.GET("/proposals/:id", s.getProposal)
		api.POST("/vendors", s.createVendor)
		api.GET("/vendors", s.listVendors)
		api.GET("/vendors/:id", s.getVendor)
		api.GET("/dashboard/summary", s.dashboardSummary)
	}

	s.router = router
	return s
}

// Router returns the handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves the API until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, listen string) error {
	srv := &http.Server{
		Addr:              listen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("api server listening", zap.String("addr", listen))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
