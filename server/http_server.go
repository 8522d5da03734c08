package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"weeromzet/utils"
)

const shutdownTimeout = 5 * time.Second

// HTTPServer serves the router until its context is cancelled.
type HTTPServer struct {
	router    *Router
	muxRouter *mux.Router
	addr      string
	logger    *utils.Logger
}

func NewHTTPServer(router *Router, muxRouter *mux.Router, port string, logger *utils.Logger) *HTTPServer {
	return &HTTPServer{
		router:    router,
		muxRouter: muxRouter,
		addr:      ":" + port,
		logger:    logger,
	}
}

// Start registers the routes and blocks until ctx is done, then shuts the
// server down gracefully.
func (s *HTTPServer) Start(ctx context.Context) error {
	s.router.RegisterRoutes()

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.muxRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[server] Listening on %s", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("[server] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: forced shutdown: %w", err)
	}
	s.logger.Info("[server] Stopped")
	return nil
}
