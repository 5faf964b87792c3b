package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server is a struct which contains an http server and logger
type Server struct {
	*http.Server
	logger *zap.SugaredLogger
}

// NewServer returns a server which can be started to run an http server
func NewServer(address string, routes http.Handler, logger *zap.SugaredLogger) *Server {
	srv := &http.Server{
		Addr:         address,
		Handler:      routes,
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
	}

	return &Server{
		Server: srv,
		logger: logger,
	}
}

// Start binds the listen address and serves in the background. A bind
// failure is returned directly; later serve failures are sent on errorCh.
// The returned function shuts the server down.
func (s *Server) Start(errorCh chan<- error) (func(context.Context), error) {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("ready to serve", "address", ln.Addr().String())

	go func() {
		err := s.Serve(ln)
		if !errors.Is(err, http.ErrServerClosed) {
			select {
			case errorCh <- err:
			default:
				s.logger.Warnw("http server stopped", "error", err)
			}
		}
	}()

	return func(ctx context.Context) {
		if err := s.Shutdown(ctx); err != nil {
			s.logger.Warnw("error shutting down http server", "error", err)
		}
	}, nil
}
