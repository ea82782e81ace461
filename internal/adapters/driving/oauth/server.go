package oauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

// Server is the local HTTP server that receives authorization callbacks.
// `serve` mounts the dashboard API on the same server.
type Server struct {
	mu       sync.Mutex
	addr     string
	mux      *http.ServeMux
	server   *http.Server
	listener net.Listener
	errChan  chan error
}

// NewServer creates a server for addr (host:port). Port 0 picks a free port.
func NewServer(addr string) *Server {
	return &Server{
		addr:    addr,
		mux:     http.NewServeMux(),
		errChan: make(chan error, 1),
	}
}

// Handle registers a handler. Call before Start.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

// Start listens and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return errors.New("server already started")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = listener
	s.addr = listener.Addr().String()

	s.server = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Popup connects block until the window resolves.
		WriteTimeout: 10 * time.Minute,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case s.errChan <- err:
			default:
			}
		}
	}()

	return nil
}

// Err reports a failure of the background serve loop.
func (s *Server) Err() <-chan error {
	return s.errChan
}

// Stop shuts down the server. Stopping a server that never started is a no-op.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	s.server = nil
	return err
}

// Addr returns the listen address, resolved after Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// URL returns the base URL of the running server.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}
