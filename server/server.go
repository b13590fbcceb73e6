/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package server exposes a storehub.Hub over HTTP/JSON.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/suparena/storehub"
	"github.com/suparena/storehub/internal/logger"
)

// Config configures the HTTP server.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Router       RouterOptions
}

// Server serves the hub API. Start blocks until its context is cancelled.
type Server struct {
	server   *http.Server
	listener net.Listener

	mu           sync.Mutex
	shutdownOnce sync.Once
}

// New creates a stopped server.
func New(hub *storehub.Hub, cfg Config) *Server {
	return &Server{
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewRouter(hub, cfg.Router),
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.WriteTimeout,
		},
	}
}

// Addr returns the bound address once Start is listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.server.Addr
	}
	return s.listener.Addr().String()
}

// Start listens and serves until ctx is cancelled, then shuts the HTTP
// server down gracefully within shutdownTimeout.
func (s *Server) Start(ctx context.Context, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening", logger.KeyAddr, ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("API server shutdown signal received")
		// ctx is already cancelled; use a fresh one for the grace period
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop shuts the HTTP server down. It is safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.server.Shutdown(ctx)
		if err != nil {
			logger.Error("API server shutdown error", logger.Err(err))
			return
		}
		logger.Info("API server stopped")
	})
	return err
}
