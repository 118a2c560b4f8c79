// Package server implements the listener state machine (component N,
// spec.md §4.11, §5): it owns the HTTP and optional HTTPS listeners and
// drives graceful shutdown. It does not hold the config handle; the
// handlers it dispatches to do. Grounded in
// caddyhttp/httpserver/server.go's Listen/Serve/Stop trio, reworked around
// net/http's built-in graceful Shutdown instead of the teacher's
// hand-rolled listener wrapping (which exists there to support Caddy's
// zero-downtime binary upgrades, a feature outside this spec's scope).
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/aosasona/chimney/chimneyerr"
	"go.uber.org/zap"
)

// State is the listener lifecycle named in spec.md §4.11.
type State int

const (
	StateIdle State = iota
	StateListening
	StateDraining
	StateClosed
)

// drainTimeout is the maximum time Shutdown waits for in-flight requests
// to complete before giving up (spec.md §4.11, §7).
const drainTimeout = 15 * time.Second

// minAllowedPort is the highest reserved port: Chimney refuses to bind to
// it or to any port below it without explicit operator intent
// (spec.md §4.11).
const minAllowedPort = 1024

// Server is the top-level listener owner. One Server runs the HTTP
// listener and, if TLS is enabled, the HTTPS listener, each independently
// accepting connections. The HTTP listener dispatches to Handler; the HTTPS
// listener dispatches to TLSHandler, or to Handler when TLSHandler is nil.
type Server struct {
	Host    net.IP
	Port    uint16
	Handler http.Handler

	HTTPSPort   uint16
	TLSConfig   *tls.Config
	TLSHandler  http.Handler // defaults to Handler if nil

	Logger *zap.Logger

	mu    sync.Mutex
	state State

	httpSrv  *http.Server
	httpsSrv *http.Server
}

// State reports the server's current lifecycle state.
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Server) setState(v State) {
	s.mu.Lock()
	s.state = v
	s.mu.Unlock()
}

// validatePort refuses ports at or below minAllowedPort, per spec.md
// §4.11 and §8's reserved-port-refusal scenario.
func validatePort(port uint16) error {
	if port == 0 || port <= minAllowedPort {
		return chimneyerr.New(chimneyerr.KindServer, "validatePort", chimneyerr.ErrInvalidPortRange)
	}
	return nil
}

// Run binds the configured listeners and serves until ctx is cancelled,
// then drains in-flight connections for up to 15 seconds. It returns
// ErrTimeoutWaitingForConns if the drain deadline is exceeded; the process
// has still exited cleanly in that case (spec.md §4.11, §7).
func (s *Server) Run(ctx context.Context) error {
	if err := validatePort(s.Port); err != nil {
		return err
	}

	s.httpSrv = &http.Server{
		Addr:    net.JoinHostPort(s.Host.String(), fmt.Sprint(s.Port)),
		Handler: s.Handler,
	}

	httpLn, err := net.Listen("tcp", s.httpSrv.Addr)
	if err != nil {
		return chimneyerr.New(chimneyerr.KindServer, "Server.Run", chimneyerr.ErrBindFailure)
	}

	var httpsLn net.Listener
	if s.TLSConfig != nil {
		if err := validatePort(s.HTTPSPort); err != nil {
			httpLn.Close()
			return err
		}
		handler := s.TLSHandler
		if handler == nil {
			handler = s.Handler
		}
		s.httpsSrv = &http.Server{
			Addr:      net.JoinHostPort(s.Host.String(), fmt.Sprint(s.HTTPSPort)),
			Handler:   handler,
			TLSConfig: s.TLSConfig,
		}
		httpsLn, err = tls.Listen("tcp", s.httpsSrv.Addr, s.TLSConfig)
		if err != nil {
			httpLn.Close()
			return chimneyerr.New(chimneyerr.KindServer, "Server.Run", chimneyerr.ErrBindFailure)
		}
	}

	s.setState(StateListening)

	errCh := make(chan error, 2)
	go func() { errCh <- s.httpSrv.Serve(httpLn) }()
	if s.httpsSrv != nil {
		go func() { errCh <- s.httpsSrv.Serve(httpsLn) }()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			if s.Logger != nil {
				s.Logger.Error("listener accept failure", zap.Error(err))
			}
		}
	}

	return s.drain()
}

// drain stops accepting new connections immediately and waits up to
// drainTimeout for in-flight requests to finish.
func (s *Server) drain() error {
	s.setState(StateDraining)
	defer s.setState(StateClosed)

	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	var wg sync.WaitGroup
	var httpErr, httpsErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		httpErr = s.httpSrv.Shutdown(ctx)
	}()
	if s.httpsSrv != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			httpsErr = s.httpsSrv.Shutdown(ctx)
		}()
	}
	wg.Wait()

	if errors.Is(httpErr, context.DeadlineExceeded) || errors.Is(httpsErr, context.DeadlineExceeded) {
		return chimneyerr.New(chimneyerr.KindServer, "Server.drain", chimneyerr.ErrTimeoutWaitingForConns)
	}
	return nil
}
