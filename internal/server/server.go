// File: internal/server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Listen binds a TCP listener on every interface at port. The port is
// handed to the network layer as is.
func Listen(port string) (net.Listener, error) {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return nil, fmt.Errorf("could not listen on %s: %w", port, err)
	}
	return lis, nil
}

// Run binds port and serves handler until ctx is done.
func Run(ctx context.Context, port string, handler http.Handler, log zerolog.Logger) error {
	lis, err := Listen(port)
	if err != nil {
		return err
	}
	return Serve(ctx, lis, handler, log)
}

// Serve accepts HTTP/1.1 and cleartext HTTP/2 on lis. When ctx is done the
// server is shut down, waiting up to five seconds for in-flight requests.
// Serve owns lis and closes it before returning.
func Serve(ctx context.Context, lis net.Listener, handler http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}

	log.Info().Msgf("App running on http://localhost:%s", portOf(lis))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info().Msg("Server gracefully stopped")
	return nil
}

func portOf(lis net.Listener) string {
	if addr, ok := lis.Addr().(*net.TCPAddr); ok {
		return strconv.Itoa(addr.Port)
	}
	_, port, err := net.SplitHostPort(lis.Addr().String())
	if err != nil {
		return lis.Addr().String()
	}
	return port
}
