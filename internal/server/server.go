package server

import (
	"context"
	"encoding/pem"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

// Options configures a standalone listener.
type Options struct {
	Addr  string
	Label string
	// CertFile and KeyFile enable TLS with a certificate on disk.
	CertFile string
	KeyFile  string
	// SelfSigned enables TLS with a generated certificate when no files are set.
	SelfSigned bool
	// CACertOut receives the PEM of the generated certificate, so agents can pin it.
	CACertOut string
}

func (o Options) validate() error {
	if (o.CertFile == "") != (o.KeyFile == "") {
		return errors.New("tls cert and key must be set together")
	}
	if o.CACertOut != "" && !o.SelfSigned {
		return errors.New("cacert output requires a self-signed certificate")
	}
	return nil
}

func (o Options) label() string {
	if o.Label == "" {
		return "http"
	}
	return o.Label
}

// Serve listens on opts.Addr and serves handler until ctx is done.
func Serve(ctx context.Context, logger zerolog.Logger, handler http.Handler, opts Options) error {
	if err := opts.validate(); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", opts.Addr, err)
	}
	return ServeListener(ctx, logger, ln, handler, opts)
}

// ServeListener serves handler on ln until ctx is done, then shuts down
// gracefully. ln is closed on return.
func ServeListener(ctx context.Context, logger zerolog.Logger, ln net.Listener, handler http.Handler, opts Options) error {
	if err := opts.validate(); err != nil {
		_ = ln.Close()
		return err
	}
	logger = logger.With().Str("server", opts.label()).Str("addr", ln.Addr().String()).Logger()

	if opts.SelfSigned && opts.CertFile == "" {
		return serveSelfSigned(ctx, logger, ln, handler, opts)
	}

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Bool("tls", opts.CertFile != "").Msg("http server starting")
		if opts.CertFile != "" {
			errCh <- server.ServeTLS(ln, opts.CertFile, opts.KeyFile)
			return
		}
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s server: %w", opts.label(), err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown failed")
		return fmt.Errorf("%s server shutdown: %w", opts.label(), err)
	}
	<-errCh
	logger.Info().Msg("http server stopped")
	return nil
}

func serveSelfSigned(ctx context.Context, logger zerolog.Logger, ln net.Listener, handler http.Handler, opts Options) error {
	server := httptest.NewUnstartedServer(handler)
	server.Listener.Close()
	server.Listener = ln
	server.StartTLS()
	defer server.Close()

	if opts.CACertOut != "" {
		data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: server.Certificate().Raw})
		tmp := opts.CACertOut + ".tmp"
		if err := os.WriteFile(tmp, data, 0o600); err != nil {
			return fmt.Errorf("write cacert: %w", err)
		}
		if err := os.Rename(tmp, opts.CACertOut); err != nil {
			return fmt.Errorf("write cacert: %w", err)
		}
	}
	logger.Info().Bool("tls", true).Str("url", server.URL).Msg("http server starting")

	<-ctx.Done()
	logger.Info().Msg("http server stopped")
	return nil
}
