package twin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/arnavsurve/stepcheck/pkg/types"
)

// DefaultSeed is the size of the upstream collection.
const DefaultSeed = 100

// Server runs the posts twin over HTTP.
type Server struct {
	Addr    string
	Store   *Store
	Handler *Handler
	Logger  types.Logger
}

// NewServer seeds a store with seed posts and wires its handler.
func NewServer(addr string, seed int, ephemeral bool, logger types.Logger) *Server {
	st := NewStore(ephemeral)
	st.Seed(seed)
	return &Server{
		Addr:    addr,
		Store:   st,
		Handler: NewHandler(st, logger),
		Logger:  logger,
	}
}

// Serve listens on s.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.Addr, err)
	}
	return s.ServeListener(ctx, ln)
}

func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info().
			Str("addr", ln.Addr().String()).
			Int("posts", s.Store.Len()).
			Interface("ephemeral", s.Store.Ephemeral()).
			Msg("Starting posts twin")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serving posts twin: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.Logger.Info().Msg("Shutting down posts twin")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down posts twin: %w", err)
	}
	return nil
}
