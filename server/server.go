package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"tictactoe/agent"
	"tictactoe/config"
	"tictactoe/store"
)

// Server wires the agent to its HTTP surface: the move and learn
// endpoints, the table and stats views, and a websocket feed of training
// progress. It also owns the background flusher that persists the value
// table.
type Server struct {
	agent *agent.Agent
	store store.Store
	cfg   config.Config
	hub   *Hub
	flush chan struct{}
}

func New(a *agent.Agent, st store.Store, cfg config.Config) *Server {
	return &Server{
		agent: a,
		store: st,
		cfg:   cfg,
		hub:   NewHub(),
		flush: make(chan struct{}, 1),
	}
}

// Routes builds the HTTP handler tree.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/get_move", s.handleGetMove)
	mux.HandleFunc("/learn", s.handleLearn)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWS)
	return logRequests(mux)
}

// Run serves until ctx is canceled, then shuts down cleanly and flushes
// whatever the table still holds.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.hub.Run(ctx.Done())
		return nil
	})

	g.Go(func() error {
		s.flusher(ctx)
		return nil
	})

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("agent listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	// In-flight learns may have landed after the flusher stopped.
	s.doFlush(context.Background())
	return err
}

// requestFlush queues a persistence pass without blocking the request.
func (s *Server) requestFlush() {
	select {
	case s.flush <- struct{}{}:
	default:
	}
}

// flusher persists the table after each learn batch, and on a timer as a
// safety net. A failed save leaves the table dirty for the next trigger.
func (s *Server) flusher(ctx context.Context) {
	var tick <-chan time.Time
	if interval := s.cfg.Store.FlushInterval; interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.flush:
			s.doFlush(ctx)
		case <-tick:
			s.doFlush(ctx)
		}
	}
}

func (s *Server) doFlush(ctx context.Context) {
	snap, ok := s.agent.Table().TakeDirty()
	if !ok {
		return
	}
	err := retry.Do(
		func() error {
			return s.store.Save(ctx, snap)
		},
		retry.Attempts(3),
		retry.Context(ctx),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Err(err).Uint("n", n).Msg("state save failed, backing off")
			return retry.BackOffDelay(n, err, config)
		}),
	)
	if err != nil {
		s.agent.Table().MarkDirty()
		log.Error().Err(err).Msg("giving up on state save until the next trigger")
		return
	}
	log.Debug().Int("positions", len(snap)).Msg("state saved")
}
