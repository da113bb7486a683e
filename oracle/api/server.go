package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/VerisLabs/hurdleRateOracle/oracle/health"
	"github.com/VerisLabs/hurdleRateOracle/oracle/log"
	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/keeper"
	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

// Backend is the oracle state the API reads from and delivers messages to.
type Backend interface {
	Query(fn func(ctx sdk.Context, k *keeper.Keeper) error) error
	Height() int64
	Deliver(msg types.Msg) (*sdk.Result, error)
}

type Options struct {
	AllowedOrigins []string
	// AdminToken, when set, is required as a bearer token on /tx.
	AdminToken string
}

// Server is the JSON query API. Owner messages are accepted on /tx and
// committed events are streamed on /ws.
type Server struct {
	app        Backend
	checker    *health.Checker
	hub        *Hub
	handler    http.Handler
	adminToken string

	mu       sync.Mutex
	listener net.Listener
}

func NewServer(app Backend, checker *health.Checker, opts Options) *Server {
	s := &Server{
		app:        app,
		checker:    checker,
		hub:        NewHub(opts.AllowedOrigins),
		adminToken: opts.AdminToken,
	}

	r := mux.NewRouter()
	r.HandleFunc("/rates", s.handleRates).Methods(http.MethodGet)
	r.HandleFunc("/rates/{token}", s.handleRate).Methods(http.MethodGet)
	r.HandleFunc("/positions", s.handlePositions).Methods(http.MethodGet)
	r.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/history/{index:[0-9]+}", s.handleSnapshot).Methods(http.MethodGet)
	r.HandleFunc("/history/at/{timestamp:[0-9]+}", s.handleSnapshotAt).Methods(http.MethodGet)
	r.HandleFunc("/pending", s.handlePending).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/tx", s.requireAdmin(s.handleTx)).Methods(http.MethodPost)
	r.HandleFunc("/ws", s.hub.ServeWS)

	c := cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	s.handler = c.Handler(r)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Hub() *Hub {
	return s.hub
}

// Addr returns the bound address once Start is listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start serves on addr until ctx is done.
func (s *Server) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("api listening on %s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
