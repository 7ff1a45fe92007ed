// Package api serves a game board over HTTP: plain-text snapshots for look,
// flip and watch, and a WebSocket stream of board changes.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/klauspost/compress/gzhttp"

	"github.com/bkonicek/scramble/pkg/board"
	"github.com/bkonicek/scramble/pkg/log"
)

type APIServer struct {
	server *http.Server
	board  *board.Board
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Port  int
	TLS   *TLSConfig
	Board *board.Board
}

// NewAPIServer creates a new http.Server for handling game requests.
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	s := &APIServer{
		board: opts.Board,
		tls:   opts.TLS,
	}

	router := mux.NewRouter()
	gzip := func(h http.HandlerFunc) http.Handler {
		return gzhttp.GzipHandler(h)
	}
	router.Handle("/look/{player}", gzip(s.handleLook)).Methods(http.MethodGet)
	router.Handle("/flip/{player}/{row:[0-9]+},{col:[0-9]+}", gzip(s.handleFlip)).Methods(http.MethodGet)
	router.Handle("/watch/{player}", gzip(s.handleWatch)).Methods(http.MethodGet)
	// The WebSocket upgrade needs the raw connection, so no gzip wrapper.
	router.HandleFunc("/ws/{player}", s.handleWebSocket).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}
	return s
}

// Handler returns the server's root handler, for tests.
func (s *APIServer) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the APIServer.
func (s *APIServer) Start() error {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}

	if err := listenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the APIServer.
func (s *APIServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *APIServer) handleLook(w http.ResponseWriter, r *http.Request) {
	player := mux.Vars(r)["player"]
	writeSnapshot(w, s.board.Look(player))
}

func (s *APIServer) handleFlip(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	player := vars["player"]
	row, err := strconv.Atoi(vars["row"])
	if err != nil {
		http.Error(w, "invalid row", http.StatusBadRequest)
		return
	}
	col, err := strconv.Atoi(vars["col"])
	if err != nil {
		http.Error(w, "invalid column", http.StatusBadRequest)
		return
	}

	if err := s.board.Flip(r.Context(), player, row, col); err != nil {
		var noCard *board.NoCardError
		var controlled *board.ControlledError
		switch {
		case errors.As(err, &noCard), errors.As(err, &controlled):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			http.Error(w, "request cancelled", http.StatusRequestTimeout)
		default:
			log.Error("Failed to flip %s for %s: %v", vars["row"]+","+vars["col"], player, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}
	writeSnapshot(w, s.board.Look(player))
}

func (s *APIServer) handleWatch(w http.ResponseWriter, r *http.Request) {
	player := mux.Vars(r)["player"]
	snapshot, err := s.board.Watch(r.Context(), player)
	if err != nil {
		http.Error(w, "request cancelled", http.StatusRequestTimeout)
		return
	}
	writeSnapshot(w, snapshot)
}

func writeSnapshot(w http.ResponseWriter, snapshot string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(snapshot)); err != nil {
		log.Debug("Failed to write snapshot: %v", err)
	}
}
