// Package server exposes the engine over HTTP and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/config"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/record"
	"github.com/hailam/chesscore/internal/storage"
)

// Server serves the analysis API. The database is optional; without it
// perft is never cached and the game routes answer 503.
type Server struct {
	store *config.Store
	db    *storage.Storage
	perft *engine.Engine // shared so its perft table outlives a request
	mux   chi.Router
}

// New creates a server reading settings from store. db may be nil.
func New(store *config.Store, db *storage.Storage) *Server {
	cfg := store.Get()
	s := &Server{
		store: store,
		db:    db,
		perft: engine.NewEngine(engine.Options{Workers: cfg.Workers, PerftTableMB: cfg.PerftTableMB}),
	}
	s.mux = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Post("/api/position", s.handlePosition)
	r.Post("/api/bestmove", s.handleBestMove)
	r.Get("/api/perft", s.handlePerft)
	r.Get("/api/config", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.store.Get())
	})
	r.Put("/api/config", s.handleConfigUpdate)
	r.Route("/api/games", func(r chi.Router) {
		r.Get("/", s.handleGames)
		r.Get("/{id}", s.handleGame)
		r.Get("/{id}/pgn", s.handleGamePGN)
	})
	r.Get("/ws/divide", s.serveDivideWS)
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.store.Get().ListenAddr
	server := &http.Server{
		Addr:    addr,
		Handler: s,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	log.Printf("[server] listening on %s", addr)
	var runErr error
	select {
	case <-ctx.Done():
		log.Printf("[server] shutdown signal received: %v", ctx.Err())
	case err, ok := <-serverErrCh:
		if ok {
			runErr = err
			log.Printf("[server] server error: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("[server] graceful shutdown failed: %v", err)
		if closeErr := server.Close(); closeErr != nil && !errors.Is(closeErr, http.ErrServerClosed) {
			log.Printf("[server] forced close failed: %v", closeErr)
		}
	}
	return runErr
}

// positionRequest names a position as a FEN plus moves played from it.
type positionRequest struct {
	FEN   string   `json:"fen"`
	Moves []string `json:"moves"`
	Depth int      `json:"depth,omitempty"`
}

type positionResponse struct {
	FEN           string   `json:"fen"`
	SideToMove    string   `json:"side_to_move"`
	InCheck       bool     `json:"in_check"`
	Outcome       string   `json:"outcome"`
	Result        string   `json:"result"`
	LegalMoves    []string `json:"legal_moves"`
	SAN           []string `json:"san"`
	Castling      string   `json:"castling"`
	EnPassant     string   `json:"en_passant"`
	Hash          string   `json:"hash"`
	Repetitions   int      `json:"repetitions"`
	Eval          int      `json:"eval"`
	Insufficient  bool     `json:"insufficient_material"`
	FiftyMoveDraw bool     `json:"fifty_move_draw"`
}

type bestMoveResponse struct {
	Move       string   `json:"move"`
	Best       []string `json:"best"`
	Score      int      `json:"score"`
	ScoreText  string   `json:"score_text"`
	Depth      int      `json:"depth"`
	Nodes      uint64   `json:"nodes"`
	NodesHuman string   `json:"nodes_human"`
	TimeMs     int64    `json:"time_ms"`
}

type perftResponse struct {
	FEN        string `json:"fen"`
	Depth      int    `json:"depth"`
	Nodes      uint64 `json:"nodes"`
	NodesHuman string `json:"nodes_human"`
	Cached     bool   `json:"cached"`
	TimeMs     int64  `json:"time_ms"`
}

func (s *Server) engine() *engine.Engine {
	cfg := s.store.Get()
	return engine.NewEngine(engine.Options{Workers: cfg.Workers, Seed: cfg.TieBreakSeed})
}

// game replays req on a fresh game.
func (s *Server) game(req positionRequest) (*engine.Game, error) {
	fen := req.FEN
	if fen == "" {
		fen = board.StartFEN
	}
	g, err := engine.NewGameFromFEN(s.engine(), fen)
	if err != nil {
		return nil, err
	}
	for i, text := range req.Moves {
		if _, err := g.ApplyUCI(text); err != nil {
			return nil, fmt.Errorf("move %d (%s): %w", i+1, text, err)
		}
	}
	return g, nil
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	g, err := s.game(req)
	if err != nil {
		writeError(w, err)
		return
	}

	pos := g.Position()
	moves := g.LegalMoves()
	texts := make([]string, len(moves))
	san := make([]string, len(moves))
	for i, m := range moves {
		texts[i] = m.String()
		san[i] = m.ToSAN(pos)
	}
	ep := "-"
	if pos.EnPassant != board.NoSquare {
		ep = pos.EnPassant.String()
	}
	writeJSON(w, http.StatusOK, positionResponse{
		FEN:           g.FEN(),
		SideToMove:    pos.SideToMove.String(),
		InCheck:       pos.InCheck(),
		Outcome:       g.Outcome().String(),
		Result:        g.Outcome().Result(),
		LegalMoves:    texts,
		SAN:           san,
		Castling:      pos.CastlingRights.String(),
		EnPassant:     ep,
		Hash:          fmt.Sprintf("0x%016x", g.Hash()),
		Repetitions:   g.Repetitions(),
		Eval:          engine.Evaluate(pos),
		Insufficient:  pos.IsInsufficientMaterial(),
		FiftyMoveDraw: pos.IsFiftyMoveDraw(),
	})
}

func (s *Server) handleBestMove(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	depth := req.Depth
	if depth == 0 {
		depth = s.store.Get().SearchDepth
	}
	if depth < 1 || depth > config.MaxSearchDepth {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("depth must be 1..%d", config.MaxSearchDepth)})
		return
	}
	g, err := s.game(req)
	if err != nil {
		writeError(w, err)
		return
	}

	g.Engine().OnInfo = func(info engine.SearchInfo) {
		log.Printf("[server] bestmove depth=%d score=%s nodes=%s time=%v",
			info.Depth, engine.ScoreToString(info.Score), humanize.Comma(int64(info.Nodes)), info.Time.Round(time.Millisecond))
	}
	res, err := g.BestMoves(r.Context(), depth)
	if err != nil {
		writeError(w, err)
		return
	}
	best := make([]string, len(res.Best))
	for i, m := range res.Best {
		best[i] = m.String()
	}
	writeJSON(w, http.StatusOK, bestMoveResponse{
		Move:       g.Engine().PickMove(res.Best).String(),
		Best:       best,
		Score:      res.Score,
		ScoreText:  engine.ScoreToString(res.Score),
		Depth:      res.Depth,
		Nodes:      res.Nodes,
		NodesHuman: humanize.Comma(int64(res.Nodes)),
		TimeMs:     res.Time.Milliseconds(),
	})
}

func (s *Server) handlePerft(w http.ResponseWriter, r *http.Request) {
	fen := r.URL.Query().Get("fen")
	if fen == "" {
		fen = board.StartFEN
	}
	depth, err := strconv.Atoi(r.URL.Query().Get("depth"))
	if err != nil || depth < 0 || depth > config.MaxPerftDepth {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("depth must be 0..%d", config.MaxPerftDepth)})
		return
	}
	pos, err := board.ParseFEN(fen)
	if err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	var nodes uint64
	cached := false
	if s.db != nil && s.store.Get().PerftCache {
		nodes, cached, err = s.db.Perft(s.perft, pos, depth)
		if err != nil {
			writeError(w, err)
			return
		}
	} else {
		nodes = s.perft.Perft(pos, depth)
	}
	writeJSON(w, http.StatusOK, perftResponse{
		FEN:        pos.ToFEN(),
		Depth:      depth,
		Nodes:      nodes,
		NodesHuman: humanize.Comma(int64(nodes)),
		Cached:     cached,
		TimeMs:     time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleConfigUpdate(w http.ResponseWriter, r *http.Request) {
	cfg := s.store.Get()
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if err := s.store.Update(cfg); err != nil {
		writeError(w, err)
		return
	}
	log.Printf("[server] config updated: depth=%d workers=%d", cfg.SearchDepth, cfg.Workers)
	writeJSON(w, http.StatusOK, s.store.Get())
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no database"})
		return
	}
	games, err := s.db.ListGames()
	if err != nil {
		writeError(w, err)
		return
	}
	stats, err := s.db.LoadStats()
	if err != nil {
		writeError(w, err)
		return
	}
	if games == nil {
		games = []record.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": games, "stats": stats})
}

func (s *Server) loadGame(w http.ResponseWriter, r *http.Request) (record.Record, bool) {
	if s.db == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no database"})
		return record.Record{}, false
	}
	rec, err := s.db.LoadGame(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return record.Record{}, false
	}
	return rec, true
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	if rec, ok := s.loadGame(w, r); ok {
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) handleGamePGN(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadGame(w, r)
	if !ok {
		return
	}
	pgn, err := rec.PGN()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-chess-pgn")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(pgn))
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, board.ErrInvalidFEN),
		errors.Is(err, board.ErrInvalidMove),
		errors.Is(err, config.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrIllegalMove):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrNotOngoing):
		return http.StatusConflict
	case errors.Is(err, storage.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[server] %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func mustMarshal(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
