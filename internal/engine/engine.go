package engine

import (
	"context"
	"errors"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesscore/internal/board"
)

var (
	// ErrIllegalMove reports a move that is not in the legal move list.
	ErrIllegalMove = errors.New("illegal move")
	// ErrNotOngoing reports a search or move request on a finished game.
	ErrNotOngoing = errors.New("game is not ongoing")
)

// SearchInfo contains information about a completed search.
type SearchInfo struct {
	Depth int
	Score int
	Nodes uint64
	Time  time.Duration
	Best  []board.Move
}

// SearchResult is the outcome of a fixed-depth root search.
type SearchResult struct {
	Depth  int
	Score  int          // best score for the side to move
	Best   []board.Move // every root move scoring Score, in generation order
	Scores []RootScore  // all root moves, in generation order
	Nodes  uint64
	Time   time.Duration
}

// Options configures an Engine.
type Options struct {
	Workers      int    // root moves searched concurrently; <= 0 means GOMAXPROCS
	Seed         uint64 // tie-break seed; 0 picks one from the clock
	PerftTableMB int    // size of the shared perft table; 0 disables it
}

// Engine is the chess AI engine. It holds no position state, so one Engine
// may serve many games at once.
type Engine struct {
	workers int
	perft   *PerftTable

	mu  sync.Mutex
	rng *rand.Rand

	// OnInfo, if set, is called after every completed Search.
	OnInfo func(SearchInfo)
}

// NewEngine creates a new chess engine.
func NewEngine(opts Options) *Engine {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	e := &Engine{
		workers: workers,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)),
	}
	if opts.PerftTableMB > 0 {
		e.perft = NewPerftTable(opts.PerftTableMB)
	}
	return e
}

// Search scores every root move of pos to the given depth and returns all
// moves tied for the best score. reps holds the repetition counts of the
// game so far (nil if unknown). Cancelling ctx abandons root moves not yet
// started.
func (e *Engine) Search(ctx context.Context, pos *board.Position, reps board.RepetitionMap, depth int) (SearchResult, error) {
	if depth < 1 {
		depth = 1
	}
	if pos.Outcome(reps) != board.Ongoing {
		return SearchResult{}, ErrNotOngoing
	}

	start := time.Now()
	moves := pos.LegalMoves()
	scores := make([]RootScore, len(moves))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, m := range moves {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			scores[i] = searchRoot(pos, reps, m, depth)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SearchResult{}, err
	}

	res := SearchResult{Depth: depth, Score: -Infinity, Scores: scores}
	for _, rs := range scores {
		res.Nodes += rs.Nodes
		switch {
		case rs.Score > res.Score:
			res.Score = rs.Score
			res.Best = append(res.Best[:0], rs.Move)
		case rs.Score == res.Score:
			res.Best = append(res.Best, rs.Move)
		}
	}
	res.Time = time.Since(start)

	if e.OnInfo != nil {
		e.OnInfo(SearchInfo{
			Depth: depth,
			Score: res.Score,
			Nodes: res.Nodes,
			Time:  res.Time,
			Best:  res.Best,
		})
	}
	return res, nil
}

// PickMove breaks a tie uniformly at random.
func (e *Engine) PickMove(moves []board.Move) board.Move {
	if len(moves) == 0 {
		return board.NoMove
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return moves[e.rng.IntN(len(moves))]
}

// BestMove searches pos and returns one of the best moves.
func (e *Engine) BestMove(ctx context.Context, pos *board.Position, reps board.RepetitionMap, depth int) (board.Move, error) {
	res, err := e.Search(ctx, pos, reps, depth)
	if err != nil {
		return board.NoMove, err
	}
	return e.PickMove(res.Best), nil
}

// Perft counts the leaf nodes of pos at depth, through the perft table when
// one is configured.
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	if e.perft != nil {
		return e.perft.Perft(pos, depth)
	}
	return pos.Perft(depth)
}

// ParallelDivide computes a perft divide with root moves spread over the
// engine's workers. onEntry, if set, is called once per finished root move;
// calls are serialized.
func (e *Engine) ParallelDivide(ctx context.Context, pos *board.Position, depth int, onEntry func(board.DivideEntry)) ([]board.DivideEntry, error) {
	if depth <= 0 {
		return nil, nil
	}
	moves := pos.LegalMoves()

	var mu sync.Mutex
	byText := make(map[string]board.DivideEntry, len(moves))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, m := range moves {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			child := pos.Copy()
			child.MakeMove(m)
			entry := board.DivideEntry{Move: m, Nodes: e.Perft(child, depth-1)}

			mu.Lock()
			defer mu.Unlock()
			byText[m.String()] = entry
			if onEntry != nil {
				onEntry(entry)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return board.SortDivide(byText), nil
}
