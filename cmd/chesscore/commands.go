package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/exp/slices"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/config"
	"github.com/hailam/chesscore/internal/crosscheck"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/record"
	"github.com/hailam/chesscore/internal/server"
	"github.com/hailam/chesscore/internal/storage"
)

var errMismatch = errors.New("move generators disagree")

func (e *env) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usageError{msg: err.Error()}
	}
	if fs.NArg() > 0 {
		return usagef("unexpected arguments %v", fs.Args())
	}
	return nil
}

func (e *env) engine(perftTable bool) *engine.Engine {
	opts := engine.Options{Workers: e.cfg.Workers, Seed: e.cfg.TieBreakSeed}
	if perftTable {
		opts.PerftTableMB = e.cfg.PerftTableMB
	}
	return engine.NewEngine(opts)
}

// printInfo reports each finished search on w.
func printInfo(w io.Writer) func(engine.SearchInfo) {
	return func(info engine.SearchInfo) {
		fmt.Fprintf(w, "info depth %d score %s nodes %s time %v ties %d\n",
			info.Depth, engine.ScoreToString(info.Score), humanize.Comma(int64(info.Nodes)),
			info.Time.Round(time.Millisecond), len(info.Best))
	}
}

func checkDepth(depth, lo, hi int) error {
	if depth < lo || depth > hi {
		return usagef("depth %d not in %d..%d", depth, lo, hi)
	}
	return nil
}

func nps(nodes uint64, d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return humanize.SIWithDigits(float64(nodes)/d.Seconds(), 2, "nps")
}

func runPerft(e *env, args []string) error {
	fs := e.flags("perft")
	fen := fs.String("fen", board.StartFEN, "position")
	depth := fs.Int("depth", 5, "depth")
	cache := fs.Bool("cache", false, "use the perft cache in the data directory")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := checkDepth(*depth, 0, config.MaxPerftDepth); err != nil {
		return err
	}
	pos, err := board.ParseFEN(*fen)
	if err != nil {
		return err
	}

	eng := e.engine(true)
	start := time.Now()
	var nodes uint64
	cached := false
	if *cache {
		db, err := storage.Open(e.cfg.DataDir)
		if err != nil {
			return err
		}
		defer db.Close()
		if nodes, cached, err = db.Perft(eng, pos, *depth); err != nil {
			return err
		}
	} else {
		nodes = eng.Perft(pos, *depth)
	}
	elapsed := time.Since(start)

	fmt.Fprintln(e.stdout, nodes)
	src := "computed"
	if cached {
		src = "cached"
	}
	fmt.Fprintf(e.stderr, "perft(%d) %s nodes, %s in %v, %s\n",
		*depth, humanize.Comma(int64(nodes)), src, elapsed.Round(time.Millisecond), nps(nodes, elapsed))
	return nil
}

func runDivide(e *env, args []string) error {
	fs := e.flags("divide")
	fen := fs.String("fen", board.StartFEN, "position")
	depth := fs.Int("depth", 4, "depth")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := checkDepth(*depth, 1, config.MaxPerftDepth); err != nil {
		return err
	}
	pos, err := board.ParseFEN(*fen)
	if err != nil {
		return err
	}

	start := time.Now()
	entries, err := e.engine(true).ParallelDivide(context.Background(), pos, *depth, nil)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	for _, entry := range entries {
		fmt.Fprintf(e.stdout, "%s: %d\n", entry.Move, entry.Nodes)
	}
	total := board.DivideTotal(entries)
	fmt.Fprintf(e.stdout, "\nNodes searched: %d\n", total)
	fmt.Fprintf(e.stderr, "%d moves, %s nodes in %v, %s\n",
		len(entries), humanize.Comma(int64(total)), elapsed.Round(time.Millisecond), nps(total, elapsed))
	return nil
}

func runMoves(e *env, args []string) error {
	fs := e.flags("moves")
	fen := fs.String("fen", board.StartFEN, "position")
	san := fs.Bool("san", false, "print SAN next to coordinate notation")
	if err := parse(fs, args); err != nil {
		return err
	}
	pos, err := board.ParseFEN(*fen)
	if err != nil {
		return err
	}

	moves := pos.LegalMoves()
	lines := make([]string, len(moves))
	for i, m := range moves {
		lines[i] = m.String()
		if *san {
			lines[i] += " " + m.ToSAN(pos)
		}
	}
	slices.Sort(lines)
	for _, line := range lines {
		fmt.Fprintln(e.stdout, line)
	}
	fmt.Fprintf(e.stderr, "%d legal moves, %s\n", len(moves), pos.Outcome(nil))
	return nil
}

// newGame builds a game from a FEN and space-separated move text.
func (e *env) newGame(fen, moves string) (*engine.Game, error) {
	g, err := engine.NewGameFromFEN(e.engine(false), fen)
	if err != nil {
		return nil, err
	}
	for _, text := range strings.Fields(moves) {
		if _, err := g.ApplyUCI(text); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func runBestMove(e *env, args []string) error {
	fs := e.flags("bestmove")
	fen := fs.String("fen", board.StartFEN, "position")
	moves := fs.String("moves", "", "moves played from the position, space separated")
	depth := fs.Int("depth", e.cfg.SearchDepth, "search depth")
	all := fs.Bool("all", false, "print every tied move")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := checkDepth(*depth, 1, config.MaxSearchDepth); err != nil {
		return err
	}
	g, err := e.newGame(*fen, *moves)
	if err != nil {
		return err
	}

	g.Engine().OnInfo = printInfo(e.stderr)
	res, err := g.BestMoves(context.Background(), *depth)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "bestmove %s\n", g.Engine().PickMove(res.Best))
	if *all {
		for _, m := range res.Best {
			fmt.Fprintf(e.stdout, "tie %s\n", m)
		}
	}
	return nil
}

func runVerify(e *env, args []string) error {
	fs := e.flags("verify")
	fen := fs.String("fen", board.StartFEN, "position")
	depth := fs.Int("depth", 3, "depth")
	limit := fs.Int("limit", 10, "stop after this many mismatches")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := checkDepth(*depth, 1, config.MaxPerftDepth); err != nil {
		return err
	}
	pos, err := board.ParseFEN(*fen)
	if err != nil {
		return err
	}

	mismatches := crosscheck.Compare(pos, *depth, *limit)
	for _, m := range mismatches {
		fmt.Fprintln(e.stdout, m)
	}
	if len(mismatches) > 0 {
		return fmt.Errorf("%w: %d positions", errMismatch, len(mismatches))
	}

	ours, ref := pos.Perft(*depth), crosscheck.Perft(pos.ToFEN(), *depth)
	if ours != ref {
		return fmt.Errorf("%w: perft(%d) %d vs %d", errMismatch, *depth, ours, ref)
	}
	fmt.Fprintf(e.stdout, "ok perft(%d) = %d\n", *depth, ours)
	return nil
}

func runSelfPlay(e *env, args []string) error {
	fs := e.flags("selfplay")
	fen := fs.String("fen", board.StartFEN, "starting position")
	depth := fs.Int("depth", e.cfg.SearchDepth, "search depth")
	plies := fs.Int("plies", e.cfg.MaxSelfPlayPlies, "ply cap (0 for none)")
	save := fs.Bool("save", false, "store the game in the data directory")
	pgn := fs.Bool("pgn", false, "print the game as PGN")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := checkDepth(*depth, 1, config.MaxSearchDepth); err != nil {
		return err
	}
	if *plies < 0 {
		return usagef("plies %d is negative", *plies)
	}
	g, err := e.newGame(*fen, "")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g.Engine().OnInfo = printInfo(e.stderr)

	res, err := g.Engine().SelfPlay(ctx, g, *depth, *plies, func(ply int, m board.Move) {
		fmt.Fprintf(e.stderr, "%d. %s\n", ply, m)
	})
	if err != nil {
		return err
	}

	rec := record.FromGame(time.Now().UTC().Format("20060102T150405.000000000"), g, *depth, res.Termination)
	fmt.Fprintf(e.stdout, "%s %s after %d plies\n", rec.Result, res.Termination, res.Plies)

	if *pgn {
		text, err := rec.PGN()
		if err != nil {
			return err
		}
		fmt.Fprintln(e.stdout, text)
	}
	if *save {
		db, err := storage.Open(e.cfg.DataDir)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.SaveGame(rec); err != nil {
			return err
		}
		fmt.Fprintf(e.stderr, "saved game %s\n", rec.ID)
	}
	return nil
}

func runGames(e *env, args []string) error {
	fs := e.flags("games")
	id := fs.String("id", "", "show one game")
	pgn := fs.Bool("pgn", false, "print the game as PGN (with -id)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *pgn && *id == "" {
		return usagef("-pgn needs -id")
	}

	db, err := storage.Open(e.cfg.DataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	if *id != "" {
		rec, err := db.LoadGame(*id)
		if err != nil {
			return err
		}
		if *pgn {
			text, err := rec.PGN()
			if err != nil {
				return err
			}
			fmt.Fprintln(e.stdout, text)
			return nil
		}
		fmt.Fprintf(e.stdout, "%s %s %s depth %d\n%s\n", rec.ID, rec.Result, rec.Termination, rec.Depth, strings.Join(rec.Moves, " "))
		return nil
	}

	games, err := db.ListGames()
	if err != nil {
		return err
	}
	for _, rec := range games {
		fmt.Fprintf(e.stdout, "%s  %-7s %3d plies  %-22s %s\n",
			rec.ID, rec.Result, len(rec.Moves), rec.Termination, humanize.Time(rec.PlayedAt))
	}
	stats, err := db.LoadStats()
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stderr, "%d games: %d white, %d black, %d draws (%.0f%%)\n",
		stats.GamesPlayed, stats.WhiteWins, stats.BlackWins, stats.Draws, stats.DrawRate())
	return nil
}

func runServe(e *env, args []string) error {
	fs := e.flags("serve")
	addr := fs.String("addr", e.cfg.ListenAddr, "listen address")
	noDB := fs.Bool("nodb", false, "run without the database")
	if err := parse(fs, args); err != nil {
		return err
	}
	cfg := e.cfg
	cfg.ListenAddr = *addr
	if err := cfg.Validate(); err != nil {
		return usageError{msg: err.Error()}
	}

	var db *storage.Storage
	if !*noDB {
		var err error
		if db, err = storage.Open(cfg.DataDir); err != nil {
			return err
		}
		defer db.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.New(config.NewStore(cfg), db).ListenAndServe(ctx)
}
