// Command chesscore runs perft, search and self-play from the command line
// and serves the analysis API.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"

	"github.com/hailam/chesscore/internal/config"
)

// Exit codes
const (
	exitOK    = 0
	exitInput = 1 // invalid FEN, bad move text, failed check
	exitUsage = 2
)

// usageError marks errors caused by the command line itself.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

type command struct {
	name    string
	summary string
	run     func(env *env, args []string) error
}

var commands = []command{
	{"perft", "count leaf nodes to a depth", runPerft},
	{"divide", "perft split by root move", runDivide},
	{"moves", "list legal moves", runMoves},
	{"bestmove", "search a position", runBestMove},
	{"verify", "cross-check move generation against dragontoothmg", runVerify},
	{"selfplay", "let the engine play itself", runSelfPlay},
	{"games", "list or show saved games", runGames},
	{"serve", "serve the HTTP/WebSocket API", runServe},
}

// env carries what every subcommand needs.
type env struct {
	cfg    config.Config
	stdout io.Writer
	stderr io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("chesscore", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "JSON config file")
	cpuprofile := fs.String("cpuprofile", "", "write cpu profile to file")
	fs.Usage = func() { usage(fs, stderr) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if fs.NArg() == 0 {
		usage(fs, stderr)
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "chesscore: %v\n", err)
		return exitUsage
	}

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Printf("could not create CPU profile: %v", err)
			return exitInput
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Printf("could not start CPU profile: %v", err)
			return exitInput
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	name, rest := fs.Arg(0), fs.Args()[1:]
	for _, c := range commands {
		if c.name != name {
			continue
		}
		err := c.run(&env{cfg: cfg, stdout: stdout, stderr: stderr}, rest)
		var ue usageError
		switch {
		case err == nil:
			return exitOK
		case errors.Is(err, flag.ErrHelp):
			return exitOK
		case errors.As(err, &ue):
			fmt.Fprintf(stderr, "chesscore %s: %v\n", name, err)
			return exitUsage
		default:
			fmt.Fprintf(stderr, "chesscore %s: %v\n", name, err)
			return exitInput
		}
	}

	fmt.Fprintf(stderr, "chesscore: unknown command %q\n", name)
	usage(fs, stderr)
	return exitUsage
}

func usage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "usage: chesscore [-config file] [-cpuprofile file] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-9s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "global flags:")
	fs.PrintDefaults()
}
