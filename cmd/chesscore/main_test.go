package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no command", nil, exitUsage},
		{"unknown command", []string{"frobnicate"}, exitUsage},
		{"bad flag", []string{"perft", "-nope"}, exitUsage},
		{"depth out of range", []string{"perft", "-depth", "99"}, exitUsage},
		{"stray argument", []string{"moves", "extra"}, exitUsage},
		{"invalid fen", []string{"moves", "-fen", "8/8/8 w - -"}, exitInput},
		{"malformed move", []string{"bestmove", "-depth", "1", "-moves", "e2"}, exitInput},
		{"illegal move", []string{"bestmove", "-depth", "1", "-moves", "e2e5"}, exitInput},
		{"finished game", []string{"bestmove", "-depth", "1", "-moves", "f2f3 e7e5 g2g4 d8h4"}, exitInput},
		{"help", []string{"perft", "-h"}, exitOK},
		{"ok", []string{"perft", "-depth", "2"}, exitOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if code, _, stderr := runCLI(t, tc.args...); code != tc.want {
				t.Errorf("exit %d, want %d\n%s", code, tc.want, stderr)
			}
		})
	}
}

func TestPerftCommand(t *testing.T) {
	code, out, _ := runCLI(t, "perft", "-depth", "3")
	if code != exitOK || strings.TrimSpace(out) != "8902" {
		t.Errorf("perft = %d %q", code, out)
	}

	kiwipete := "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
	code, out, _ = runCLI(t, "perft", "-fen", kiwipete, "-depth", "2")
	if code != exitOK || strings.TrimSpace(out) != "2039" {
		t.Errorf("kiwipete perft = %d %q", code, out)
	}
}

func TestDivideCommand(t *testing.T) {
	code, out, _ := runCLI(t, "divide", "-depth", "2")
	if code != exitOK {
		t.Fatalf("exit %d", code)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if lines[0] != "a2a3: 20" {
		t.Errorf("first line %q", lines[0])
	}
	if last := lines[len(lines)-1]; last != "Nodes searched: 400" {
		t.Errorf("last line %q", last)
	}
}

func TestMovesCommand(t *testing.T) {
	code, out, _ := runCLI(t, "moves", "-san")
	if code != exitOK {
		t.Fatalf("exit %d", code)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 20 || lines[0] != "a2a3 a3" {
		t.Errorf("moves = %q", lines)
	}
}

func TestBestMoveCommand(t *testing.T) {
	code, out, stderr := runCLI(t, "bestmove", "-fen", "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", "-depth", "2")
	if code != exitOK || strings.TrimSpace(out) != "bestmove a1a8" {
		t.Errorf("bestmove = %d %q", code, out)
	}
	if !strings.Contains(stderr, "info depth 2 score Mate in 1 nodes ") || !strings.Contains(stderr, " ties 1\n") {
		t.Errorf("bestmove info line = %q", stderr)
	}
}

func TestVerifyCommand(t *testing.T) {
	code, out, stderr := runCLI(t, "verify", "-depth", "2")
	if code != exitOK || !strings.Contains(out, "ok perft(2) = 400") {
		t.Errorf("verify = %d %q %q", code, out, stderr)
	}
}

func TestSelfPlayAndGames(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "chesscore.json")
	body := `{"data_dir": "` + filepath.ToSlash(dir) + `", "tie_break_seed": 3}`
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	code, out, stderr := runCLI(t, "-config", cfgPath, "selfplay", "-depth", "1", "-plies", "4", "-save", "-pgn")
	if code != exitOK {
		t.Fatalf("selfplay exit %d\n%s", code, stderr)
	}
	if !strings.HasPrefix(out, "* ply limit after 4 plies") || !strings.Contains(out, `[PlyCount "4"]`) {
		t.Errorf("selfplay output:\n%s", out)
	}
	if n := strings.Count(stderr, "info depth 1 "); n != 4 {
		t.Errorf("selfplay printed %d info lines, want one per ply:\n%s", n, stderr)
	}

	code, out, stderr = runCLI(t, "-config", cfgPath, "games")
	if code != exitOK || len(strings.Split(strings.TrimSpace(out), "\n")) != 1 {
		t.Errorf("games = %d %q %q", code, out, stderr)
	}
	if code, _, _ := runCLI(t, "-config", cfgPath, "games", "-id", "missing"); code != exitInput {
		t.Errorf("missing game exit %d", code)
	}
	if code, _, _ := runCLI(t, "-config", cfgPath, "games", "-pgn"); code != exitUsage {
		t.Errorf("-pgn without -id exit %d", code)
	}
}

func TestBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"search_depth": -1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if code, _, _ := runCLI(t, "-config", path, "moves"); code != exitUsage {
		t.Errorf("exit %d, want %d", code, exitUsage)
	}
}
