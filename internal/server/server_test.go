package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/config"
	"github.com/hailam/chesscore/internal/record"
	"github.com/hailam/chesscore/internal/storage"
)

func newTestServer(t *testing.T) (*httptest.Server, *storage.Storage) {
	t.Helper()
	db, err := storage.OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.DefaultConfig()
	cfg.Workers = 2
	cfg.TieBreakSeed = 1
	cfg.PerftTableMB = 1
	ts := httptest.NewServer(New(config.NewStore(cfg), db))
	t.Cleanup(ts.Close)
	return ts, db
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func TestPing(t *testing.T) {
	ts, _ := newTestServer(t)
	var out map[string]bool
	if code := doJSON(t, http.MethodGet, ts.URL+"/api/ping", nil, &out); code != http.StatusOK || !out["ok"] {
		t.Errorf("ping = %d %v", code, out)
	}
}

func TestPosition(t *testing.T) {
	ts, _ := newTestServer(t)

	var out positionResponse
	code := doJSON(t, http.MethodPost, ts.URL+"/api/position",
		positionRequest{Moves: []string{"f2f3", "e7e5", "g2g4", "d8h4"}}, &out)
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if out.Outcome != board.BlackWon.String() || out.Result != "0-1" || !out.InCheck || len(out.LegalMoves) != 0 {
		t.Errorf("fool's mate = %+v", out)
	}

	code = doJSON(t, http.MethodPost, ts.URL+"/api/position", positionRequest{}, &out)
	if code != http.StatusOK || len(out.LegalMoves) != 20 || len(out.SAN) != 20 || out.FEN != board.StartFEN {
		t.Errorf("start = %d %+v", code, out)
	}
}

func TestPositionErrors(t *testing.T) {
	ts, _ := newTestServer(t)
	tests := []struct {
		name string
		req  positionRequest
		want int
	}{
		{"bad fen", positionRequest{FEN: "garbage"}, http.StatusBadRequest},
		{"malformed move", positionRequest{Moves: []string{"zz"}}, http.StatusBadRequest},
		{"illegal move", positionRequest{Moves: []string{"e2e5"}}, http.StatusUnprocessableEntity},
		{"after mate", positionRequest{Moves: []string{"f2f3", "e7e5", "g2g4", "d8h4", "e2e4"}}, http.StatusConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out map[string]string
			if code := doJSON(t, http.MethodPost, ts.URL+"/api/position", tc.req, &out); code != tc.want {
				t.Errorf("status %d (%s), want %d", code, out["error"], tc.want)
			}
		})
	}
}

func TestBestMove(t *testing.T) {
	ts, _ := newTestServer(t)

	var out bestMoveResponse
	code := doJSON(t, http.MethodPost, ts.URL+"/api/bestmove",
		positionRequest{FEN: "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", Depth: 2}, &out)
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if out.Move != "a1a8" || out.ScoreText != "Mate in 1" {
		t.Errorf("bestmove = %+v", out)
	}

	var errOut map[string]string
	if code := doJSON(t, http.MethodPost, ts.URL+"/api/bestmove", positionRequest{Depth: 99}, &errOut); code != http.StatusBadRequest {
		t.Errorf("depth 99: status %d", code)
	}
}

func TestPerftCaching(t *testing.T) {
	ts, _ := newTestServer(t)

	var out perftResponse
	if code := doJSON(t, http.MethodGet, ts.URL+"/api/perft?depth=3", nil, &out); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if out.Nodes != 8902 || out.NodesHuman != "8,902" || out.Cached {
		t.Errorf("first perft = %+v", out)
	}
	doJSON(t, http.MethodGet, ts.URL+"/api/perft?depth=3", nil, &out)
	if !out.Cached || out.Nodes != 8902 {
		t.Errorf("second perft = %+v", out)
	}

	var errOut map[string]string
	if code := doJSON(t, http.MethodGet, ts.URL+"/api/perft?depth=x", nil, &errOut); code != http.StatusBadRequest {
		t.Errorf("bad depth: status %d", code)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	ts, _ := newTestServer(t)

	var cfg config.Config
	doJSON(t, http.MethodGet, ts.URL+"/api/config", nil, &cfg)
	cfg.SearchDepth = 2
	var updated config.Config
	if code := doJSON(t, http.MethodPut, ts.URL+"/api/config", cfg, &updated); code != http.StatusOK || updated.SearchDepth != 2 {
		t.Errorf("update = %d %+v", code, updated)
	}

	cfg.SearchDepth = 0
	var errOut map[string]string
	if code := doJSON(t, http.MethodPut, ts.URL+"/api/config", cfg, &errOut); code != http.StatusBadRequest {
		t.Errorf("invalid update: status %d", code)
	}
}

func TestGames(t *testing.T) {
	ts, db := newTestServer(t)
	rec := record.Record{
		ID:       "g1",
		StartFEN: board.StartFEN,
		Moves:    []string{"f2f3", "e7e5", "g2g4", "d8h4"},
		Result:   "0-1",
	}
	if err := db.SaveGame(rec); err != nil {
		t.Fatal(err)
	}

	var list struct {
		Games []record.Record  `json:"games"`
		Stats storage.GameStats `json:"stats"`
	}
	if code := doJSON(t, http.MethodGet, ts.URL+"/api/games/", nil, &list); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(list.Games) != 1 || list.Stats.BlackWins != 1 {
		t.Errorf("games = %+v", list)
	}

	var errOut map[string]string
	if code := doJSON(t, http.MethodGet, ts.URL+"/api/games/missing", nil, &errOut); code != http.StatusNotFound {
		t.Errorf("missing game: status %d", code)
	}

	resp, err := http.Get(ts.URL + "/api/games/g1/pgn")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(buf.String(), `[Result "0-1"]`) {
		t.Errorf("pgn = %d\n%s", resp.StatusCode, buf.String())
	}
}

func TestDivideWebSocket(t *testing.T) {
	ts, _ := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/divide"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(divideRequest{Depth: 2}); err != nil {
		t.Fatal(err)
	}

	var streamed uint64
	entries := 0
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatal(err)
		}
		switch msg.Type {
		case "entry":
			var e divideEntry
			if err := json.Unmarshal(msg.Payload, &e); err != nil {
				t.Fatal(err)
			}
			streamed += e.Nodes
			entries++
		case "done":
			var done divideDone
			if err := json.Unmarshal(msg.Payload, &done); err != nil {
				t.Fatal(err)
			}
			if done.Total != 400 || streamed != 400 || entries != 20 || len(done.Entries) != 20 {
				t.Errorf("done = %+v after %d entries (%d nodes)", done, entries, streamed)
			}
			if done.Entries[0].Move != "a2a3" {
				t.Errorf("entries not sorted: first %s", done.Entries[0].Move)
			}
			return
		default:
			t.Fatalf("unexpected frame %s: %s", msg.Type, msg.Payload)
		}
	}
}

func TestDivideWebSocketRejectsDepth(t *testing.T) {
	ts, _ := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/divide"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(divideRequest{Depth: 0}); err != nil {
		t.Fatal(err)
	}
	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "error" {
		t.Errorf("frame type %q, want error", msg.Type)
	}
}
