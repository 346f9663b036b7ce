package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/config"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type divideRequest struct {
	FEN   string `json:"fen"`
	Depth int    `json:"depth"`
}

type divideEntry struct {
	Move  string `json:"move"`
	Nodes uint64 `json:"nodes"`
}

type divideDone struct {
	Entries    []divideEntry `json:"entries"`
	Total      uint64        `json:"total"`
	TotalHuman string        `json:"total_human"`
	NPS        string        `json:"nps"`
	TimeMs     int64         `json:"time_ms"`
}

// serveDivideWS reads one divide request and streams an "entry" frame per
// root move as it finishes, then a "done" frame with the sorted totals.
func (s *Server) serveDivideWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var req divideRequest
	if err := conn.ReadJSON(&req); err != nil {
		sendWSError(conn, "invalid payload")
		return
	}
	if req.FEN == "" {
		req.FEN = board.StartFEN
	}
	if req.Depth < 1 || req.Depth > config.MaxPerftDepth {
		sendWSError(conn, fmt.Sprintf("depth must be 1..%d", config.MaxPerftDepth))
		return
	}
	pos, err := board.ParseFEN(req.FEN)
	if err != nil {
		sendWSError(conn, err.Error())
		return
	}

	start := time.Now()
	var writeErr error
	entries, err := s.perft.ParallelDivide(r.Context(), pos, req.Depth, func(e board.DivideEntry) {
		if writeErr != nil {
			return
		}
		writeErr = conn.WriteJSON(wsMessage{
			Type:    "entry",
			Payload: mustMarshal(divideEntry{Move: e.Move.String(), Nodes: e.Nodes}),
		})
	})
	if err != nil {
		sendWSError(conn, err.Error())
		return
	}
	if writeErr != nil {
		log.Printf("[server] divide stream: %v", writeErr)
		return
	}

	elapsed := time.Since(start)
	done := divideDone{Entries: make([]divideEntry, len(entries)), TimeMs: elapsed.Milliseconds()}
	for i, e := range entries {
		done.Entries[i] = divideEntry{Move: e.Move.String(), Nodes: e.Nodes}
	}
	done.Total = board.DivideTotal(entries)
	done.TotalHuman = humanize.Comma(int64(done.Total))
	if secs := elapsed.Seconds(); secs > 0 {
		done.NPS = humanize.SIWithDigits(float64(done.Total)/secs, 2, "nps")
	}
	if err := conn.WriteJSON(wsMessage{Type: "done", Payload: mustMarshal(done)}); err != nil {
		log.Printf("[server] divide stream: %v", err)
		return
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func sendWSError(conn *websocket.Conn, msg string) {
	_ = conn.WriteJSON(wsMessage{Type: "error", Payload: mustMarshal(map[string]string{"error": msg})})
}
