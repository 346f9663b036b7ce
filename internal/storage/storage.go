package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/hailam/chesscore/internal/record"
)

// Storage keys
const (
	keyStats       = "stats"
	prefixPerft    = "perft/"
	prefixGame     = "game/"
	perftKeyFormat = prefixPerft + "%016x/%02d"
)

// ErrGameNotFound reports an unknown game id.
var ErrGameNotFound = errors.New("game not found")

// perftEntry is the stored form of a perft count. FEN holds the first four
// fields so that a hash collision can be told apart from a hit.
type perftEntry struct {
	FEN   string `json:"fen"`
	Nodes uint64 `json:"nodes"`
}

// GameStats aggregates the results of saved games.
type GameStats struct {
	GamesPlayed int            `json:"games_played"`
	WhiteWins   int            `json:"white_wins"`
	BlackWins   int            `json:"black_wins"`
	Draws       int            `json:"draws"`
	Unfinished  int            `json:"unfinished"`
	TotalPlies  int            `json:"total_plies"`
	ByEnding    map[string]int `json:"by_termination"`
}

// NewGameStats returns empty game statistics
func NewGameStats() *GameStats {
	return &GameStats{ByEnding: make(map[string]int)}
}

// DrawRate returns the share of finished games that were drawn (0-100).
func (s *GameStats) DrawRate() float64 {
	finished := s.GamesPlayed - s.Unfinished
	if finished == 0 {
		return 0
	}
	return float64(s.Draws) / float64(finished) * 100
}

func (s *GameStats) add(r record.Record) {
	s.GamesPlayed++
	s.TotalPlies += len(r.Moves)
	switch r.Result {
	case "1-0":
		s.WhiteWins++
	case "0-1":
		s.BlackWins++
	case "1/2-1/2":
		s.Draws++
	default:
		s.Unfinished++
	}
	if r.Termination != "" {
		s.ByEnding[r.Termination]++
	}
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// Open opens (creating if needed) the database under dataDir. An empty
// dataDir selects the platform data directory.
func Open(dataDir string) (*Storage, error) {
	dbDir, err := GetDatabaseDir(dataDir)
	if err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	log.Printf("storage: opened %s", dbDir)
	return &Storage{db: db}, nil
}

// OpenInMemory opens a database that lives only as long as the process.
func OpenInMemory() (*Storage, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func perftKey(hash uint64, depth int) []byte {
	return []byte(fmt.Sprintf(perftKeyFormat, hash, depth))
}

// positionKey strips the move counters from a FEN.
func positionKey(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) > 4 {
		fields = fields[:4]
	}
	return strings.Join(fields, " ")
}

// LookupPerft returns a cached perft count for the position with the given
// hash and FEN.
func (s *Storage) LookupPerft(hash uint64, fen string, depth int) (uint64, bool, error) {
	var entry perftEntry
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(perftKey(hash, depth))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil || !found {
		return 0, false, err
	}

	if entry.FEN != positionKey(fen) {
		log.Printf("storage: perft hash collision at %016x: %q vs %q", hash, entry.FEN, positionKey(fen))
		return 0, false, nil
	}
	return entry.Nodes, true, nil
}

// StorePerft caches a perft count.
func (s *Storage) StorePerft(hash uint64, fen string, depth int, nodes uint64) error {
	data, err := json.Marshal(perftEntry{FEN: positionKey(fen), Nodes: nodes})
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(perftKey(hash, depth), data)
	})
}

// SaveGame stores a game record and folds it into the statistics. Saving an
// existing id replaces the record without counting it twice.
func (s *Storage) SaveGame(r record.Record) error {
	if r.ID == "" {
		return errors.New("storage: game record without id")
	}
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(prefixGame + r.ID)
		_, err := txn.Get(key)
		isNew := err == badger.ErrKeyNotFound
		if err != nil && !isNew {
			return err
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}
		if !isNew {
			return nil
		}

		stats, err := loadStats(txn)
		if err != nil {
			return err
		}
		stats.add(r)
		statsData, err := json.Marshal(stats)
		if err != nil {
			return err
		}
		return txn.Set([]byte(keyStats), statsData)
	})
}

// LoadGame returns the record with the given id.
func (s *Storage) LoadGame(id string) (record.Record, error) {
	var r record.Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixGame + id))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: %s", ErrGameNotFound, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &r)
		})
	})
	return r, err
}

// ListGames returns all stored records in id order.
func (s *Storage) ListGames() ([]record.Record, error) {
	var out []record.Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixGame)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var r record.Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return err
			}
			out = append(out, r)
		}
		return nil
	})
	return out, err
}

// DeleteGame removes a record. Statistics are left unchanged.
func (s *Storage) DeleteGame(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(prefixGame + id))
	})
}

// LoadStats loads game statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*GameStats, error) {
	var stats *GameStats
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		stats, err = loadStats(txn)
		return err
	})
	return stats, err
}

func loadStats(txn *badger.Txn) (*GameStats, error) {
	stats := NewGameStats()
	item, err := txn.Get([]byte(keyStats))
	if err == badger.ErrKeyNotFound {
		return stats, nil // Use empty stats
	}
	if err != nil {
		return nil, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, stats)
	})
	if stats.ByEnding == nil {
		stats.ByEnding = make(map[string]int)
	}
	return stats, err
}
