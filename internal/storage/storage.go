package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Storage keys
const (
	keySettings    = "settings"
	keyBenchStats  = "bench_stats"
	keyFirstLaunch = "first_launch"
)

// Settings stores the engine options that survive a restart.
type Settings struct {
	HashMB    int       `json:"hash_mb"`
	Threads   int       `json:"threads"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultSettings returns the settings used when none are stored.
func DefaultSettings() *Settings {
	return &Settings{HashMB: 16, Threads: 1}
}

// BenchStats accumulates bench results across runs.
type BenchStats struct {
	Runs       int           `json:"runs"`
	TotalNodes uint64        `json:"total_nodes"`
	TotalTime  time.Duration `json:"total_time"`
	BestNPS    uint64        `json:"best_nps"`
	LastNPS    uint64        `json:"last_nps"`
	LastRun    time.Time     `json:"last_run"`
}

// AverageNPS returns nodes per second over every recorded run.
func (s *BenchStats) AverageNPS() uint64 {
	ms := uint64(s.TotalTime.Milliseconds())
	if ms == 0 {
		return 0
	}
	return s.TotalNodes * 1000 / ms
}

// BenchRun is one completed bench.
type BenchRun struct {
	Nodes uint64
	Time  time.Duration
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// Open opens (or creates) the database in dir. An empty dir opens an
// in-memory database that is discarded on Close.
func Open(dir string, log *slog.Logger) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	if log != nil {
		opts = opts.WithLogger(badgerLogger{log.With("component", "badger")})
	} else {
		opts.Logger = nil // Disable logging
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open %q: %w", dir, err)
	}
	return &Storage{db: db}, nil
}

// OpenDefault opens the database under dataDir, or under the platform data
// directory when dataDir is empty.
func OpenDefault(dataDir string, log *slog.Logger) (*Storage, error) {
	dbDir, err := GetDatabaseDir(dataDir)
	if err != nil {
		return nil, err
	}
	return Open(dbDir, log)
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// IsFirstLaunch returns true if this is the first launch
func (s *Storage) IsFirstLaunch() (bool, error) {
	firstLaunch := true

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(keyFirstLaunch))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		firstLaunch = false
		return nil
	})

	return firstLaunch, err
}

// MarkFirstLaunchComplete marks that first launch setup is complete
func (s *Storage) MarkFirstLaunchComplete() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyFirstLaunch), []byte("done"))
	})
}

// SaveSettings saves engine settings
func (s *Storage) SaveSettings(settings *Settings) error {
	settings.UpdatedAt = time.Now()
	return s.put(keySettings, settings)
}

// LoadSettings loads engine settings, returns defaults if not found
func (s *Storage) LoadSettings() (*Settings, error) {
	settings := DefaultSettings()
	err := s.get(keySettings, settings)
	return settings, err
}

// LoadBenchStats loads bench statistics, returns empty stats if not found
func (s *Storage) LoadBenchStats() (*BenchStats, error) {
	stats := &BenchStats{}
	err := s.get(keyBenchStats, stats)
	return stats, err
}

// RecordBench adds a completed bench to the statistics.
func (s *Storage) RecordBench(run BenchRun) (*BenchStats, error) {
	var stats *BenchStats

	err := s.db.Update(func(txn *badger.Txn) error {
		stats = &BenchStats{}
		if err := getTxn(txn, keyBenchStats, stats); err != nil {
			return err
		}

		nps := (&BenchStats{TotalNodes: run.Nodes, TotalTime: run.Time}).AverageNPS()
		stats.Runs++
		stats.TotalNodes += run.Nodes
		stats.TotalTime += run.Time
		stats.LastNPS = nps
		stats.BestNPS = max(stats.BestNPS, nps)
		stats.LastRun = time.Now()

		data, err := json.Marshal(stats)
		if err != nil {
			return err
		}
		return txn.Set([]byte(keyBenchStats), data)
	})

	return stats, err
}

func (s *Storage) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func (s *Storage) get(key string, v any) error {
	return s.db.View(func(txn *badger.Txn) error {
		return getTxn(txn, key, v)
	})
}

// getTxn decodes key into v, leaving v untouched if the key is absent.
func getTxn(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}
