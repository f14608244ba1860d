// Package persist stores cross-match statistics and the global
// leaderboard. Writes are full overwrites; callers treat storage as best
// effort.
package persist

//go:generate go tool mockgen -destination=./mocks/store_mock.go -package=mocks . Store

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
)

var ErrStoreClosed = errors.New("store closed")

// PlayerStat is one player's lifetime record.
type PlayerStat struct {
	ID      string `json:"id"`
	Matches int    `json:"matches"`
	Wins    int    `json:"wins"`
	Kills   int    `json:"kills"`
}

// LeaderEntry is one row of the global leaderboard.
type LeaderEntry struct {
	ID    string `json:"id"`
	Wins  int    `json:"wins"`
	Kills int    `json:"kills"`
}

// Store is the key-value contract the server depends on. Every save
// replaces the whole value.
type Store interface {
	LoadStats(ctx context.Context) (map[string]PlayerStat, error)
	SaveStats(ctx context.Context, stats map[string]PlayerStat) error
	LoadLeaderboard(ctx context.Context) ([]LeaderEntry, error)
	SaveLeaderboard(ctx context.Context, board []LeaderEntry) error
}

// MemoryStore keeps everything in process. Used by tests and when no data
// directory is available.
type MemoryStore struct {
	mu    sync.Mutex
	stats map[string]PlayerStat
	board []LeaderEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{stats: map[string]PlayerStat{}}
}

func (s *MemoryStore) LoadStats(context.Context) (map[string]PlayerStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.stats), nil
}

func (s *MemoryStore) SaveStats(_ context.Context, stats map[string]PlayerStat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = maps.Clone(stats)
	return nil
}

func (s *MemoryStore) LoadLeaderboard(context.Context) ([]LeaderEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.board), nil
}

func (s *MemoryStore) SaveLeaderboard(_ context.Context, board []LeaderEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board = slices.Clone(board)
	return nil
}
