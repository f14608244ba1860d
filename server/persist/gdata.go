package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/quasilyte/gdata"
)

const (
	statsKey       = "stats"
	leaderboardKey = "leaderboard"
)

// GDataStore keeps stats and the leaderboard as two JSON items in the
// application's gdata directory.
type GDataStore struct {
	mu sync.Mutex
	m  *gdata.Manager
}

// OpenGData opens (or creates) the data directory for appName.
func OpenGData(appName string) (*GDataStore, error) {
	m, err := gdata.Open(gdata.Config{
		AppName: appName,
	})
	if err != nil {
		return nil, fmt.Errorf("open gdata %q: %w", appName, err)
	}
	return &GDataStore{m: m}, nil
}

func (s *GDataStore) LoadStats(context.Context) (map[string]PlayerStat, error) {
	stats := map[string]PlayerStat{}
	if err := s.load(statsKey, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *GDataStore) SaveStats(_ context.Context, stats map[string]PlayerStat) error {
	return s.save(statsKey, stats)
}

func (s *GDataStore) LoadLeaderboard(context.Context) ([]LeaderEntry, error) {
	var board []LeaderEntry
	if err := s.load(leaderboardKey, &board); err != nil {
		return nil, err
	}
	return board, nil
}

func (s *GDataStore) SaveLeaderboard(_ context.Context, board []LeaderEntry) error {
	return s.save(leaderboardKey, board)
}

func (s *GDataStore) load(key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		return ErrStoreClosed
	}
	data, err := s.m.LoadItem(key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if len(data) == 0 {
		// Nothing saved yet.
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	return nil
}

func (s *GDataStore) save(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		return ErrStoreClosed
	}
	if err := s.m.SaveItem(key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
