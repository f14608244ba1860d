package persist

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/automoto/dragonsons/shared/messages"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "github.com/automoto/dragonsons/server/persist"

// PlayerResult is one participant of a settled match.
type PlayerResult struct {
	ID    string
	Kills int
}

// MatchResult is what settlement hands to the recorder.
type MatchResult struct {
	RoomID  string
	Winner  string
	MVP     string
	Players []PlayerResult
}

// Recorder applies match results to a Store on its own goroutine so the
// tick loop never waits on storage. Results are applied one at a time,
// which keeps the load-modify-save cycle free of lost updates.
type Recorder struct {
	store  Store
	queue  chan MatchResult
	logger *slog.Logger

	mu    sync.RWMutex
	board []LeaderEntry
}

// NewRecorder creates a recorder with room for buffer pending results.
func NewRecorder(store Store, logger *slog.Logger, buffer int) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		store:  store,
		queue:  make(chan MatchResult, max(buffer, 1)),
		logger: logger.With(slog.String("component", "persist")),
	}
}

// Submit queues a result without blocking. A full queue drops the result
// and reports false.
func (r *Recorder) Submit(res MatchResult) bool {
	select {
	case r.queue <- res:
		return true
	default:
		r.logger.Warn("result queue full, dropping match result", slog.String("room", res.RoomID))
		return false
	}
}

// Run loads the current leaderboard and then applies queued results until
// ctx is done. Results still queued at shutdown are applied before it
// returns.
func (r *Recorder) Run(ctx context.Context) error {
	if board, err := r.store.LoadLeaderboard(ctx); err != nil {
		r.logger.WarnContext(ctx, "could not load leaderboard", slog.Any("err", err))
	} else {
		r.setBoard(board)
	}

	for {
		select {
		case <-ctx.Done():
			r.drain()
			return nil
		case res := <-r.queue:
			r.apply(ctx, res)
		}
	}
}

func (r *Recorder) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case res := <-r.queue:
			r.apply(ctx, res)
		default:
			return
		}
	}
}

// apply folds one result into stats and rebuilds the leaderboard. Errors
// are logged; a failed load skips the result rather than overwrite good
// data with a partial view.
func (r *Recorder) apply(ctx context.Context, res MatchResult) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "persist.Record")
	defer span.End()
	span.SetAttributes(
		attribute.String("room.id", res.RoomID),
		attribute.Int("match.players", len(res.Players)),
	)
	fail := func(msg string, err error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.WarnContext(ctx, msg, slog.String("room", res.RoomID), slog.Any("err", err))
	}

	stats, err := r.store.LoadStats(ctx)
	if err != nil {
		fail("could not load stats", err)
		return
	}
	if stats == nil {
		stats = map[string]PlayerStat{}
	}
	for _, p := range res.Players {
		st := stats[p.ID]
		st.ID = p.ID
		st.Matches++
		st.Kills += p.Kills
		if p.ID == res.Winner {
			st.Wins++
		}
		stats[p.ID] = st
	}
	if err := r.store.SaveStats(ctx, stats); err != nil {
		fail("could not save stats", err)
		return
	}

	board := BuildLeaderboard(stats)
	r.setBoard(board)
	if err := r.store.SaveLeaderboard(ctx, board); err != nil {
		fail("could not save leaderboard", err)
		return
	}
	r.logger.InfoContext(ctx, "match recorded", slog.String("room", res.RoomID), slog.String("winner", res.Winner))
}

func (r *Recorder) setBoard(board []LeaderEntry) {
	r.mu.Lock()
	r.board = board
	r.mu.Unlock()
}

// Leaderboard returns one page of the global board ordered by "wins"
// (wins, then kills) or "kills" (kills, then wins).
func (r *Recorder) Leaderboard(by string, page, size int) messages.LeaderboardPage {
	r.mu.RLock()
	board := slices.Clone(r.board)
	r.mu.RUnlock()

	if by != "kills" {
		by = "wins"
	}
	SortLeaderboard(board, by)
	rows, page, size := Paginate(board, page, size)
	out := messages.LeaderboardPage{By: by, Page: page, Size: size, Total: len(board), Entries: make([]messages.LeaderEntry, len(rows))}
	for i, e := range rows {
		out.Entries[i] = messages.LeaderEntry{ID: e.ID, Wins: e.Wins, Kills: e.Kills}
	}
	return out
}

// BuildLeaderboard derives the board from stats, sorted by wins then
// kills.
func BuildLeaderboard(stats map[string]PlayerStat) []LeaderEntry {
	board := make([]LeaderEntry, 0, len(stats))
	for _, st := range stats {
		board = append(board, LeaderEntry{ID: st.ID, Wins: st.Wins, Kills: st.Kills})
	}
	SortLeaderboard(board, "wins")
	return board
}

// SortLeaderboard orders board in place. Ties fall back to id.
func SortLeaderboard(board []LeaderEntry, by string) {
	slices.SortFunc(board, func(a, b LeaderEntry) int {
		first, second := cmp.Compare(b.Wins, a.Wins), cmp.Compare(b.Kills, a.Kills)
		if by == "kills" {
			first, second = second, first
		}
		return cmp.Or(first, second, cmp.Compare(a.ID, b.ID))
	})
}
