package jsonws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/automoto/dragonsons/shared/messages"
)

// Directory is the read-only view served over plain HTTP for lobby
// screens that have not opened a socket yet.
type Directory interface {
	List() []messages.RoomInfo
	Leaderboard(by string, page, size int) messages.LeaderboardPage
}

func (s *Server) listRooms(d Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, messages.Rooms{Rooms: d.List()})
	}
}

func (s *Server) leaderboard(d Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, _ := strconv.Atoi(q.Get("page"))
		size, _ := strconv.Atoi(q.Get("size"))
		s.writeJSON(w, d.Leaderboard(q.Get("by"), page, size))
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode failed", slog.Any("err", err))
	}
}
