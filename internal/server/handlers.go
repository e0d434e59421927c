package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ghostwire/ghostbot/internal/utils"
	"github.com/ghostwire/ghostbot/pkg/bungie"
	"github.com/ghostwire/ghostbot/pkg/destiny"
	"github.com/ghostwire/ghostbot/pkg/display"
	"github.com/ghostwire/ghostbot/pkg/items"
	"github.com/ghostwire/ghostbot/pkg/storage"
)

type memberJSON struct {
	ID           int64  `json:"id,omitempty"`
	DisplayName  string `json:"displayName"`
	Platform     string `json:"platform"`
	MembershipID string `json:"membershipId"`
	TwitchLogin  string `json:"twitchLogin,omitempty"`
}

type clipJSON struct {
	Player          string    `json:"player"`
	Activity        string    `json:"activity,omitempty"`
	ActivityHash    uint32    `json:"activityHash,omitempty"`
	StartedAt       time.Time `json:"startedAt"`
	DurationSeconds int64     `json:"durationSeconds"`
	VideoID         string    `json:"videoId"`
	VideoTitle      string    `json:"videoTitle"`
	Link            string    `json:"link"`
	MatchedAt       time.Time `json:"matchedAt"`
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Log.Debugf("write response: %v", err)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.DB.GetStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]int{
		"members":    stats.Members,
		"activities": stats.Activities,
		"unscanned":  stats.Unscanned,
		"matches":    stats.Matches,
	})
}

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.DB.ListMembers(r.Context(), r.URL.Query().Get("linked") == "true")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]memberJSON, 0, len(members))
	for _, m := range members {
		out = append(out, memberJSON{
			ID:           m.ID,
			DisplayName:  m.DisplayName,
			Platform:     m.MembershipType.String(),
			MembershipID: m.MembershipID,
			TwitchLogin:  m.TwitchLogin,
		})
	}
	writeJSON(w, out)
}

func (s *Server) handleClips(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	matches, err := s.DB.ListClipMatches(r.Context(), opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]clipJSON, 0, len(matches))
	for _, m := range matches {
		out = append(out, clipJSON{
			Player:          m.MemberName,
			Activity:        m.ActivityName,
			ActivityHash:    m.ActivityHash,
			StartedAt:       m.ActivityStartedAt,
			DurationSeconds: int64(m.ActivityDuration / time.Second),
			VideoID:         m.VideoID,
			VideoTitle:      m.VideoTitle,
			Link:            display.VideoLink(m.VideoURL, m.Offset),
			MatchedAt:       m.MatchedAt,
		})
	}
	writeJSON(w, out)
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	if s.Game == nil {
		http.Error(w, "player lookups are not configured", http.StatusServiceUnavailable)
		return
	}
	players, err := s.Game.SearchPlayer(r.Context(), r.PathValue("name"), r.URL.Query().Get("platform"))
	if err != nil {
		writeGameError(w, err)
		return
	}
	out := make([]memberJSON, 0, len(players))
	for _, p := range players {
		out = append(out, memberJSON{
			DisplayName:  p.DisplayName,
			Platform:     p.MembershipType.String(),
			MembershipID: p.MembershipID,
		})
	}
	writeJSON(w, out)
}

func (s *Server) handleItem(w http.ResponseWriter, r *http.Request) {
	if s.Game == nil {
		http.Error(w, "player lookups are not configured", http.StatusServiceUnavailable)
		return
	}
	bucket, ok := destiny.SlotBucket(r.PathValue("slot"))
	if !ok {
		http.Error(w, "unknown slot", http.StatusBadRequest)
		return
	}

	players, err := s.Game.SearchPlayer(r.Context(), r.PathValue("name"), r.URL.Query().Get("platform"))
	if err != nil {
		writeGameError(w, err)
		return
	}
	if len(players) == 0 {
		http.Error(w, "no player found with that name", http.StatusNotFound)
		return
	}
	player := players[0]

	ch, err := s.Game.ActiveCharacterWithEquipment(r.Context(), player.MembershipType, player.MembershipID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	equipped, ok := ch.EquippedIn(bucket)
	if !ok || equipped.ItemInstanceID == "" {
		http.Error(w, "nothing equipped in that slot", http.StatusNotFound)
		return
	}

	item, err := s.Game.ItemDetails(r.Context(), player.MembershipType, player.MembershipID, equipped.ItemInstanceID)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, item)
}

func writeGameError(w http.ResponseWriter, err error) {
	var rerr *items.ResolutionError
	switch {
	case errors.Is(err, bungie.ErrNoCharacters):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &rerr):
		http.Error(w, "couldn't load item info", http.StatusNotFound)
	case bungie.IsUnavailable(err):
		http.Error(w, "game API unavailable", http.StatusServiceUnavailable)
	default:
		utils.Log.Warn(err)
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}

func parseListOptions(r *http.Request) (storage.ListOptions, error) {
	q := r.URL.Query()
	var opts storage.ListOptions

	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return opts, errors.New("since must be an RFC3339 timestamp")
		}
		opts.Since = t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, errors.New("limit must be a positive number")
		}
		opts.Limit = n
	}
	if v := q.Get("member"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return opts, errors.New("member must be a member id")
		}
		opts.MemberID = id
	}
	return opts, nil
}
