package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ghostwire/ghostbot/pkg/bungie"
	"github.com/ghostwire/ghostbot/pkg/destiny"
	"github.com/ghostwire/ghostbot/pkg/items"
	"github.com/ghostwire/ghostbot/pkg/manifest"
	"github.com/ghostwire/ghostbot/pkg/storage"
	"github.com/ghostwire/ghostbot/pkg/whttp"
)

var started = time.Date(2024, 3, 1, 19, 30, 0, 0, time.UTC)

func seedDB(t *testing.T) *storage.DB {
	t.Helper()
	ctx := context.Background()

	db, err := storage.Open(filepath.Join(t.TempDir(), "ghostbot.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	id, err := db.UpsertMember(ctx, storage.Member{
		MembershipType: destiny.MembershipSteam,
		MembershipID:   "4611",
		DisplayName:    "Guardian",
		TwitchLogin:    "streamer",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.UpsertActivities(ctx, id, []storage.Activity{
		{InstanceID: "9001", ReferenceHash: 1234, StartedAt: started, Duration: 20 * time.Minute},
	}); err != nil {
		t.Fatal(err)
	}
	unscanned, err := db.ListUnscanned(ctx, id)
	if err != nil || len(unscanned) != 1 {
		t.Fatalf("unexpected unscanned activities: %v %v", unscanned, err)
	}
	if err := db.RecordClipMatch(ctx, storage.ClipMatch{
		ActivityID:   unscanned[0].ID,
		ActivityName: "Vault of Glass",
		VideoID:      "v1",
		VideoURL:     "https://www.twitch.tv/videos/v1",
		VideoTitle:   "raid night",
		Offset:       90 * time.Second,
	}); err != nil {
		t.Fatal(err)
	}
	return db
}

type fakeGame struct {
	players []bungie.Player
	err     error
}

func (f *fakeGame) SearchPlayer(context.Context, string, string) ([]bungie.Player, error) {
	return f.players, f.err
}

func (f *fakeGame) ActiveCharacterWithEquipment(_ context.Context, mt destiny.MembershipType, id string) (*bungie.Character, error) {
	return &bungie.Character{
		CharacterID:    "c1",
		MembershipID:   id,
		MembershipType: mt,
		Equipment: []bungie.EquippedItem{
			{ItemHash: 111, ItemInstanceID: "inst-1", BucketHash: manifest.Hash(destiny.BucketKinetic)},
		},
	}, nil
}

func (f *fakeGame) ItemDetails(_ context.Context, _ destiny.MembershipType, _, instanceID string) (*items.DisplayItem, error) {
	if instanceID != "inst-1" {
		return nil, &items.ResolutionError{InstanceID: instanceID}
	}
	return &items.DisplayItem{Hash: 111, InstanceID: instanceID, Name: "Test Rifle"}, nil
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestStatsAndClips(t *testing.T) {
	h := New(seedDB(t), nil, "", "").Handler()

	rec := get(t, h, "/api/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: %d %s", rec.Code, rec.Body)
	}
	var stats map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats["members"] != 1 || stats["activities"] != 1 || stats["matches"] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}

	rec = get(t, h, "/api/clips?limit=10")
	var clips []clipJSON
	if err := json.NewDecoder(rec.Body).Decode(&clips); err != nil {
		t.Fatal(err)
	}
	if len(clips) != 1 {
		t.Fatalf("expected one clip, got %d", len(clips))
	}
	c := clips[0]
	if c.Player != "Guardian" || c.Link != "https://www.twitch.tv/videos/v1?t=0h1m30s" || c.DurationSeconds != 1200 {
		t.Fatalf("unexpected clip: %+v", c)
	}
	if !c.StartedAt.Equal(started) {
		t.Fatalf("unexpected start %v", c.StartedAt)
	}
	if c.Activity != "Vault of Glass" || c.ActivityHash != 1234 {
		t.Fatalf("unexpected activity %q (%d)", c.Activity, c.ActivityHash)
	}

	if rec := get(t, h, "/api/clips?since=yesterday"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad since, got %d", rec.Code)
	}
}

func TestMembers(t *testing.T) {
	h := New(seedDB(t), nil, "", "").Handler()

	rec := get(t, h, "/api/members?linked=true")
	var members []memberJSON
	if err := json.NewDecoder(rec.Body).Decode(&members); err != nil {
		t.Fatal(err)
	}
	if len(members) != 1 || members[0].Platform != "steam" || members[0].TwitchLogin != "streamer" || members[0].ID == 0 {
		t.Fatalf("unexpected members: %+v", members)
	}
}

func TestBasicAuth(t *testing.T) {
	h := New(seedDB(t), nil, "admin", "hunter2").Handler()

	if rec := get(t, h, "/api/stats"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.SetBasicAuth("admin", "hunter2")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with credentials, got %d", rec.Code)
	}
}

func TestItemEndpoint(t *testing.T) {
	game := &fakeGame{players: []bungie.Player{
		{MembershipID: "4611", MembershipType: destiny.MembershipSteam, DisplayName: "Guardian"},
	}}
	h := New(seedDB(t), game, "", "").Handler()

	rec := get(t, h, "/api/players/Guardian/items/kinetic")
	if rec.Code != http.StatusOK {
		t.Fatalf("item: %d %s", rec.Code, rec.Body)
	}
	var item items.DisplayItem
	if err := json.NewDecoder(rec.Body).Decode(&item); err != nil {
		t.Fatal(err)
	}
	if item.Name != "Test Rifle" {
		t.Fatalf("unexpected item: %+v", item)
	}

	tests := []struct {
		path string
		want int
	}{
		{"/api/players/Guardian/items/energy", http.StatusNotFound},
		{"/api/players/Guardian/items/banana", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if rec := get(t, h, tt.path); rec.Code != tt.want {
			t.Errorf("%s: got %d, want %d", tt.path, rec.Code, tt.want)
		}
	}

	game.players = nil
	if rec := get(t, h, "/api/players/Nobody/items/kinetic"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown player, got %d", rec.Code)
	}

	game.err = &bungie.QueryError{Endpoint: "/Destiny2/SearchDestinyPlayer/", Err: whttp.ErrUnavailable}
	rec = get(t, h, "/api/players/Guardian")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "unavailable") {
		t.Fatalf("expected 503, got %d %s", rec.Code, rec.Body)
	}
}

func TestPlayerEndpointsWithoutGame(t *testing.T) {
	h := New(seedDB(t), nil, "", "").Handler()
	if rec := get(t, h, "/api/players/Guardian"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
