package clips

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ghostwire/ghostbot/pkg/bungie"
	"github.com/ghostwire/ghostbot/pkg/destiny"
	"github.com/ghostwire/ghostbot/pkg/manifest"
	"github.com/ghostwire/ghostbot/pkg/storage"
	"github.com/ghostwire/ghostbot/pkg/twitch"
)

var t0 = time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC)

type fakeActivities struct {
	history map[string][]bungie.ActivityRecord
}

func (f *fakeActivities) Characters(_ context.Context, _ destiny.MembershipType, id string) ([]bungie.Character, error) {
	return []bungie.Character{
		{CharacterID: "old", DateLastPlayed: t0.Add(-48 * time.Hour)},
		{CharacterID: "char-" + id, DateLastPlayed: t0},
	}, nil
}

func (f *fakeActivities) ActivityHistory(_ context.Context, _ destiny.MembershipType, _, characterID string, _ int) ([]bungie.ActivityRecord, error) {
	h, ok := f.history[characterID]
	if !ok {
		return nil, errors.New("unknown character")
	}
	return h, nil
}

type fakeVideos struct {
	mu     sync.Mutex
	lookup int
	videos map[string][]twitch.Video
}

func (f *fakeVideos) User(_ context.Context, login string) (*twitch.User, error) {
	f.mu.Lock()
	f.lookup++
	f.mu.Unlock()
	if _, ok := f.videos[login]; !ok {
		return nil, twitch.ErrUserNotFound
	}
	return &twitch.User{ID: login, Login: login}, nil
}

func (f *fakeVideos) Videos(_ context.Context, userID string) ([]twitch.Video, error) {
	return f.videos[userID], nil
}

type fakeNames map[int64]string

func (f fakeNames) Activity(hash int64) *manifest.ActivityDefinition {
	name, ok := f[hash]
	if !ok {
		return nil
	}
	return &manifest.ActivityDefinition{Hash: manifest.Hash(hash), DisplayProperties: manifest.DisplayProperties{Name: name}}
}

func TestScan(t *testing.T) {
	ctx := context.Background()
	db, err := storage.Open(filepath.Join(t.TempDir(), "ghostbot.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	streamerID, err := db.UpsertMember(ctx, storage.Member{MembershipType: destiny.MembershipSteam, MembershipID: "1", DisplayName: "Streamer", TwitchLogin: "streamer"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.UpsertMember(ctx, storage.Member{MembershipType: destiny.MembershipSteam, MembershipID: "2", DisplayName: "Viewer"}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.UpsertMember(ctx, storage.Member{MembershipType: destiny.MembershipSteam, MembershipID: "3", DisplayName: "Ghost", TwitchLogin: "nobody"}); err != nil {
		t.Fatal(err)
	}

	acts := &fakeActivities{history: map[string][]bungie.ActivityRecord{
		"char-1": {
			// inside the first video
			{InstanceID: "in", ReferenceID: 1234, Period: t0.Add(10 * time.Minute), Duration: 20 * time.Minute},
			// recent, no video yet
			{InstanceID: "fresh", Period: t0.Add(5 * time.Hour), Duration: 10 * time.Minute},
			// old, never streamed
			{InstanceID: "stale", Period: t0.Add(-72 * time.Hour), Duration: 10 * time.Minute},
		},
		"char-3": {{InstanceID: "x", Period: t0, Duration: time.Minute}},
	}}
	vids := &fakeVideos{videos: map[string][]twitch.Video{
		"streamer": {
			{ID: "v1", URL: "https://www.twitch.tv/videos/1", StartedAt: t0, Duration: time.Hour},
			{ID: "v2", URL: "https://www.twitch.tv/videos/2", StartedAt: t0, Duration: 2 * time.Hour},
		},
	}}

	members, err := db.ListMembers(ctx, true)
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var streamed []storage.ClipMatch
	cfg := Config{
		Activities: acts,
		Videos:     vids,
		DB:         db,
		Names:      fakeNames{1234: "Vault of Glass"},
		OnMatch: func(_ storage.Member, m storage.ClipMatch) {
			mu.Lock()
			streamed = append(streamed, m)
			mu.Unlock()
		},
		now: func() time.Time { return t0.Add(6 * time.Hour) },
	}

	res, err := Scan(ctx, cfg, members)
	if err != nil {
		t.Fatal(err)
	}
	if res.Members != 2 {
		t.Errorf("Members = %d", res.Members)
	}
	if len(res.Errors) != 1 || !errors.Is(res.Errors[0], twitch.ErrUserNotFound) {
		t.Errorf("expected the unknown channel to fail, got %v", res.Errors)
	}
	if res.NewActivities != 4 {
		t.Errorf("NewActivities = %d", res.NewActivities)
	}
	if len(res.Matches) != 1 || res.Matches[0].VideoID != "v1" || res.Matches[0].Offset != 10*time.Minute {
		t.Fatalf("unexpected matches: %+v", res.Matches)
	}
	if res.Matches[0].ActivityName != "Vault of Glass" || res.Matches[0].ActivityHash != 1234 {
		t.Errorf("activity not named: %+v", res.Matches[0])
	}
	if len(streamed) != 1 {
		t.Errorf("OnMatch called %d times", len(streamed))
	}
	if res.Scanned != 2 {
		t.Errorf("Scanned = %d, want the match and the stale activity", res.Scanned)
	}

	unscanned, err := db.ListUnscanned(ctx, streamerID)
	if err != nil {
		t.Fatal(err)
	}
	if len(unscanned) != 1 || unscanned[0].InstanceID != "fresh" {
		t.Errorf("unexpected unscanned: %+v", unscanned)
	}

	m, err := db.GetMember(ctx, destiny.MembershipSteam, "1")
	if err != nil {
		t.Fatal(err)
	}
	if m.CharacterID != "char-1" || m.TwitchUserID != "streamer" {
		t.Errorf("member not updated: %+v", m)
	}

	// A second pass finds nothing new and keeps the first match.
	members, _ = db.ListMembers(ctx, true)
	res, err = Scan(ctx, cfg, members)
	if err != nil {
		t.Fatal(err)
	}
	if res.NewActivities != 0 || len(res.Matches) != 0 {
		t.Errorf("unexpected second pass: %+v", res)
	}
	stored, err := db.ListClipMatches(ctx, storage.ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected one stored match, got %+v", stored)
	}
	if stored[0].ActivityName != "Vault of Glass" || stored[0].ActivityHash != 1234 {
		t.Errorf("stored match lost its activity: %+v", stored[0])
	}
}

func TestActivityName(t *testing.T) {
	names := fakeNames{1234: "Vault of Glass"}
	tests := []struct {
		names ActivityNamer
		hash  uint32
		want  string
	}{
		{names, 1234, "Vault of Glass"},
		{names, 99, ""},
		{names, 0, ""},
		{nil, 1234, ""},
	}
	for _, tt := range tests {
		if got := activityName(tt.names, tt.hash); got != tt.want {
			t.Errorf("activityName(%d) = %q, want %q", tt.hash, got, tt.want)
		}
	}
}

func TestScanRequiresDependencies(t *testing.T) {
	if _, err := Scan(context.Background(), Config{}, nil); err == nil {
		t.Fatal("expected an error")
	}
}
