package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ghostwire/ghostbot/pkg/destiny"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ghostbot.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUpsertMember(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	id, err := db.UpsertMember(ctx, Member{
		MembershipType: destiny.MembershipSteam,
		MembershipID:   "4611686018",
		DisplayName:    " Guardian\x00 ",
		TwitchLogin:    "Streamer",
	})
	if err != nil {
		t.Fatal(err)
	}

	// A second registration updates the name and keeps the channel.
	id2, err := db.UpsertMember(ctx, Member{
		MembershipType: destiny.MembershipSteam,
		MembershipID:   "4611686018",
		DisplayName:    "Guardian#1234",
	})
	if err != nil {
		t.Fatal(err)
	}
	if id != id2 {
		t.Fatalf("expected the same row, got %d and %d", id, id2)
	}

	m, err := db.GetMember(ctx, destiny.MembershipSteam, "4611686018")
	if err != nil {
		t.Fatal(err)
	}
	if m.DisplayName != "Guardian#1234" || m.TwitchLogin != "streamer" {
		t.Errorf("unexpected member: %+v", m)
	}
	if m.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	if _, err := db.GetMember(ctx, destiny.MembershipPSN, "4611686018"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSanitizedName(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, err := db.UpsertMember(ctx, Member{MembershipType: destiny.MembershipXbox, MembershipID: "1", DisplayName: "Bad\xffName\x00"})
	if err != nil {
		t.Fatalf("invalid text should be stored after cleaning: %v", err)
	}
	m, err := db.GetMember(ctx, destiny.MembershipXbox, "1")
	if err != nil {
		t.Fatal(err)
	}
	if m.DisplayName != "BadName" {
		t.Errorf("DisplayName = %q", m.DisplayName)
	}
}

func TestListMembers(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	for _, m := range []Member{
		{MembershipType: destiny.MembershipSteam, MembershipID: "1", DisplayName: "Zed", TwitchLogin: "zed"},
		{MembershipType: destiny.MembershipSteam, MembershipID: "2", DisplayName: "Amy"},
	} {
		if _, err := db.UpsertMember(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	all, err := db.ListMembers(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].DisplayName != "Amy" {
		t.Errorf("unexpected members: %+v", all)
	}

	linked, err := db.ListMembers(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(linked) != 1 || linked[0].TwitchLogin != "zed" {
		t.Errorf("unexpected linked members: %+v", linked)
	}
}

func TestActivitiesAndMatches(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	memberID, err := db.UpsertMember(ctx, Member{MembershipType: destiny.MembershipSteam, MembershipID: "1", DisplayName: "Amy"})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.SetCharacter(ctx, memberID, "2305843009"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetCharacter(ctx, memberID+100, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	t0 := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	acts := []Activity{
		{InstanceID: "b", ReferenceHash: 3000000000, Mode: 4, StartedAt: t0.Add(time.Hour), Duration: 30 * time.Minute},
		{InstanceID: "a", ReferenceHash: 1234, Mode: 4, StartedAt: t0, Duration: 20 * time.Minute},
	}
	n, err := db.UpsertActivities(ctx, memberID, acts)
	if err != nil || n != 2 {
		t.Fatalf("UpsertActivities = %d, %v", n, err)
	}
	n, err = db.UpsertActivities(ctx, memberID, acts)
	if err != nil || n != 0 {
		t.Fatalf("second UpsertActivities = %d, %v", n, err)
	}

	unscanned, err := db.ListUnscanned(ctx, memberID)
	if err != nil {
		t.Fatal(err)
	}
	if len(unscanned) != 2 || unscanned[0].InstanceID != "a" {
		t.Fatalf("unexpected unscanned: %+v", unscanned)
	}
	if b := unscanned[1]; b.ReferenceHash != 3000000000 || b.Duration != 30*time.Minute || !b.StartedAt.Equal(t0.Add(time.Hour)) {
		t.Errorf("unexpected activity: %+v", b)
	}

	first := ClipMatch{ActivityID: unscanned[0].ID, VideoID: "v1", VideoURL: "https://www.twitch.tv/videos/1", VideoTitle: "raid", ActivityName: "Vault of Glass", Offset: 10 * time.Minute}
	if err := db.RecordClipMatch(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := first
	second.VideoID = "v2"
	if err := db.RecordClipMatch(ctx, second); err != nil {
		t.Fatal(err)
	}
	if err := db.MarkScanned(ctx, unscanned[0].ID); err != nil {
		t.Fatal(err)
	}

	unscanned, err = db.ListUnscanned(ctx, memberID)
	if err != nil {
		t.Fatal(err)
	}
	if len(unscanned) != 1 || unscanned[0].InstanceID != "b" {
		t.Fatalf("unexpected unscanned after marking: %+v", unscanned)
	}

	matches, err := db.ListClipMatches(ctx, ListOptions{MemberID: memberID})
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one match, got %+v", matches)
	}
	m := matches[0]
	if m.VideoID != "v1" || m.Offset != 10*time.Minute || m.MemberName != "Amy" || !m.ActivityStartedAt.Equal(t0) {
		t.Errorf("unexpected match: %+v", m)
	}
	if m.ActivityName != "Vault of Glass" || m.ActivityHash != 1234 {
		t.Errorf("unexpected activity on match: %q (%d)", m.ActivityName, m.ActivityHash)
	}

	recent, err := db.ListClipMatches(ctx, ListOptions{Since: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 0 {
		t.Errorf("expected no matches in the future, got %+v", recent)
	}

	stats, err := db.GetStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats != (Stats{Members: 1, Activities: 2, Unscanned: 1, Matches: 1}) {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
