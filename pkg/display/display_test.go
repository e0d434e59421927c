package display

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/ghostwire/ghostbot/pkg/bungie"
	"github.com/ghostwire/ghostbot/pkg/destiny"
	"github.com/ghostwire/ghostbot/pkg/items"
	"github.com/ghostwire/ghostbot/pkg/manifest"
	"github.com/ghostwire/ghostbot/pkg/storage"
)

func testItem() *items.DisplayItem {
	void := destiny.DamageVoid
	return &items.DisplayItem{
		Name:        "Test Rifle",
		TypeAndTier: "Legendary Auto Rifle",
		PowerLevel:  1810,
		DamageType:  "Kinetic",
		PerkSockets: []items.PerkSocket{
			{Perks: []items.Perk{{Name: "Outlaw", Selected: true}, {Name: "Rampage"}}},
			{Perks: []items.Perk{{Name: "Fitted Stock", Selected: true}}},
		},
		Mod:        &items.Mod{Name: "Backup Mag"},
		Masterwork: &items.Masterwork{StatName: "Void Damage Resistance", Value: 10, DamageResistanceType: &void},
		Stats:      []items.Stat{{Name: "Rounds Per Minute", Value: 450}},
		Objectives: []items.Objective{{Label: "Enemies defeated", Value: "12,345"}},
	}
}

func TestPrintItem(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintItem(&buf, testItem(), "npmso"); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"Test Rifle (Legendary Auto Rifle) 1810 Kinetic",
		"  [Outlaw] | Rampage",
		"  Fitted Stock",
		"  Mod: Backup Mag",
		"  Masterwork: Void Damage Resistance +10 (Void resistance)",
		"  Rounds Per Minute    450",
		"  Enemies defeated: 12,345",
	}
	got := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(got) != len(want) {
		t.Fatalf("got:\n%s", buf.String())
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPrintItemFlags(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintItem(&buf, testItem(), "s"); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "Test Rifle") || !strings.Contains(buf.String(), "Rounds Per Minute") {
		t.Errorf("unexpected output: %q", buf.String())
	}

	if err := PrintItem(&buf, testItem(), "nx"); err == nil {
		t.Error("expected an invalid flag error")
	}
}

type namer map[int64]string

func (n namer) Item(h int64) *manifest.ItemDefinition {
	name, ok := n[h]
	if !ok {
		return nil
	}
	return &manifest.ItemDefinition{DisplayProperties: manifest.DisplayProperties{Name: name}}
}

func TestPrintLoadout(t *testing.T) {
	ch := &bungie.Character{
		ClassType:      2,
		Light:          1810,
		DateLastPlayed: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Equipment: []bungie.EquippedItem{
			{ItemHash: 111, BucketHash: manifest.Hash(destiny.BucketKinetic)},
			{ItemHash: 3000000000, BucketHash: manifest.Hash(destiny.BucketHelmet)},
			{ItemHash: 5, BucketHash: manifest.Hash(destiny.BucketGhost)},
		},
	}
	var buf bytes.Buffer
	PrintLoadout(&buf, ch, namer{111: "Test Rifle", manifest.HashKey(3000000000): "Big Helmet"})

	out := buf.String()
	for _, want := range []string{"Warlock 1810", "Kinetic:   Test Rifle", "Helmet:    Big Helmet"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "#5") {
		t.Errorf("ghost slot should not be listed:\n%s", out)
	}
}

func TestVideoLink(t *testing.T) {
	tests := []struct {
		url    string
		offset time.Duration
		want   string
	}{
		{"https://www.twitch.tv/videos/1", time.Hour + 2*time.Minute + 3*time.Second, "https://www.twitch.tv/videos/1?t=1h2m3s"},
		{"https://www.twitch.tv/videos/1", 45 * time.Second, "https://www.twitch.tv/videos/1?t=0h0m45s"},
		{"https://www.twitch.tv/videos/1?foo=bar", time.Minute, "https://www.twitch.tv/videos/1?foo=bar&t=0h1m0s"},
		{"https://www.twitch.tv/videos/1", 0, "https://www.twitch.tv/videos/1"},
	}
	for _, tt := range tests {
		if got := VideoLink(tt.url, tt.offset); got != tt.want {
			t.Errorf("VideoLink(%q, %v) = %q, want %q", tt.url, tt.offset, got, tt.want)
		}
	}
}

func TestPrintClipMatch(t *testing.T) {
	m := storage.ClipMatch{
		MemberName:        "Amy",
		ActivityName:      "Vault of Glass",
		VideoURL:          "https://www.twitch.tv/videos/1",
		Offset:            10 * time.Minute,
		ActivityStartedAt: time.Date(2024, 3, 1, 19, 10, 0, 0, time.UTC),
		ActivityDuration:  20 * time.Minute,
	}

	var buf bytes.Buffer
	PrintClipMatch(&buf, m)
	want := "2024-03-01 19:10\tAmy\tVault of Glass\t20m0s\thttps://www.twitch.tv/videos/1?t=0h10m0s\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}

	buf.Reset()
	m.ActivityName = ""
	PrintClipMatch(&buf, m)
	want = "2024-03-01 19:10\tAmy\t-\t20m0s\thttps://www.twitch.tv/videos/1?t=0h10m0s\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
