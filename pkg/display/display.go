package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ghostwire/ghostbot/pkg/bungie"
	"github.com/ghostwire/ghostbot/pkg/destiny"
	"github.com/ghostwire/ghostbot/pkg/items"
	"github.com/ghostwire/ghostbot/pkg/manifest"
	"github.com/ghostwire/ghostbot/pkg/storage"
)

const DEFAULT_ITEM_FLAGS = "npms"

// ValidateFlags checks an item output flag string.
func ValidateFlags(outputFlags string) error {
	for _, f := range outputFlags {
		if !strings.ContainsRune("npmso", f) {
			return fmt.Errorf("invalid output flag %q (use n, p, m, s, o)", f)
		}
	}
	return nil
}

// PrintItem writes the sections of item selected by outputFlags, in flag
// order: n name line, p perks, m mod and masterwork, s stats, o objectives.
func PrintItem(w io.Writer, item *items.DisplayItem, outputFlags string) error {
	if err := ValidateFlags(outputFlags); err != nil {
		return err
	}
	for _, f := range outputFlags {
		switch f {
		case 'n':
			fmt.Fprintln(w, nameLine(item))
		case 'p':
			for _, s := range item.PerkSockets {
				fmt.Fprintln(w, "  "+perkLine(s))
			}
		case 'm':
			if item.Mod != nil {
				fmt.Fprintf(w, "  Mod: %s\n", item.Mod.Name)
			}
			if item.Masterwork != nil {
				fmt.Fprintln(w, "  "+masterworkLine(item.Masterwork))
			}
		case 's':
			for _, s := range item.Stats {
				fmt.Fprintf(w, "  %-20s %d\n", s.Name, s.Value)
			}
		case 'o':
			for _, o := range item.Objectives {
				fmt.Fprintf(w, "  %s: %s\n", o.Label, o.Value)
			}
		}
	}
	return nil
}

func nameLine(item *items.DisplayItem) string {
	parts := []string{item.Name}
	if item.TypeAndTier != "" {
		parts = append(parts, "("+item.TypeAndTier+")")
	}
	if item.PowerLevel > 0 {
		parts = append(parts, fmt.Sprintf("%d", item.PowerLevel))
	}
	if item.DamageType != "" && item.DamageType != destiny.DamageNone.String() {
		parts = append(parts, item.DamageType)
	}
	if item.Armor2 {
		parts = append(parts, fmt.Sprintf("[%s %d/%d]", strings.TrimSpace(item.EnergyType), item.EnergyUsed, item.EnergyCapacity))
	}
	return strings.Join(parts, " ")
}

// perkLine lists the perks of a socket, the selected one in brackets.
func perkLine(s items.PerkSocket) string {
	names := make([]string, 0, len(s.Perks))
	for _, p := range s.Perks {
		if p.Selected && len(s.Perks) > 1 {
			names = append(names, "["+p.Name+"]")
			continue
		}
		names = append(names, p.Name)
	}
	return strings.Join(names, " | ")
}

func masterworkLine(mw *items.Masterwork) string {
	line := fmt.Sprintf("Masterwork: %s +%d", mw.StatName, mw.Value)
	if mw.DamageResistanceType != nil {
		line += fmt.Sprintf(" (%s resistance)", mw.DamageResistanceType.String())
	}
	return line
}

// ItemNamer resolves item names. *manifest.Store satisfies it.
type ItemNamer interface {
	Item(hash int64) *manifest.ItemDefinition
}

var loadoutSlots = []struct {
	name   string
	bucket uint32
}{
	{"Kinetic", destiny.BucketKinetic},
	{"Energy", destiny.BucketEnergy},
	{"Power", destiny.BucketPower},
	{"Helmet", destiny.BucketHelmet},
	{"Gauntlets", destiny.BucketGauntlets},
	{"Chest", destiny.BucketChest},
	{"Legs", destiny.BucketLegs},
	{"Class Item", destiny.BucketClassItem},
}

// PrintLoadout writes the weapons and armor equipped on ch.
func PrintLoadout(w io.Writer, ch *bungie.Character, names ItemNamer) {
	fmt.Fprintf(w, "%s %d (last played %s)\n", ch.Class(), ch.Light, ch.DateLastPlayed.UTC().Format(time.RFC3339))
	for _, slot := range loadoutSlots {
		it, ok := ch.EquippedIn(slot.bucket)
		if !ok {
			continue
		}
		name := fmt.Sprintf("#%d", uint32(it.ItemHash))
		if def := names.Item(it.ItemHash.Key()); def != nil {
			name = def.DisplayProperties.Name
		}
		fmt.Fprintf(w, "  %-10s %s\n", slot.name+":", name)
	}
}

// PrintClipMatch writes one match with a link to the moment in the video.
func PrintClipMatch(w io.Writer, m storage.ClipMatch) {
	activity := m.ActivityName
	if activity == "" {
		activity = "-"
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		m.ActivityStartedAt.UTC().Format("2006-01-02 15:04"),
		m.MemberName,
		activity,
		m.ActivityDuration.Round(time.Second),
		VideoLink(m.VideoURL, m.Offset))
}

// VideoLink appends a start offset to a video URL, e.g. ?t=1h2m3s.
func VideoLink(videoURL string, offset time.Duration) string {
	if offset <= 0 {
		return videoURL
	}
	total := int(offset / time.Second)
	h, m, s := total/3600, total%3600/60, total%60

	sep := "?"
	if strings.Contains(videoURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%st=%dh%dm%ds", videoURL, sep, h, m, s)
}
