package items

import (
	"regexp"

	"github.com/ghostwire/ghostbot/pkg/destiny"
	"github.com/ghostwire/ghostbot/pkg/manifest"
)

// EmptySocketLabel is the display name of an empty mod socket placeholder.
const EmptySocketLabel = "Empty Mod Socket"

// SocketRole is how the plugs of a socket category are presented.
type SocketRole int

const (
	RoleNone SocketRole = iota
	RoleWeaponPerks
	RoleArmorPerks
	RoleWeaponMods
	RoleArmorMods
)

func (r SocketRole) perks() bool { return r == RoleWeaponPerks || r == RoleArmorPerks }

func (r SocketRole) mods() bool { return r == RoleWeaponMods || r == RoleArmorMods }

// DefaultSocketRoles maps socket category hashes to roles. Ghost and vehicle
// categories are treated like weapon ones.
var DefaultSocketRoles = map[manifest.Hash]SocketRole{
	4241085061: RoleWeaponPerks, // WEAPON PERKS
	2518356196: RoleArmorPerks,  // ARMOR PERKS
	3379164649: RoleWeaponPerks, // GHOST SHELL PERKS
	3301318876: RoleWeaponPerks, // VEHICLE PERKS
	2685412949: RoleWeaponMods,  // WEAPON MODS
	590099826:  RoleArmorMods,   // ARMOR MODS
	4243480345: RoleWeaponMods,  // GHOST MODS
	4265082475: RoleWeaponMods,  // VEHICLE MODS
}

// PlugKind classifies an inserted plug by its plug category identifier.
type PlugKind int

const (
	PlugOther PlugKind = iota
	PlugTracker
	PlugMasterwork
	PlugMod
	PlugEnhancement
)

type PlugRule struct {
	Pattern *regexp.Regexp
	Kind    PlugKind
}

// DefaultPlugRules is checked in order; the first match wins. The catalog
// renamed these identifiers between content updates, so both masterwork
// generations are listed.
var DefaultPlugRules = []PlugRule{
	{regexp.MustCompile(`(^|\.)trackers?(\.|$)`), PlugTracker},
	{regexp.MustCompile(`^v[0-9]+\.plugs\.[a-z_]+\.masterworks(\.|$)`), PlugMasterwork},
	{regexp.MustCompile(`(^|\.)masterworks?(\.|$)`), PlugMasterwork},
	{regexp.MustCompile(`^v[0-9]+\.weapon\.mod_`), PlugMod},
	{regexp.MustCompile(`^enhancements\.v2_`), PlugMod},
	{regexp.MustCompile(`^(weapon|armor)_mods?(\.|_|$)`), PlugMod},
	{regexp.MustCompile(`^enhancements\.`), PlugEnhancement},
}

// ClassifyPlug returns the kind of the first rule matching identifier.
func ClassifyPlug(rules []PlugRule, identifier string) PlugKind {
	for _, rule := range rules {
		if rule.Pattern.MatchString(identifier) {
			return rule.Kind
		}
	}
	return PlugOther
}

var resistancePatterns = []struct {
	pattern    *regexp.Regexp
	damageType destiny.DamageType
}{
	{regexp.MustCompile(`(?i)^arc\b.*resist`), destiny.DamageArc},
	{regexp.MustCompile(`(?i)^solar\b.*resist`), destiny.DamageThermal},
	{regexp.MustCompile(`(?i)^void\b.*resist`), destiny.DamageVoid},
}

// resistanceType maps a damage resistance stat name to its damage type.
func resistanceType(statName string) (destiny.DamageType, bool) {
	for _, r := range resistancePatterns {
		if r.pattern.MatchString(statName) {
			return r.damageType, true
		}
	}
	return destiny.DamageNone, false
}

func isEmptySocket(plug *manifest.ItemDefinition) bool {
	return plug.DisplayProperties.Name == EmptySocketLabel
}

func plugIdentifier(plug *manifest.ItemDefinition) string {
	if plug.Plug == nil {
		return ""
	}
	return plug.Plug.PlugCategoryIdentifier
}
