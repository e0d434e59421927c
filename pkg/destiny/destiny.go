package destiny

import "strings"

// DamageType mirrors the API's DamageType enumeration.
type DamageType int

const (
	DamageNone    DamageType = 0
	DamageKinetic DamageType = 1
	DamageArc     DamageType = 2
	DamageThermal DamageType = 3
	DamageVoid    DamageType = 4
	DamageRaid    DamageType = 5
	DamageStasis  DamageType = 6
	DamageStrand  DamageType = 7
)

var damageTypeNames = map[DamageType]string{
	DamageNone:    "None",
	DamageKinetic: "Kinetic",
	DamageArc:     "Arc",
	DamageThermal: "Solar",
	DamageVoid:    "Void",
	DamageRaid:    "Raid",
	DamageStasis:  "Stasis",
	DamageStrand:  "Strand",
}

func (d DamageType) String() string {
	if name, ok := damageTypeNames[d]; ok {
		return name
	}
	return "Unknown"
}

// MembershipType is the platform code embedded in API paths.
type MembershipType int

const (
	MembershipAll      MembershipType = -1
	MembershipNone     MembershipType = 0
	MembershipXbox     MembershipType = 1
	MembershipPSN      MembershipType = 2
	MembershipSteam    MembershipType = 3
	MembershipBlizzard MembershipType = 4
	MembershipStadia   MembershipType = 5
	MembershipBungie   MembershipType = 254
)

var platformAliases = map[string]MembershipType{
	"xbox":        MembershipXbox,
	"xb":          MembershipXbox,
	"xbl":         MembershipXbox,
	"playstation": MembershipPSN,
	"psn":         MembershipPSN,
	"ps":          MembershipPSN,
	"ps4":         MembershipPSN,
	"ps5":         MembershipPSN,
	"pc":          MembershipSteam,
	"steam":       MembershipSteam,
	"battlenet":   MembershipBlizzard,
	"bnet":        MembershipBlizzard,
	"blizzard":    MembershipBlizzard,
	"stadia":      MembershipStadia,
}

// ParseMembershipType maps a user supplied platform name to its code.
// Empty or unknown names search all platforms.
func ParseMembershipType(platform string) MembershipType {
	if mt, ok := platformAliases[strings.ToLower(strings.TrimSpace(platform))]; ok {
		return mt
	}
	return MembershipAll
}

func (m MembershipType) String() string {
	switch m {
	case MembershipAll:
		return "all"
	case MembershipXbox:
		return "xbox"
	case MembershipPSN:
		return "playstation"
	case MembershipSteam:
		return "steam"
	case MembershipBlizzard:
		return "battlenet"
	case MembershipStadia:
		return "stadia"
	case MembershipBungie:
		return "bungie"
	}
	return "none"
}

// Inventory bucket hashes of the equipment slots.
const (
	BucketKinetic   uint32 = 1498876634
	BucketEnergy    uint32 = 2465295065
	BucketPower     uint32 = 953998645
	BucketHelmet    uint32 = 3448274439
	BucketGauntlets uint32 = 3551918588
	BucketChest     uint32 = 14239492
	BucketLegs      uint32 = 20886954
	BucketClassItem uint32 = 1585787867
	BucketGhost     uint32 = 4023194814
	BucketVehicle   uint32 = 2025709351
	BucketShip      uint32 = 284967655
	BucketSubclass  uint32 = 3284755031
)

var slotBuckets = map[string]uint32{
	"kinetic":   BucketKinetic,
	"primary":   BucketKinetic,
	"energy":    BucketEnergy,
	"special":   BucketEnergy,
	"secondary": BucketEnergy,
	"power":     BucketPower,
	"heavy":     BucketPower,
	"helmet":    BucketHelmet,
	"head":      BucketHelmet,
	"gauntlets": BucketGauntlets,
	"arms":      BucketGauntlets,
	"gloves":    BucketGauntlets,
	"chest":     BucketChest,
	"legs":      BucketLegs,
	"boots":     BucketLegs,
	"class":     BucketClassItem,
	"classitem": BucketClassItem,
	"mark":      BucketClassItem,
	"bond":      BucketClassItem,
	"cloak":     BucketClassItem,
	"ghost":     BucketGhost,
	"sparrow":   BucketVehicle,
	"vehicle":   BucketVehicle,
	"ship":      BucketShip,
}

// SlotBucket returns the inventory bucket for an equipment slot name.
func SlotBucket(slot string) (uint32, bool) {
	b, ok := slotBuckets[strings.ToLower(strings.ReplaceAll(slot, " ", ""))]
	return b, ok
}

// SlotNames lists the accepted slot names, for usage messages.
func SlotNames() []string {
	return []string{"kinetic", "energy", "power", "helmet", "gauntlets", "chest", "legs", "class", "ghost", "sparrow", "ship"}
}

func (d DamageType) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
