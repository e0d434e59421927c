package items

import (
	"fmt"

	"github.com/ghostwire/ghostbot/pkg/destiny"
	"github.com/ghostwire/ghostbot/pkg/manifest"
)

// ItemInstance is one concrete item as returned by the item endpoint.
type ItemInstance struct {
	ItemHash              manifest.Hash
	ItemInstanceID        string
	OverrideStyleItemHash manifest.Hash
	BucketHash            manifest.Hash
	DamageType            destiny.DamageType
	PrimaryStat           int
	Energy                *Energy

	// Sockets is indexed by socket index.
	Sockets []SocketState
	// ReusablePlugs holds the selectable plugs per socket index.
	ReusablePlugs map[int][]ReusablePlug
	// PlugObjectives holds objective progress per plug hash.
	PlugObjectives map[manifest.Hash][]ObjectiveProgress
	// Stats keeps the order of the API response.
	Stats []StatValue
}

type Energy struct {
	EnergyTypeHash manifest.Hash
	Capacity       int
	Used           int
}

type SocketState struct {
	PlugHash manifest.Hash
	// IsVisible is nil when the API did not report visibility.
	IsVisible *bool
}

type ReusablePlug struct {
	PlugItemHash manifest.Hash
}

type ObjectiveProgress struct {
	ObjectiveHash   manifest.Hash
	Progress        int64
	CompletionValue int64
	Complete        bool
	Visible         *bool
}

type StatValue struct {
	StatHash manifest.Hash
	Value    int
}

// DisplayItem is a fully resolved item, ready to be rendered.
type DisplayItem struct {
	Hash        manifest.Hash `json:"hash"`
	InstanceID  string        `json:"instanceId"`
	DamageType  string        `json:"damageType"`
	PowerLevel  int           `json:"powerLevel"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Icon        string        `json:"icon"`
	HasIcon     bool          `json:"hasIcon"`
	Tier        string        `json:"tier"`
	Type        string        `json:"type"`
	TypeAndTier string        `json:"typeAndTier"`

	PerkSockets []PerkSocket `json:"perkSockets"`
	Mod         *Mod         `json:"mod,omitempty"`
	Masterwork  *Masterwork  `json:"masterwork,omitempty"`
	Stats       []Stat       `json:"stats"`
	Objectives  []Objective  `json:"objectives,omitempty"`

	Armor2         bool   `json:"armor2_0"`
	EnergyType     string `json:"energyType,omitempty"`
	EnergyUsed     int    `json:"energyUsed,omitempty"`
	EnergyCapacity int    `json:"energyCapacity,omitempty"`
}

type PerkSocket struct {
	Perks []Perk `json:"perks"`
}

// Selected returns the inserted perk of the socket.
func (s PerkSocket) Selected() (Perk, bool) {
	for _, p := range s.Perks {
		if p.Selected {
			return p, true
		}
	}
	return Perk{}, false
}

type Perk struct {
	Hash        manifest.Hash `json:"hash"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Icon        string        `json:"icon"`
	HasIcon     bool          `json:"hasIcon"`
	Selected    bool          `json:"selected"`
}

type Mod struct {
	Hash        manifest.Hash `json:"hash"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Icon        string        `json:"icon"`
	HasIcon     bool          `json:"hasIcon"`
}

type Masterwork struct {
	Hash     manifest.Hash `json:"hash"`
	Name     string        `json:"name"`
	StatName string        `json:"statName"`
	Value    int           `json:"value"`
	// DamageResistanceType is set for damage resistance masterworks.
	DamageResistanceType *destiny.DamageType `json:"damageResistanceType,omitempty"`
}

type Stat struct {
	Hash        manifest.Hash `json:"hash"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Icon        string        `json:"icon"`
	Value       int           `json:"value"`
}

type Objective struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ResolutionError is returned when an item's own definition is missing
// from the catalog.
type ResolutionError struct {
	ItemHash   manifest.Hash
	InstanceID string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("no definition for item %d (instance %s)", uint32(e.ItemHash), e.InstanceID)
}
