package bungie

import (
	"time"

	"github.com/ghostwire/ghostbot/pkg/destiny"
	"github.com/ghostwire/ghostbot/pkg/manifest"
)

// Player is one search candidate.
type Player struct {
	MembershipID   string                 `json:"membershipId"`
	MembershipType destiny.MembershipType `json:"membershipType"`
	DisplayName    string                 `json:"displayName"`
	IconPath       string                 `json:"iconPath"`
}

type Character struct {
	CharacterID    string                 `json:"characterId"`
	MembershipID   string                 `json:"membershipId"`
	MembershipType destiny.MembershipType `json:"membershipType"`
	DateLastPlayed time.Time              `json:"dateLastPlayed"`
	Light          int                    `json:"light"`
	ClassType      int                    `json:"classType"`
	EmblemPath     string                 `json:"emblemPath"`

	// Equipment is only filled by ActiveCharacterWithEquipment.
	Equipment []EquippedItem `json:"equipment,omitempty"`
}

// Class returns the character's class name.
func (c *Character) Class() string {
	switch c.ClassType {
	case 0:
		return "Titan"
	case 1:
		return "Hunter"
	case 2:
		return "Warlock"
	}
	return "Unknown"
}

// EquippedIn returns the item equipped in bucket, if any.
func (c *Character) EquippedIn(bucket uint32) (EquippedItem, bool) {
	for _, it := range c.Equipment {
		if uint32(it.BucketHash) == bucket {
			return it, true
		}
	}
	return EquippedItem{}, false
}

type EquippedItem struct {
	ItemHash       manifest.Hash `json:"itemHash"`
	ItemInstanceID string        `json:"itemInstanceId"`
	BucketHash     manifest.Hash `json:"bucketHash"`
}

// ActivityRecord is one entry of a character's activity history.
type ActivityRecord struct {
	InstanceID  string        `json:"instanceId"`
	ReferenceID manifest.Hash `json:"referenceId"`
	Mode        int           `json:"mode"`
	Period      time.Time     `json:"period"`
	Duration    time.Duration `json:"duration"`
}
