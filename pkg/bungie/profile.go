package bungie

import (
	"context"
	"fmt"
	"time"

	"github.com/ghostwire/ghostbot/pkg/destiny"
	"github.com/ghostwire/ghostbot/pkg/manifest"
	"github.com/tidwall/gjson"
)

// SearchPlayer looks up players by display name. An empty or unknown
// platform searches every platform.
func (c *Client) SearchPlayer(ctx context.Context, name, platform string) ([]Player, error) {
	mt := destiny.ParseMembershipType(platform)
	endpoint := fmt.Sprintf("/Destiny2/SearchDestinyPlayer/%d/%s/", int(mt), pathEscape(name))

	res, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var players []Player
	res.ForEach(func(_, v gjson.Result) bool {
		players = append(players, Player{
			MembershipID:   v.Get("membershipId").String(),
			MembershipType: destiny.MembershipType(v.Get("membershipType").Int()),
			DisplayName:    v.Get("displayName").String(),
			IconPath:       v.Get("iconPath").String(),
		})
		return true
	})
	return players, nil
}

// Characters returns the character summaries of a membership.
func (c *Client) Characters(ctx context.Context, mt destiny.MembershipType, membershipID string) ([]Character, error) {
	res, err := c.profile(ctx, mt, membershipID, "200")
	if err != nil {
		return nil, err
	}
	return parseCharacters(res), nil
}

// ActiveCharacterWithEquipment returns the most recently played character
// with its equipped items attached.
func (c *Client) ActiveCharacterWithEquipment(ctx context.Context, mt destiny.MembershipType, membershipID string) (*Character, error) {
	res, err := c.profile(ctx, mt, membershipID, "200,205")
	if err != nil {
		return nil, err
	}

	chars := parseCharacters(res)
	if len(chars) == 0 {
		return nil, &QueryError{Endpoint: profileEndpoint(mt, membershipID), Err: ErrNoCharacters}
	}

	active := chars[0]
	for _, ch := range chars[1:] {
		if ch.DateLastPlayed.After(active.DateLastPlayed) {
			active = ch
		}
	}

	res.Get("characterEquipment.data." + active.CharacterID + ".items").ForEach(func(_, v gjson.Result) bool {
		active.Equipment = append(active.Equipment, EquippedItem{
			ItemHash:       manifest.Hash(v.Get("itemHash").Uint()),
			ItemInstanceID: v.Get("itemInstanceId").String(),
			BucketHash:     manifest.Hash(v.Get("bucketHash").Uint()),
		})
		return true
	})
	return &active, nil
}

func profileEndpoint(mt destiny.MembershipType, membershipID string) string {
	return fmt.Sprintf("/Destiny2/%d/Profile/%s/", int(mt), pathEscape(membershipID))
}

func (c *Client) profile(ctx context.Context, mt destiny.MembershipType, membershipID, components string) (gjson.Result, error) {
	return c.get(ctx, profileEndpoint(mt, membershipID)+"?components="+components)
}

func parseCharacters(profile gjson.Result) []Character {
	var chars []Character
	profile.Get("characters.data").ForEach(func(key, v gjson.Result) bool {
		played, _ := time.Parse(time.RFC3339, v.Get("dateLastPlayed").String())
		id := v.Get("characterId").String()
		if id == "" {
			id = key.String()
		}
		chars = append(chars, Character{
			CharacterID:    id,
			MembershipID:   v.Get("membershipId").String(),
			MembershipType: destiny.MembershipType(v.Get("membershipType").Int()),
			DateLastPlayed: played,
			Light:          int(v.Get("light").Int()),
			ClassType:      int(v.Get("classType").Int()),
			EmblemPath:     v.Get("emblemPath").String(),
		})
		return true
	})
	return chars
}
