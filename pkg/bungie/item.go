package bungie

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ghostwire/ghostbot/internal/utils"
	"github.com/ghostwire/ghostbot/pkg/destiny"
	"github.com/ghostwire/ghostbot/pkg/items"
	"github.com/ghostwire/ghostbot/pkg/manifest"
	"github.com/tidwall/gjson"
)

// Item components: instances, stats, sockets, common data, plug states,
// reusable plugs and plug objectives.
const itemComponents = "300,302,304,305,307,309,310"

// ItemInstance fetches the raw state of one item instance.
func (c *Client) ItemInstance(ctx context.Context, mt destiny.MembershipType, membershipID, instanceID string) (*items.ItemInstance, error) {
	endpoint := fmt.Sprintf("/Destiny2/%d/Profile/%s/Item/%s/?components=%s",
		int(mt), pathEscape(membershipID), pathEscape(instanceID), itemComponents)

	res, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if !res.Get("item.data.itemHash").Exists() {
		return nil, &QueryError{Endpoint: redactQuery(endpoint), Err: ErrNoResponse}
	}
	return parseItemInstance(res), nil
}

// ItemDetails fetches an item instance and resolves it against the catalog.
// The manifest location is rechecked at most once per check interval; a
// failed refresh is logged and the loaded catalog used.
func (c *Client) ItemDetails(ctx context.Context, mt destiny.MembershipType, membershipID, instanceID string) (*items.DisplayItem, error) {
	if _, err := c.refreshIfStale(ctx); err != nil {
		utils.Log.Warnf("Manifest refresh failed, using %s: %v", c.store.URL(), err)
	}

	inst, err := c.ItemInstance(ctx, mt, membershipID, instanceID)
	if err != nil {
		return nil, err
	}
	return c.resolver.Resolve(inst)
}

func parseItemInstance(res gjson.Result) *items.ItemInstance {
	item := res.Get("item.data")
	instance := res.Get("instance.data")

	inst := &items.ItemInstance{
		ItemHash:              manifest.Hash(item.Get("itemHash").Uint()),
		ItemInstanceID:        item.Get("itemInstanceId").String(),
		OverrideStyleItemHash: manifest.Hash(item.Get("overrideStyleItemHash").Uint()),
		BucketHash:            manifest.Hash(item.Get("bucketHash").Uint()),
		DamageType:            destiny.DamageType(instance.Get("damageType").Int()),
		PrimaryStat:           int(instance.Get("primaryStat.value").Int()),
	}

	if energy := instance.Get("energy"); energy.Exists() && energy.Type != gjson.Null {
		inst.Energy = &items.Energy{
			EnergyTypeHash: manifest.Hash(energy.Get("energyTypeHash").Uint()),
			Capacity:       int(energy.Get("energyCapacity").Int()),
			Used:           int(energy.Get("energyUsed").Int()),
		}
	}

	res.Get("sockets.data.sockets").ForEach(func(_, v gjson.Result) bool {
		s := items.SocketState{
			PlugHash: manifest.Hash(v.Get("plugHash").Uint()),
		}
		if vis := v.Get("isVisible"); vis.Exists() {
			b := vis.Bool()
			s.IsVisible = &b
		}
		inst.Sockets = append(inst.Sockets, s)
		return true
	})

	res.Get("reusablePlugs.data.plugs").ForEach(func(key, plugs gjson.Result) bool {
		idx, err := strconv.Atoi(key.String())
		if err != nil {
			return true
		}
		if inst.ReusablePlugs == nil {
			inst.ReusablePlugs = map[int][]items.ReusablePlug{}
		}
		plugs.ForEach(func(_, v gjson.Result) bool {
			inst.ReusablePlugs[idx] = append(inst.ReusablePlugs[idx], items.ReusablePlug{
				PlugItemHash: manifest.Hash(v.Get("plugItemHash").Uint()),
			})
			return true
		})
		return true
	})

	res.Get("plugObjectives.data.objectivesPerPlug").ForEach(func(key, objectives gjson.Result) bool {
		hash, err := strconv.ParseUint(key.String(), 10, 32)
		if err != nil {
			return true
		}
		if inst.PlugObjectives == nil {
			inst.PlugObjectives = map[manifest.Hash][]items.ObjectiveProgress{}
		}
		plug := manifest.Hash(hash)
		objectives.ForEach(func(_, v gjson.Result) bool {
			p := items.ObjectiveProgress{
				ObjectiveHash:   manifest.Hash(v.Get("objectiveHash").Uint()),
				Progress:        v.Get("progress").Int(),
				CompletionValue: v.Get("completionValue").Int(),
				Complete:        v.Get("complete").Bool(),
			}
			if vis := v.Get("visible"); vis.Exists() {
				b := vis.Bool()
				p.Visible = &b
			}
			inst.PlugObjectives[plug] = append(inst.PlugObjectives[plug], p)
			return true
		})
		return true
	})

	// Keyed by stat hash; ForEach walks the object in document order.
	res.Get("stats.data.stats").ForEach(func(_, v gjson.Result) bool {
		inst.Stats = append(inst.Stats, items.StatValue{
			StatHash: manifest.Hash(v.Get("statHash").Uint()),
			Value:    int(v.Get("value").Int()),
		})
		return true
	})

	return inst
}
