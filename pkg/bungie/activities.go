package bungie

import (
	"context"
	"fmt"
	"time"

	"github.com/ghostwire/ghostbot/pkg/destiny"
	"github.com/ghostwire/ghostbot/pkg/manifest"
	"github.com/tidwall/gjson"
)

// MaxActivityPage is the largest page the history endpoint serves.
const MaxActivityPage = 250

// ActivityHistory returns the most recent activities of a character, newest
// first. count is clamped to a single page.
func (c *Client) ActivityHistory(ctx context.Context, mt destiny.MembershipType, membershipID, characterID string, count int) ([]ActivityRecord, error) {
	if count <= 0 || count > MaxActivityPage {
		count = MaxActivityPage
	}
	endpoint := fmt.Sprintf("/Destiny2/%d/Account/%s/Character/%s/Stats/Activities/?count=%d&mode=0&page=0",
		int(mt), pathEscape(membershipID), pathEscape(characterID), count)

	res, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var records []ActivityRecord
	res.Get("activities").ForEach(func(_, v gjson.Result) bool {
		period, err := time.Parse(time.RFC3339, v.Get("period").String())
		if err != nil {
			return true
		}
		seconds := v.Get("values.activityDurationSeconds.basic.value").Float()
		records = append(records, ActivityRecord{
			InstanceID:  v.Get("activityDetails.instanceId").String(),
			ReferenceID: manifest.Hash(v.Get("activityDetails.referenceId").Uint()),
			Mode:        int(v.Get("activityDetails.mode").Int()),
			Period:      period.UTC(),
			Duration:    time.Duration(seconds * float64(time.Second)),
		})
		return true
	})
	return records, nil
}
