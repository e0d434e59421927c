package clips

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ghostwire/ghostbot/pkg/bungie"
	"github.com/ghostwire/ghostbot/pkg/destiny"
	"github.com/ghostwire/ghostbot/pkg/manifest"
	"github.com/ghostwire/ghostbot/pkg/storage"
	"github.com/ghostwire/ghostbot/pkg/twitch"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// ActivitySource is satisfied by *bungie.Client.
type ActivitySource interface {
	Characters(ctx context.Context, mt destiny.MembershipType, membershipID string) ([]bungie.Character, error)
	ActivityHistory(ctx context.Context, mt destiny.MembershipType, membershipID, characterID string, count int) ([]bungie.ActivityRecord, error)
}

// VideoSource is satisfied by *twitch.Client.
type VideoSource interface {
	User(ctx context.Context, login string) (*twitch.User, error)
	Videos(ctx context.Context, userID string) ([]twitch.Video, error)
}

// ActivityNamer resolves activity definitions. *manifest.Store satisfies it.
type ActivityNamer interface {
	Activity(hash int64) *manifest.ActivityDefinition
}

// Config holds everything Scan needs.
type Config struct {
	Activities  ActivitySource
	Videos      VideoSource
	DB          *storage.DB
	Names       ActivityNamer // optional; matches are recorded without a name
	Concurrency int           // defaults to 5 if <= 0
	History     int           // activities fetched per member; defaults to 25
	Log         Logger        // optional; nil = no logging

	// SettleAfter is how long after its end an unmatched activity stops
	// being retried. Broadcasts can still be running or processing before
	// that. Defaults to 24h.
	SettleAfter time.Duration

	// OnMatch is called for each recorded match, from worker goroutines.
	OnMatch func(member storage.Member, match storage.ClipMatch)

	// now is replaced in tests.
	now func() time.Time
}

// Result holds the outcome of one scan.
type Result struct {
	Members       int
	NewActivities int
	Scanned       int
	Matches       []storage.ClipMatch
	Errors        []error // non-fatal, per member
}

// Scan checks the unscanned activities of members against the videos of
// their linked channel and records the first containing video of each.
// Members are processed concurrently; a failing member does not stop the
// others.
func Scan(ctx context.Context, cfg Config, members []storage.Member) (*Result, error) {
	if cfg.DB == nil || cfg.Activities == nil || cfg.Videos == nil {
		return nil, fmt.Errorf("clip scan needs a database, an activity source and a video source")
	}
	if cfg.Log == nil {
		cfg.Log = nopLogger{}
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.History <= 0 {
		cfg.History = 25
	}
	if cfg.SettleAfter <= 0 {
		cfg.SettleAfter = 24 * time.Hour
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}

	result := &Result{}
	if len(members) == 0 {
		return result, nil
	}

	memberChan := make(chan storage.Member, len(members))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range memberChan {
				mr, err := scanMember(ctx, cfg, m)

				mu.Lock()
				result.Members++
				if err != nil {
					result.Errors = append(result.Errors, fmt.Errorf("%s: %w", m.DisplayName, err))
				}
				if mr != nil {
					result.NewActivities += mr.newActivities
					result.Scanned += mr.scanned
					result.Matches = append(result.Matches, mr.matches...)
				}
				mu.Unlock()
			}
		}()
	}

	for _, m := range members {
		memberChan <- m
	}
	close(memberChan)
	wg.Wait()

	return result, nil
}

// memberResult is an internal type returned by scanMember.
type memberResult struct {
	newActivities int
	scanned       int
	matches       []storage.ClipMatch
}

func scanMember(ctx context.Context, cfg Config, m storage.Member) (*memberResult, error) {
	log := cfg.Log
	if m.TwitchLogin == "" {
		log.Debugf("Skipping %s: no linked channel", m.DisplayName)
		return nil, nil
	}

	characterID, err := trackedCharacter(ctx, cfg, m)
	if err != nil {
		return nil, err
	}

	history, err := cfg.Activities.ActivityHistory(ctx, m.MembershipType, m.MembershipID, characterID, cfg.History)
	if err != nil {
		log.Warnf("Failed to fetch activities of %s: %v", m.DisplayName, err)
		return nil, err
	}

	res := &memberResult{}
	res.newActivities, err = cfg.DB.UpsertActivities(ctx, m.ID, toStoredActivities(history))
	if err != nil {
		return nil, err
	}

	unscanned, err := cfg.DB.ListUnscanned(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	if len(unscanned) == 0 {
		return res, nil
	}

	userID := m.TwitchUserID
	if userID == "" {
		u, err := cfg.Videos.User(ctx, m.TwitchLogin)
		if err != nil {
			log.Warnf("Failed to look up channel %s: %v", m.TwitchLogin, err)
			return res, err
		}
		userID = u.ID
		m.TwitchUserID = u.ID
		if _, err := cfg.DB.UpsertMember(ctx, m); err != nil {
			log.Warnf("Could not store channel id of %s: %v", m.DisplayName, err)
		}
	}

	tv, err := cfg.Videos.Videos(ctx, userID)
	if err != nil {
		log.Warnf("Failed to list videos of %s: %v", m.TwitchLogin, err)
		return res, err
	}
	videos := toVideos(tv)

	settled := cfg.now().Add(-cfg.SettleAfter)
	var done []int64
	for _, sa := range unscanned {
		a := Activity{
			ID:            sa.ID,
			InstanceID:    sa.InstanceID,
			ReferenceHash: sa.ReferenceHash,
			StartedAt:     sa.StartedAt,
			Duration:      sa.Duration,
		}

		v, ok := FirstMatch(videos, a)
		if !ok {
			if a.EndedAt().Before(settled) {
				done = append(done, a.ID)
			}
			continue
		}

		match := storage.ClipMatch{
			ActivityID:        a.ID,
			VideoID:           v.ID,
			VideoURL:          v.URL,
			VideoTitle:        v.Title,
			ActivityName:      activityName(cfg.Names, a.ReferenceHash),
			Offset:            Offset(v, a),
			MatchedAt:         cfg.now(),
			MemberName:        m.DisplayName,
			ActivityHash:      a.ReferenceHash,
			ActivityStartedAt: a.StartedAt,
			ActivityDuration:  a.Duration,
		}
		if err := cfg.DB.RecordClipMatch(ctx, match); err != nil {
			log.Warnf("Could not record match for activity %s: %v", a.InstanceID, err)
			continue
		}
		done = append(done, a.ID)
		res.matches = append(res.matches, match)
		log.Infof("Activity %s of %s is in video %s", a.InstanceID, m.DisplayName, v.ID)

		if cfg.OnMatch != nil {
			cfg.OnMatch(m, match)
		}
	}

	if err := cfg.DB.MarkScanned(ctx, done...); err != nil {
		return res, err
	}
	res.scanned = len(done)
	return res, nil
}

// trackedCharacter returns the stored character of m, or picks and stores
// the most recently played one.
func trackedCharacter(ctx context.Context, cfg Config, m storage.Member) (string, error) {
	if m.CharacterID != "" {
		return m.CharacterID, nil
	}

	chars, err := cfg.Activities.Characters(ctx, m.MembershipType, m.MembershipID)
	if err != nil {
		return "", err
	}
	if len(chars) == 0 {
		return "", bungie.ErrNoCharacters
	}
	active := chars[0]
	for _, ch := range chars[1:] {
		if ch.DateLastPlayed.After(active.DateLastPlayed) {
			active = ch
		}
	}

	if err := cfg.DB.SetCharacter(ctx, m.ID, active.CharacterID); err != nil {
		cfg.Log.Warnf("Could not store character of %s: %v", m.DisplayName, err)
	}
	return active.CharacterID, nil
}

// activityName returns the catalog name of an activity, or "" when it is
// unknown.
func activityName(names ActivityNamer, hash uint32) string {
	if names == nil || hash == 0 {
		return ""
	}
	if def := names.Activity(int64(hash)); def != nil {
		return def.DisplayProperties.Name
	}
	return ""
}

func toStoredActivities(records []bungie.ActivityRecord) []storage.Activity {
	out := make([]storage.Activity, 0, len(records))
	for _, r := range records {
		if r.InstanceID == "" {
			continue
		}
		out = append(out, storage.Activity{
			InstanceID:    r.InstanceID,
			ReferenceHash: uint32(r.ReferenceID),
			Mode:          r.Mode,
			StartedAt:     r.Period,
			Duration:      r.Duration,
		})
	}
	return out
}

func toVideos(tv []twitch.Video) []Video {
	out := make([]Video, 0, len(tv))
	for _, v := range tv {
		out = append(out, Video{ID: v.ID, URL: v.URL, Title: v.Title, StartedAt: v.StartedAt, Duration: v.Duration})
	}
	return out
}
