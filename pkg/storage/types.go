package storage

import (
	"time"

	"github.com/ghostwire/ghostbot/pkg/destiny"
)

// Member is a registered player, optionally linked to a streaming channel.
type Member struct {
	ID             int64
	MembershipType destiny.MembershipType
	MembershipID   string
	DisplayName    string
	CharacterID    string

	// Streaming channel
	TwitchLogin  string
	TwitchUserID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Activity is one played activity of a member.
type Activity struct {
	ID            int64
	MemberID      int64
	InstanceID    string
	ReferenceHash uint32
	Mode          int
	StartedAt     time.Time
	Duration      time.Duration
	Scanned       bool
}

// ClipMatch links an activity to the video that contains it.
type ClipMatch struct {
	ID         int64
	ActivityID int64
	VideoID    string
	VideoURL   string
	VideoTitle string
	// ActivityName is the catalog name of the activity, when known.
	ActivityName string
	// Offset is the position of the activity start within the video.
	Offset    time.Duration
	MatchedAt time.Time

	// Filled by ListClipMatches
	MemberName        string
	ActivityHash      uint32
	ActivityStartedAt time.Time
	ActivityDuration  time.Duration
}

// ListOptions controls selection when listing clip matches.
type ListOptions struct {
	MemberID int64
	Since    time.Time
	Limit    int
}
