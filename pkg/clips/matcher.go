package clips

import "time"

// Activity is a played activity window.
type Activity struct {
	ID            int64
	InstanceID    string
	ReferenceHash uint32
	StartedAt     time.Time
	Duration      time.Duration
}

func (a Activity) EndedAt() time.Time { return a.StartedAt.Add(a.Duration) }

// Video is a recorded broadcast window.
type Video struct {
	ID        string
	URL       string
	Title     string
	StartedAt time.Time
	Duration  time.Duration
}

func (v Video) EndedAt() time.Time { return v.StartedAt.Add(v.Duration) }

// Contains reports whether video covers the whole of activity. Both bounds
// are inclusive and no slack is applied. Instants are compared, so inputs in
// different locations compare correctly.
func Contains(video Video, activity Activity) bool {
	return !video.StartedAt.After(activity.StartedAt) && !video.EndedAt().Before(activity.EndedAt())
}

// FirstMatch returns the first video, in the given order, that contains
// activity.
func FirstMatch(videos []Video, activity Activity) (Video, bool) {
	for _, v := range videos {
		if Contains(v, activity) {
			return v, true
		}
	}
	return Video{}, false
}

// Offset is the position of the activity start within video.
func Offset(video Video, activity Activity) time.Duration {
	return activity.StartedAt.Sub(video.StartedAt)
}
